// internal/app/features/projects/routes.go
package projects

import "github.com/go-chi/chi/v5"

// Routes returns the /projects subrouter. groups is the nested group
// subrouter mounted under each project.
func Routes(h *Handler, groups chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Get("/{projectID}", h.Get)
	r.Put("/{projectID}", h.Update)
	r.Delete("/{projectID}", h.Delete)
	r.Mount("/{projectID}/groups", groups)
	return r
}

// WorkspaceRoutes returns the subrouter mounted under
// /workspaces/{workspaceID}/projects.
func WorkspaceRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListByWorkspace)
	r.Post("/", h.Create)
	return r
}
