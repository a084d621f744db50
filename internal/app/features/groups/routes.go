// internal/app/features/groups/routes.go
package groups

import "github.com/go-chi/chi/v5"

// Routes returns the /groups subrouter. tasks is the nested task subrouter
// mounted under each group.
func Routes(h *Handler, tasks chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Get("/{groupID}", h.Get)
	r.Put("/{groupID}", h.Update)
	r.Delete("/{groupID}", h.Delete)
	r.Mount("/{groupID}/tasks", tasks)
	return r
}

// ProjectRoutes returns the subrouter mounted under
// /projects/{projectID}/groups.
func ProjectRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListByProject)
	r.Post("/", h.Create)
	return r
}
