// internal/app/features/workspaces/routes.go
package workspaces

import "github.com/go-chi/chi/v5"

// Routes returns the authenticated /workspaces subrouter. roster and
// projects are the nested subrouters mounted under each workspace. Invite
// verify and accept are mounted separately via PublicRoutes because the
// invitee may not have an account yet.
func Routes(h *Handler, roster, projects chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{workspaceID}", h.Get)
	r.Put("/{workspaceID}", h.Update)
	r.Delete("/{workspaceID}", h.Delete)
	r.Post("/{workspaceID}/invite", h.Invite)
	r.Mount("/{workspaceID}/members", roster)
	r.Mount("/{workspaceID}/projects", projects)
	return r
}

// PublicRoutes returns the unauthenticated invite subrouter, mounted under
// /workspaces/invite.
func PublicRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/verify", h.Verify)
	r.Post("/accept", h.Accept)
	return r
}
