// internal/app/features/members/routes.go
package members

import "github.com/go-chi/chi/v5"

// Routes returns the roster subrouter, mounted under
// /workspaces/{workspaceID}/members.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Patch("/{userID}", h.UpdateRole)
	r.Delete("/{userID}", h.Remove)
	return r
}
