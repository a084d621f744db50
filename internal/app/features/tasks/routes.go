// internal/app/features/tasks/routes.go
package tasks

import "github.com/go-chi/chi/v5"

// Routes returns the authenticated /tasks subrouter. subtasks and comments
// are the nested subrouters mounted under each task. The PIC verify and
// accept endpoints are registered separately via PublicRoutes because the
// invitee may not have an account yet.
func Routes(h *Handler, subtasks, comments chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Get("/{taskID}", h.Get)
	r.Put("/{taskID}", h.Update)
	r.Delete("/{taskID}", h.Delete)
	r.Post("/{taskID}/pic-invite", h.InvitePIC)
	r.Delete("/{taskID}/pic", h.RemovePIC)
	r.Delete("/{taskID}/pic/all", h.RemoveAllPICs)
	r.Mount("/{taskID}/subtasks", subtasks)
	r.Mount("/{taskID}/comments", comments)
	return r
}

// GroupRoutes returns the subrouter mounted under /groups/{groupID}/tasks.
func GroupRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListByGroup)
	r.Post("/", h.Create)
	return r
}

// PublicRoutes registers the unauthenticated PIC invite endpoints on the
// root router; the invite token is the credential.
func PublicRoutes(r chi.Router, h *Handler) {
	r.Get("/tasks/{taskID}/verify-invite", h.VerifyPicInvite)
	r.Post("/tasks/{taskID}/accept-pic-invite", h.AcceptPicInvite)
}
