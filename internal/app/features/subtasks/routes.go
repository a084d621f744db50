// internal/app/features/subtasks/routes.go
package subtasks

import "github.com/go-chi/chi/v5"

// Routes returns the authenticated /subtasks subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{subtaskID}", h.Get)
	r.Put("/{subtaskID}", h.Update)
	r.Delete("/{subtaskID}", h.Delete)
	r.Post("/{subtaskID}/pic-invite", h.InvitePIC)
	r.Delete("/{subtaskID}/pic", h.RemovePIC)
	return r
}

// TaskRoutes returns the subrouter mounted under /tasks/{taskID}/subtasks.
func TaskRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListByTask)
	r.Post("/", h.Create)
	r.Patch("/positions", h.Reorder)
	return r
}

// PublicRoutes registers the unauthenticated PIC invite endpoints on the
// root router.
func PublicRoutes(r chi.Router, h *Handler) {
	r.Get("/subtasks/{subtaskID}/verify-invite", h.VerifyPicInvite)
	r.Post("/subtasks/{subtaskID}/accept-pic-invite", h.AcceptPicInvite)
}
