// internal/app/features/comments/routes.go
package comments

import "github.com/go-chi/chi/v5"

// Routes returns the /comments subrouter for edits and moderation.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Patch("/{commentID}", h.Update)
	r.Delete("/{commentID}", h.Delete)
	return r
}

// TaskRoutes returns the subrouter mounted under /tasks/{taskID}/comments.
func TaskRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListByTask)
	r.Post("/", h.Create)
	return r
}
