// internal/app/features/authn/routes.go
package authn

import "github.com/go-chi/chi/v5"

// Routes returns the unauthenticated /auth subrouter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	return r
}
