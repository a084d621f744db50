// internal/app/features/authn/handler.go
package authn

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	userstore "github.com/wirastama/manpro/internal/app/store/users"
	"github.com/wirastama/manpro/internal/app/system/auth"
	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/app/system/identity"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Handler serves registration and login.
type Handler struct {
	users  *userstore.Store
	tokens *auth.Manager
	log    *zap.Logger
}

func NewHandler(users *userstore.Store, tokens *auth.Manager, logger *zap.Logger) *Handler {
	return &Handler{users: users, tokens: tokens, log: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "body tidak valid")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Phone == "" || req.Position == "" {
		httpjson.Fail(w, http.StatusBadRequest,
			"username, email, password, noHp, dan posisi wajib diisi")
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	user, err := h.users.Create(r.Context(), models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Position:     req.Position,
		Department:   req.Department,
		Division:     req.Division,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Fail(w, http.StatusBadRequest, "email sudah terdaftar")
			return
		}
		httpjson.Error(w, h.log, err)
		return
	}

	token, err := h.tokens.IssueToken(user.ID.Hex())
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	h.log.Info("user registered", zap.String("user_id", user.ID.Hex()))
	httpjson.Respond(w, http.StatusCreated, "registrasi berhasil", authResponse{Token: token, User: user})
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "body tidak valid")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpjson.Fail(w, http.StatusBadRequest, "email dan password wajib diisi")
		return
	}

	// Same response for unknown email and wrong password; do not leak which.
	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil || !identity.CheckPassword(user.PasswordHash, req.Password) {
		httpjson.Fail(w, http.StatusUnauthorized, "email atau password salah")
		return
	}

	token, err := h.tokens.IssueToken(user.ID.Hex())
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	httpjson.Respond(w, http.StatusOK, "login berhasil", authResponse{Token: token, User: *user})
}
