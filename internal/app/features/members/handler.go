// internal/app/features/members/handler.go
package members

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	userstore "github.com/wirastama/manpro/internal/app/store/users"
	"github.com/wirastama/manpro/internal/app/policy/workspacepolicy"
	"github.com/wirastama/manpro/internal/app/system/access"
	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/app/system/membership"
	"github.com/wirastama/manpro/internal/app/system/normalize"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Handler serves the workspace roster: list, role changes, removal.
// All writes go through the membership mutator.
type Handler struct {
	users   *userstore.Store
	guard   *workspacepolicy.Guard
	members *membership.Mutator
	log     *zap.Logger
}

func NewHandler(users *userstore.Store, guard *workspacepolicy.Guard, members *membership.Mutator, logger *zap.Logger) *Handler {
	return &Handler{users: users, guard: guard, members: members, log: logger}
}

func pathIDs(r *http.Request) (wsID, userID primitive.ObjectID, err error) {
	wsID, err = primitive.ObjectIDFromHex(chi.URLParam(r, "workspaceID"))
	if err != nil {
		return wsID, userID, apperr.NotFound("workspace")
	}
	userID, err = primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		return wsID, userID, apperr.NotFound("user")
	}
	return wsID, userID, nil
}

// List handles GET /workspaces/{workspaceID}/members.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	wsID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "workspaceID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("workspace"))
		return
	}
	chain, _, err := h.guard.Workspace(r.Context(), r, wsID, access.ReaderRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	ws := chain.Workspace

	ids := make([]primitive.ObjectID, 0, len(ws.Members)+1)
	ids = append(ids, ws.OwnerID)
	roleByID := make(map[primitive.ObjectID]string, len(ws.Members))
	for _, m := range ws.Members {
		ids = append(ids, m.UserID)
		roleByID[m.UserID] = m.Role
	}

	users, err := h.users.GetByIDs(r.Context(), ids)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	out := make([]memberView, 0, len(users))
	for _, u := range users {
		v := memberView{
			UserID:   u.ID,
			Username: u.Username,
			Email:    u.Email,
			Position: u.Position,
		}
		if u.ID == ws.OwnerID {
			v.Role = models.RoleAdmin
			v.IsOwner = true
		} else {
			v.Role = roleByID[u.ID]
		}
		out = append(out, v)
	}
	httpjson.Respond(w, http.StatusOK, "", out)
}

// UpdateRole handles PATCH /workspaces/{workspaceID}/members/{userID}.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	wsID, userID, err := pathIDs(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	var req updateRoleRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "body tidak valid")
		return
	}
	role := normalize.Role(req.Role)
	if !models.IsValidWorkspaceRole(role) {
		httpjson.Fail(w, http.StatusBadRequest, "role tidak valid")
		return
	}

	if _, _, err := h.guard.Workspace(r.Context(), r, wsID, models.RoleAdmin); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.members.UpdateRole(r.Context(), wsID, userID, role); err != nil {
		if errors.Is(err, membership.ErrOwner) {
			httpjson.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		// ErrNotAMember describes the caller's standing elsewhere; here
		// it means the target is not on the roster.
		if errors.Is(err, apperr.ErrNotAMember) {
			httpjson.Error(w, h.log, apperr.NotFound("anggota"))
			return
		}
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("member role updated",
		zap.String("workspace_id", wsID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("role", role))
	httpjson.Respond(w, http.StatusOK, "role anggota diperbarui", nil)
}

// Remove handles DELETE /workspaces/{workspaceID}/members/{userID}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	wsID, userID, err := pathIDs(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if _, _, err := h.guard.Workspace(r.Context(), r, wsID, models.RoleAdmin); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.members.RemoveMember(r.Context(), wsID, userID); err != nil {
		if errors.Is(err, membership.ErrOwner) {
			httpjson.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, apperr.ErrNotAMember) {
			httpjson.Error(w, h.log, apperr.NotFound("anggota"))
			return
		}
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("member removed",
		zap.String("workspace_id", wsID.Hex()),
		zap.String("user_id", userID.Hex()))
	httpjson.Respond(w, http.StatusOK, "anggota dikeluarkan", nil)
}
