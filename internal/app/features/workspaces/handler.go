// internal/app/features/workspaces/handler.go
package workspaces

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	userstore "github.com/wirastama/manpro/internal/app/store/users"
	workspacestore "github.com/wirastama/manpro/internal/app/store/workspaces"
	"github.com/wirastama/manpro/internal/app/policy/workspacepolicy"
	"github.com/wirastama/manpro/internal/app/system/access"
	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/auth"
	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/app/system/identity"
	"github.com/wirastama/manpro/internal/app/system/invite"
	"github.com/wirastama/manpro/internal/app/system/mailer"
	"github.com/wirastama/manpro/internal/app/system/membership"
	"github.com/wirastama/manpro/internal/app/system/normalize"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Handler serves workspace CRUD and the invitation lifecycle.
type Handler struct {
	store    *workspacestore.Store
	users    *userstore.Store
	guard    *workspacepolicy.Guard
	members  *membership.Mutator
	identity *identity.Resolver
	mail     *mailer.Mailer
	baseURL  string
	log      *zap.Logger
}

func NewHandler(
	store *workspacestore.Store,
	users *userstore.Store,
	guard *workspacepolicy.Guard,
	members *membership.Mutator,
	idresolver *identity.Resolver,
	mail *mailer.Mailer,
	baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		store:    store,
		users:    users,
		guard:    guard,
		members:  members,
		identity: idresolver,
		mail:     mail,
		baseURL:  baseURL,
		log:      logger,
	}
}

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("workspace")
	}
	return id, nil
}

// List handles GET /workspaces.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	out, err := h.store.ListForUser(r.Context(), user.ID)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", out)
}

// Create handles POST /workspaces.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil || normalize.Name(req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama workspace wajib diisi")
		return
	}

	user, _ := auth.CurrentUser(r)
	ws, err := h.store.Create(r.Context(), req.Name, user.ID)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("workspace created",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("owner_id", user.ID.Hex()))
	httpjson.Respond(w, http.StatusCreated, "workspace dibuat", ws)
}

// Get handles GET /workspaces/{workspaceID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "workspaceID")
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	chain, _, err := h.guard.Workspace(r.Context(), r, id, access.ReaderRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", chain.Workspace)
}

// Update handles PATCH /workspaces/{workspaceID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "workspaceID")
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil || normalize.Name(req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama workspace wajib diisi")
		return
	}

	if _, _, err := h.guard.Workspace(r.Context(), r, id, access.ManagementRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.UpdateName(r.Context(), id, req.Name); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "workspace diperbarui", nil)
}

// Delete handles DELETE /workspaces/{workspaceID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "workspaceID")
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if _, _, err := h.guard.Workspace(r.Context(), r, id, models.RoleAdmin); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("workspace deleted", zap.String("workspace_id", id.Hex()))
	httpjson.Respond(w, http.StatusOK, "workspace dihapus", nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Invitations                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// Invite handles POST /workspaces/{workspaceID}/invite.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "workspaceID")
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	var req inviteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "body tidak valid")
		return
	}
	email := normalize.Email(req.Email)
	role := normalize.Role(req.Role)
	if role == "" {
		role = models.RoleMember
	}
	if email == "" {
		httpjson.Fail(w, http.StatusBadRequest, "email wajib diisi")
		return
	}
	if !models.IsValidWorkspaceRole(role) {
		httpjson.Fail(w, http.StatusBadRequest, "role tidak valid")
		return
	}

	chain, principal, err := h.guard.Workspace(r.Context(), r, id, access.ManagementRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	ws := chain.Workspace

	// Inviting someone who already belongs here is a caller mistake on this
	// path; the accept path treats the same state as success. An existing
	// account that is not yet a member skips the token dance entirely and is
	// added on the spot.
	if existing, err := h.users.GetByEmail(r.Context(), email); err == nil {
		if ws.OwnerID == existing.ID || ws.HasMember(existing.ID) {
			httpjson.Error(w, h.log, apperr.ErrAlreadyMember)
			return
		}
		if _, err := h.members.AddMember(r.Context(), ws.ID, existing.ID, role); err != nil {
			httpjson.Error(w, h.log, err)
			return
		}
		h.log.Info("registered user added directly",
			zap.String("workspace_id", ws.ID.Hex()),
			zap.String("user_id", existing.ID.Hex()),
			zap.String("role", role))
		httpjson.Respond(w, http.StatusOK, "anggota ditambahkan", memberSummary{
			UserID:   existing.ID,
			Username: existing.Username,
			Email:    existing.Email,
			Role:     role,
		})
		return
	} else if !apperr.IsNotFound(err) {
		httpjson.Error(w, h.log, err)
		return
	}

	token := invite.GenerateToken()
	inv := invite.New(email, token, invite.Options{Role: role, InvitedBy: &principal.UserID})
	if err := h.store.PushInvite(r.Context(), ws.ID, inv); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	inviter, _ := auth.CurrentUser(r)
	email2 := mailer.BuildWorkspaceInvite(email, mailer.WorkspaceInviteData{
		WorkspaceName: ws.Name,
		InviterName:   inviter.Username,
		Role:          role,
		AcceptLink:    h.acceptLink(token),
		ExpiresIn:     "7 hari",
	})
	go func() {
		if err := h.mail.Send(email2); err != nil {
			h.log.Warn("invite email delivery failed", zap.String("to", email2.To), zap.Error(err))
		}
	}()

	h.log.Info("workspace invite created",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("role", role))
	httpjson.Respond(w, http.StatusOK, "undangan terkirim", inviteResponse{
		Email:     inv.Email,
		Role:      inv.Role,
		ExpiresAt: inv.ExpiresAt,
	})
}

func (h *Handler) acceptLink(token string) string {
	return fmt.Sprintf("%s/workspaces/invite/accept?token=%s", h.baseURL, url.QueryEscape(token))
}

// Verify handles GET /workspaces/invite/verify?token=. Unauthenticated: the
// invitee may not have an account yet.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	ws, err := h.store.GetByInviteToken(r.Context(), token)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	// Read-only preview: an expired token reports expired but is left in
	// place. Only the accept path prunes.
	v := invite.Validate(ws.PendingInvites, token)
	if v.Expired {
		httpjson.Error(w, h.log, apperr.ErrExpiredToken)
		return
	}
	if !v.Valid {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	needsReg := false
	if _, err := h.users.GetByEmail(r.Context(), v.Invite.Email); apperr.IsNotFound(err) {
		needsReg = true
	} else if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	httpjson.Respond(w, http.StatusOK, "token valid", verifyResponse{
		WorkspaceName:     ws.Name,
		Email:             v.Invite.Email,
		Role:              v.Invite.Role,
		ExpiresAt:         v.Invite.ExpiresAt,
		NeedsRegistration: needsReg,
	})
}

// Accept handles POST /workspaces/invite/accept?token=. Unauthenticated; the
// token is the credential. Membership is granted before the invite is
// consumed, so a crash between the two steps leaves a stale invite (harmless,
// retry converges) rather than a consumed invite with no membership.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	ws, err := h.store.GetByInviteToken(r.Context(), token)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	v := invite.Validate(ws.PendingInvites, token)
	if v.Expired {
		// Lazy expiry cleanup: the stale record is dropped the moment it is
		// presented, never by a background sweeper.
		if _, err := h.store.PullInvite(r.Context(), ws.ID, token); err != nil {
			h.log.Warn("pruning expired invite failed", zap.Error(err))
		}
		httpjson.Error(w, h.log, apperr.ErrExpiredToken)
		return
	}
	if !v.Valid {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	var reg *identity.Registration
	var req acceptRequest
	if err := httpjson.Decode(r, &req); err == nil && req.Username != "" {
		reg = &identity.Registration{
			Username:   req.Username,
			Password:   req.Password,
			Phone:      req.Phone,
			Position:   req.Position,
			Department: req.Department,
			Division:   req.Division,
		}
	}

	user, created, err := h.identity.Resolve(r.Context(), v.Invite.Email, reg)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	role := v.Invite.Role
	if role == "" {
		role = models.RoleMember
	}
	added, err := h.members.AddMember(r.Context(), ws.ID, user.ID, role)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	if _, err := h.store.PullInvite(r.Context(), ws.ID, token); err != nil {
		// Membership is already granted; a stale invite is recoverable.
		h.log.Warn("consuming invite failed after membership grant", zap.Error(err))
	}

	msg := "undangan diterima"
	if !added {
		msg = "user sudah menjadi anggota workspace"
	}
	h.log.Info("workspace invite accepted",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("user_id", user.ID.Hex()),
		zap.Bool("account_created", created))
	httpjson.Respond(w, http.StatusOK, msg, acceptResponse{
		Workspace: ws.Name,
		Member: memberSummary{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     role,
		},
	})
}
