// internal/app/features/tasks/handler.go
package tasks

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	taskstore "github.com/wirastama/manpro/internal/app/store/tasks"
	userstore "github.com/wirastama/manpro/internal/app/store/users"
	"github.com/wirastama/manpro/internal/app/policy/workspacepolicy"
	"github.com/wirastama/manpro/internal/app/system/access"
	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/auth"
	"github.com/wirastama/manpro/internal/app/system/hierarchy"
	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/app/system/identity"
	"github.com/wirastama/manpro/internal/app/system/invite"
	"github.com/wirastama/manpro/internal/app/system/mailer"
	"github.com/wirastama/manpro/internal/app/system/membership"
	"github.com/wirastama/manpro/internal/app/system/normalize"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Handler serves task CRUD, PIC assignment and the PIC invite lifecycle.
type Handler struct {
	store    *taskstore.Store
	users    *userstore.Store
	guard    *workspacepolicy.Guard
	resolver *hierarchy.Resolver
	members  *membership.Mutator
	identity *identity.Resolver
	mail     *mailer.Mailer
	baseURL  string
	log      *zap.Logger
}

func NewHandler(
	store *taskstore.Store,
	users *userstore.Store,
	guard *workspacepolicy.Guard,
	resolver *hierarchy.Resolver,
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
		resolver: resolver,
		members:  members,
		identity: idresolver,
		mail:     mail,
		baseURL:  baseURL,
		log:      logger,
	}
}

func taskID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("task")
	}
	return id, nil
}

// ListByGroup handles GET /groups/{groupID}/tasks.
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("group"))
		return
	}
	if _, _, err := h.guard.Group(r.Context(), r, groupID, access.ReaderRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	out, err := h.store.ListByGroup(r.Context(), groupID)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", out)
}

// Create handles POST /groups/{groupID}/tasks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("group"))
		return
	}
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil || normalize.Name(req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama task wajib diisi")
		return
	}
	if _, _, err := h.guard.Group(r.Context(), r, groupID, access.ContributorRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	t, err := h.store.Create(r.Context(), models.Task{
		Name:        normalize.Name(req.Name),
		Description: req.Description,
		GroupID:     groupID,
	})
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("task created",
		zap.String("task_id", t.ID.Hex()),
		zap.String("group_id", groupID.Hex()))
	httpjson.Respond(w, http.StatusCreated, "task dibuat", t)
}

// Get handles GET /tasks/{taskID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	chain, _, err := h.guard.Task(r.Context(), r, id, access.ReaderRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", chain.Task)
}

// Update handles PUT /tasks/{taskID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil || normalize.Name(req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama task wajib diisi")
		return
	}
	chain, _, err := h.guard.Task(r.Context(), r, id, access.ContributorRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.Update(r.Context(), id, normalize.Name(req.Name), req.Description); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	if req.GroupID != nil && *req.GroupID != chain.Task.GroupID {
		dest, _, err := h.guard.Group(r.Context(), r, *req.GroupID, access.ContributorRoles...)
		if err != nil {
			httpjson.Error(w, h.log, err)
			return
		}
		if dest.Workspace.ID != chain.Workspace.ID {
			httpjson.Fail(w, http.StatusBadRequest, "grup tujuan berada di workspace lain")
			return
		}
		if err := h.store.Move(r.Context(), id, chain.Task.GroupID, *req.GroupID); err != nil {
			httpjson.Error(w, h.log, err)
			return
		}
		h.log.Info("task moved",
			zap.String("task_id", id.Hex()),
			zap.String("from_group", chain.Task.GroupID.Hex()),
			zap.String("to_group", req.GroupID.Hex()))
	}
	httpjson.Respond(w, http.StatusOK, "task diperbarui", nil)
}

// Delete handles DELETE /tasks/{taskID}. Cascades subtasks and comments.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	chain, _, err := h.guard.Task(r.Context(), r, id, access.ContributorRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.Delete(r.Context(), chain.Task); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("task deleted", zap.String("task_id", id.Hex()))
	httpjson.Respond(w, http.StatusOK, "task dihapus", nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PIC assignment                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// InvitePIC handles POST /tasks/{taskID}/pic-invite. A registered email is
// assigned immediately (membership granted first if needed); an unknown
// email gets a pending invite and a best-effort email.
func (h *Handler) InvitePIC(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	var req picInviteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "body tidak valid")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" {
		httpjson.Fail(w, http.StatusBadRequest, "email wajib diisi")
		return
	}

	chain, principal, err := h.guard.Task(r.Context(), r, id, access.ManagementRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	if existing, err := h.users.GetByEmail(r.Context(), email); err == nil {
		if _, err := h.members.AddMember(r.Context(), chain.Workspace.ID, existing.ID, models.RoleMember); err != nil {
			httpjson.Error(w, h.log, err)
			return
		}
		if err := h.store.AddPIC(r.Context(), id, existing.ID); err != nil {
			httpjson.Error(w, h.log, err)
			return
		}
		h.log.Info("task pic assigned directly",
			zap.String("task_id", id.Hex()),
			zap.String("user_id", existing.ID.Hex()))
		httpjson.Respond(w, http.StatusOK, "PIC ditambahkan", nil)
		return
	} else if !apperr.IsNotFound(err) {
		httpjson.Error(w, h.log, err)
		return
	}

	token := invite.GenerateToken()
	inv := invite.New(email, token, invite.Options{InvitedBy: &principal.UserID})
	if err := h.store.PushPicInvite(r.Context(), id, inv); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	inviter, _ := auth.CurrentUser(r)
	msg := mailer.BuildPicInvite(email, mailer.PicInviteData{
		EntityKind:  "task",
		EntityName:  chain.Task.Name,
		InviterName: inviter.Username,
		AcceptLink:  h.acceptLink(id, token),
		ExpiresIn:   "7 hari",
	})
	go func() {
		if err := h.mail.Send(msg); err != nil {
			h.log.Warn("pic invite email delivery failed", zap.String("to", msg.To), zap.Error(err))
		}
	}()

	h.log.Info("task pic invite created", zap.String("task_id", id.Hex()))
	httpjson.Respond(w, http.StatusOK, "undangan PIC terkirim", picInviteResponse{
		Email:     inv.Email,
		ExpiresAt: inv.ExpiresAt,
	})
}

func (h *Handler) acceptLink(id primitive.ObjectID, token string) string {
	return fmt.Sprintf("%s/tasks/%s/accept-pic-invite?token=%s", h.baseURL, id.Hex(), url.QueryEscape(token))
}

// RemovePIC handles DELETE /tasks/{taskID}/pic.
func (h *Handler) RemovePIC(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	var req removePicRequest
	if err := httpjson.Decode(r, &req); err != nil || req.UserID.IsZero() {
		httpjson.Fail(w, http.StatusBadRequest, "userId wajib diisi")
		return
	}
	if _, _, err := h.guard.Task(r.Context(), r, id, access.ContributorRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.RemovePIC(r.Context(), id, req.UserID); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "PIC dihapus", nil)
}

// RemoveAllPICs handles DELETE /tasks/{taskID}/pic/all.
func (h *Handler) RemoveAllPICs(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if _, _, err := h.guard.Task(r.Context(), r, id, access.ContributorRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.RemoveAllPICs(r.Context(), id); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "semua PIC dihapus", nil)
}

// VerifyPicInvite handles GET /tasks/{taskID}/verify-invite?token=.
// Unauthenticated read-only preview; consumes nothing.
func (h *Handler) VerifyPicInvite(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	token := r.URL.Query().Get("token")

	t, err := h.store.GetByPicInviteToken(r.Context(), token)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if t.ID != id {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	v := invite.Validate(t.PendingPicInvites, token)
	if v.Expired {
		httpjson.Error(w, h.log, apperr.ErrExpiredToken)
		return
	}
	if !v.Valid {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	chain, err := h.resolver.FromTask(r.Context(), t.ID)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	needsReg := false
	if _, err := h.users.GetByEmail(r.Context(), v.Invite.Email); apperr.IsNotFound(err) {
		needsReg = true
	} else if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	httpjson.Respond(w, http.StatusOK, "token valid", picVerifyResponse{
		Task:              t.Name,
		Workspace:         chain.Workspace.Name,
		Email:             v.Invite.Email,
		ExpiresAt:         v.Invite.ExpiresAt,
		NeedsRegistration: needsReg,
	})
}

// AcceptPicInvite handles POST /tasks/{taskID}/accept-pic-invite?token=.
// Unauthenticated; the token is the credential. Becoming PIC implies
// workspace membership, granted with the default role before the PIC
// assignment, before the invite is consumed. A crash mid-flow leaves a
// stale invite, never an orphaned assignment.
func (h *Handler) AcceptPicInvite(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	token := r.URL.Query().Get("token")

	t, err := h.store.GetByPicInviteToken(r.Context(), token)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if t.ID != id {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	v := invite.Validate(t.PendingPicInvites, token)
	if v.Expired {
		if _, err := h.store.PullPicInvite(r.Context(), t.ID, token); err != nil {
			h.log.Warn("pruning expired pic invite failed", zap.Error(err))
		}
		httpjson.Error(w, h.log, apperr.ErrExpiredToken)
		return
	}
	if !v.Valid {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	chain, err := h.resolver.FromTask(r.Context(), t.ID)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	var reg *identity.Registration
	var req picAcceptRequest
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

	if _, err := h.members.AddMember(r.Context(), chain.Workspace.ID, user.ID, models.RoleMember); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.AddPIC(r.Context(), t.ID, user.ID); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if _, err := h.store.PullPicInvite(r.Context(), t.ID, token); err != nil {
		h.log.Warn("consuming pic invite failed after assignment", zap.Error(err))
	}

	h.log.Info("task pic invite accepted",
		zap.String("task_id", t.ID.Hex()),
		zap.String("user_id", user.ID.Hex()),
		zap.Bool("account_created", created))
	httpjson.Respond(w, http.StatusOK, "undangan PIC diterima", map[string]any{
		"task":      t.Name,
		"workspace": chain.Workspace.Name,
	})
}
