// internal/app/features/subtasks/handler.go
package subtasks

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	subtaskstore "github.com/wirastama/manpro/internal/app/store/subtasks"
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

// Handler serves subtask CRUD, board ordering, PIC assignment and the PIC
// invite lifecycle. The invite flow mirrors the task flavor one level down.
type Handler struct {
	store    *subtaskstore.Store
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
	store *subtaskstore.Store,
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

func subtaskID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "subtaskID"))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("subtask")
	}
	return id, nil
}

// ListByTask handles GET /tasks/{taskID}/subtasks, ordered by position.
func (h *Handler) ListByTask(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("task"))
		return
	}
	if _, _, err := h.guard.Task(r.Context(), r, tID, access.ReaderRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	out, err := h.store.ListByTask(r.Context(), tID)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", out)
}

// Create handles POST /tasks/{taskID}/subtasks. Position is assigned at the
// end of the board.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("task"))
		return
	}
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil || normalize.Name(req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama subtask wajib diisi")
		return
	}
	if _, _, err := h.guard.Task(r.Context(), r, tID, access.ContributorRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	st, err := h.store.Create(r.Context(), models.Subtask{
		Name:        normalize.Name(req.Name),
		Description: req.Description,
		TaskID:      tID,
		Status:      req.Status,
		Priority:    req.Priority,
		Note:        req.Note,
		MeetingDate: req.MeetingDate,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	})
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("subtask created",
		zap.String("subtask_id", st.ID.Hex()),
		zap.String("task_id", tID.Hex()))
	httpjson.Respond(w, http.StatusCreated, "subtask dibuat", st)
}

// Get handles GET /subtasks/{subtaskID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := subtaskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	chain, _, err := h.guard.Subtask(r.Context(), r, id, access.ReaderRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", chain.Subtask)
}

// Update handles PUT /subtasks/{subtaskID} as a sparse patch.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := subtaskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "body tidak valid")
		return
	}
	if req.Name != nil && normalize.Name(*req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama subtask tidak boleh kosong")
		return
	}
	chain, _, err := h.guard.Subtask(r.Context(), r, id, access.ContributorRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	err = h.store.Update(r.Context(), id, subtaskstore.FieldUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Note:        req.Note,
		MeetingDate: req.MeetingDate,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		FinishDate:  req.FinishDate,
	})
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	if req.TaskID != nil && *req.TaskID != chain.Subtask.TaskID {
		dest, _, err := h.guard.Task(r.Context(), r, *req.TaskID, access.ContributorRoles...)
		if err != nil {
			httpjson.Error(w, h.log, err)
			return
		}
		if dest.Workspace.ID != chain.Workspace.ID {
			httpjson.Fail(w, http.StatusBadRequest, "task tujuan berada di workspace lain")
			return
		}
		if err := h.store.Move(r.Context(), id, chain.Subtask.TaskID, *req.TaskID); err != nil {
			httpjson.Error(w, h.log, err)
			return
		}
		h.log.Info("subtask moved",
			zap.String("subtask_id", id.Hex()),
			zap.String("from_task", chain.Subtask.TaskID.Hex()),
			zap.String("to_task", req.TaskID.Hex()))
	}
	httpjson.Respond(w, http.StatusOK, "subtask diperbarui", nil)
}

// Reorder handles PATCH /tasks/{taskID}/subtasks/positions. The body lists
// subtask ids in their new board order.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("task"))
		return
	}
	var req reorderRequest
	if err := httpjson.Decode(r, &req); err != nil || len(req.Order) == 0 {
		httpjson.Fail(w, http.StatusBadRequest, "urutan subtask wajib diisi")
		return
	}
	if _, _, err := h.guard.Task(r.Context(), r, tID, access.ContributorRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.Reorder(r.Context(), tID, req.Order); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "urutan subtask diperbarui", nil)
}

// Delete handles DELETE /subtasks/{subtaskID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := subtaskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	chain, _, err := h.guard.Subtask(r.Context(), r, id, access.ContributorRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.Delete(r.Context(), chain.Subtask); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("subtask deleted", zap.String("subtask_id", id.Hex()))
	httpjson.Respond(w, http.StatusOK, "subtask dihapus", nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PIC assignment                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// InvitePIC handles POST /subtasks/{subtaskID}/pic-invite.
func (h *Handler) InvitePIC(w http.ResponseWriter, r *http.Request) {
	id, err := subtaskID(r)
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

	chain, principal, err := h.guard.Subtask(r.Context(), r, id, access.ManagementRoles...)
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
		h.log.Info("subtask pic assigned directly",
			zap.String("subtask_id", id.Hex()),
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
		EntityKind:  "subtask",
		EntityName:  chain.Subtask.Name,
		InviterName: inviter.Username,
		AcceptLink:  h.acceptLink(id, token),
		ExpiresIn:   "7 hari",
	})
	go func() {
		if err := h.mail.Send(msg); err != nil {
			h.log.Warn("pic invite email delivery failed", zap.String("to", msg.To), zap.Error(err))
		}
	}()

	h.log.Info("subtask pic invite created", zap.String("subtask_id", id.Hex()))
	httpjson.Respond(w, http.StatusOK, "undangan PIC terkirim", picInviteResponse{
		Email:     inv.Email,
		ExpiresAt: inv.ExpiresAt,
	})
}

func (h *Handler) acceptLink(id primitive.ObjectID, token string) string {
	return fmt.Sprintf("%s/subtasks/%s/accept-pic-invite?token=%s", h.baseURL, id.Hex(), url.QueryEscape(token))
}

// RemovePIC handles DELETE /subtasks/{subtaskID}/pic.
func (h *Handler) RemovePIC(w http.ResponseWriter, r *http.Request) {
	id, err := subtaskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	var req removePicRequest
	if err := httpjson.Decode(r, &req); err != nil || req.UserID.IsZero() {
		httpjson.Fail(w, http.StatusBadRequest, "userId wajib diisi")
		return
	}
	if _, _, err := h.guard.Subtask(r.Context(), r, id, access.ContributorRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.RemovePIC(r.Context(), id, req.UserID); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "PIC dihapus", nil)
}

// VerifyPicInvite handles GET /subtasks/{subtaskID}/verify-invite?token=.
// Unauthenticated read-only preview; consumes nothing.
func (h *Handler) VerifyPicInvite(w http.ResponseWriter, r *http.Request) {
	id, err := subtaskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	token := r.URL.Query().Get("token")

	st, err := h.store.GetByPicInviteToken(r.Context(), token)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if st.ID != id {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	v := invite.Validate(st.PendingPicInvites, token)
	if v.Expired {
		httpjson.Error(w, h.log, apperr.ErrExpiredToken)
		return
	}
	if !v.Valid {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	chain, err := h.resolver.FromSubtask(r.Context(), st.ID)
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
		Subtask:           st.Name,
		Workspace:         chain.Workspace.Name,
		Email:             v.Invite.Email,
		ExpiresAt:         v.Invite.ExpiresAt,
		NeedsRegistration: needsReg,
	})
}

// AcceptPicInvite handles POST /subtasks/{subtaskID}/accept-pic-invite?token=.
// Same ordering contract as the task flavor: membership, then assignment,
// then consume the token.
func (h *Handler) AcceptPicInvite(w http.ResponseWriter, r *http.Request) {
	id, err := subtaskID(r)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	token := r.URL.Query().Get("token")

	st, err := h.store.GetByPicInviteToken(r.Context(), token)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if st.ID != id {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	v := invite.Validate(st.PendingPicInvites, token)
	if v.Expired {
		if _, err := h.store.PullPicInvite(r.Context(), st.ID, token); err != nil {
			h.log.Warn("pruning expired pic invite failed", zap.Error(err))
		}
		httpjson.Error(w, h.log, apperr.ErrExpiredToken)
		return
	}
	if !v.Valid {
		httpjson.Error(w, h.log, apperr.ErrInvalidToken)
		return
	}

	chain, err := h.resolver.FromSubtask(r.Context(), st.ID)
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
	if err := h.store.AddPIC(r.Context(), st.ID, user.ID); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if _, err := h.store.PullPicInvite(r.Context(), st.ID, token); err != nil {
		h.log.Warn("consuming pic invite failed after assignment", zap.Error(err))
	}

	h.log.Info("subtask pic invite accepted",
		zap.String("subtask_id", st.ID.Hex()),
		zap.String("user_id", user.ID.Hex()),
		zap.Bool("account_created", created))
	httpjson.Respond(w, http.StatusOK, "undangan PIC diterima", map[string]any{
		"subtask":   st.Name,
		"workspace": chain.Workspace.Name,
	})
}
