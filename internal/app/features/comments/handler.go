// internal/app/features/comments/handler.go
package comments

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	commentstore "github.com/wirastama/manpro/internal/app/store/comments"
	"github.com/wirastama/manpro/internal/app/policy/workspacepolicy"
	"github.com/wirastama/manpro/internal/app/system/access"
	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/auth"
	"github.com/wirastama/manpro/internal/app/system/htmlsanitize"
	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Handler serves task discussion threads. Bodies are sanitized on every
// write; edits are author-only, deletion is author or workspace management.
type Handler struct {
	store *commentstore.Store
	guard *workspacepolicy.Guard
	log   *zap.Logger
}

func NewHandler(store *commentstore.Store, guard *workspacepolicy.Guard, logger *zap.Logger) *Handler {
	return &Handler{store: store, guard: guard, log: logger}
}

// ListByTask handles GET /tasks/{taskID}/comments, oldest first.
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

// Create handles POST /tasks/{taskID}/comments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("task"))
		return
	}
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "body tidak valid")
		return
	}
	body := strings.TrimSpace(htmlsanitize.Sanitize(req.Body))
	if body == "" {
		httpjson.Fail(w, http.StatusBadRequest, "isi komentar wajib diisi")
		return
	}
	if _, _, err := h.guard.Task(r.Context(), r, tID, access.ContributorRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	user, _ := auth.CurrentUser(r)
	cm, err := h.store.Create(r.Context(), models.Comment{
		TaskID:   tID,
		AuthorID: user.ID,
		Body:     body,
	})
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusCreated, "komentar dibuat", cm)
}

// Update handles PATCH /comments/{commentID}. Author only; even workspace
// admins do not edit other people's words.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "commentID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("komentar"))
		return
	}
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, http.StatusBadRequest, "body tidak valid")
		return
	}
	body := strings.TrimSpace(htmlsanitize.Sanitize(req.Body))
	if body == "" {
		httpjson.Fail(w, http.StatusBadRequest, "isi komentar wajib diisi")
		return
	}

	_, cm, principal, err := h.guard.Comment(r.Context(), r, id, access.ContributorRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if cm.AuthorID != principal.UserID {
		httpjson.Fail(w, http.StatusForbidden, "hanya penulis komentar yang dapat mengubahnya")
		return
	}
	if err := h.store.UpdateBody(r.Context(), id, cm.AuthorID, body); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "komentar diperbarui", nil)
}

// Delete handles DELETE /comments/{commentID}. The author may always delete
// their own comment; management roles may moderate anyone's.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "commentID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("komentar"))
		return
	}

	_, cm, principal, err := h.guard.Comment(r.Context(), r, id, access.ContributorRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if cm.AuthorID != principal.UserID && !canModerate(principal) {
		httpjson.Fail(w, http.StatusForbidden, "hanya penulis atau admin workspace yang dapat menghapus komentar")
		return
	}
	if err := h.store.Delete(r.Context(), id, cm.AuthorID); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "komentar dihapus", nil)
}

func canModerate(p access.Principal) bool {
	if p.IsSystemAdmin() {
		return true
	}
	for _, role := range access.ManagementRoles {
		if p.Role == role {
			return true
		}
	}
	return false
}
