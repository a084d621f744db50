// internal/app/features/groups/handler.go
package groups

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	groupstore "github.com/wirastama/manpro/internal/app/store/groups"
	"github.com/wirastama/manpro/internal/app/policy/workspacepolicy"
	"github.com/wirastama/manpro/internal/app/system/access"
	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/app/system/normalize"
	"github.com/wirastama/manpro/internal/domain/models"
)

type Handler struct {
	store *groupstore.Store
	guard *workspacepolicy.Guard
	log   *zap.Logger
}

func NewHandler(store *groupstore.Store, guard *workspacepolicy.Guard, logger *zap.Logger) *Handler {
	return &Handler{store: store, guard: guard, log: logger}
}

// ListByProject handles GET /projects/{projectID}/groups.
func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("project"))
		return
	}
	if _, _, err := h.guard.Project(r.Context(), r, projectID, access.ReaderRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	out, err := h.store.ListByProject(r.Context(), projectID)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", out)
}

// Create handles POST /projects/{projectID}/groups.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("project"))
		return
	}
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil || normalize.Name(req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama group wajib diisi")
		return
	}
	if _, _, err := h.guard.Project(r.Context(), r, projectID, access.ManagementRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	g, err := h.store.Create(r.Context(), models.Group{
		Name:        normalize.Name(req.Name),
		Description: req.Description,
		ProjectID:   projectID,
	})
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("group created",
		zap.String("group_id", g.ID.Hex()),
		zap.String("project_id", projectID.Hex()))
	httpjson.Respond(w, http.StatusCreated, "group dibuat", g)
}

// Get handles GET /groups/{groupID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("group"))
		return
	}
	chain, _, err := h.guard.Group(r.Context(), r, id, access.ReaderRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", chain.Group)
}

// Update handles PUT /groups/{groupID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("group"))
		return
	}
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil || normalize.Name(req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama group wajib diisi")
		return
	}
	if _, _, err := h.guard.Group(r.Context(), r, id, access.ManagementRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.Update(r.Context(), id, normalize.Name(req.Name), req.Description); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "group diperbarui", nil)
}

// Delete handles DELETE /groups/{groupID}. Cascades tasks, subtasks and
// comments underneath.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("group"))
		return
	}
	chain, _, err := h.guard.Group(r.Context(), r, id, access.ManagementRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.Delete(r.Context(), chain.Group); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("group deleted", zap.String("group_id", id.Hex()))
	httpjson.Respond(w, http.StatusOK, "group dihapus", nil)
}
