// internal/app/features/projects/handler.go
package projects

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	projectstore "github.com/wirastama/manpro/internal/app/store/projects"
	"github.com/wirastama/manpro/internal/app/policy/workspacepolicy"
	"github.com/wirastama/manpro/internal/app/system/access"
	"github.com/wirastama/manpro/internal/app/system/apperr"
	"github.com/wirastama/manpro/internal/app/system/auth"
	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/app/system/normalize"
	"github.com/wirastama/manpro/internal/domain/models"
)

type Handler struct {
	store *projectstore.Store
	guard *workspacepolicy.Guard
	log   *zap.Logger
}

func NewHandler(store *projectstore.Store, guard *workspacepolicy.Guard, logger *zap.Logger) *Handler {
	return &Handler{store: store, guard: guard, log: logger}
}

// ListByWorkspace handles GET /workspaces/{workspaceID}/projects.
func (h *Handler) ListByWorkspace(w http.ResponseWriter, r *http.Request) {
	wsID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "workspaceID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("workspace"))
		return
	}
	if _, _, err := h.guard.Workspace(r.Context(), r, wsID, access.ReaderRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	out, err := h.store.ListByWorkspace(r.Context(), wsID)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", out)
}

// Create handles POST /workspaces/{workspaceID}/projects.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	wsID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "workspaceID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("workspace"))
		return
	}
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil || normalize.Name(req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama project wajib diisi")
		return
	}
	if _, _, err := h.guard.Workspace(r.Context(), r, wsID, access.ManagementRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}

	user, _ := auth.CurrentUser(r)
	p, err := h.store.Create(r.Context(), models.Project{
		Name:        normalize.Name(req.Name),
		Description: req.Description,
		WorkspaceID: wsID,
		CreatedBy:   user.ID,
	})
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("project created",
		zap.String("project_id", p.ID.Hex()),
		zap.String("workspace_id", wsID.Hex()))
	httpjson.Respond(w, http.StatusCreated, "project dibuat", p)
}

// Get handles GET /projects/{projectID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("project"))
		return
	}
	chain, _, err := h.guard.Project(r.Context(), r, id, access.ReaderRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "", chain.Project)
}

// Update handles PUT /projects/{projectID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("project"))
		return
	}
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil || normalize.Name(req.Name) == "" {
		httpjson.Fail(w, http.StatusBadRequest, "nama project wajib diisi")
		return
	}
	if _, _, err := h.guard.Project(r.Context(), r, id, access.ManagementRoles...); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.Update(r.Context(), id, normalize.Name(req.Name), req.Description); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, "project diperbarui", nil)
}

// Delete handles DELETE /projects/{projectID}. Cascades groups, tasks,
// subtasks and comments underneath.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpjson.Error(w, h.log, apperr.NotFound("project"))
		return
	}
	chain, _, err := h.guard.Project(r.Context(), r, id, access.ManagementRoles...)
	if err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	if err := h.store.Delete(r.Context(), chain.Project); err != nil {
		httpjson.Error(w, h.log, err)
		return
	}
	h.log.Info("project deleted", zap.String("project_id", id.Hex()))
	httpjson.Respond(w, http.StatusOK, "project dihapus", nil)
}
