// internal/app/features/health/handler.go
package health

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/wirastama/manpro/internal/app/system/httpjson"
	"github.com/wirastama/manpro/internal/app/system/timeouts"
)

// Handler holds dependencies needed for liveness checks.
type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

type healthData struct {
	Database string `json:"database"`
}

// Check handles GET /health. A failed Mongo ping reports 503 so load
// balancers stop routing to an instance whose database link is down.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health: mongo ping failed", zap.Error(err))
		httpjson.Fail(w, http.StatusServiceUnavailable, "database tidak tersedia")
		return
	}

	httpjson.Respond(w, http.StatusOK, "ok", healthData{Database: "connected"})
}
