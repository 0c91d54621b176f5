package server

import (
	"net/http"
	"time"

	"github.com/desertthunder/soundchat/internal/collection"
)

// HealthHandler reports liveness together with collection counts.
type HealthHandler struct {
	store   *collection.Store
	started time.Time
}

// NewHealthHandler creates a [HealthHandler]; uptime is measured from now.
func NewHealthHandler(store *collection.Store) *HealthHandler {
	return &HealthHandler{store: store, started: time.Now()}
}

type healthResponse struct {
	Status string           `json:"status"`
	Uptime string           `json:"uptime"`
	Stats  collection.Stats `json:"stats"`
}

// Routes returns the health endpoint.
func (h *HealthHandler) Routes() []Route {
	return []Route{{http.MethodGet, "/health", h.health}}
}

func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
		Stats:  h.store.Stats(),
	})
}
