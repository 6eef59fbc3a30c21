package handlers

import (
	"net/http"
	"time"
)

type Clock interface {
	Now() time.Time
}

// HealthHandler provides a minimal liveness check that also reports the simulated clock.
type HealthHandler struct {
	Clock Clock
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	res := map[string]any{"status": "ok"}
	if h.Clock != nil {
		res["sim_time"] = h.Clock.Now()
	}
	writeJSON(w, r, http.StatusOK, res)
}
