package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/utils"
	"github.com/loreleaf/loreleaf/models"
)

func (h *Handler) getNetworkStatus(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.monitor.Status(), http.StatusOK)
}

// overrideNetworkStatus feeds a manually supplied status into the monitor,
// through the same change detection and dispatch path as a probe result.
func (h *Handler) overrideNetworkStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var status models.NetworkStatus
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		log.Err(err).Str("func", "*Handler.overrideNetworkStatus").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if status.CheckedAt.IsZero() {
		status.CheckedAt = time.Now()
	}

	h.monitor.SetStatus(status)

	utils.WriteJSON(w, h.monitor.Status(), http.StatusOK)
}
