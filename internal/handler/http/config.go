package http

import (
	"encoding/json"
	"net/http"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/service"
	"github.com/loreleaf/loreleaf/internal/utils"
	"github.com/loreleaf/loreleaf/models"
)

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var update service.ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Err(err).Str("func", "*Handler.updateConfig").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.engine.UpdateConfig(ctx, update); err != nil {
		log.Error().Err(err).Str("func", "*Handler.updateConfig").Msg("error updating engine config")
		http.Error(w, "error updating engine config", statusFromError(err))
		return
	}

	enabled, interval := h.engine.AutoSync()
	response := models.ConfigResponse{
		EnableAutoSync: enabled,
		SyncInterval:   interval,
	}

	utils.WriteJSON(w, response, http.StatusOK)
}
