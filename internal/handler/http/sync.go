package http

import (
	"net/http"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/utils"
)

func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	result, err := h.engine.SyncNow(ctx)
	if err != nil {
		log.Error().Err(err).Str("func", "*Handler.triggerSync").Msg("error running sync cycle")
		http.Error(w, "error running sync cycle", statusFromError(err))
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}
