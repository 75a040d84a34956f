package http

import (
	"net/http"

	"github.com/loreleaf/loreleaf/internal/utils"
)

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.engine.Status(), http.StatusOK)
}

func (h *Handler) getStatistics(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.engine.Statistics(), http.StatusOK)
}
