package http

import (
	"net/http"

	"github.com/loreleaf/loreleaf/internal/utils"
	"github.com/loreleaf/loreleaf/models"
)

func (h *Handler) getQueue(w http.ResponseWriter, r *http.Request) {
	operations := h.engine.PendingOperations()

	response := models.QueueResponse{
		Operations: operations,
		Length:     len(operations),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}
