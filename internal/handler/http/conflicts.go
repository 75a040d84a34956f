package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/utils"
	"github.com/loreleaf/loreleaf/models"
)

func (h *Handler) getConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts := h.engine.Conflicts()

	response := models.ConflictsResponse{
		Conflicts: conflicts,
		Length:    len(conflicts),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	conflictID := chi.URLParam(r, "conflictID")

	var resolveRequest models.ResolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&resolveRequest); err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.engine.ResolveConflict(ctx, conflictID, resolveRequest.Strategy); err != nil {
		log.Error().Err(err).Str("func", "*Handler.resolveConflict").Msg("error resolving conflict")
		http.Error(w, "error resolving conflict", statusFromError(err))
		return
	}

	remaining := h.engine.Conflicts()
	response := models.ConflictsResponse{
		Conflicts: remaining,
		Length:    len(remaining),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}
