package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// ResultHandler serves stored analysis results.
type ResultHandler struct {
	results interfaces.ResultStorage
	logger  arbor.ILogger
}

// NewResultHandler creates a new ResultHandler
func NewResultHandler(results interfaces.ResultStorage, logger arbor.ILogger) *ResultHandler {
	return &ResultHandler{
		results: results,
		logger:  logger,
	}
}

// ListHandler handles GET /api/results with optional case_id/limit/offset
// query parameters.
func (h *ResultHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit, offset := GetListParams(r)
	opts := &interfaces.ListOptions{
		CaseID: r.URL.Query().Get("case_id"),
		Limit:  limit,
		Offset: offset,
	}

	results, err := h.results.ListResults(opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list analysis results")
		WriteError(w, http.StatusInternalServerError, "failed to list results")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"results": results,
	})
}

// GetHandler handles GET /api/results/{id}
func (h *ResultHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	resultID := strings.TrimPrefix(r.URL.Path, "/api/results/")
	if resultID == "" || strings.Contains(resultID, "/") {
		WriteError(w, http.StatusBadRequest, "invalid result id")
		return
	}

	result, err := h.results.GetResult(resultID)
	if err != nil {
		if errors.Is(err, interfaces.ErrResultNotFound) {
			WriteError(w, http.StatusNotFound, "result not found")
			return
		}
		h.logger.Error().Err(err).Str("result_id", resultID).Msg("Failed to load analysis result")
		WriteError(w, http.StatusInternalServerError, "failed to load result")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
