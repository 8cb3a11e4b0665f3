package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// StatusHandler serves health and version queries.
type StatusHandler struct {
	llmService interfaces.LLMService
	results    interfaces.ResultStorage
	startedAt  time.Time
	logger     arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(llmService interfaces.LLMService, results interfaces.ResultStorage, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		llmService: llmService,
		results:    results,
		startedAt:  time.Now(),
		logger:     logger,
	}
}

// HealthHandler handles GET /api/health. Storage is probed on every call;
// the LLM provider probe runs only when ?probe_llm=true since it spends a
// real API request.
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	health := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	}
	healthy := true

	if count, err := h.results.CountResults(); err != nil {
		health["storage"] = "error: " + err.Error()
		healthy = false
	} else {
		health["storage"] = "ok"
		health["stored_results"] = count
	}

	if r.URL.Query().Get("probe_llm") == "true" {
		if err := h.llmService.HealthCheck(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("LLM health probe failed")
			health["llm"] = "error: " + err.Error()
			healthy = false
		} else {
			health["llm"] = "ok"
		}
	}

	statusCode := http.StatusOK
	if !healthy {
		health["status"] = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	WriteJSON(w, statusCode, health)
}

// VersionHandler handles GET /api/version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}
