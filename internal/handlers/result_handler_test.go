package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/llmtest"
	"github.com/spectrumcare/caredoc/internal/models"
)

func TestResultHandler_ListFiltersByCase(t *testing.T) {
	storage := newMemoryResultStorage()
	storage.saved["result_1"] = &models.AnalysisResult{ID: "result_1", CaseID: "case_a"}
	storage.saved["result_2"] = &models.AnalysisResult{ID: "result_2", CaseID: "case_b"}
	handler := NewResultHandler(storage, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/results?case_id=case_a", nil)
	rec := httptest.NewRecorder()
	handler.ListHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Count   int                      `json:"count"`
		Results []*models.AnalysisResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "result_1", response.Results[0].ID)
}

func TestResultHandler_Get(t *testing.T) {
	storage := newMemoryResultStorage()
	storage.saved["result_1"] = &models.AnalysisResult{ID: "result_1", OverallConfidence: 0.72}
	handler := NewResultHandler(storage, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/results/result_1", nil)
	rec := httptest.NewRecorder()
	handler.GetHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "result_1", result.ID)
	assert.InDelta(t, 0.72, result.OverallConfidence, 0.001)
}

func TestResultHandler_GetNotFound(t *testing.T) {
	handler := NewResultHandler(newMemoryResultStorage(), common.GetLogger())

	req := httptest.NewRequest("GET", "/api/results/result_unknown", nil)
	rec := httptest.NewRecorder()
	handler.GetHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusHandler_Health(t *testing.T) {
	storage := newMemoryResultStorage()
	storage.saved["result_1"] = &models.AnalysisResult{ID: "result_1"}
	handler := NewStatusHandler(nil, storage, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.HealthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "ok", health["storage"])
	assert.EqualValues(t, 1, health["stored_results"])
}

func TestStatusHandler_HealthDegradedOnLLMFailure(t *testing.T) {
	llm := llmtest.NewFailingLLM(fmt.Errorf("provider unavailable"))
	handler := NewStatusHandler(llm, newMemoryResultStorage(), common.GetLogger())

	req := httptest.NewRequest("GET", "/api/health?probe_llm=true", nil)
	rec := httptest.NewRecorder()
	handler.HealthHandler(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health["status"])
	assert.Contains(t, health["llm"], "error")
}

func TestStatusHandler_Version(t *testing.T) {
	handler := NewStatusHandler(nil, newMemoryResultStorage(), common.GetLogger())

	req := httptest.NewRequest("GET", "/api/version", nil)
	rec := httptest.NewRecorder()
	handler.VersionHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var version map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &version))
	assert.NotEmpty(t, version["version"])
}
