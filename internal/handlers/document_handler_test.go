package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/models"
)

// mockPipeline implements interfaces.Pipeline for testing
type mockPipeline struct {
	processFunc func(ctx context.Context, raw *models.RawDocument, opts models.ProcessOptions) (*models.AnalysisResult, error)
	batchFunc   func(ctx context.Context, docs []*models.RawDocument, opts models.ProcessOptions) map[string]*models.AnalysisResult
	jobs        map[string]*models.ProcessingJob
}

func (m *mockPipeline) ProcessDocument(ctx context.Context, raw *models.RawDocument, opts models.ProcessOptions) (*models.AnalysisResult, error) {
	if m.processFunc != nil {
		return m.processFunc(ctx, raw, opts)
	}
	return &models.AnalysisResult{ID: "result_test"}, nil
}

func (m *mockPipeline) BatchProcessDocuments(ctx context.Context, docs []*models.RawDocument, opts models.ProcessOptions) map[string]*models.AnalysisResult {
	if m.batchFunc != nil {
		return m.batchFunc(ctx, docs, opts)
	}
	return map[string]*models.AnalysisResult{}
}

func (m *mockPipeline) GetJobStatus(jobID string) (*models.ProcessingJob, bool) {
	job, ok := m.jobs[jobID]
	return job, ok
}

func (m *mockPipeline) ListJobs() []*models.ProcessingJob {
	jobs := make([]*models.ProcessingJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// memoryResultStorage implements interfaces.ResultStorage backed by a map
type memoryResultStorage struct {
	saved   map[string]*models.AnalysisResult
	saveErr error
}

func newMemoryResultStorage() *memoryResultStorage {
	return &memoryResultStorage{saved: make(map[string]*models.AnalysisResult)}
}

func (s *memoryResultStorage) SaveResult(result *models.AnalysisResult) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[result.ID] = result
	return nil
}

func (s *memoryResultStorage) GetResult(id string) (*models.AnalysisResult, error) {
	result, ok := s.saved[id]
	if !ok {
		return nil, interfaces.ErrResultNotFound
	}
	return result, nil
}

func (s *memoryResultStorage) ListResults(opts *interfaces.ListOptions) ([]*models.AnalysisResult, error) {
	results := make([]*models.AnalysisResult, 0, len(s.saved))
	for _, result := range s.saved {
		if opts != nil && opts.CaseID != "" && result.CaseID != opts.CaseID {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *memoryResultStorage) DeleteResult(id string) error {
	delete(s.saved, id)
	return nil
}

func (s *memoryResultStorage) CountResults() (int, error) {
	return len(s.saved), nil
}

// multipartUpload builds a multipart body with file parts under fieldName and
// the given form fields.
func multipartUpload(t *testing.T, fieldName string, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for name, data := range files {
		part, err := writer.CreateFormFile(fieldName, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func newTestDocumentHandler(pipeline interfaces.Pipeline, results interfaces.ResultStorage) *DocumentHandler {
	return NewDocumentHandler(pipeline, results, 0, common.GetLogger())
}

func TestProcessHandler_Success(t *testing.T) {
	var gotRaw *models.RawDocument
	var gotOpts models.ProcessOptions
	pipeline := &mockPipeline{
		processFunc: func(ctx context.Context, raw *models.RawDocument, opts models.ProcessOptions) (*models.AnalysisResult, error) {
			gotRaw = raw
			gotOpts = opts
			return &models.AnalysisResult{ID: "result_1", CaseID: raw.CaseID, DocumentType: raw.DocumentType}, nil
		},
	}
	storage := newMemoryResultStorage()
	handler := newTestDocumentHandler(pipeline, storage)

	body, contentType := multipartUpload(t, "file",
		map[string][]byte{"report.txt": []byte("Annual review of progress.")},
		map[string]string{"document_type": "medical_report", "case_id": "case_42", "extract_timeline": "false"})

	req := httptest.NewRequest("POST", "/api/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ProcessHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "result_1", result.ID)
	assert.Equal(t, "case_42", result.CaseID)

	require.NotNil(t, gotRaw)
	assert.Equal(t, "report.txt", gotRaw.FileName)
	assert.Equal(t, "medical_report", gotRaw.DocumentType)
	assert.Equal(t, []byte("Annual review of progress."), gotRaw.Data)

	// extract_timeline=false overrides the default, others keep defaults
	assert.False(t, gotOpts.ExtractTimeline)
	assert.True(t, gotOpts.IdentifyNeeds)
	assert.True(t, gotOpts.GenerateRecommendations)

	// Result persisted
	_, ok := storage.saved["result_1"]
	assert.True(t, ok)
}

func TestProcessHandler_MissingFile(t *testing.T) {
	handler := newTestDocumentHandler(&mockPipeline{}, newMemoryResultStorage())

	body, contentType := multipartUpload(t, "file", nil, map[string]string{"case_id": "case_1"})
	req := httptest.NewRequest("POST", "/api/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ProcessHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessHandler_EmptyFile(t *testing.T) {
	handler := newTestDocumentHandler(&mockPipeline{}, newMemoryResultStorage())

	body, contentType := multipartUpload(t, "file", map[string][]byte{"empty.txt": {}}, nil)
	req := httptest.NewRequest("POST", "/api/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ProcessHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty")
}

func TestProcessHandler_ProcessingFailure(t *testing.T) {
	pipeline := &mockPipeline{
		processFunc: func(ctx context.Context, raw *models.RawDocument, opts models.ProcessOptions) (*models.AnalysisResult, error) {
			return nil, fmt.Errorf("text extraction failed: unreadable input")
		},
	}
	handler := newTestDocumentHandler(pipeline, newMemoryResultStorage())

	body, contentType := multipartUpload(t, "file", map[string][]byte{"bad.pdf": []byte("%PDF-1.4 broken")}, nil)
	req := httptest.NewRequest("POST", "/api/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ProcessHandler(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "processing failed")
}

func TestProcessHandler_SaveFailureStillReturnsResult(t *testing.T) {
	storage := newMemoryResultStorage()
	storage.saveErr = fmt.Errorf("disk full")
	handler := newTestDocumentHandler(&mockPipeline{}, storage)

	body, contentType := multipartUpload(t, "file", map[string][]byte{"note.txt": []byte("Progress note.")}, nil)
	req := httptest.NewRequest("POST", "/api/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ProcessHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProcessHandler_UploadTooLarge(t *testing.T) {
	handler := NewDocumentHandler(&mockPipeline{}, newMemoryResultStorage(), 64, common.GetLogger())

	body, contentType := multipartUpload(t, "file",
		map[string][]byte{"big.txt": bytes.Repeat([]byte("x"), 1024)}, nil)
	req := httptest.NewRequest("POST", "/api/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ProcessHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestDocumentHandler(&mockPipeline{}, newMemoryResultStorage())

	req := httptest.NewRequest("GET", "/api/documents/process", nil)
	rec := httptest.NewRecorder()
	handler.ProcessHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBatchHandler_PartialSuccess(t *testing.T) {
	pipeline := &mockPipeline{
		batchFunc: func(ctx context.Context, docs []*models.RawDocument, opts models.ProcessOptions) map[string]*models.AnalysisResult {
			// Second document fails and is skipped
			return map[string]*models.AnalysisResult{
				"job_1": {ID: "result_1"},
				"job_3": {ID: "result_3"},
			}
		},
	}
	storage := newMemoryResultStorage()
	handler := newTestDocumentHandler(pipeline, storage)

	body, contentType := multipartUpload(t, "files", map[string][]byte{
		"a.txt": []byte("First document."),
		"b.txt": []byte("Second document."),
		"c.txt": []byte("Third document."),
	}, map[string]string{"case_id": "case_7"})

	req := httptest.NewRequest("POST", "/api/documents/batch", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.BatchHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response struct {
		Submitted int                               `json:"submitted"`
		Succeeded int                               `json:"succeeded"`
		Results   map[string]*models.AnalysisResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 3, response.Submitted)
	assert.Equal(t, 2, response.Succeeded)
	assert.Len(t, response.Results, 2)

	// Successful results persisted
	assert.Len(t, storage.saved, 2)
}

func TestBatchHandler_NoFiles(t *testing.T) {
	handler := newTestDocumentHandler(&mockPipeline{}, newMemoryResultStorage())

	body, contentType := multipartUpload(t, "files", nil, map[string]string{"case_id": "case_1"})
	req := httptest.NewRequest("POST", "/api/documents/batch", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.BatchHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
