package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/models"
)

// defaultMaxUploadBytes bounds one multipart upload when no limit is
// configured (32 MiB).
const defaultMaxUploadBytes = 32 << 20

// DocumentHandler handles document upload and processing requests.
type DocumentHandler struct {
	pipeline  interfaces.Pipeline
	results   interfaces.ResultStorage
	validate  *validator.Validate
	maxUpload int64
	logger    arbor.ILogger
}

// NewDocumentHandler creates a new DocumentHandler. maxUpload bounds one
// multipart upload in bytes; values <= 0 fall back to the default.
func NewDocumentHandler(pipeline interfaces.Pipeline, results interfaces.ResultStorage, maxUpload int64, logger arbor.ILogger) *DocumentHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &DocumentHandler{
		pipeline:  pipeline,
		results:   results,
		validate:  validator.New(),
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// processRequest carries the validated non-file fields of an upload.
type processRequest struct {
	DocumentType string `validate:"max=128"`
	CaseID       string `validate:"max=128"`
}

// ProcessHandler handles POST /api/documents/process: a multipart upload with
// a "file" part, optional document_type/case_id fields, and boolean option
// fields. The document is processed synchronously and the stored result
// returned.
func (h *DocumentHandler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing 'file' upload field")
		return
	}
	defer file.Close()

	request := processRequest{
		DocumentType: r.FormValue("document_type"),
		CaseID:       r.FormValue("case_id"),
	}
	if err := h.validate.Struct(&request); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request fields: %v", err))
		return
	}

	raw, err := h.buildRawDocument(file, header, &request)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := h.readOptions(r)

	result, err := h.pipeline.ProcessDocument(r.Context(), raw, opts)
	if err != nil {
		h.logger.Error().Err(err).Str("file_name", raw.FileName).Msg("Document processing failed")
		WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("processing failed: %v", err))
		return
	}

	if err := h.results.SaveResult(result); err != nil {
		h.logger.Error().Err(err).Str("result_id", result.ID).Msg("Failed to persist analysis result")
		// The analysis itself succeeded; return it anyway.
	}

	WriteJSON(w, http.StatusOK, result)
}

// BatchHandler handles POST /api/documents/batch: a multipart upload with
// repeated "files" parts sharing document_type/case_id. Documents that fail
// are skipped; the response maps job id to result for the successes.
func (h *DocumentHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		WriteError(w, http.StatusBadRequest, "missing 'files' upload fields")
		return
	}

	request := processRequest{
		DocumentType: r.FormValue("document_type"),
		CaseID:       r.FormValue("case_id"),
	}
	if err := h.validate.Struct(&request); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request fields: %v", err))
		return
	}

	docs := make([]*models.RawDocument, 0, len(r.MultipartForm.File["files"]))
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			h.logger.Warn().Err(err).Str("file_name", header.Filename).Msg("Skipping unreadable upload")
			continue
		}
		raw, err := h.buildRawDocument(file, header, &request)
		file.Close()
		if err != nil {
			h.logger.Warn().Err(err).Str("file_name", header.Filename).Msg("Skipping unreadable upload")
			continue
		}
		docs = append(docs, raw)
	}

	opts := h.readOptions(r)

	results := h.pipeline.BatchProcessDocuments(r.Context(), docs, opts)
	for _, result := range results {
		if err := h.results.SaveResult(result); err != nil {
			h.logger.Error().Err(err).Str("result_id", result.ID).Msg("Failed to persist analysis result")
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"submitted": len(docs),
		"succeeded": len(results),
		"results":   results,
	})
}

func (h *DocumentHandler) buildRawDocument(file multipart.File, header *multipart.FileHeader, request *processRequest) (*models.RawDocument, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload '%s': %w", header.Filename, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("upload '%s' is empty", header.Filename)
	}

	return &models.RawDocument{
		Data:         data,
		FileName:     header.Filename,
		DeclaredMIME: header.Header.Get("Content-Type"),
		DocumentType: request.DocumentType,
		CaseID:       request.CaseID,
	}, nil
}

// readOptions builds ProcessOptions from form fields, defaulting each flag to
// the standard set when absent.
func (h *DocumentHandler) readOptions(r *http.Request) models.ProcessOptions {
	defaults := models.DefaultProcessOptions()
	return models.ProcessOptions{
		ExtractTimeline:          parseBoolField(r, "extract_timeline", defaults.ExtractTimeline),
		IdentifyNeeds:            parseBoolField(r, "identify_needs", defaults.IdentifyNeeds),
		GenerateRecommendations:  parseBoolField(r, "generate_recommendations", defaults.GenerateRecommendations),
		PerformSentimentAnalysis: parseBoolField(r, "perform_sentiment_analysis", defaults.PerformSentimentAnalysis),
		GenerateSummary:          parseBoolField(r, "generate_summary", defaults.GenerateSummary),
		DetectUrgency:            parseBoolField(r, "detect_urgency", defaults.DetectUrgency),
	}
}
