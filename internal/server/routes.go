package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Document processing
	mux.HandleFunc("/api/documents/process", s.app.DocumentHandler.ProcessHandler) // POST - upload and analyze one document
	mux.HandleFunc("/api/documents/batch", s.app.DocumentHandler.BatchHandler)     // POST - upload and analyze several documents

	// Job progress
	mux.HandleFunc("/api/jobs", s.app.JobHandler.ListHandler) // GET - list all tracked jobs
	mux.HandleFunc("/api/jobs/", s.app.JobHandler.GetHandler) // GET /{id} - job status for polling

	// Stored results
	mux.HandleFunc("/api/results", s.app.ResultHandler.ListHandler) // GET - list stored results
	mux.HandleFunc("/api/results/", s.app.ResultHandler.GetHandler) // GET /{id}

	// Service status
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)   // GET - health probe
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler) // GET - build info

	return mux
}
