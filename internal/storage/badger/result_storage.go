package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/models"
)

// ResultStorage implements the ResultStorage interface for Badger
type ResultStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResultStorage creates a new ResultStorage instance
func NewResultStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResultStorage {
	return &ResultStorage{
		db:     db,
		logger: logger,
	}
}

// SaveResult persists a completed analysis result, keyed by its id.
func (s *ResultStorage) SaveResult(result *models.AnalysisResult) error {
	if result == nil || result.ID == "" {
		return fmt.Errorf("result must have an id")
	}

	result.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(result.ID, result); err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}

	s.logger.Debug().
		Str("result_id", result.ID).
		Str("case_id", result.CaseID).
		Msg("Analysis result saved")

	return nil
}

// GetResult retrieves a result by id.
func (s *ResultStorage) GetResult(id string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	err := s.db.Store().Get(id, &result)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis result: %w", err)
	}
	return &result, nil
}

// ListResults lists stored results, optionally filtered by case id, newest
// first.
func (s *ResultStorage) ListResults(opts *interfaces.ListOptions) ([]*models.AnalysisResult, error) {
	query := badgerhold.Where("ID").Ne("") // Select all
	if opts != nil {
		if opts.CaseID != "" {
			query = badgerhold.Where("CaseID").Eq(opts.CaseID)
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
	}
	query = query.SortBy("CreatedAt").Reverse()

	var results []*models.AnalysisResult
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}
	if results == nil {
		results = []*models.AnalysisResult{}
	}
	return results, nil
}

// DeleteResult removes a result by id.
func (s *ResultStorage) DeleteResult(id string) error {
	err := s.db.Store().Delete(id, models.AnalysisResult{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrResultNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete analysis result: %w", err)
	}
	return nil
}

// CountResults returns the number of stored results.
func (s *ResultStorage) CountResults() (int, error) {
	count, err := s.db.Store().Count(&models.AnalysisResult{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count analysis results: %w", err)
	}
	return int(count), nil
}
