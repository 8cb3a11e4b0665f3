package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/spectrumcare/caredoc/internal/models"
)

// ErrKeyNotFound is returned by KeyValueStorage.Get for unknown keys.
var ErrKeyNotFound = errors.New("key not found")

// ErrResultNotFound is returned by ResultStorage.GetResult for unknown ids.
var ErrResultNotFound = errors.New("result not found")

// KeyValuePair is one stored key/value entry.
type KeyValuePair struct {
	Key       string    `json:"key" badgerhold:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListOptions controls result listing
type ListOptions struct {
	CaseID string
	Limit  int
	Offset int
}

// ResultStorage persists completed analysis results. Persistence is a caller
// concern - the pipeline itself never writes here.
type ResultStorage interface {
	SaveResult(result *models.AnalysisResult) error
	GetResult(id string) (*models.AnalysisResult, error)
	ListResults(opts *ListOptions) ([]*models.AnalysisResult, error)
	DeleteResult(id string) error
	CountResults() (int, error)
}

// KeyValueStorage provides generic key/value persistence, used for API key
// resolution with config fallback.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	ResultStorage() ResultStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
