package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func sampleResult(id, caseID string, createdAt time.Time) *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:           id,
		CaseID:       caseID,
		DocumentType: "assessment",
		ExtractedText: models.ExtractedText{
			Text:         "Sample extracted text.",
			SourceFormat: models.FormatPlainText,
			Succeeded:    true,
		},
		Metadata: models.DocumentMetadata{
			WordCount:            3,
			Language:             "en",
			Quality:              models.QualityPoor,
			ExtractionConfidence: 0.8,
		},
		MedicalEntities:   []models.MedicalEntity{},
		DomainInsights:    models.DefaultDomainInsights(),
		KeyInformation:    map[string]string{},
		IdentifiedNeeds:   []string{},
		Recommendations:   []string{},
		Timeline:          []models.TimelineEvent{},
		OverallConfidence: 0.6,
		ProcessedAt:       createdAt,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
}

func TestResultStorageRoundTrip(t *testing.T) {
	storage := newTestManager(t).ResultStorage()

	saved := sampleResult("result_1", "case_a", time.Now())
	require.NoError(t, storage.SaveResult(saved))

	loaded, err := storage.GetResult("result_1")
	require.NoError(t, err)
	assert.Equal(t, "case_a", loaded.CaseID)
	assert.Equal(t, models.FormatPlainText, loaded.ExtractedText.SourceFormat)
	assert.Equal(t, 0.6, loaded.OverallConfidence)
}

func TestResultStorageNotFound(t *testing.T) {
	storage := newTestManager(t).ResultStorage()

	_, err := storage.GetResult("result_missing")
	assert.ErrorIs(t, err, interfaces.ErrResultNotFound)

	err = storage.DeleteResult("result_missing")
	assert.ErrorIs(t, err, interfaces.ErrResultNotFound)
}

func TestResultStorageListAndFilter(t *testing.T) {
	storage := newTestManager(t).ResultStorage()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, storage.SaveResult(sampleResult("result_1", "case_a", base)))
	require.NoError(t, storage.SaveResult(sampleResult("result_2", "case_b", base.Add(time.Minute))))
	require.NoError(t, storage.SaveResult(sampleResult("result_3", "case_a", base.Add(2*time.Minute))))

	all, err := storage.ListResults(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	caseA, err := storage.ListResults(&interfaces.ListOptions{CaseID: "case_a"})
	require.NoError(t, err)
	require.Len(t, caseA, 2)
	for _, result := range caseA {
		assert.Equal(t, "case_a", result.CaseID)
	}

	limited, err := storage.ListResults(&interfaces.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	count, err := storage.CountResults()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, storage.DeleteResult("result_2"))
	count, err = storage.CountResults()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestKVStorageRoundTrip(t *testing.T) {
	kv := newTestManager(t).KeyValueStorage()
	ctx := context.Background()

	_, err := kv.Get(ctx, "anthropic_api_key")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "Anthropic_API_Key", "sk-test"))

	// Keys are case-insensitive
	value, err := kv.Get(ctx, "anthropic_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", value)

	all, err := kv.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"anthropic_api_key": "sk-test"}, all)

	require.NoError(t, kv.Delete(ctx, "ANTHROPIC_API_KEY"))
	_, err = kv.Get(ctx, "anthropic_api_key")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	// Deleting a missing key is not an error
	require.NoError(t, kv.Delete(ctx, "never_existed"))
}
