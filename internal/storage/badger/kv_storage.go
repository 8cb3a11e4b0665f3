package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// KVStorage implements the KeyValueStorage interface for Badger
type KVStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewKVStorage creates a new KVStorage instance
func NewKVStorage(db *BadgerDB, logger arbor.ILogger) interfaces.KeyValueStorage {
	return &KVStorage{
		db:     db,
		logger: logger,
	}
}

// normalizeKey converts a key to lowercase for case-insensitive storage
func (s *KVStorage) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get retrieves a value by key (case-insensitive)
func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	normalizedKey := s.normalizeKey(key)
	var pair interfaces.KeyValuePair
	err := s.db.Store().Get(normalizedKey, &pair)
	if err == badgerhold.ErrNotFound {
		return "", interfaces.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key: %w", err)
	}

	return pair.Value, nil
}

// Set inserts or updates a key/value pair (case-insensitive)
func (s *KVStorage) Set(ctx context.Context, key, value string) error {
	normalizedKey := s.normalizeKey(key)
	now := time.Now()

	pair := interfaces.KeyValuePair{
		Key:       normalizedKey,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Preserve CreatedAt on update
	var existing interfaces.KeyValuePair
	if err := s.db.Store().Get(normalizedKey, &existing); err == nil {
		pair.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(normalizedKey, &pair); err != nil {
		return fmt.Errorf("failed to set key/value: %w", err)
	}

	return nil
}

// Delete removes a key/value pair (case-insensitive). Deleting an unknown key
// is not an error.
func (s *KVStorage) Delete(ctx context.Context, key string) error {
	normalizedKey := s.normalizeKey(key)
	err := s.db.Store().Delete(normalizedKey, interfaces.KeyValuePair{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// GetAll returns every stored key/value pair
func (s *KVStorage) GetAll(ctx context.Context) (map[string]string, error) {
	var pairs []interfaces.KeyValuePair
	if err := s.db.Store().Find(&pairs, nil); err != nil {
		return nil, fmt.Errorf("failed to list key/value pairs: %w", err)
	}

	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		result[pair.Key] = pair.Value
	}
	return result, nil
}
