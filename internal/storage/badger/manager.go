package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	result interfaces.ResultStorage
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		result: NewResultStorage(db, logger),
		kv:     NewKVStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ResultStorage returns the analysis-result storage interface
func (m *Manager) ResultStorage() interfaces.ResultStorage {
	return m.result
}

// KeyValueStorage returns the key/value storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

var _ interfaces.StorageManager = (*Manager)(nil)
