package badgerfx

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// SeekEnd is appended to a prefix to start a reverse iteration after every key with that prefix.
const SeekEnd = byte(0xFF)

func New(config Config, logger *zapLogger) (*badger.DB, error) {
	opts := config.Build().
		WithLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %q: %w", config.Dir, err)
	}

	return db, nil
}
