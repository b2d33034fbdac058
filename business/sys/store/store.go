// Package store opens the storage backend selected by configuration.
package store

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/level"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
)

// Set of supported storage backends.
const (
	File   = "file"
	Level  = "level"
	Memory = "memory"
)

// Config is the required properties to open a store.
type Config struct {
	Kind   string
	DBPath string
}

// Open constructs the storage backend for the configured kind.
func Open(cfg Config) (database.Storage, error) {
	switch cfg.Kind {
	case File, "":
		return disk.New(cfg.DBPath)

	case Level:
		return level.New(cfg.DBPath)

	case Memory:
		return memory.New()
	}

	return nil, fmt.Errorf("unknown store %q, expected %s, %s or %s", cfg.Kind, File, Level, Memory)
}
