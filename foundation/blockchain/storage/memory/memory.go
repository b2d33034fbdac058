// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"errors"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ErrFailure is returned by Save and Reset when the store has been told
// to fail.
var ErrFailure = errors.New("memory storage failure")

// Memory represents the storage implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
	fail   bool
	saves  int
}

// New constructs an Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Load returns a copy of the stored blocks.
func (m *Memory) Load() ([]database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.blocks) == 0 {
		return nil, database.ErrNoStore
	}

	return append([]database.Block(nil), m.blocks...), nil
}

// Save replaces the stored blocks with a copy of the specified blocks.
func (m *Memory) Save(blocks []database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return ErrFailure
	}

	m.blocks = append([]database.Block(nil), blocks...)
	m.saves++

	return nil
}

// Reset will clear out the stored blocks.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return ErrFailure
	}

	m.blocks = nil
	return nil
}

// =============================================================================

// SetFailure makes every following Save and Reset fail until called again
// with false. It lets callers exercise their persistence failure handling.
func (m *Memory) SetFailure(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fail = fail
}

// Saves returns the number of successful calls to Save.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.saves
}
