// Package disk implements the ability to read and write the blockchain to a
// single json file on disk.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Disk represents the storage implementation for reading and storing the
// chain as a json array of blocks in one file. This implements the
// database.Storage interface.
type Disk struct {
	dbPath string
	mu     sync.Mutex
}

// New constructs a Disk value for use. The directory holding the file is
// created when it does not exist.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since the file is
// opened and closed on each call.
func (d *Disk) Close() error {
	return nil
}

// Load reads the chain from disk. If the file does not exist or holds an
// empty array, database.ErrNoStore is returned.
func (d *Disk) Load() ([]database.Block, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.dbPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, database.ErrNoStore
		}
		return nil, err
	}

	var blocks []database.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", d.dbPath, err)
	}

	if len(blocks) == 0 {
		return nil, database.ErrNoStore
	}

	return blocks, nil
}

// Save writes the full chain to a temporary file in the same directory and
// then renames it over the existing file. A failure at any step leaves the
// previous content in place.
func (d *Disk) Save(blocks []database.Block) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Marshal the chain for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(d.dbPath), filepath.Base(d.dbPath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := f.Name()

	// Any failure from here on has to remove the temporary file.
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpPath, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, d.dbPath); err != nil {
		return err
	}
	committed = true

	return nil
}

// Reset will remove the blockchain file from disk.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(d.dbPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
