// Package database handles the block model, the proof of work and the
// contract between the chain engine and the storage of the chain.
package database

import "errors"

// ErrNoStore is returned by Storage.Load when nothing has been persisted.
var ErrNoStore = errors.New("no stored blockchain")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {

	// Load returns the persisted chain in index order or ErrNoStore.
	Load() ([]Block, error)

	// Save replaces the persisted chain. Either the full chain is stored or
	// the previous content is left intact.
	Save(blocks []Block) error

	// Reset deletes the persisted chain.
	Reset() error

	Close() error
}
