// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/balance"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// Set of errors reported by the state.
var (
	ErrInvalidBlock = errors.New("invalid block")
	ErrNotDurable   = errors.New("block not persisted")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Metrics interface represents the behavior required to be implemented by
// any package recording statistics about the chain.
type Metrics interface {
	BlockAdded(block database.Block)
	BlockRejected()
	SaveFailed()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain.
type Config struct {
	Storage       database.Storage
	Genesis       genesis.Genesis
	MiningTimeout time.Duration
	EvHandler     EventHandler
	Metrics       Metrics
}

// State manages the blockchain and the balances derived from it.
type State struct {
	genesis       genesis.Genesis
	miningTimeout time.Duration
	evHandler     EventHandler
	metrics       Metrics
	storage       database.Storage

	// writeMu serializes the operations that change the chain. mu protects
	// the chain itself and is never held while mining.
	writeMu sync.Mutex
	mu      sync.RWMutex

	blocks   []database.Block
	balances *balance.Sheet
}

// New constructs a new blockchain for data management. The chain is loaded
// from storage when it exists, otherwise a chain holding only the genesis
// block is started.
func New(cfg Config) (*State, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	gen := cfg.Genesis.WithDefaults()
	if err := gen.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noMetrics{}
	}

	state := State{
		genesis:       gen,
		miningTimeout: cfg.MiningTimeout,
		evHandler:     ev,
		metrics:       metrics,
		storage:       cfg.Storage,
		balances:      balance.NewSheet(),
	}

	// Load all existing blocks from storage into memory for processing. A
	// store that can't be read is treated as absent.
	blocks, err := cfg.Storage.Load()
	switch {
	case err == nil:
		ev("state: New: loaded blockchain from storage: blocks[%d]", len(blocks))

	case errors.Is(err, database.ErrNoStore):
		ev("state: New: no stored blockchain: initialized new blockchain")
		blocks = []database.Block{database.Genesis(gen.Payload)}

	default:
		ev("state: New: WARNING: unable to load blockchain, initialized new blockchain: %s", err)
		blocks = []database.Block{database.Genesis(gen.Payload)}
	}

	state.blocks = blocks
	state.RecomputeBalances()

	// A loaded chain is kept even if it doesn't validate so no data is lost.
	if err := state.ValidateChain(); err != nil {
		ev("state: New: WARNING: loaded blockchain is not valid: %s", err)
	}

	return &state, nil
}

// Shutdown cleanly brings the blockchain down.
func (s *State) Shutdown() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.evHandler("state: Shutdown: close storage")

	return s.storage.Close()
}

// =============================================================================

// noMetrics is used when no metrics are configured.
type noMetrics struct{}

func (noMetrics) BlockAdded(database.Block) {}
func (noMetrics) BlockRejected()            {}
func (noMetrics) SaveFailed()               {}
