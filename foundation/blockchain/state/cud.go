package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/balance"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// RecomputeBalances replays every block from the genesis block and replaces
// the balances with the result. Replaying the same chain always produces
// the same balances.
func (s *State) RecomputeBalances() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: RecomputeBalances: replay blocks[%d]", len(s.blocks))

	sheet := balance.NewSheet()
	for _, block := range s.blocks {
		s.applyPayload(sheet, block)
	}

	s.balances.Replace(sheet)
}

// Purge deletes the persisted chain and starts over with a chain holding
// only the genesis block, which is then persisted.
func (s *State) Purge() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.evHandler("state: Purge: reset storage")

	if err := s.storage.Reset(); err != nil {
		s.evHandler("state: Purge: WARNING: reset storage: %s", err)
	}

	s.mu.Lock()
	s.blocks = []database.Block{database.Genesis(s.genesis.Payload)}
	s.balances.Reset()
	blocks := []database.Block{s.blocks[0]}
	s.mu.Unlock()

	s.evHandler("viewer: purge: chain reset to genesis")

	if err := s.storage.Save(blocks); err != nil {
		s.metrics.SaveFailed()
		return fmt.Errorf("%w: %w", ErrNotDurable, err)
	}

	return nil
}

// Save writes the full chain to storage.
func (s *State) Save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	blocks := s.Blocks()

	s.evHandler("state: Save: write blocks[%d] to storage", len(blocks))

	if err := s.storage.Save(blocks); err != nil {
		s.metrics.SaveFailed()
		return fmt.Errorf("%w: %w", ErrNotDurable, err)
	}

	return nil
}
