package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/balance"
	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// AddBlock mines a new block holding the payload on top of the latest block
// and appends it to the chain. The latest block is held for the duration of
// the search so no other block can be added underneath it. When the block
// is appended but can't be persisted the block is returned along with an
// error wrapping ErrNotDurable.
func (s *State) AddBlock(ctx context.Context, payload string) (database.Block, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.miningTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.miningTimeout)
		defer cancel()
	}

	s.evHandler("state: AddBlock: MINING: perform POW")

	// Readers are not blocked while the puzzle is being solved.
	block, err := database.POW(ctx, database.POWArgs{
		Difficulty: s.genesis.Difficulty,
		PrevBlock:  s.LatestBlock(),
		Payload:    payload,
		EvHandler:  s.evHandler,
	})
	if err != nil {
		return database.Block{}, fmt.Errorf("mining block: %w", err)
	}

	return s.updateLocalState(block)
}

// AddContractBlock signs the contract with the shared genesis key when it
// carries no signature and adds a block holding its canonical encoding.
func (s *State) AddContractBlock(ctx context.Context, c contract.Contract) (database.Block, error) {
	if c.Sig() == "" {
		signed, err := contract.Sign(c, s.genesis.SignKey)
		if err != nil {
			return database.Block{}, fmt.Errorf("signing contract: %w", err)
		}
		c = signed
	}

	payload, err := contract.Encode(c)
	if err != nil {
		return database.Block{}, fmt.Errorf("encoding contract: %w", err)
	}

	s.evHandler("state: AddContractBlock: %s", contract.Describe(c))

	return s.AddBlock(ctx, payload)
}

// AppendBlock takes a block that was mined elsewhere, validates it against
// the latest block and if that passes, appends it to the chain.
func (s *State) AppendBlock(block database.Block) (database.Block, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.updateLocalState(block)
}

// =============================================================================

// updateLocalState validates the block against the current latest block and
// then appends it, applies its contract and persists the chain. The caller
// must hold the write lock.
func (s *State) updateLocalState(block database.Block) (database.Block, error) {
	s.mu.Lock()

	if err := block.ValidateBlock(s.blocks[len(s.blocks)-1], s.genesis.Difficulty, s.evHandler); err != nil {
		s.mu.Unlock()

		s.evHandler("state: updateLocalState: WARNING: blk[%d]: rejected: %s", block.Index, err)
		s.metrics.BlockRejected()
		return database.Block{}, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}

	s.evHandler("state: updateLocalState: blk[%d]: append and apply contract", block.Index)

	s.blocks = append(s.blocks, block)
	s.applyPayload(s.balances, block)

	blocks := make([]database.Block, len(s.blocks))
	copy(blocks, s.blocks)

	s.mu.Unlock()

	s.evHandler("state: updateLocalState: blk[%d]: write to storage", block.Index)

	// The block stays in memory even when it can't be written out.
	if err := s.storage.Save(blocks); err != nil {
		s.evHandler("state: updateLocalState: WARNING: blk[%d]: save failed: %s", block.Index, err)
		s.metrics.SaveFailed()
		s.metrics.BlockAdded(block)
		s.blockEvent(block)
		return block, fmt.Errorf("%w: %w", ErrNotDurable, err)
	}

	s.metrics.BlockAdded(block)
	s.blockEvent(block)

	return block, nil
}

// applyPayload applies the block payload to the balance sheet when it
// decodes to a contract.
func (s *State) applyPayload(sheet *balance.Sheet, block database.Block) {
	c, err := contract.Decode(block.Payload)
	if err != nil {
		s.evHandler("state: applyPayload: blk[%d]: plain data: %s", block.Index, err)
		return
	}

	s.evHandler("state: applyPayload: blk[%d]: %s", block.Index, contract.Describe(c))
	sheet.ApplyContract(c)
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	data, err := json.Marshal(block)
	if err != nil {
		return
	}

	s.evHandler("viewer: block: %s", string(data))
}
