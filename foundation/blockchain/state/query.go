package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Balance returns the balance for the account. An account that never
// appeared in a contract has a balance of zero.
func (s *State) Balance(account string) int64 {
	return s.balances.Balance(account)
}

// Balances returns a copy of every known balance.
func (s *State) Balances() map[string]int64 {
	return s.balances.Copy()
}

// History returns a description of every contract that references the
// account, in chain order.
func (s *State) History(account string) []string {
	var out []string
	for _, block := range s.Blocks() {
		c, ok := contract.Parse(block.Payload)
		if !ok || !c.References(account) {
			continue
		}

		out = append(out, fmt.Sprintf("block %d: %s", block.Index, contract.Describe(c)))
	}

	return out
}

// ValidateBlock checks the block is a valid successor of the previous block
// at the configured difficulty.
func (s *State) ValidateBlock(block database.Block, previous database.Block) error {
	return block.ValidateBlock(previous, s.genesis.Difficulty, s.evHandler)
}

// ValidateChain checks every block after the genesis block against its
// predecessor. The genesis block is never subject to proof of work.
func (s *State) ValidateChain() error {
	blocks := s.Blocks()

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], s.genesis.Difficulty, nil); err != nil {
			return fmt.Errorf("block %d: %w", blocks[i].Index, err)
		}
	}

	return nil
}
