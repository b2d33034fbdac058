// Package balance maintains account balances in memory.
package balance

import (
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
)

// Sheet represents the data representation to maintain account balances.
// An account that is not in the sheet has a balance of zero.
type Sheet struct {
	sheet map[string]int64
	mu    sync.RWMutex
}

// NewSheet constructs a new empty balance sheet for use.
func NewSheet() *Sheet {
	return &Sheet{
		sheet: make(map[string]int64),
	}
}

// Reset clears all the balances.
func (bs *Sheet) Reset() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.sheet = make(map[string]int64)
}

// Replace updates the balance sheet for a new version.
func (bs *Sheet) Replace(newBS *Sheet) {
	sheet := newBS.Copy()

	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.sheet = sheet
}

// Copy makes a copy of the current balance sheet but returns the raw data.
func (bs *Sheet) Copy() map[string]int64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	sheet := make(map[string]int64, len(bs.sheet))
	for account, value := range bs.sheet {
		sheet[account] = value
	}
	return sheet
}

// Balance returns the balance for the account.
func (bs *Sheet) Balance(account string) int64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	return bs.sheet[account]
}

// ApplyContract performs the business logic for applying a contract to the
// balance sheet. Balances are allowed to go negative.
func (bs *Sheet) ApplyContract(c contract.Contract) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	switch v := c.(type) {
	case contract.Transfer:
		bs.sheet[v.From] -= v.Amount
		bs.sheet[v.To] += v.Amount

	case contract.Mint:
		bs.sheet[v.To] += v.Amount

	case contract.Burn:
		bs.sheet[v.From] -= v.Amount

	case contract.Message:
	}
}
