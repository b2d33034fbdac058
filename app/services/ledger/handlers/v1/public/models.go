package public

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

type newBlock struct {
	Payload string `json:"payload"`
}

type newContract struct {
	Type   contract.Kind `json:"type" validate:"required,oneof=transfer mint burn message"`
	From   string        `json:"from"`
	To     string        `json:"to"`
	Amount *int64        `json:"amount"`
	Text   string        `json:"text"`
}

type block struct {
	Index       uint64 `json:"index"`
	TimeStamp   uint64 `json:"timestamp"`
	Payload     string `json:"payload"`
	PrevHash    string `json:"previousHash"`
	Hash        string `json:"hash"`
	Nonce       uint64 `json:"nonce"`
	Description string `json:"description,omitempty"`
}

func toBlock(b database.Block) block {
	var desc string
	if c, ok := contract.Parse(b.Payload); ok {
		desc = contract.Describe(c)
	}

	return block{
		Index:       b.Index,
		TimeStamp:   b.TimeStamp,
		Payload:     b.Payload,
		PrevHash:    b.PrevHash,
		Hash:        b.Hash,
		Nonce:       b.Nonce,
		Description: desc,
	}
}

type added struct {
	Status string `json:"status"`
	Block  block  `json:"block"`
}

type balance struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Balances    []balance `json:"balances"`
}

type history struct {
	Account string   `json:"account"`
	Entries []string `json:"entries"`
}

type validation struct {
	Valid  bool   `json:"valid"`
	Blocks int    `json:"blocks"`
	Error  string `json:"error,omitempty"`
}
