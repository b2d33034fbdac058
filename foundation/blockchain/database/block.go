package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Block represents a hash linked record in the chain. A block is never
// mutated once it has been mined.
type Block struct {
	Hash      string `json:"hash"`         // Hex digest of the other fields that solves the POW.
	Index     uint64 `json:"index"`        // Position in the chain, genesis is 0.
	Nonce     uint64 `json:"nonce"`        // Value identified to solve the hash solution.
	Payload   string `json:"payload"`      // Opaque data, may decode as a contract.
	PrevHash  string `json:"previousHash"` // Hash of the previous block in the chain.
	TimeStamp uint64 `json:"timestamp"`    // Seconds since the unix epoch the mining started.
}

// Hash returns the unique hash for the specified block fields. The fields are
// concatenated in this exact order with the numbers in base 10.
func Hash(index uint64, timeStamp uint64, payload string, prevHash string, nonce uint64) string {
	return signature.Hash(hashPrefix(index, timeStamp, payload, prevHash) + strconv.FormatUint(nonce, 10))
}

// Genesis constructs the fixed first block of every chain.
func Genesis(payload string) Block {
	return Block{
		Hash:      Hash(0, 0, payload, signature.ZeroHash, 0),
		Index:     0,
		Nonce:     0,
		Payload:   payload,
		PrevHash:  signature.ZeroHash,
		TimeStamp: 0,
	}
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("%d:%s", b.Index, b.Hash)
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Difficulty uint
	PrevBlock  Block
	Payload    string
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzel. The search stops when the context
// is cancelled.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	// The timestamp is fixed when mining starts and is not re-sampled
	// during the search.
	nb := Block{
		Index:     args.PrevBlock.Index + 1,
		Payload:   args.Payload,
		PrevHash:  args.PrevBlock.Hash,
		TimeStamp: uint64(time.Now().UTC().Unix()),
	}

	ev("database: POW: MINING: started: blk[%d]: difficulty[%d]", nb.Index, args.Difficulty)

	nonce, hash, err := Mine(ctx, nb.Index, nb.TimeStamp, nb.Payload, nb.PrevHash, args.Difficulty)
	if err != nil {
		ev("database: POW: MINING: CANCELLED: blk[%d]: attempts[%d]", nb.Index, nonce)
		return Block{}, err
	}

	nb.Nonce = nonce
	nb.Hash = hash

	ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", nb.PrevHash, nb.Hash, nonce+1)

	return nb, nil
}

// Mine searches the nonce space starting at zero for the first nonce that
// produces a hash with the difficulty number of leading 0's. For the same
// inputs the same nonce and hash are always found. When the context is
// cancelled the number of nonces tried is returned with the context error.
func Mine(ctx context.Context, index uint64, timeStamp uint64, payload string, prevHash string, difficulty uint) (uint64, string, error) {
	prefix := hashPrefix(index, timeStamp, payload, prevHash)

	for nonce := uint64(0); ; nonce++ {

		// Did we timeout trying to solve the problem.
		if err := ctx.Err(); err != nil {
			return nonce, "", err
		}

		// Hash the block and check if we have solved the puzzle.
		hash := signature.Hash(prefix + strconv.FormatUint(nonce, 10))
		if isHashSolved(difficulty, hash) {
			return nonce, hash, nil
		}
	}
}

// ValidateBlock takes a block and validates it to be the next block after
// the specified previous block.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Index)

	nextNumber := previousBlock.Index + 1
	if b.Index != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Index, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if b.PrevHash != previousBlock.Hash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.PrevHash, previousBlock.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches block fields", b.Index)

	hash := Hash(b.Index, b.TimeStamp, b.Payload, b.PrevHash, b.Nonce)
	if b.Hash != hash {
		return fmt.Errorf("block hash doesn't match block fields, got %s, exp %s", b.Hash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Index)

	if !isHashSolved(difficulty, b.Hash) {
		return fmt.Errorf("%s invalid block hash for difficulty %d", b.Hash, difficulty)
	}

	return nil
}

// =============================================================================

// hashPrefix concatenates the fields that don't change during mining.
func hashPrefix(index uint64, timeStamp uint64, payload string, prevHash string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(index, 10))
	b.WriteString(strconv.FormatUint(timeStamp, 10))
	b.WriteString(payload)
	b.WriteString(prevHash)
	return b.String()
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	const match = "0000000000000000000000000000000000000000000000000000000000000000"

	if len(hash) != len(match) || difficulty > uint(len(match)) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
