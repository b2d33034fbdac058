// Package signature provides helper functions for handling the blockchain
// hashing and contract signature needs.
package signature

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents the previous hash value recorded by the genesis block.
const ZeroHash string = "0"

// DefaultKey is the shared key used to stamp contract signatures. The key is
// public, so a signature only proves the contract fields were not altered
// after signing by someone who did not bother to re-sign them.
const DefaultKey = "ledger-demonstration-key"

// =============================================================================

// Hash returns the lowercase hex encoded SHA-256 digest of the data. No 0x
// prefix is applied so the leading characters can be checked for proof
// of work.
func Hash(data string) string {
	hash := sha256.Sum256([]byte(data))
	return common.Bytes2Hex(hash[:])
}

// Sign produces the demonstration signature for the value using the
// specified shared key.
func Sign(value any, key string) (string, error) {
	data, err := stamp(value, key)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(data), nil
}

// Verify checks the signature was produced for the value with the key.
func Verify(value any, key string, sig string) bool {
	exp, err := Sign(value, key)
	if err != nil {
		return false
	}

	return exp == sig
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp and the shared key embedded into the final hash.
func stamp(value any, key string) ([]byte, error) {

	// Marshal the data.
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	dataHash := crypto.Keccak256(v)

	// This stamp is used so signatures we produce are always unique
	// to the ledger.
	stamp := []byte("\x19Ledger Signed Contract:\n32")

	// Hash the stamp, the key and the data hash together in a final
	// 32 byte array that represents the data.
	return crypto.Keccak256(stamp, []byte(key), dataHash), nil
}
