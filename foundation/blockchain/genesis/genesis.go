// Package genesis maintains access to the genesis settings.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Set of default values for a chain.
const (
	DefaultPayload    = "Genesis Block"
	DefaultDifficulty = 2
)

// MaxDifficulty is the length of a hex encoded SHA-256 hash.
const MaxDifficulty = 64

// Genesis represents the genesis settings.
type Genesis struct {
	Payload    string `json:"payload"`    // Sentinel payload recorded in the genesis block.
	Difficulty uint   `json:"difficulty"` // Number of leading 0's a block hash requires.
	SignKey    string `json:"sign_key"`   // Shared key used to stamp contract signatures.
}

// Default returns the genesis settings every fresh chain starts with.
func Default() Genesis {
	return Genesis{
		Payload:    DefaultPayload,
		Difficulty: DefaultDifficulty,
		SignKey:    signature.DefaultKey,
	}
}

// WithDefaults returns the settings with every unset field taking its
// default value.
func (g Genesis) WithDefaults() Genesis {
	def := Default()

	if g.Payload == "" {
		g.Payload = def.Payload
	}
	if g.Difficulty == 0 {
		g.Difficulty = def.Difficulty
	}
	if g.SignKey == "" {
		g.SignKey = def.SignKey
	}

	return g
}

// =============================================================================

// Load opens and consumes the genesis file. Settings missing from the file
// take their default value.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var file struct {
		Payload    *string `json:"payload"`
		Difficulty *uint   `json:"difficulty"`
		SignKey    *string `json:"sign_key"`
	}
	if err := json.Unmarshal(content, &file); err != nil {
		return Genesis{}, fmt.Errorf("parsing genesis file: %w", err)
	}

	gen := Default()
	if file.Payload != nil {
		gen.Payload = *file.Payload
	}
	if file.Difficulty != nil {
		gen.Difficulty = *file.Difficulty
	}
	if file.SignKey != nil {
		gen.SignKey = *file.SignKey
	}

	if err := gen.Validate(); err != nil {
		return Genesis{}, err
	}

	return gen, nil
}

// Validate checks the settings can drive a chain.
func (g Genesis) Validate() error {
	if g.Difficulty < 1 || g.Difficulty > MaxDifficulty {
		return fmt.Errorf("difficulty must be between 1 and %d, got %d", MaxDifficulty, g.Difficulty)
	}

	return nil
}
