// Package genesis maintains access to the genesis settings.
package genesis

import (
	"encoding/json"
	"errors"
	"os"
)

// Default values for the genesis block.
const (
	DefaultProof        = 57185
	DefaultPreviousHash = "Matlak"
)

// Genesis represents the settings used to synthesize the first block. The
// first block has no parent, so its proof and previous hash are fixed
// values instead of being searched for and derived.
type Genesis struct {
	Proof        uint64 `json:"proof"`
	PreviousHash string `json:"previous_hash"`
}

// Default returns the genesis settings used when no file is provided.
func Default() Genesis {
	return Genesis{
		Proof:        DefaultProof,
		PreviousHash: DefaultPreviousHash,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. An empty path returns the
// default settings.
func Load(path string) (Genesis, error) {
	if path == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.PreviousHash == "" {
		return Genesis{}, errors.New("genesis previous hash can't be empty")
	}

	return genesis, nil
}
