package state

import (
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ChainValidMessage is reported when every block links to its parent.
const ChainValidMessage = "chain is valid"

// Validation is the result of auditing the chain.
type Validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Length  int    `json:"length"`
}

// ValidateChain walks the whole chain checking each block links to the hash
// of its parent and solves the puzzle for the parent's proof. Merkle roots
// are not recomputed, so a change to the transactions of a block that
// leaves the proof and previous hash alone is not detected. The chain is
// never modified.
func (s *State) ValidateChain() (Validation, error) {
	blocks, err := s.RetrieveChain()
	if err != nil {
		return Validation{}, err
	}

	s.evHandler("state: ValidateChain: started: blocks[%d]", len(blocks))

	if err := database.ValidateChain(blocks, s.evHandler); err != nil {
		var ce *database.ChainInvalidError
		if !errors.As(err, &ce) {
			return Validation{}, err
		}

		s.evHandler("state: ValidateChain: INVALID: %s", ce)

		v := Validation{
			Valid:   false,
			Message: ce.Error(),
			Length:  len(blocks),
		}
		return v, nil
	}

	s.evHandler("state: ValidateChain: valid")

	v := Validation{
		Valid:   true,
		Message: ChainValidMessage,
		Length:  len(blocks),
	}
	return v, nil
}
