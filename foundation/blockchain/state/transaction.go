package state

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/hashing"
)

// SubmitTransaction adds a transaction to the mempool and returns the index
// of the block it is expected to be sealed into. The sender and receiver are
// accepted as given, the amount must be a number literal.
func (s *State) SubmitTransaction(sender string, receiver string, amount json.Number) (uint64, error) {
	if _, err := hashing.Number(amount); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.db.LatestBlock()
	if err != nil {
		return 0, err
	}

	tx := database.NewTx(sender, receiver, amount)
	n := s.mempool.Add(tx)

	s.evHandler("state: SubmitTransaction: tx[%s]: pending[%d]", tx, n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return latest.Index + 1, nil
}
