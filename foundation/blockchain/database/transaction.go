package database

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/hashing"
)

// RewardSender is the sender used for the transaction that pays the miner
// of a block.
const RewardSender = "0"

// RewardAmount is what the miner of a block is paid.
const RewardAmount json.Number = "1"

// =============================================================================

// Tx is the transactional information between two parties. The amount is
// kept as the number literal that was submitted so it hashes the same way
// it was received.
type Tx struct {
	Sender   string      `json:"sender"`
	Receiver string      `json:"receiver"`
	Amount   json.Number `json:"amount"`
}

// NewTx constructs a new transaction. No checks are performed on the values.
func NewTx(sender string, receiver string, amount json.Number) Tx {
	return Tx{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
	}
}

// NewRewardTx constructs the transaction that pays the specified node for
// mining a block.
func NewRewardTx(nodeID string) Tx {
	return NewTx(RewardSender, nodeID, RewardAmount)
}

// Fields implements the hashing.Projector interface.
func (tx Tx) Fields() map[string]any {
	return map[string]any{
		"sender":   tx.Sender,
		"receiver": tx.Receiver,
		"amount":   tx.Amount,
	}
}

// Hash implements the merkle Hashable interface for providing a hash
// of a transaction.
func (tx Tx) Hash() (string, error) {
	data, err := hashing.Canonical(tx)
	if err != nil {
		return "", err
	}

	return hashing.HashBytes(data), nil
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.Sender == otherTx.Sender &&
		tx.Receiver == otherTx.Receiver &&
		tx.Amount == otherTx.Amount
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%s", tx.Sender, tx.Receiver, tx.Amount)
}
