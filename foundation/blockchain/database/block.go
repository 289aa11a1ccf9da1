package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/hashing"
	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
	"github.com/ardanlabs/ledger/foundation/blockchain/pow"
)

// Set of errors reported when a block does not follow its parent.
var (
	ErrPreviousHash = errors.New("previous hash does not match parent block")
	ErrInvalidProof = errors.New("proof of work is not valid for parent block")
)

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	Index        uint64  `json:"index"`         // Position in the chain starting at 1.
	Timestamp    float64 `json:"timestamp"`     // Seconds since the epoch the block was created.
	Transactions []Tx    `json:"transactions"`  // Transactions in the order they were submitted.
	Proof        uint64  `json:"proof"`         // Solution to the proof of work puzzle.
	PreviousHash string  `json:"previous_hash"` // Hash of the previous block in the chain.
	MerkleRoot   *string `json:"merkle_root"`   // Merkle root of the transactions, nil when there are none.
}

// NewBlock constructs a new block, computing the merkle root over the
// transactions. The transactions are copied so the block owns them.
func NewBlock(index uint64, now time.Time, trans []Tx, proof uint64, previousHash string) (Block, error) {
	root, err := merkle.Root(trans)
	if err != nil {
		return Block{}, fmt.Errorf("merkle root: %w", err)
	}

	nb := Block{
		Index:        index,
		Timestamp:    float64(now.UnixNano()) / float64(time.Second),
		Transactions: append(make([]Tx, 0, len(trans)), trans...),
		Proof:        proof,
		PreviousHash: previousHash,
		MerkleRoot:   root,
	}

	return nb, nil
}

// Fields implements the hashing.Projector interface. The whole block,
// including its transactions and merkle root, is part of the projection.
func (b Block) Fields() map[string]any {
	var root any
	if b.MerkleRoot != nil {
		root = *b.MerkleRoot
	}

	trans := make([]any, len(b.Transactions))
	for i, tx := range b.Transactions {
		trans[i] = tx
	}

	return map[string]any{
		"index":         b.Index,
		"timestamp":     b.Timestamp,
		"transactions":  trans,
		"proof":         b.Proof,
		"previous_hash": b.PreviousHash,
		"merkle_root":   root,
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return hashing.Hash(b)
}

// Clone returns a copy of the block that shares no memory with it.
func (b Block) Clone() Block {
	nb := b
	nb.Transactions = append(make([]Tx, 0, len(b.Transactions)), b.Transactions...)
	if b.MerkleRoot != nil {
		root := *b.MerkleRoot
		nb.MerkleRoot = &root
	}

	return nb
}

// ValidateBlock checks the block correctly follows the previous block. The
// previous hash must match the hash of the parent as it is stored and the
// proof must solve the puzzle for the parent's proof. The merkle root is
// not recomputed here.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if hash := previousBlock.Hash(); b.PreviousHash != hash {
		return fmt.Errorf("%w, got %s, exp %s", ErrPreviousHash, b.PreviousHash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: proof solves the puzzle", b.Index)

	if !pow.ValidProof(previousBlock.Proof, b.Proof) {
		return fmt.Errorf("%w, parent proof %d, proof %d", ErrInvalidProof, previousBlock.Proof, b.Proof)
	}

	return nil
}

// =============================================================================

// ChainInvalidError is returned when a pair of consecutive blocks does not
// link properly. Pair is the 1 based position of the pair in the chain, so
// pair 1 is the first and second block.
type ChainInvalidError struct {
	Pair  int
	Index uint64
	Err   error
}

// Error implements the error interface.
func (ce *ChainInvalidError) Error() string {
	return fmt.Sprintf("block pair %d is invalid at block %d: %s", ce.Pair, ce.Index, ce.Err)
}

// Unwrap provides access to the reason the pair is invalid.
func (ce *ChainInvalidError) Unwrap() error {
	return ce.Err
}

// IsChainInvalid checks if an error of type ChainInvalidError exists.
func IsChainInvalid(err error) bool {
	var ce *ChainInvalidError
	return errors.As(err, &ce)
}

// ValidateChain walks every pair of consecutive blocks and returns a
// ChainInvalidError for the first pair that does not link.
func ValidateChain(blocks []Block, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], evHandler); err != nil {
			return &ChainInvalidError{
				Pair:  i,
				Index: blocks[i].Index,
				Err:   err,
			}
		}
	}

	return nil
}
