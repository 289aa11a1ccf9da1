package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
)

// MerkleProof shows a transaction is sealed in a block. Hashing the
// transaction and folding in each proof hash, first when the order is 0 and
// second when it is 1, gives back the merkle root of the block.
type MerkleProof struct {
	Index       uint64
	Position    int
	Transaction database.Tx
	Hash        string
	Proof       []string
	Order       []int64
	MerkleRoot  string
	Verified    bool
}

// QueryMerkleProof returns the inclusion proof for the transaction at the
// position, starting at 0, of the block at the specified index. Verified
// reports if the proof leads back to the merkle root stored in the block.
func (s *State) QueryMerkleProof(index uint64, position int) (MerkleProof, error) {
	block, err := s.db.GetBlock(index)
	if err != nil {
		return MerkleProof{}, err
	}

	if position < 0 || position >= len(block.Transactions) {
		return MerkleProof{}, fmt.Errorf("transaction %d in block %d: %w", position, index, ErrNotFound)
	}

	tree, err := merkle.NewTree(block.Transactions)
	if err != nil {
		return MerkleProof{}, fmt.Errorf("merkle tree: %w", err)
	}

	tx := block.Transactions[position]
	if err := tree.VerifyData(tx); err != nil {
		return MerkleProof{}, fmt.Errorf("verify transaction: %w", err)
	}

	proof, order, err := tree.Proof(tx)
	if err != nil {
		return MerkleProof{}, fmt.Errorf("merkle proof: %w", err)
	}

	hash, err := tx.Hash()
	if err != nil {
		return MerkleProof{}, fmt.Errorf("hash transaction: %w", err)
	}

	var root string
	if block.MerkleRoot != nil {
		root = *block.MerkleRoot
	}

	mp := MerkleProof{
		Index:       block.Index,
		Position:    position,
		Transaction: tx,
		Hash:        hash,
		Proof:       proof,
		Order:       order,
		MerkleRoot:  root,
		Verified:    merkle.VerifyProof(hash, proof, order, root),
	}

	s.evHandler("state: QueryMerkleProof: block[%d]: tx[%d]: verified[%t]", index, position, mp.Verified)

	return mp, nil
}
