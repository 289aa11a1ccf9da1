package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/pow"
)

// MineNewBlock searches for the proof that follows the latest block, pays
// this node with a reward transaction placed after the pending transactions
// and seals everything into a new block. If the context is cancelled during
// the search nothing is changed.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	latest, err := s.db.LatestBlock()
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: lastProof[%d]", latest.Proof)

	proof, err := pow.Search(ctx, latest.Proof, s.evHandler)
	if err != nil {
		return database.Block{}, fmt.Errorf("searching proof: %w", err)
	}

	s.evHandler("state: MineNewBlock: MINING: apply mining reward: node[%s]", s.nodeID)

	return s.createBlock(proof, "", database.NewRewardTx(s.nodeID))
}

// CreateBlock seals the pending transactions into a new block using the
// specified proof. When previousHash is empty, the hash of the latest block
// is used.
func (s *State) CreateBlock(proof uint64, previousHash string) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createBlock(proof, previousHash)
}

// =============================================================================

// createBlock builds the next block from the pending transactions followed
// by any extra transactions, writes it and then clears the mempool. The
// mempool is only cleared once the block is written. The caller must hold
// the lock.
func (s *State) createBlock(proof uint64, previousHash string, extra ...database.Tx) (database.Block, error) {
	if previousHash == "" {
		latest, err := s.db.LatestBlock()
		if err != nil {
			return database.Block{}, err
		}
		previousHash = latest.Hash()
	}

	trans := append(s.mempool.Copy(), extra...)
	index := uint64(s.db.Count()) + 1

	block, err := database.NewBlock(index, s.now(), trans, proof, previousHash)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: createBlock: write block: blk[%d]: txs[%d]", block.Index, len(block.Transactions))

	if err := s.db.Write(block); err != nil {
		return database.Block{}, err
	}

	s.mempool.Truncate()

	s.evHandler("state: createBlock: sealed: blk[%d]: hash[%s]", block.Index, block.Hash())

	return block.Clone(), nil
}
