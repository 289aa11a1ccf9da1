// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
)

// ErrEmptyLedger is returned when the latest block is requested before the
// ledger has been initialized with its genesis block.
var ErrEmptyLedger = database.ErrEmptyChain

// ErrNotFound is returned when a requested block is not in the chain.
var ErrNotFound = database.ErrNotFound

// ErrInvalidAmount is returned when a transaction amount is not a number.
var ErrInvalidAmount = errors.New("invalid amount")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining in the background.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	NodeID    string
	Genesis   genesis.Genesis
	Storage   database.Storage
	EvHandler EventHandler
	Now       func() time.Time
}

// State manages the blockchain database. Every change to the chain or the
// mempool happens while holding mu, so a sealed block always contains
// exactly the transactions that were pending when it was sealed.
type State struct {
	mu sync.Mutex

	// Worker is set by a background miner once it is running.
	Worker Worker

	nodeID    string
	genesis   genesis.Genesis
	evHandler EventHandler
	now       func() time.Time

	mempool *mempool.Mempool
	db      *database.Database
}

// New constructs a new blockchain for data management. When the storage
// holds no blocks, the genesis block is created and written.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	// Access the storage for the blockchain. Any blocks already stored
	// are validated.
	db, err := database.New(cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		nodeID:    cfg.NodeID,
		genesis:   cfg.Genesis,
		evHandler: ev,
		now:       now,

		mempool: mempool.New(),
		db:      db,
	}

	if db.Count() == 0 {
		ev("state: New: creating genesis block: proof[%d]: prevHash[%s]", cfg.Genesis.Proof, cfg.Genesis.PreviousHash)

		if _, err := state.createBlock(cfg.Genesis.Proof, cfg.Genesis.PreviousHash); err != nil {
			return nil, err
		}
	}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	// Stop the background miner before the storage is closed.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return s.db.Close()
}
