// Package database handles all the lower level support for maintaining the
// blockchain: the transaction and block types, block construction, chain
// validation and access to the storage holding the blocks.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyChain is returned when the latest block is requested and no block
// has been written.
var ErrEmptyChain = errors.New("no blocks in the chain")

// ErrNotFound is returned when a requested block is not in the chain.
var ErrNotFound = errors.New("block not found")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks. Blocks can only be appended.
type Database struct {
	mu sync.RWMutex

	latestBlock Block
	count       int
	storage     Storage
}

// New constructs a new database over the storage. Any blocks already in the
// storage are validated as a chain before the database can be used.
func New(storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		storage: storage,
	}

	blocks, err := db.readAll()
	if err != nil {
		return nil, err
	}

	if err := ValidateChain(blocks, evHandler); err != nil {
		return nil, fmt.Errorf("validating stored chain: %w", err)
	}

	if len(blocks) > 0 {
		db.latestBlock = blocks[len(blocks)-1]
		db.count = len(blocks)
	}

	return &db, nil
}

// Close closes the storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Write adds a new block to the end of the chain.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if want := uint64(db.count) + 1; block.Index != want {
		return fmt.Errorf("block index %d is out of order, exp %d", block.Index, want)
	}

	block = block.Clone()
	if err := db.storage.Write(block); err != nil {
		return fmt.Errorf("writing block %d: %w", block.Index, err)
	}

	db.latestBlock = block
	db.count++

	return nil
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.count == 0 {
		return Block{}, ErrEmptyChain
	}

	return db.latestBlock.Clone(), nil
}

// Count returns the number of blocks in the chain.
func (db *Database) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.count
}

// GetBlock returns the block at the specified index, starting at 1.
func (db *Database) GetBlock(index uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if index == 0 || index > uint64(db.count) {
		return Block{}, ErrNotFound
	}

	block, err := db.storage.GetBlock(index - 1)
	if err != nil {
		return Block{}, fmt.Errorf("reading block %d: %w", index, err)
	}

	return block.Clone(), nil
}

// Copy returns a copy of every block in the chain in order.
func (db *Database) Copy() ([]Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.readAll()
}

// readAll walks the storage from the first block to the last.
func (db *Database) readAll() ([]Block, error) {
	var blocks []Block

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block.Clone())
	}

	return blocks, nil
}
