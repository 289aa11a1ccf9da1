package ledgergrp

import (
	"encoding/json"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

type newTx struct {
	Sender    *string      `json:"sender" validate:"required"`
	Recipient *string      `json:"recipient" validate:"required"`
	Amount    *json.Number `json:"amount" validate:"required"`
}

type txAccepted struct {
	Message string `json:"message"`
	Index   uint64 `json:"index"`
}

type minedBlock struct {
	Message      string        `json:"message"`
	Index        uint64        `json:"index"`
	Timestamp    float64       `json:"timestamp"`
	Transactions []database.Tx `json:"transactions"`
	Proof        uint64        `json:"proof"`
	PreviousHash string        `json:"previous_hash"`
	MerkleRoot   *string       `json:"merkle_root"`
}

func toMinedBlock(block database.Block) minedBlock {
	return minedBlock{
		Message:      "new block forged",
		Index:        block.Index,
		Timestamp:    block.Timestamp,
		Transactions: block.Transactions,
		Proof:        block.Proof,
		PreviousHash: block.PreviousHash,
		MerkleRoot:   block.MerkleRoot,
	}
}

type chain struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

type pending struct {
	Transactions []database.Tx `json:"transactions"`
	Length       int           `json:"length"`
}

type status struct {
	NodeID      string `json:"node_id"`
	LatestBlock string `json:"latest_block"`
	Length      int    `json:"length"`
	Pending     int    `json:"pending"`
}

type txProof struct {
	Index       uint64      `json:"index"`
	Position    int         `json:"position"`
	Transaction database.Tx `json:"transaction"`
	Hash        string      `json:"hash"`
	Proof       []string    `json:"proof"`
	Order       []int64     `json:"order"`
	MerkleRoot  string      `json:"merkle_root"`
	Verified    bool        `json:"verified"`
}

func toTxProof(mp state.MerkleProof) txProof {
	p := txProof{
		Index:       mp.Index,
		Position:    mp.Position,
		Transaction: mp.Transaction,
		Hash:        mp.Hash,
		Proof:       mp.Proof,
		Order:       mp.Order,
		MerkleRoot:  mp.MerkleRoot,
		Verified:    mp.Verified,
	}

	if p.Proof == nil {
		p.Proof = []string{}
	}
	if p.Order == nil {
		p.Order = []int64{}
	}

	return p
}
