// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/validate"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Metrics *metrics.Metrics
	WS      websocket.Upgrader
	Evts    *events.Events
}

// Mine searches for the next proof, rewards this node and seals the pending
// transactions into a new block.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		return fmt.Errorf("mining block: %w", err)
	}
	h.Metrics.BlocksMined.Inc()

	h.Log.Infow("mine", "traceid", v.TraceID, "index", block.Index, "proof", block.Proof, "txs", len(block.Transactions))

	return web.Respond(ctx, w, toMinedBlock(block), http.StatusOK)
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx newTx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(tx); err != nil {
		return err
	}

	index, err := h.State.SubmitTransaction(*tx.Sender, *tx.Recipient, *tx.Amount)
	if err != nil {
		if errors.Is(err, state.ErrInvalidAmount) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("submitting transaction: %w", err)
	}
	h.Metrics.Transactions.Inc()

	h.Log.Infow("add tran", "traceid", v.TraceID, "sender", *tx.Sender, "recipient", *tx.Recipient, "amount", *tx.Amount, "index", index)

	resp := txAccepted{
		Message: fmt.Sprintf("transaction will be added to block %d", index),
		Index:   index,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Chain returns every block in the chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks, err := h.State.RetrieveChain()
	if err != nil {
		return fmt.Errorf("retrieving chain: %w", err)
	}

	resp := chain{
		Chain:  blocks,
		Length: len(blocks),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Block returns the block at the specified index.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	block, err := h.State.QueryBlock(index)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("querying block %d: %w", index, err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Proof returns the merkle inclusion proof for a transaction in a block.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	position, err := strconv.Atoi(web.Param(r, "tx"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid transaction position: %w", err), http.StatusBadRequest)
	}

	mp, err := h.State.QueryMerkleProof(index, position)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("querying proof for block %d: %w", index, err)
	}

	return web.Respond(ctx, w, toTxProof(mp), http.StatusOK)
}

// Validate audits the chain. A broken chain is reported with a 400.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := h.State.ValidateChain()
	if err != nil {
		return fmt.Errorf("validating chain: %w", err)
	}

	if !v.Valid {
		return web.Respond(ctx, w, v, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, v, http.StatusOK)
}

// Pending returns the transactions waiting to be mined.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans := h.State.RetrieveMempool()

	resp := pending{
		Transactions: trans,
		Length:       len(trans),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Status returns the identity of the node and the size of its ledger.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest, err := h.State.RetrieveLatestBlock()
	if err != nil {
		return fmt.Errorf("retrieving latest block: %w", err)
	}

	resp := status{
		NodeID:      h.State.RetrieveNodeID(),
		LatestBlock: latest.Hash(),
		Length:      h.State.QueryChainLength(),
		Pending:     h.State.QueryMempoolLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The upgrade took over the response.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}
