// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ledger/app/services/node/handlers/v1/ledgergrp"
	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// The ledger routes are not versioned and are served from the root.
const version = ""

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Metrics *metrics.Metrics
	Evts    *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	lgh := ledgergrp.Handlers{
		Log:     cfg.Log,
		State:   cfg.State,
		Metrics: cfg.Metrics,
		WS:      websocket.Upgrader{},
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/mine", lgh.Mine)
	app.Handle(http.MethodPost, version, "/transactions/new", lgh.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/transactions/pending", lgh.Pending)
	app.Handle(http.MethodGet, version, "/chain", lgh.Chain)
	app.Handle(http.MethodGet, version, "/blocks/:index", lgh.Block)
	app.Handle(http.MethodGet, version, "/blocks/:index/proof/:tx", lgh.Proof)
	app.Handle(http.MethodGet, version, "/validate", lgh.Validate)
	app.Handle(http.MethodGet, version, "/genesis", lgh.Genesis)
	app.Handle(http.MethodGet, version, "/status", lgh.Status)
	app.Handle(http.MethodGet, version, "/events", lgh.Events)
}
