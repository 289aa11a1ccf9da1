// Package metrics constructs the metrics the application will track.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger"

// Ledger is the behavior required to report the size of the ledger.
type Ledger interface {
	QueryChainLength() int
	QueryMempoolLength() int
}

// Metrics represents the set of metrics we gather. These fields are
// safe to be accessed concurrently thanks to the prometheus collectors.
type Metrics struct {
	Requests     prometheus.Counter
	Errors       prometheus.Counter
	Panics       prometheus.Counter
	BlocksMined  prometheus.Counter
	Transactions prometheus.Counter
}

// New constructs the metrics and registers them with the registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := Metrics{
		Requests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Number of requests handled.",
		}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of requests that returned an error.",
		}),
		Panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_total",
			Help:      "Number of handler panics recovered.",
		}),
		BlocksMined: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_mined_total",
			Help:      "Number of blocks mined by this node.",
		}),
		Transactions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_submitted_total",
			Help:      "Number of transactions accepted into the mempool.",
		}),
	}

	return &m
}

// RegisterLedger adds gauges reporting the chain length and the number of
// pending transactions, read from the ledger at scrape time.
func RegisterLedger(reg prometheus.Registerer, ledger Ledger) {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chain_length",
		Help:      "Number of blocks in the chain.",
	}, func() float64 { return float64(ledger.QueryChainLength()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mempool_length",
		Help:      "Number of transactions waiting to be mined.",
	}, func() float64 { return float64(ledger.QueryMempoolLength()) })
}
