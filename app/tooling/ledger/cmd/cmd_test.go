package cmd_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/app/tooling/ledger/cmd"
	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNode(t *testing.T) (*state.State, string) {
	t.Helper()

	st, err := state.New(state.Config{
		NodeID:  "miner1",
		Genesis: genesis.Default(),
		Storage: memory.New(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Metrics:  metrics.New(prometheus.NewRegistry()),
		Evts:     events.New(),
	}))
	t.Cleanup(srv.Close)

	return st, srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := cmd.NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func Test_SendAndMine(t *testing.T) {
	st, url := newNode(t)

	out, err := run(t, "--url", url, "send", "--sender", "Alice", "--recipient", "Bob", "--amount", "25")
	require.NoError(t, err)
	require.JSONEq(t, `{"message":"transaction will be added to block 2","index":2}`, out)

	out, err = run(t, "--url", url, "pending")
	require.NoError(t, err)
	require.JSONEq(t, `{"transactions":[{"sender":"Alice","receiver":"Bob","amount":25}],"length":1}`, out)

	out, err = run(t, "--url", url, "mine")
	require.NoError(t, err)

	var mined struct {
		Index        uint64            `json:"index"`
		Transactions []json.RawMessage `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &mined))
	require.Equal(t, uint64(2), mined.Index)
	require.Len(t, mined.Transactions, 2)
	require.Equal(t, 2, st.QueryChainLength())

	out, err = run(t, "--url", url, "block", "2")
	require.NoError(t, err)
	require.Contains(t, out, `"merkle_root"`)

	_, err = run(t, "--url", url, "block", "7")
	require.ErrorContains(t, err, "404")

	out, err = run(t, "--url", url, "proof", "2", "1")
	require.NoError(t, err)
	require.Contains(t, out, `"verified": true`)
	require.Contains(t, out, `"receiver": "miner1"`)

	_, err = run(t, "--url", url, "proof", "2", "5")
	require.ErrorContains(t, err, "404")

	out, err = run(t, "--url", url, "chain")
	require.NoError(t, err)
	require.Contains(t, out, `"length": 2`)

	out, err = run(t, "--url", url, "validate")
	require.NoError(t, err)
	require.Contains(t, out, "chain is valid")
}

func Test_SendRejected(t *testing.T) {
	_, url := newNode(t)

	_, err := run(t, "--url", url, "send", "--sender", "Alice", "--recipient", "Bob", "--amount", "lots")
	require.ErrorContains(t, err, "not a number")

	_, err = run(t, "--url", url, "send", "--sender", "Alice", "--amount", "1")
	require.Error(t, err, "recipient is required")
}

func Test_ValidateBroken(t *testing.T) {
	st, url := newNode(t)

	_, err := st.CreateBlock(42, "not-the-parent")
	require.NoError(t, err)

	out, err := run(t, "--url", url, "validate")
	require.ErrorContains(t, err, "block pair 1")
	require.Contains(t, out, `"valid": false`)
}

func Test_URLFromEnv(t *testing.T) {
	_, url := newNode(t)
	t.Setenv("LEDGER_URL", url)

	out, err := run(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, `"node_id": "miner1"`)
}
