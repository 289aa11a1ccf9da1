package state_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/merkle"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"golang.org/x/sync/errgroup"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Values were computed by hashing the same records with
// python's json.dumps(sort_keys=True).
const (
	genesisHash = "242f194d2254553ea3224e0a68acc2f0f9a184c6e59689ba4e0b9d341e23483a"
	block2Hash  = "2e1c8bf38d41cd41df6927fd8de71ec0a4c44f76f3c201b38808e5058041ac5c"
	block2Root  = "77146a499a7ed5459b250dcb4af1889b905f62d47dce0d9363930e281a2e0cf0"
)

const nodeID = "miner1"

func ifErrFailNow(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

// clock returns times starting at 1700000000 and moving forward 1.5s on
// every call.
func clock() func() time.Time {
	var mu sync.Mutex
	next := time.Unix(1700000000, 0)

	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()

		now := next
		next = next.Add(1500 * time.Millisecond)
		return now
	}
}

func newState(t *testing.T, strg database.Storage) *state.State {
	t.Helper()

	st, err := state.New(state.Config{
		NodeID:    nodeID,
		Genesis:   genesis.Default(),
		Storage:   strg,
		EvHandler: func(v string, args ...any) { t.Logf(v, args...) },
		Now:       clock(),
	})
	ifErrFailNow(t, err)

	return st
}

// tamperStorage keeps blocks in a slice the test can reach into to change
// a block after it was written.
type tamperStorage struct {
	*memory.Memory
	blocks []database.Block
}

func (ts *tamperStorage) Write(block database.Block) error {
	if err := ts.Memory.Write(block); err != nil {
		return err
	}
	ts.blocks = append(ts.blocks, block)
	return nil
}

func (ts *tamperStorage) GetBlock(num uint64) (database.Block, error) {
	if num >= uint64(len(ts.blocks)) {
		return database.Block{}, errors.New("block does not exist")
	}
	return ts.blocks[num], nil
}

func (ts *tamperStorage) ForEach() database.Iterator {
	return &sliceIterator{blocks: ts.blocks}
}

type sliceIterator struct {
	blocks []database.Block
	next   int
	done   bool
}

func (si *sliceIterator) Next() (database.Block, error) {
	if si.next >= len(si.blocks) {
		si.done = true
		return database.Block{}, errors.New("end of chain")
	}
	si.next++
	return si.blocks[si.next-1], nil
}

func (si *sliceIterator) Done() bool {
	return si.done
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to start a ledger.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the ledger is first constructed.", testID)
		{
			st := newState(t, memory.New())

			chain, err := st.RetrieveChain()
			ifErrFailNow(t, err)

			if len(chain) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have a single block, got %d.", failed, testID, len(chain))
			}
			t.Logf("\t%s\tTest %d:\tShould have a single block.", success, testID)

			gen := chain[0]
			if gen.Index != 1 || gen.Proof != genesis.DefaultProof || gen.PreviousHash != genesis.DefaultPreviousHash || gen.MerkleRoot != nil {
				t.Fatalf("\t%s\tTest %d:\tShould have the genesis values, got %+v.", failed, testID, gen)
			}
			t.Logf("\t%s\tTest %d:\tShould have the genesis values.", success, testID)

			if hash := gen.Hash(); hash != genesisHash {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, hash)
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, genesisHash)
				t.Fatalf("\t%s\tTest %d:\tShould get the expected genesis hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the expected genesis hash.", success, testID)

			v, err := st.ValidateChain()
			ifErrFailNow(t, err)

			if !v.Valid || v.Message != "chain is valid" || v.Length != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould report a valid chain, got %+v.", failed, testID, v)
			}
			t.Logf("\t%s\tTest %d:\tShould report a valid chain.", success, testID)
		}
	}
}

func Test_SubmitAndMine(t *testing.T) {
	t.Log("Given the need to seal submitted transactions into a block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen submitting a transaction and mining.", testID)
		{
			st := newState(t, memory.New())

			index, err := st.SubmitTransaction("Alice", "Bob", "25")
			ifErrFailNow(t, err)

			if index != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould expect block 2, got %d.", failed, testID, index)
			}
			t.Logf("\t%s\tTest %d:\tShould expect block 2.", success, testID)

			if n := st.QueryMempoolLength(); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have 1 pending transaction, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould have 1 pending transaction.", success, testID)

			block, err := st.MineNewBlock(context.Background())
			ifErrFailNow(t, err)

			exp := []database.Tx{
				database.NewTx("Alice", "Bob", "25"),
				database.NewTx("0", nodeID, "1"),
			}
			if !reflect.DeepEqual(block.Transactions, exp) {
				t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, block.Transactions)
				t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould have the transaction followed by the reward.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have the transaction followed by the reward.", success, testID)

			root, err := merkle.Root(exp)
			ifErrFailNow(t, err)

			if block.Index != 2 || block.MerkleRoot == nil || *block.MerkleRoot != *root || *root != block2Root {
				t.Fatalf("\t%s\tTest %d:\tShould have index 2 and the merkle root of its transactions, got %+v.", failed, testID, block)
			}
			t.Logf("\t%s\tTest %d:\tShould have index 2 and the merkle root of its transactions.", success, testID)

			if block.PreviousHash != genesisHash {
				t.Fatalf("\t%s\tTest %d:\tShould link to the genesis block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould link to the genesis block.", success, testID)

			if hash := block.Hash(); hash != block2Hash {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, hash)
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, block2Hash)
				t.Fatalf("\t%s\tTest %d:\tShould get the expected block hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the expected block hash.", success, testID)

			if n := st.QueryMempoolLength(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have an empty mempool, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould have an empty mempool.", success, testID)

			v, err := st.ValidateChain()
			ifErrFailNow(t, err)

			if !v.Valid || v.Length != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould report a valid chain, got %+v.", failed, testID, v)
			}
			t.Logf("\t%s\tTest %d:\tShould report a valid chain.", success, testID)

			c1, err := st.RetrieveChain()
			ifErrFailNow(t, err)
			c2, err := st.RetrieveChain()
			ifErrFailNow(t, err)

			if !reflect.DeepEqual(c1, c2) {
				t.Fatalf("\t%s\tTest %d:\tShould get the same chain twice.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same chain twice.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen creating a block with a supplied previous hash.", testID)
		{
			st := newState(t, memory.New())

			block, err := st.CreateBlock(42, "abc")
			ifErrFailNow(t, err)

			if block.PreviousHash != "abc" || block.Proof != 42 || block.MerkleRoot != nil || len(block.Transactions) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould use the supplied values, got %+v.", failed, testID, block)
			}
			t.Logf("\t%s\tTest %d:\tShould use the supplied values.", success, testID)

			v, err := st.ValidateChain()
			ifErrFailNow(t, err)

			if v.Valid {
				t.Fatalf("\t%s\tTest %d:\tShould report a broken chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report a broken chain.", success, testID)
		}
	}
}

func Test_InvalidAmount(t *testing.T) {
	t.Log("Given the need to keep amounts that are not numbers out of the mempool.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen submitting an amount that is not a number.", testID)
		{
			st := newState(t, memory.New())

			if _, err := st.SubmitTransaction("Alice", "Bob", "abc"); !errors.Is(err, state.ErrInvalidAmount) {
				t.Fatalf("\t%s\tTest %d:\tShould get an invalid amount error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get an invalid amount error.", success, testID)

			if n := st.QueryMempoolLength(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have an empty mempool, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould have an empty mempool.", success, testID)

			_, err := st.SubmitTransaction("Alice", "Bob", "25.50")
			ifErrFailNow(t, err)

			block, err := st.MineNewBlock(context.Background())
			ifErrFailNow(t, err)

			if block.Index != 2 || len(block.Transactions) != 2 || st.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould still be able to mine, got %+v.", failed, testID, block)
			}
			t.Logf("\t%s\tTest %d:\tShould still be able to mine.", success, testID)
		}
	}
}

func Test_MerkleProof(t *testing.T) {
	t.Log("Given the need to prove a transaction is sealed in a block.")
	{
		strg := tamperStorage{Memory: memory.New()}
		st := newState(t, &strg)

		_, err := st.SubmitTransaction("Alice", "Bob", "25")
		ifErrFailNow(t, err)
		_, err = st.MineNewBlock(context.Background())
		ifErrFailNow(t, err)

		aliceHash, err := database.NewTx("Alice", "Bob", "25").Hash()
		ifErrFailNow(t, err)
		rewardHash, err := database.NewRewardTx(nodeID).Hash()
		ifErrFailNow(t, err)

		testID := 0
		t.Logf("\tTest %d:\tWhen asking for each transaction of a mined block.", testID)
		{
			mp, err := st.QueryMerkleProof(2, 0)
			ifErrFailNow(t, err)

			if !mp.Verified || mp.MerkleRoot != block2Root || mp.Hash != aliceHash {
				t.Fatalf("\t%s\tTest %d:\tShould get a verified proof for the first transaction, got %+v.", failed, testID, mp)
			}
			t.Logf("\t%s\tTest %d:\tShould get a verified proof for the first transaction.", success, testID)

			if !reflect.DeepEqual(mp.Proof, []string{rewardHash}) || !reflect.DeepEqual(mp.Order, []int64{1}) {
				t.Fatalf("\t%s\tTest %d:\tShould pair the first transaction with the reward, got %v %v.", failed, testID, mp.Proof, mp.Order)
			}
			t.Logf("\t%s\tTest %d:\tShould pair the first transaction with the reward.", success, testID)

			mp, err = st.QueryMerkleProof(2, 1)
			ifErrFailNow(t, err)

			if !mp.Verified || mp.Hash != rewardHash || !reflect.DeepEqual(mp.Proof, []string{aliceHash}) || !reflect.DeepEqual(mp.Order, []int64{0}) {
				t.Fatalf("\t%s\tTest %d:\tShould get a verified proof for the reward, got %+v.", failed, testID, mp)
			}
			t.Logf("\t%s\tTest %d:\tShould get a verified proof for the reward.", success, testID)

			if !merkle.VerifyProof(mp.Hash, mp.Proof, mp.Order, block2Root) {
				t.Fatalf("\t%s\tTest %d:\tShould be able to check the proof independently.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to check the proof independently.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen asking for a transaction that is not there.", testID)
		{
			for _, c := range []struct {
				index    uint64
				position int
			}{{1, 0}, {2, 2}, {2, -1}, {3, 0}} {
				if _, err := st.QueryMerkleProof(c.index, c.position); !errors.Is(err, state.ErrNotFound) {
					t.Fatalf("\t%s\tTest %d:\tShould not find transaction %d in block %d: %v", failed, testID, c.position, c.index, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould not find transactions outside a block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the stored merkle root was changed.", testID)
		{
			root := genesisHash
			strg.blocks[1].MerkleRoot = &root

			mp, err := st.QueryMerkleProof(2, 0)
			ifErrFailNow(t, err)

			if mp.Verified {
				t.Fatalf("\t%s\tTest %d:\tShould not verify against the changed root.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not verify against the changed root.", success, testID)
		}
	}
}

func Test_TamperedChain(t *testing.T) {
	t.Log("Given the need to detect a block changed after it was stored.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the proof of a stored block is changed.", testID)
		{
			strg := tamperStorage{Memory: memory.New()}
			st := newState(t, &strg)

			_, err := st.SubmitTransaction("Alice", "Bob", "25")
			ifErrFailNow(t, err)
			_, err = st.MineNewBlock(context.Background())
			ifErrFailNow(t, err)

			strg.blocks[1].Proof++

			v, err := st.ValidateChain()
			ifErrFailNow(t, err)

			if v.Valid {
				t.Fatalf("\t%s\tTest %d:\tShould report an invalid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report an invalid chain.", success, testID)

			if !strings.Contains(v.Message, "block pair 1") || v.Length != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould cite the pair position, got %+v.", failed, testID, v)
			}
			t.Logf("\t%s\tTest %d:\tShould cite the pair position.", success, testID)
		}
	}
}

func Test_MineCancelled(t *testing.T) {
	t.Log("Given the need to cancel a mining operation.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the context is cancelled before mining.", testID)
		{
			st := newState(t, memory.New())

			_, err := st.SubmitTransaction("Alice", "Bob", "25")
			ifErrFailNow(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := st.MineNewBlock(ctx); !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest %d:\tShould get a cancelled error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a cancelled error.", success, testID)

			chain, err := st.RetrieveChain()
			ifErrFailNow(t, err)

			if len(chain) != 1 || st.QueryMempoolLength() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the ledger unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the ledger unchanged.", success, testID)
		}
	}
}

func Test_ConcurrentSubmitAndMine(t *testing.T) {
	const (
		submitters = 8
		perG       = 50
		miners     = 10
	)

	st, err := state.New(state.Config{
		NodeID:  nodeID,
		Genesis: genesis.Default(),
		Storage: memory.New(),
	})
	ifErrFailNow(t, err)

	var g errgroup.Group
	for i := 0; i < submitters; i++ {
		i := i
		g.Go(func() error {
			for j := 0; j < perG; j++ {
				if _, err := st.SubmitTransaction(fmt.Sprintf("g%d", i), fmt.Sprintf("tx%d", j), "1"); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for i := 0; i < miners; i++ {
		g.Go(func() error {
			_, err := st.MineNewBlock(context.Background())
			return err
		})
	}
	ifErrFailNow(t, g.Wait())

	_, err = st.MineNewBlock(context.Background())
	ifErrFailNow(t, err)

	chain, err := st.RetrieveChain()
	ifErrFailNow(t, err)

	seen := make(map[string]bool)
	for _, block := range chain {
		for _, tx := range block.Transactions {
			if tx.Sender == database.RewardSender {
				continue
			}
			key := tx.String()
			if seen[key] {
				t.Fatalf("transaction %s sealed twice", key)
			}
			seen[key] = true
		}
	}

	if len(seen) != submitters*perG {
		t.Fatalf("expected %d sealed transactions, got %d", submitters*perG, len(seen))
	}

	v, err := st.ValidateChain()
	ifErrFailNow(t, err)

	if !v.Valid || v.Length != miners+2 {
		t.Fatalf("expected a valid chain of %d blocks, got %+v", miners+2, v)
	}
}
