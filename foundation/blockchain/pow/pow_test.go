package pow_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/pow"
	"pgregory.net/rapid"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Search(t *testing.T) {
	type table struct {
		name      string
		lastProof uint64
		proof     uint64
		guess     string
	}

	tt := []table{
		{name: "zero", lastProof: 0, proof: 181, guess: "e72b7f4636780fc97d21293bf395db04997803412dea4de68908e7d61b917111"},
		{name: "one", lastProof: 1, proof: 246, guess: "cf3ff1a00fa1836509df654dd27e81bd2e64b6ee293b26a7b96817388e44a711"},
		{name: "genesis", lastProof: 57185, proof: 129, guess: "eec409582917bf510fb68b04bddd4c622d7b31514e299fdef920a46a3b631d11"},
	}

	t.Log("Given the need to find the proof for a last proof.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen searching from last proof %d.", testID, tst.lastProof)
			{
				f := func(t *testing.T) {
					proof, err := pow.Search(context.Background(), tst.lastProof, nil)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to search: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to search.", success, testID)

					if proof != tst.proof {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, proof)
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.proof)
						t.Fatalf("\t%s\tTest %d:\tShould find the expected proof.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould find the expected proof.", success, testID)

					if guess := pow.Guess(tst.lastProof, proof); guess != tst.guess {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, guess)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.guess)
						t.Fatalf("\t%s\tTest %d:\tShould produce the expected digest.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould produce the expected digest.", success, testID)

					if !pow.ValidProof(tst.lastProof, proof) {
						t.Fatalf("\t%s\tTest %d:\tShould verify the proof.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould verify the proof.", success, testID)

					if pow.Solve(tst.lastProof) != proof {
						t.Fatalf("\t%s\tTest %d:\tShould get the same proof from Solve.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the same proof from Solve.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_SearchCancelled(t *testing.T) {
	t.Log("Given the need to stop a search.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the context is already cancelled.", testID)
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := pow.Search(ctx, 57185, nil); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould get an error from a cancelled search.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get an error from a cancelled search.", success, testID)
		}
	}
}

func Test_SearchProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lastProof := rapid.Uint64().Draw(t, "lastProof")

		proof := pow.Solve(lastProof)
		if !pow.ValidProof(lastProof, proof) {
			t.Fatalf("proof %d does not verify for %d", proof, lastProof)
		}

		// Nothing smaller may solve the puzzle.
		for p := uint64(0); p < proof; p++ {
			if pow.ValidProof(lastProof, p) {
				t.Fatalf("proof %d is smaller than %d and verifies", p, proof)
			}
		}
	})
}

func Test_ValidProofMatchesSuffix(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lastProof := rapid.Uint64().Draw(t, "lastProof")
		proof := rapid.Uint64Range(0, 4096).Draw(t, "proof")

		guess := pow.Guess(lastProof, proof)
		if pow.ValidProof(lastProof, proof) != strings.HasSuffix(guess, "11") {
			t.Fatalf("predicate disagrees with digest %s", guess)
		}
	})
}
