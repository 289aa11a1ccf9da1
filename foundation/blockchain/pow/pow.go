// Package pow implements the proof of work puzzle used to seal blocks. The
// puzzle is fixed: hash the decimal forms of the last proof and the
// candidate proof back to back and accept when the digest ends in "11".
package pow

import (
	"context"
	"strconv"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/hashing"
)

// Suffix is what an accepted digest must end with.
const Suffix = "11"

// ValidProof reports whether the proof solves the puzzle for the last proof.
// Mining and chain validation both use this so they can never disagree.
func ValidProof(lastProof uint64, proof uint64) bool {
	return strings.HasSuffix(Guess(lastProof, proof), Suffix)
}

// Guess returns the digest that is checked for the specified pair.
func Guess(lastProof uint64, proof uint64) string {
	guess := make([]byte, 0, 40)
	guess = strconv.AppendUint(guess, lastProof, 10)
	guess = strconv.AppendUint(guess, proof, 10)

	return hashing.HashBytes(guess)
}

// Search starts at zero and increments the proof by 1 until it solves the
// puzzle for the last proof. The first accepted proof is returned, which is
// the smallest one. The search only stops early when the context is
// cancelled.
func Search(ctx context.Context, lastProof uint64, ev func(v string, args ...any)) (uint64, error) {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("pow: Search: MINING: started: lastProof[%d]", lastProof)

	// The context is checked once every checkEvery guesses.
	const checkEvery = 1024

	var proof uint64
	for {
		if proof%checkEvery == 0 && ctx.Err() != nil {
			ev("pow: Search: MINING: CANCELLED: attempts[%d]", proof)
			return 0, ctx.Err()
		}

		if ValidProof(lastProof, proof) {
			ev("pow: Search: MINING: SOLVED: lastProof[%d]: proof[%d]: attempts[%d]", lastProof, proof, proof+1)
			return proof, nil
		}

		proof++
	}
}

// Solve performs the search without a way to cancel it.
func Solve(lastProof uint64) uint64 {
	proof, _ := Search(context.Background(), lastProof, nil)
	return proof
}
