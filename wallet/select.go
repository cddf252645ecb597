// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/spvsuite/spvd/chainhash"
)

// coinSelectionSeed fixes select_spends's pseudo-randomness, per spec §4.G
// scenario 5's "seed fixed": the algorithm is a deterministic
// approximation, not a real lottery, so two runs over the same spend set
// must return the same answer.
const coinSelectionSeed = 0x9E3779B97F4A7C15

// subsetSumIterations is the number of coin-flip passes the approximation
// runs, per spec §4.G step 4.
const subsetSumIterations = 1000

// ErrInsufficientSpends is returned by SelectSpends when no combination of
// eligible spends can reach target.
var ErrInsufficientSpends = errors.New("insufficient spends")

// SelectSpends implements spec §4.G's select_spends: given the candidate
// pool, the categories eligible for spending, a target amount, and a set
// of prevouts to exclude (already committed to the transaction under
// construction), returns a subset whose sum is >= target while minimizing
// excess, or ErrInsufficientSpends if the pool cannot reach target.
func SelectSpends(spends []*Spend, categories map[string]bool, target, dustLimit int64, exclude map[chainhash.Hash]struct{}, isConflicted func(chainhash.Hash) bool) ([]*Spend, error) {
	eligible := eligibleSpends(spends, categories, exclude, isConflicted)
	order := pseudoRandomOrder(len(eligible))

	var below []*Spend
	var smallestOver *Spend
	threshold := target + dustLimit
	var belowSum int64

	for _, idx := range order {
		s := eligible[idx]
		if s.Amount == target {
			return []*Spend{s}, nil
		}
		if s.Amount < threshold {
			below = append(below, s)
			belowSum += s.Amount
			continue
		}
		if smallestOver == nil || s.Amount < smallestOver.Amount {
			smallestOver = s
		}
	}

	if belowSum == target {
		return below, nil
	}
	if belowSum < target {
		if smallestOver != nil {
			return []*Spend{smallestOver}, nil
		}
		return nil, ErrInsufficientSpends
	}

	sort.Slice(below, func(i, j int) bool { return below[i].Amount < below[j].Amount })

	best, bestTotal := approximateSubsetSum(below, target)
	if bestTotal-target > 0 && bestTotal-target < dustLimit {
		var belowSumForHigher int64
		for _, s := range below {
			belowSumForHigher += s.Amount
		}
		if belowSumForHigher >= threshold {
			if raised, raisedTotal := approximateSubsetSum(below, threshold); raisedTotal >= 0 {
				best, bestTotal = raised, raisedTotal
			}
		}
	}

	if smallestOver != nil && smallestOver.Amount < bestTotal {
		return []*Spend{smallestOver}, nil
	}
	return best, nil
}

// eligibleSpends filters spends to those that are spendable, in an
// eligible category, and not already committed elsewhere.
func eligibleSpends(spends []*Spend, categories map[string]bool, exclude map[chainhash.Hash]struct{}, isConflicted func(chainhash.Hash) bool) []*Spend {
	var out []*Spend
	for _, s := range spends {
		if !categories[s.Category] {
			continue
		}
		if _, excluded := exclude[s.Prevout.Hash]; excluded {
			continue
		}
		if s.IsSpent(isConflicted) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// pseudoRandomOrder returns a permutation of [0, n) built by multiplying
// the index by a fixed modulus coprime to n, per spec §4.G step 1: this
// visits every slot exactly once without copying or shuffling the slice.
func pseudoRandomOrder(n int) []int {
	if n == 0 {
		return nil
	}
	m := coprimeModulus(n)
	order := make([]int, n)
	for i := 0; i < n; i++ {
		order[i] = (i * m) % n
	}
	return order
}

func coprimeModulus(n int) int {
	candidate := int(uint64(coinSelectionSeed) % uint64(n))
	if candidate == 0 {
		candidate = 1
	}
	for gcd(candidate, n) != 1 {
		candidate++
		if candidate >= n {
			candidate = 1
		}
	}
	return candidate
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// approximateSubsetSum runs the two-coin-flip-pass approximation spec
// §4.G step 4 describes: 1000 iterations, each starting from "every item
// selected" and toggling inclusion twice, tracking the smallest total
// that still meets target. It always returns a non-nil result, since the
// all-included baseline is seeded before the random passes and the
// caller has already established sum(below) >= target.
func approximateSubsetSum(below []*Spend, target int64) ([]*Spend, int64) {
	n := len(below)
	rng := rand.New(rand.NewSource(coinSelectionSeed))

	baseline := make([]bool, n)
	var baselineTotal int64
	for i := range baseline {
		baseline[i] = true
		baselineTotal += below[i].Amount
	}

	bestIncluded := baseline
	bestTotal := baselineTotal

	included := make([]bool, n)
	for iter := 0; iter < subsetSumIterations; iter++ {
		copy(included, baseline)
		for pass := 0; pass < 2; pass++ {
			for i := 0; i < n; i++ {
				if rng.Intn(2) == 0 {
					included[i] = !included[i]
				}
			}
		}

		var total int64
		for i, inc := range included {
			if inc {
				total += below[i].Amount
			}
		}
		if total >= target && total < bestTotal {
			bestTotal = total
			bestIncluded = append([]bool(nil), included...)
		}
	}

	result := make([]*Spend, 0, n)
	for i, inc := range bestIncluded {
		if inc {
			result = append(result, below[i])
		}
	}
	return result, bestTotal
}
