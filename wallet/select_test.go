// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

func makeSpend(t *testing.T, index uint32, amount int64) *Spend {
	t.Helper()
	var hash chainhash.Hash
	hash[0] = byte(index + 1)
	prevout := *wire.NewOutPoint(&hash, 0)
	return NewSpend("default", amount, prevout, nil, wire.NewTaggedInt(0))
}

func noneConflicted(chainhash.Hash) bool { return false }

func TestSelectSpendsExactMatch(t *testing.T) {
	spends := []*Spend{makeSpend(t, 0, 100), makeSpend(t, 1, 700), makeSpend(t, 2, 900)}
	cats := map[string]bool{"default": true}

	result, err := SelectSpends(spends, cats, 700, 10, nil, noneConflicted)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, int64(700), result[0].Amount)
}

func TestSelectSpendsInsufficientReturnsError(t *testing.T) {
	spends := []*Spend{makeSpend(t, 0, 100), makeSpend(t, 1, 150), makeSpend(t, 2, 250), makeSpend(t, 3, 500), makeSpend(t, 4, 900)}
	cats := map[string]bool{"default": true}

	_, err := SelectSpends(spends, cats, 10000, 10, nil, noneConflicted)
	require.ErrorIs(t, err, ErrInsufficientSpends)
}

func TestSelectSpendsMeetsOrExceedsTarget(t *testing.T) {
	spends := []*Spend{makeSpend(t, 0, 100), makeSpend(t, 1, 150), makeSpend(t, 2, 250), makeSpend(t, 3, 500), makeSpend(t, 4, 900)}
	cats := map[string]bool{"default": true}

	result, err := SelectSpends(spends, cats, 700, 10, nil, noneConflicted)
	require.NoError(t, err)

	var total int64
	for _, s := range result {
		total += s.Amount
	}
	require.GreaterOrEqual(t, total, int64(700))
}

func TestSelectSpendsExcludesCommittedPrevouts(t *testing.T) {
	s0 := makeSpend(t, 0, 700)
	spends := []*Spend{s0}
	cats := map[string]bool{"default": true}
	exclude := map[chainhash.Hash]struct{}{s0.Prevout.Hash: {}}

	_, err := SelectSpends(spends, cats, 700, 10, exclude, noneConflicted)
	require.ErrorIs(t, err, ErrInsufficientSpends)
}

func TestPseudoRandomOrderIsAPermutation(t *testing.T) {
	seen := make(map[int]bool)
	for _, idx := range pseudoRandomOrder(7) {
		require.False(t, seen[idx])
		seen[idx] = true
	}
	require.Len(t, seen, 7)
}
