// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/wire"
)

// mineHeader builds a header extending prev with the index's currently
// required bits, incrementing the timestamp so it clears the median-time
// rule, then increments the nonce until the header's hash meets its own
// target (regtest's target passes roughly every other hash).
func mineHeader(t *testing.T, idx *Index, prev *BlockLink, minutesLater int) *wire.BlockHeader {
	t.Helper()
	bits := calcNextRequiredDifficulty(idx, prev, prev.Timestamp().Add(time.Duration(minutesLater)*time.Minute).Unix(), idx.params)
	h := wire.NewBlockHeader(1, &prev.Hash, &prev.Header.MerkleRoot, bits, 0)
	h.Timestamp = prev.Timestamp().Add(time.Duration(minutesLater) * time.Minute)
	target := wire.CompactToBig(bits)
	for hash := h.BlockHash(); wire.HashToBig(&hash).Cmp(target) > 0; hash = h.BlockHash() {
		h.Nonce++
	}
	return h
}

func TestProcessHeaderExtendsMainChain(t *testing.T) {
	idx := NewIndex(&chaincfg.RegressionNetParams)
	genesis := idx.BestTip()

	h1 := mineHeader(t, idx, genesis, 10)
	events, err := idx.ProcessHeader(h1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.True(t, events[0].Added)
	require.Equal(t, h1.BlockHash(), events[0].Link.Hash)
	require.Equal(t, h1.BlockHash(), idx.BestTip().Hash)
}

func TestProcessHeaderOrphanConnectsOnParentArrival(t *testing.T) {
	idx := NewIndex(&chaincfg.RegressionNetParams)
	genesis := idx.BestTip()

	h1 := mineHeader(t, idx, genesis, 10)
	link1 := newBlockLink(h1, genesis.Height+1)
	h2 := mineHeader(t, idx, link1, 10)

	// Feed h2 before h1: it should park as an orphan with no events.
	events, err := idx.ProcessHeader(h2)
	require.NoError(t, err)
	require.Empty(t, events)
	require.False(t, idx.BestTip().Hash == h2.BlockHash())

	// Now feed h1; both h1 and h2 should connect and become the new tip
	// in a single reselection.
	events, err = idx.ProcessHeader(h1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, h1.BlockHash(), events[0].Link.Hash)
	require.Equal(t, h2.BlockHash(), events[1].Link.Hash)
	require.Equal(t, h2.BlockHash(), idx.BestTip().Hash)
}

func TestProcessHeaderReorgOrdersFromForkPoint(t *testing.T) {
	idx := NewIndex(&chaincfg.RegressionNetParams)
	genesis := idx.BestTip()

	// Chain A: genesis -> a1 -> a2 (becomes the initial best chain).
	a1 := mineHeader(t, idx, genesis, 10)
	_, err := idx.ProcessHeader(a1)
	require.NoError(t, err)
	a1Link, _ := idx.Link(a1.BlockHash())

	a2 := mineHeader(t, idx, a1Link, 10)
	_, err = idx.ProcessHeader(a2)
	require.NoError(t, err)
	a2Link, _ := idx.Link(a2.BlockHash())
	require.Equal(t, a2.BlockHash(), idx.BestTip().Hash)

	// Chain B: genesis -> b1 -> b2 -> b3, overtaking A by height (more
	// work, same regtest difficulty) once b3 connects.
	b1 := mineHeader(t, idx, genesis, 11)
	_, err = idx.ProcessHeader(b1)
	require.NoError(t, err)
	b1Link, _ := idx.Link(b1.BlockHash())
	// Chain A must still be best: B is shorter so far.
	require.Equal(t, a2.BlockHash(), idx.BestTip().Hash)

	b2 := mineHeader(t, idx, b1Link, 11)
	_, err = idx.ProcessHeader(b2)
	require.NoError(t, err)
	b2Link, _ := idx.Link(b2.BlockHash())

	b3 := mineHeader(t, idx, b2Link, 11)
	events, err := idx.ProcessHeader(b3)
	require.NoError(t, err)

	require.Equal(t, b3.BlockHash(), idx.BestTip().Hash)
	require.True(t, a2Link.Main == false)

	// Events must remove a2 then a1 (old tip first, down to the fork
	// point), then add b1, b2, b3 (closest to the fork point first).
	require.Len(t, events, 5)
	require.False(t, events[0].Added)
	require.Equal(t, a2.BlockHash(), events[0].Link.Hash)
	require.False(t, events[1].Added)
	require.Equal(t, a1.BlockHash(), events[1].Link.Hash)
	require.True(t, events[2].Added)
	require.Equal(t, b1.BlockHash(), events[2].Link.Hash)
	require.True(t, events[3].Added)
	require.Equal(t, b2.BlockHash(), events[3].Link.Hash)
	require.True(t, events[4].Added)
	require.Equal(t, b3.BlockHash(), events[4].Link.Hash)
}

func TestDuplicateLinkRejected(t *testing.T) {
	idx := NewIndex(&chaincfg.RegressionNetParams)
	genesis := idx.BestTip()

	h1 := mineHeader(t, idx, genesis, 10)
	_, err := idx.ProcessHeader(h1)
	require.NoError(t, err)

	_, err = idx.ProcessHeader(h1)
	require.Error(t, err)
	require.True(t, IsErrorCode(err, ErrDuplicateLink))
}

func TestTimeTooOldRejected(t *testing.T) {
	idx := NewIndex(&chaincfg.RegressionNetParams)
	genesis := idx.BestTip()

	bits := calcNextRequiredDifficulty(idx, genesis, genesis.Timestamp().Unix(), idx.params)
	h := wire.NewBlockHeader(1, &genesis.Hash, &genesis.Header.MerkleRoot, bits, 0)
	h.Timestamp = genesis.Timestamp()

	_, err := idx.ProcessHeader(h)
	require.Error(t, err)
	require.True(t, IsErrorCode(err, ErrTimeTooOld))
}
