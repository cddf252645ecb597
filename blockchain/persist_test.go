// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chaincfg"
)

func TestOpenIndexPersistsAndRestoresRingBuffer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain")

	idx, err := OpenIndex(path, &chaincfg.RegressionNetParams, false)
	require.NoError(t, err)

	genesis := idx.BestTip()
	h1 := mineHeader(t, idx, genesis, 10)
	_, err = idx.ProcessHeader(h1)
	require.NoError(t, err)

	h2 := mineHeader(t, idx, idx.BestTip(), 10)
	_, err = idx.ProcessHeader(h2)
	require.NoError(t, err)

	idx.SetNeedsHeaders(false)
	idx.SetSyncBlockStart(1)
	require.NoError(t, idx.Close())

	reopened, err := OpenIndex(path, &chaincfg.RegressionNetParams, false)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, h2.BlockHash(), reopened.BestTip().Hash)
	require.False(t, reopened.NeedsHeaders())

	start, ok := reopened.SyncBlockStart()
	require.True(t, ok)
	require.Equal(t, int32(1), start)

	link, ok := reopened.Link(h1.BlockHash())
	require.True(t, ok)
	require.True(t, link.Connected)
}

func TestOpenIndexResyncDiscardsPriorState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain")

	idx, err := OpenIndex(path, &chaincfg.RegressionNetParams, false)
	require.NoError(t, err)
	h1 := mineHeader(t, idx, idx.BestTip(), 10)
	_, err = idx.ProcessHeader(h1)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	fresh, err := OpenIndex(path, &chaincfg.RegressionNetParams, true)
	require.NoError(t, err)
	defer fresh.Close()

	_, ok := fresh.Link(h1.BlockHash())
	require.False(t, ok)
	require.Equal(t, int32(0), fresh.BestTip().Height)
}
