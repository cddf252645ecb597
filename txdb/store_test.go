// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTx() *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	prevHash, _ := chainhash.NewHashFromStr("9ea3d038b587a18a2d8fe8cab06c594fe3185a6ad85eadadd0d183085b3d9e73")
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prevHash, 0), nil))
	tx.AddTxOut(wire.NewTxOut(1000, nil))
	return tx
}

func TestSaveTxIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	tx := sampleTx()

	require.NoError(t, s.SaveTx(tx))
	require.NoError(t, s.SaveTx(tx))
	require.True(t, s.HasTx(tx.TxHash()))

	got, err := s.GetTx(tx.TxHash())
	require.NoError(t, err)
	require.Equal(t, tx.TxHash(), got.TxHash())
}

func TestBindTxAndDepthTracking(t *testing.T) {
	s := newTestStore(t)
	tx := sampleTx()
	require.NoError(t, s.SaveTx(tx))

	var blockHash chainhash.Hash
	blockHash[0] = 0xaa

	require.NoError(t, s.BindTx(tx.TxHash(), blockHash))
	require.Equal(t, int32(0), s.GetTxDepth(tx.TxHash()))

	require.NoError(t, s.OnBlockAdded(blockHash, 100))
	require.Equal(t, int32(1), s.GetTxDepth(tx.TxHash()))

	// The chain advances five more blocks that do not touch blockHash;
	// depth grows with the tip even though blockHash's own height is
	// unchanged.
	var nextHash chainhash.Hash
	nextHash[0] = 0xbb
	require.NoError(t, s.OnBlockAdded(nextHash, 105))
	require.Equal(t, int32(6), s.GetTxDepth(tx.TxHash()))

	require.NoError(t, s.OnBlockRemoved(blockHash, 99))
	require.Equal(t, int32(0), s.GetTxDepth(tx.TxHash()))
	require.True(t, s.IsConflicted(tx.TxHash()))
}

func TestGetTxDepthOnUnknownTxIsZero(t *testing.T) {
	s := newTestStore(t)
	var hash chainhash.Hash
	require.Equal(t, int32(0), s.GetTxDepth(hash))
}
