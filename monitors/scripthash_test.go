// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package monitors

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/txdb"
	"github.com/spvsuite/spvd/txscript"
	"github.com/spvsuite/spvd/wallet"
	"github.com/spvsuite/spvd/wire"
)

func newTestScriptHashMonitor(t *testing.T) (*wallet.Wallet, *txdb.Store, *ScriptHashMonitor) {
	t.Helper()
	w, err := wallet.Open(t.TempDir(), func(chainhash.Hash) bool { return false })
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	db, err := txdb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := NewScriptHashMonitor(w, db, &chaincfg.RegressionNetParams)
	w.RegisterMonitor(m)
	return w, db, m
}

func twoOfThreeRedemption(t *testing.T) ([]byte, []*btcec.PrivateKey) {
	t.Helper()
	privs := []*btcec.PrivateKey{testPrivKey(10), testPrivKey(11), testPrivKey(12)}
	pubKeys := make([][]byte, len(privs))
	for i, p := range privs {
		pubKeys[i] = p.PubKey().SerializeCompressed()
	}
	script, err := txscript.MultiSigScript(pubKeys, 2)
	require.NoError(t, err)
	return script, privs
}

func TestScriptHashMonitorParsesRedemptionScript(t *testing.T) {
	w, _, m := newTestScriptHashMonitor(t)
	script, _ := twoOfThreeRedemption(t)

	var itemID chainhash.Hash
	itemID[0] = 9
	require.NoError(t, w.AddItem(wallet.CollectionWatchedScripts, itemID, wire.NewTaggedBytes(script)))

	var hash [20]byte
	copy(hash[:], chainhash.Hash160(script))
	r, ok := m.byHash[hash]
	require.True(t, ok)
	require.Equal(t, 2, r.nreq)
	require.Equal(t, 3, r.mtotal)
	require.Len(t, r.pubKeys, 3)
}

func TestScriptHashMonitorRecognizesFundingOutput(t *testing.T) {
	w, db, m := newTestScriptHashMonitor(t)
	script, _ := twoOfThreeRedemption(t)

	var itemID chainhash.Hash
	itemID[0] = 9
	require.NoError(t, w.AddItem(wallet.CollectionWatchedScripts, itemID, wire.NewTaggedBytes(script)))

	p2sh, err := txscript.PayToScriptHashScript(chainhash.Hash160(script))
	require.NoError(t, err)

	tx := wire.NewMsgTx(1)
	tx.AddTxOut(wire.NewTxOut(30000, p2sh))
	m.OnTx(tx)

	require.Equal(t, int64(30000), w.Balance("default"))
	require.True(t, db.HasTx(tx.TxHash()))
}

func TestScriptHashMonitorRecognizesSpendingInput(t *testing.T) {
	w, _, m := newTestScriptHashMonitor(t)
	script, _ := twoOfThreeRedemption(t)

	var itemID chainhash.Hash
	itemID[0] = 9
	require.NoError(t, w.AddItem(wallet.CollectionWatchedScripts, itemID, wire.NewTaggedBytes(script)))

	p2sh, _ := txscript.PayToScriptHashScript(chainhash.Hash160(script))

	funding := wire.NewMsgTx(1)
	funding.AddTxOut(wire.NewTxOut(30000, p2sh))
	m.OnTx(funding)
	require.Equal(t, int64(30000), w.Balance("default"))

	sigScript, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(make([]byte, 71)).
		AddData(make([]byte, 71)).
		AddData(script).
		Script()
	require.NoError(t, err)

	fundingHash := funding.TxHash()
	spending := wire.NewMsgTx(1)
	spending.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&fundingHash, 0), sigScript))
	m.OnTx(spending)

	require.Equal(t, int64(0), w.Balance("default"))
}
