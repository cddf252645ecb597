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

func testPrivKey(b byte) *btcec.PrivateKey {
	buf := make([]byte, 32)
	buf[31] = b
	return btcec.PrivKeyFromBytes(buf)
}

func newTestPubKeyMonitor(t *testing.T) (*wallet.Wallet, *txdb.Store, *PubKeyMonitor) {
	t.Helper()
	w, err := wallet.Open(t.TempDir(), func(chainhash.Hash) bool { return false })
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	db, err := txdb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := NewPubKeyMonitor(w, db, &chaincfg.RegressionNetParams)
	w.RegisterMonitor(m)
	return w, db, m
}

func TestPubKeyMonitorRecognizesFundingOutput(t *testing.T) {
	w, db, m := newTestPubKeyMonitor(t)

	priv := testPrivKey(1)
	var keyID chainhash.Hash
	keyID[0] = 1
	require.NoError(t, w.AddItem(wallet.CollectionPrivateKeys, keyID, wire.NewTaggedBytes(priv.Serialize())))

	pkHash := chainhash.Hash160(priv.PubKey().SerializeCompressed())
	script, err := txscript.PayToPubKeyHashScript(pkHash)
	require.NoError(t, err)

	tx := wire.NewMsgTx(1)
	tx.AddTxOut(wire.NewTxOut(50000, script))
	m.OnTx(tx)

	require.Equal(t, int64(50000), w.Balance("default"))
	require.True(t, db.HasTx(tx.TxHash()))
}

func TestPubKeyMonitorRecognizesSpendingInput(t *testing.T) {
	w, _, m := newTestPubKeyMonitor(t)

	priv := testPrivKey(2)
	var keyID chainhash.Hash
	keyID[0] = 2
	require.NoError(t, w.AddItem(wallet.CollectionPrivateKeys, keyID, wire.NewTaggedBytes(priv.Serialize())))

	pkHash := chainhash.Hash160(priv.PubKey().SerializeCompressed())
	script, _ := txscript.PayToPubKeyHashScript(pkHash)

	funding := wire.NewMsgTx(1)
	funding.AddTxOut(wire.NewTxOut(50000, script))
	m.OnTx(funding)
	require.Equal(t, int64(50000), w.Balance("default"))

	sigScript, err := txscript.NewScriptBuilder().
		AddData(make([]byte, 71)).
		AddData(priv.PubKey().SerializeCompressed()).
		Script()
	require.NoError(t, err)

	spending := wire.NewMsgTx(1)
	fundingHash := funding.TxHash()
	spending.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&fundingHash, 0), sigScript))
	m.OnTx(spending)

	require.Equal(t, int64(0), w.Balance("default"))
}
