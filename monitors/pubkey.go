// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package monitors

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/txdb"
	"github.com/spvsuite/spvd/txscript"
	"github.com/spvsuite/spvd/wallet"
	"github.com/spvsuite/spvd/wire"
)

// PubKeyMonitor watches private keys and recognizes their standard
// pay-to-pubkey-hash outputs and inputs, per spec §4.H's first built-in
// monitor. For every watched key it derives both the compressed and
// uncompressed pubkey-hash addresses, since either may appear on the wire.
type PubKeyMonitor struct {
	w      *wallet.Wallet
	txdb   *txdb.Store
	params *chaincfg.Params

	// pubKeyHashes indexes the 20-byte hash160 of every derived address
	// (compressed and uncompressed) back to the watched private key's
	// wallet item id, the "ephemeral address collection" spec §4.H
	// describes.
	pubKeyHashes map[[20]byte]chainhash.Hash

	// knownPubKeys indexes the raw serialized public key bytes seen in
	// spending inputs back to the same hash160, used to recognize a
	// spend from its two-push <sig><pubkey> shape.
	knownPubKeys map[string][20]byte
}

// NewPubKeyMonitor constructs a monitor that persists recognized spends
// into w and full transactions into db.
func NewPubKeyMonitor(w *wallet.Wallet, db *txdb.Store, params *chaincfg.Params) *PubKeyMonitor {
	return &PubKeyMonitor{
		w:            w,
		txdb:         db,
		params:       params,
		pubKeyHashes: make(map[[20]byte]chainhash.Hash),
		knownPubKeys: make(map[string][20]byte),
	}
}

// OnNewItem derives and records the compressed and uncompressed addresses
// for every newly watched private key.
func (m *PubKeyMonitor) OnNewItem(kind wallet.CollectionKind, id chainhash.Hash, metadata wire.TaggedObject) {
	if kind != wallet.CollectionPrivateKeys {
		return
	}
	priv := btcec.PrivKeyFromBytes(metadata.Blob)
	pub := priv.PubKey()

	compressed := chainhash.Hash160(pub.SerializeCompressed())
	uncompressed := chainhash.Hash160(pub.SerializeUncompressed())

	var hc, hu [20]byte
	copy(hc[:], compressed)
	copy(hu[:], uncompressed)
	m.pubKeyHashes[hc] = id
	m.pubKeyHashes[hu] = id
	m.knownPubKeys[string(pub.SerializeCompressed())] = hc
	m.knownPubKeys[string(pub.SerializeUncompressed())] = hu
}

// OnNewSpend is a no-op for this monitor; it originates spends rather than
// reacting to ones added elsewhere.
func (m *PubKeyMonitor) OnNewSpend(*wallet.Spend) {}

// OnTx scans tx for outputs paying a watched pubkey hash and for inputs
// spending one, per spec §4.H.
func (m *PubKeyMonitor) OnTx(tx *wire.MsgTx) {
	relevant := false
	txHash := tx.TxHash()

	for i, out := range tx.TxOut {
		class, hash := txscript.ExtractPkScriptAddr(out.PkScript)
		if class != txscript.PubKeyHashTy {
			continue
		}
		var h [20]byte
		copy(h[:], hash)
		keyID, ok := m.pubKeyHashes[h]
		if !ok {
			continue
		}
		relevant = true

		prevout := *wire.NewOutPoint(&txHash, uint32(i))
		spend := wallet.NewSpend("default", out.Value, prevout, out.PkScript, wire.NewTaggedBytes(keyID[:]))
		if err := m.w.AddSpend(spend); err != nil {
			log.Errorf("pubkey monitor: add spend: %v", err)
		}
	}

	for _, in := range tx.TxIn {
		if m.recognizeInput(tx, in) {
			relevant = true
		}
	}

	if relevant {
		if err := m.txdb.SaveTx(tx); err != nil {
			log.Errorf("pubkey monitor: save tx: %v", err)
		}
	}
}

// recognizeInput checks in's signature script for the two-push
// <sig><pubkey> shape and, if the pubkey matches a watched key, marks the
// spent prevout's tracked spend (if we already know it) as spent. If the
// funding output is not yet known the input still counts as relevant, but
// no pending spend is recorded for it.
func (m *PubKeyMonitor) recognizeInput(tx *wire.MsgTx, in *wire.TxIn) bool {
	_, pubKey, ok := extractTwoPush(in.SignatureScript)
	if !ok {
		return false
	}
	if _, ok := m.knownPubKeys[string(pubKey)]; !ok {
		return false
	}

	spend, ok := m.w.SpendByPrevout(in.PreviousOutPoint)
	if !ok {
		// The funding transaction hasn't been observed yet; nothing to
		// mark spent. When the funding transaction arrives later, its
		// output is added as an unspent spend; this input is not
		// reattached to it.
		return true
	}

	spendingTx := tx.TxHash()
	spend.SpentIn[spendingTx] = struct{}{}
	if err := m.w.UpdateSpend(spend); err != nil {
		log.Errorf("pubkey monitor: update spend: %v", err)
	}
	return true
}

// extractTwoPush recognizes a script consisting of exactly two data
// pushes, the standard P2PKH scriptSig shape.
func extractTwoPush(script []byte) (sig, pubKey []byte, ok bool) {
	tok := txscript.MakeScriptTokenizer(script)
	if !tok.Next() {
		return nil, nil, false
	}
	sig = append([]byte(nil), tok.Data()...)

	if !tok.Next() {
		return nil, nil, false
	}
	pubKey = append([]byte(nil), tok.Data()...)

	if !tok.Done() {
		return nil, nil, false
	}
	if len(pubKey) != 33 && len(pubKey) != 65 {
		return nil, nil, false
	}
	return sig, pubKey, true
}
