// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package monitors

import (
	"crypto/sha256"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/txdb"
	"github.com/spvsuite/spvd/txscript"
	"github.com/spvsuite/spvd/wallet"
	"github.com/spvsuite/spvd/wire"
)

// curveOrder is the secp256k1 group order, used to reduce the derived
// one-time private scalar, per spec §4.H's "d + h mod n".
var curveOrder = btcec.S256().N

// StealthMonitor watches private keys flagged for stealth-address use and
// derives one-time destinations, per spec §4.H's third built-in monitor.
type StealthMonitor struct {
	w      *wallet.Wallet
	txdb   *txdb.Store
	params *chaincfg.Params

	watchKeys []*btcec.PrivateKey
}

// NewStealthMonitor constructs a monitor that persists derived one-time
// keys and recognized spends into w and full transactions into db.
func NewStealthMonitor(w *wallet.Wallet, db *txdb.Store, params *chaincfg.Params) *StealthMonitor {
	return &StealthMonitor{w: w, txdb: db, params: params}
}

// OnNewItem records a newly watched stealth scan private key.
func (m *StealthMonitor) OnNewItem(kind wallet.CollectionKind, id chainhash.Hash, metadata wire.TaggedObject) {
	if kind != wallet.CollectionStealthKeys {
		return
	}
	m.watchKeys = append(m.watchKeys, btcec.PrivKeyFromBytes(metadata.Blob))
}

// OnNewSpend is a no-op; this monitor originates spends rather than
// reacting to ones added elsewhere.
func (m *StealthMonitor) OnNewSpend(*wallet.Spend) {}

// OnTx scans tx for an OP_RETURN ephemeral pubkey alongside a standard
// PKH output matching one of our derived one-time addresses, per spec
// §4.H: "h = SHA256(d·E) ... one-time address = hash160 of
// compressed(d·G + h·G) ... one-time private key d + h mod n."
func (m *StealthMonitor) OnTx(tx *wire.MsgTx) {
	if len(m.watchKeys) == 0 {
		return
	}

	ephemeral, ok := extractStealthEphemeralKey(tx)
	if !ok {
		return
	}

	relevant := false
	txHash := tx.TxHash()

	for _, d := range m.watchKeys {
		h, err := sharedSecretScalar(d, ephemeral)
		if err != nil {
			continue
		}

		dScalar := new(big.Int).SetBytes(d.Serialize())
		oneTimePriv := new(big.Int).Add(dScalar, h)
		oneTimePriv.Mod(oneTimePriv, curveOrder)

		oneTimeHash := oneTimeAddressHash160(d, h)

		for i, out := range tx.TxOut {
			class, hash := txscript.ExtractPkScriptAddr(out.PkScript)
			if class != txscript.PubKeyHashTy || !hashEqual(hash, oneTimeHash) {
				continue
			}
			relevant = true

			scalarBytes := make([]byte, 32)
			oneTimePriv.FillBytes(scalarBytes)
			keyID := chainhash.HashH(scalarBytes)
			if err := m.w.AddItem(wallet.CollectionPrivateKeys, keyID, wire.NewTaggedBytes(scalarBytes)); err != nil && err != wallet.ErrDuplicateWalletItem {
				log.Errorf("stealth monitor: store one-time key: %v", err)
				continue
			}

			prevout := *wire.NewOutPoint(&txHash, uint32(i))
			spend := wallet.NewSpend("default", out.Value, prevout, out.PkScript, wire.NewTaggedBytes(keyID[:]))
			if err := m.w.AddSpend(spend); err != nil {
				log.Errorf("stealth monitor: add spend: %v", err)
			}
		}
	}

	if relevant {
		if err := m.txdb.SaveTx(tx); err != nil {
			log.Errorf("stealth monitor: save tx: %v", err)
		}
	}
}

// sharedSecretScalar computes h = SHA256(compressed(d·E)) as a big.Int,
// the shared secret a stealth watcher and the payer who derived E agree
// on without further communication.
func sharedSecretScalar(d *btcec.PrivateKey, ephemeral *btcec.PublicKey) (*big.Int, error) {
	sx, sy := btcec.S256().ScalarMult(ephemeral.X(), ephemeral.Y(), d.Serialize())
	shared := btcec.NewPublicKey(sx, sy)

	digest := sha256.Sum256(shared.SerializeCompressed())
	return new(big.Int).SetBytes(digest[:]), nil
}

// oneTimeAddressHash160 computes hash160(compressed(d·G + h·G)), the
// one-time destination a payer derives independently using only the
// stealth address's public scan key and the ephemeral key E.
func oneTimeAddressHash160(d *btcec.PrivateKey, h *big.Int) []byte {
	dG := d.PubKey()
	hx, hy := btcec.S256().ScalarBaseMult(h.Bytes())
	sumX, sumY := btcec.S256().Add(dG.X(), dG.Y(), hx, hy)
	sum := btcec.NewPublicKey(sumX, sumY)
	return chainhash.Hash160(sum.SerializeCompressed())
}

// extractStealthEphemeralKey scans tx's outputs for an OP_RETURN carrying
// a 33-byte compressed public key, the ephemeral key E a stealth payer
// publishes alongside the one-time destination output.
func extractStealthEphemeralKey(tx *wire.MsgTx) (*btcec.PublicKey, bool) {
	for _, out := range tx.TxOut {
		script := out.PkScript
		if len(script) == 0 || script[0] != txscript.OP_RETURN {
			continue
		}
		tok := txscript.MakeScriptTokenizer(script[1:])
		if !tok.Next() || !tok.Done() {
			continue
		}
		data := tok.Data()
		if len(data) != 33 {
			continue
		}
		pub, err := btcec.ParsePubKey(data)
		if err != nil {
			continue
		}
		return pub, true
	}
	return nil, false
}

func hashEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
