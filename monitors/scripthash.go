// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package monitors

import (
	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/txdb"
	"github.com/spvsuite/spvd/txscript"
	"github.com/spvsuite/spvd/wallet"
	"github.com/spvsuite/spvd/wire"
)

// redemption records what a watched redemption script parsed to.
type redemption struct {
	itemID        chainhash.Hash
	nreq          int
	mtotal        int
	pubKeys       [][]byte
	script        []byte
	scriptHash160 [20]byte
}

// ScriptHashMonitor watches multisig redemption scripts and recognizes
// their pay-to-script-hash outputs and inputs, per spec §4.H's second
// built-in monitor.
type ScriptHashMonitor struct {
	w      *wallet.Wallet
	txdb   *txdb.Store
	params *chaincfg.Params

	byHash map[[20]byte]*redemption
}

// NewScriptHashMonitor constructs a monitor that persists recognized
// spends into w and full transactions into db.
func NewScriptHashMonitor(w *wallet.Wallet, db *txdb.Store, params *chaincfg.Params) *ScriptHashMonitor {
	return &ScriptHashMonitor{
		w:      w,
		txdb:   db,
		params: params,
		byHash: make(map[[20]byte]*redemption),
	}
}

// OnNewItem parses a newly watched redemption script and indexes it by its
// hash160, per spec §4.H ("parses them as OP_n <pubkey>...<pubkey> OP_m
// OP_CHECKMULTISIG; records pubkeys, nreq, mtotal").
func (m *ScriptHashMonitor) OnNewItem(kind wallet.CollectionKind, id chainhash.Hash, metadata wire.TaggedObject) {
	if kind != wallet.CollectionWatchedScripts {
		return
	}
	script := metadata.Blob

	nreq, pubKeys, mtotal, ok := parseMultisigRedemption(script)
	if !ok {
		log.Warnf("scripthash monitor: ignoring unrecognized redemption script for item %s", id)
		return
	}

	var hash [20]byte
	copy(hash[:], chainhash.Hash160(script))
	m.byHash[hash] = &redemption{
		itemID:        id,
		nreq:          nreq,
		mtotal:        mtotal,
		pubKeys:       pubKeys,
		script:        script,
		scriptHash160: hash,
	}
}

// OnNewSpend is a no-op; this monitor originates spends rather than
// reacting to ones added elsewhere.
func (m *ScriptHashMonitor) OnNewSpend(*wallet.Spend) {}

// OnTx scans tx for P2SH outputs matching a watched redemption script and
// for inputs redeeming one.
func (m *ScriptHashMonitor) OnTx(tx *wire.MsgTx) {
	relevant := false
	txHash := tx.TxHash()

	for i, out := range tx.TxOut {
		class, hash := txscript.ExtractPkScriptAddr(out.PkScript)
		if class != txscript.ScriptHashTy {
			continue
		}
		var h [20]byte
		copy(h[:], hash)
		r, ok := m.byHash[h]
		if !ok {
			continue
		}
		relevant = true

		prevout := *wire.NewOutPoint(&txHash, uint32(i))
		spend := wallet.NewSpend("default", out.Value, prevout, out.PkScript, wire.NewTaggedBytes(r.itemID[:]))
		if err := m.w.AddSpend(spend); err != nil {
			log.Errorf("scripthash monitor: add spend: %v", err)
		}
	}

	for _, in := range tx.TxIn {
		if m.recognizeInput(tx, in) {
			relevant = true
		}
	}

	if relevant {
		if err := m.txdb.SaveTx(tx); err != nil {
			log.Errorf("scripthash monitor: save tx: %v", err)
		}
	}
}

// recognizeInput matches a scriptSig of the shape
// OP_0 <sig>...<sig> <redemption_script> against a watched redemption
// script and, if found, marks the spent prevout's tracked spend.
func (m *ScriptHashMonitor) recognizeInput(tx *wire.MsgTx, in *wire.TxIn) bool {
	redeemScript, ok := extractRedemptionScript(in.SignatureScript)
	if !ok {
		return false
	}

	var hash [20]byte
	copy(hash[:], chainhash.Hash160(redeemScript))
	if _, ok := m.byHash[hash]; !ok {
		return false
	}

	spend, ok := m.w.SpendByPrevout(in.PreviousOutPoint)
	if !ok {
		return true
	}

	spendingTx := tx.TxHash()
	spend.SpentIn[spendingTx] = struct{}{}
	if err := m.w.UpdateSpend(spend); err != nil {
		log.Errorf("scripthash monitor: update spend: %v", err)
	}
	return true
}

// parseMultisigRedemption recognizes OP_n <pubkey>...<pubkey> OP_m
// OP_CHECKMULTISIG, returning the required-signature count, the public
// keys in order, and the total key count.
func parseMultisigRedemption(script []byte) (nreq int, pubKeys [][]byte, mtotal int, ok bool) {
	tok := txscript.MakeScriptTokenizer(script)

	if !tok.Next() {
		return 0, nil, 0, false
	}
	n, ok := smallIntValue(tok.Opcode())
	if !ok {
		return 0, nil, 0, false
	}

	for tok.Next() {
		op := tok.Opcode()
		if m, isInt := smallIntValue(op); isInt {
			if !tok.Next() || tok.Opcode() != txscript.OP_CHECKMULTISIG || !tok.Done() {
				return 0, nil, 0, false
			}
			if m != len(pubKeys) {
				return 0, nil, 0, false
			}
			return n, pubKeys, m, true
		}
		data := tok.Data()
		if len(data) != 33 && len(data) != 65 {
			return 0, nil, 0, false
		}
		pubKeys = append(pubKeys, append([]byte(nil), data...))
	}
	return 0, nil, 0, false
}

// smallIntValue decodes OP_1..OP_16 (and OP_0) to their integer value.
func smallIntValue(op byte) (int, bool) {
	if op == txscript.OP_0 {
		return 0, true
	}
	if op >= txscript.OP_1 && op <= txscript.OP_16 {
		return int(op-txscript.OP_1) + 1, true
	}
	return 0, false
}

// extractRedemptionScript recognizes OP_0 <sig>...<sig> <redemption
// script> and returns the final push, the embedded redemption script.
func extractRedemptionScript(script []byte) ([]byte, bool) {
	tok := txscript.MakeScriptTokenizer(script)
	if !tok.Next() || tok.Opcode() != txscript.OP_0 {
		return nil, false
	}

	var last []byte
	count := 0
	for tok.Next() {
		last = tok.Data()
		count++
	}
	if !tok.Done() || count < 2 {
		return nil, false
	}
	return last, true
}
