// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"io"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// SigHashType represents the SIGHASH mode a signature commits to, per
// spec §4.D: a base mode of ALL, NONE or SINGLE, optionally combined with
// the ANYONECANPAY bit.
type SigHashType uint32

const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	sigHashMask = 0x1f
)

func (t SigHashType) baseType() SigHashType { return t & sigHashMask }

func (t SigHashType) isAnyOneCanPay() bool { return t&SigHashAnyOneCanPay != 0 }

// removeOpcode returns script with every OP_CODESEPARATOR byte removed, as
// spec §4.D requires when building the subscript used for sighash
// preimages.
func removeOpcode(script []byte) []byte {
	out := make([]byte, 0, len(script))
	tok := MakeScriptTokenizer(script)
	for tok.Next() {
		if tok.Opcode() == OP_CODESEPARATOR {
			continue
		}
		out = append(out, reencode(tok.Opcode(), tok.Data())...)
	}
	return out
}

// reencode reproduces the canonical push encoding for a single opcode/data
// pair as emitted by the tokenizer, used to rebuild a script with selected
// opcodes removed.
func reencode(op byte, data []byte) []byte {
	if data == nil {
		return []byte{op}
	}
	out := []byte{op}
	if op >= OP_PUSHDATA1 && op <= OP_PUSHDATA4 {
		var lenBytes int
		switch op {
		case OP_PUSHDATA1:
			lenBytes = 1
		case OP_PUSHDATA2:
			lenBytes = 2
		case OP_PUSHDATA4:
			lenBytes = 4
		}
		n := len(data)
		for i := 0; i < lenBytes; i++ {
			out = append(out, byte(n>>uint(8*i)))
		}
	}
	return append(out, data...)
}

// CalcSignatureHash computes the double-SHA-256 preimage hash a signature
// over input idx of tx commits to, per spec §4.D and
// original_source/pyspv/transaction.py's serialize_for_signature: the
// transaction is copied and selectively blanked according to hashType, the
// subscript has OP_CODESEPARATOR instances stripped, and the result is
// serialized with a trailing little-endian hashType before double hashing.
//
// SIGHASH_SINGLE requires idx to name a real output; out-of-range is a hard
// error rather than the historical btcd sentinel-hash bug. SIGHASH_SINGLE's
// output list is exactly the one output at idx, not a truncated-and-blanked
// prefix, and only SIGHASH_NONE zeroes other inputs' sequences; SINGLE
// leaves them untouched.
func CalcSignatureHash(subscript []byte, hashType SigHashType, tx *wire.MsgTx, idx int) ([]byte, error) {
	if idx >= len(tx.TxIn) {
		return nil, scriptError(ErrInvalidIndex, "input index %d out of range for %d inputs", idx, len(tx.TxIn))
	}

	if hashType.baseType() == SigHashSingle && idx >= len(tx.TxOut) {
		return nil, scriptError(ErrInvalidIndex, "SIGHASH_SINGLE index %d out of range for %d outputs", idx, len(tx.TxOut))
	}

	sub := removeOpcode(subscript)

	txCopy := tx.Copy()
	for i := range txCopy.TxIn {
		if i == idx {
			txCopy.TxIn[i].SignatureScript = sub
		} else {
			txCopy.TxIn[i].SignatureScript = nil
		}
	}

	switch hashType.baseType() {
	case SigHashNone:
		txCopy.TxOut = txCopy.TxOut[:0]
		for i := range txCopy.TxIn {
			if i != idx {
				txCopy.TxIn[i].Sequence = 0
			}
		}

	case SigHashSingle:
		txCopy.TxOut = []*wire.TxOut{txCopy.TxOut[idx]}
	}

	if hashType.isAnyOneCanPay() {
		txCopy.TxIn = []*wire.TxIn{txCopy.TxIn[idx]}
	}

	var buf bytes.Buffer
	if err := txCopy.Encode(&buf); err != nil {
		return nil, err
	}
	if err := wire.WriteElement(&buf, uint32(hashType)); err != nil {
		return nil, err
	}

	return chainhash.DoubleHashB(buf.Bytes()), nil
}

// CalcSignatureHashFromReader is a convenience wrapper for callers that
// hold a script as a reader rather than a byte slice.
func CalcSignatureHashFromReader(r io.Reader, hashType SigHashType, tx *wire.MsgTx, idx int) ([]byte, error) {
	script, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return CalcSignatureHash(script, hashType, tx, idx)
}
