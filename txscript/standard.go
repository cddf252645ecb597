// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// ScriptClass identifies the recognized shape of a pkScript, used by the
// payment monitors to decide how to watch and later spend an output.
type ScriptClass int

const (
	NonStandardTy ScriptClass = iota
	PubKeyHashTy
	PubKeyTy
	ScriptHashTy
	MultiSigTy
	NullDataTy
)

var scriptClassNames = map[ScriptClass]string{
	NonStandardTy: "nonstandard",
	PubKeyHashTy:  "pubkeyhash",
	PubKeyTy:      "pubkey",
	ScriptHashTy:  "scripthash",
	MultiSigTy:    "multisig",
	NullDataTy:    "nulldata",
}

func (c ScriptClass) String() string { return scriptClassNames[c] }

// PayToPubKeyHashScript builds a standard P2PKH script:
// OP_DUP OP_HASH160 <20-byte hash> OP_EQUALVERIFY OP_CHECKSIG
func PayToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	if len(pubKeyHash) != 20 {
		return nil, scriptError(ErrInvalidIndex, "pubkey hash must be 20 bytes, got %d", len(pubKeyHash))
	}
	b := NewScriptBuilder()
	b.AddOp(OP_DUP)
	b.AddOp(OP_HASH160)
	b.AddData(pubKeyHash)
	b.AddOp(OP_EQUALVERIFY)
	b.AddOp(OP_CHECKSIG)
	return b.Script()
}

// PayToScriptHashScript builds a standard P2SH script:
// OP_HASH160 <20-byte hash> OP_EQUAL
func PayToScriptHashScript(scriptHash []byte) ([]byte, error) {
	if len(scriptHash) != 20 {
		return nil, scriptError(ErrInvalidIndex, "script hash must be 20 bytes, got %d", len(scriptHash))
	}
	b := NewScriptBuilder()
	b.AddOp(OP_HASH160)
	b.AddData(scriptHash)
	b.AddOp(OP_EQUAL)
	return b.Script()
}

// MultiSigScript builds a bare m-of-n multisig script:
// OP_m <pubkey>... OP_n OP_CHECKMULTISIG
func MultiSigScript(pubKeys [][]byte, nRequired int) ([]byte, error) {
	if nRequired < 1 || nRequired > len(pubKeys) {
		return nil, scriptError(ErrInvalidIndex, "unable to generate multisig script with "+
			"%d required signatures when there are only %d public keys available", nRequired, len(pubKeys))
	}
	if len(pubKeys) > 20 {
		return nil, scriptError(ErrInvalidIndex, "too many pubkeys: %d", len(pubKeys))
	}

	b := NewScriptBuilder()
	b.AddInt64(int64(nRequired))
	for _, pk := range pubKeys {
		b.AddData(pk)
	}
	b.AddInt64(int64(len(pubKeys)))
	b.AddOp(OP_CHECKMULTISIG)
	return b.Script()
}

// ScriptBuilder incrementally assembles a script, pushing opcodes and
// minimally-encoded data pushes in order.
type ScriptBuilder struct {
	script []byte
	err    error
}

// NewScriptBuilder returns an empty builder.
func NewScriptBuilder() *ScriptBuilder { return &ScriptBuilder{} }

// AddOp appends a single opcode.
func (b *ScriptBuilder) AddOp(op byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, op)
	return b
}

// AddInt64 appends the minimal encoding of n: OP_0/OP_1..OP_16/OP_1NEGATE
// for the small-integer range, otherwise a scriptNum data push.
func (b *ScriptBuilder) AddInt64(n int64) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	switch {
	case n == 0:
		b.script = append(b.script, OP_0)
	case n == -1:
		b.script = append(b.script, OP_1NEGATE)
	case n >= 1 && n <= 16:
		b.script = append(b.script, byte(OP_1)+byte(n-1))
	default:
		return b.AddData(scriptNum(n).Bytes())
	}
	return b
}

// AddData appends the minimal-length push opcode for data followed by data
// itself, rejecting pushes that would exceed MaxScriptElementSize.
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	if len(data) > MaxScriptElementSize {
		b.err = scriptError(ErrInvalidScriptElementSize, "data push of %d bytes exceeds max of %d",
			len(data), MaxScriptElementSize)
		return b
	}

	n := len(data)
	switch {
	case n == 0:
		b.script = append(b.script, OP_0)
	case n < OP_PUSHDATA1:
		b.script = append(b.script, byte(n))
	case n <= 0xff:
		b.script = append(b.script, OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		b.script = append(b.script, OP_PUSHDATA2, byte(n), byte(n>>8))
	default:
		b.script = append(b.script, OP_PUSHDATA4, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	}
	b.script = append(b.script, data...)
	return b
}

// Script returns the assembled script, or any error encountered while
// building it.
func (b *ScriptBuilder) Script() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.script, nil
}

// ExtractPkScriptAddr classifies script and, for the standard templates
// the monitors watch, returns the 20-byte hash (pubkey hash or script
// hash) it pays to.
func ExtractPkScriptAddr(script []byte) (ScriptClass, []byte) {
	if class, hash, ok := matchPayToPubKeyHash(script); ok {
		return class, hash
	}
	if class, hash, ok := matchPayToScriptHash(script); ok {
		return class, hash
	}
	if isNullData(script) {
		return NullDataTy, nil
	}
	return NonStandardTy, nil
}

func matchPayToPubKeyHash(script []byte) (ScriptClass, []byte, bool) {
	if len(script) != 25 {
		return NonStandardTy, nil, false
	}
	if script[0] != OP_DUP || script[1] != OP_HASH160 || script[2] != 20 ||
		script[23] != OP_EQUALVERIFY || script[24] != OP_CHECKSIG {
		return NonStandardTy, nil, false
	}
	return PubKeyHashTy, script[3:23], true
}

func matchPayToScriptHash(script []byte) (ScriptClass, []byte, bool) {
	if len(script) != 23 {
		return NonStandardTy, nil, false
	}
	if script[0] != OP_HASH160 || script[1] != 20 || script[22] != OP_EQUAL {
		return NonStandardTy, nil, false
	}
	return ScriptHashTy, script[2:22], true
}

func isNullData(script []byte) bool {
	return len(script) > 0 && script[0] == OP_RETURN
}

// OP_DUP/OP_HASH160/etc. above are referenced from opcode.go's constants;
// this file additionally depends on the byte value for OP_DUP and
// OP_HASH160 already declared there.
