// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/wire"
)

func testSigHashTx() *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	for i := 0; i < 2; i++ {
		tx.TxIn = append(tx.TxIn, &wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Index: uint32(i)},
			SignatureScript:  []byte{byte(0x10 + i)},
			Sequence:         0xffffffff - uint32(i),
		})
	}
	for i := 0; i < 2; i++ {
		tx.TxOut = append(tx.TxOut, &wire.TxOut{
			Value:    int64(1000 * (i + 1)),
			PkScript: []byte{OP_DUP, OP_HASH160, byte(0x20 + i)},
		})
	}
	return tx
}

func TestCalcSignatureHashAllIsDeterministic(t *testing.T) {
	tx := testSigHashTx()
	h1, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashAll, tx, 0)
	require.NoError(t, err)
	h2, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashAll, tx, 0)
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	// A different input index must commit to a different subscript slot
	// and therefore hash differently.
	h3, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashAll, tx, 1)
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

// TestCalcSignatureHashSingleOutOfRangeIsAnError matches
// original_source/pyspv/transaction.py's hard `assert input_index <
// len(self.outputs)` precondition for SIGHASH_SINGLE: there is no
// historical btcd sentinel-hash fallback in this codec.
func TestCalcSignatureHashSingleOutOfRangeIsAnError(t *testing.T) {
	tx := testSigHashTx()
	tx.TxIn = append(tx.TxIn, &wire.TxIn{Sequence: 0xffffffff})

	_, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashSingle, tx, 2)
	require.Error(t, err)
}

// TestCalcSignatureHashSingleCommitsOnlyToMatchingOutput verifies the
// preimage does not change when the non-matching output is mutated but
// does change when the matching output is, and that it differs from the naive
// "truncate outputs to idx+1 and blank earlier ones" historical shape by
// being insensitive to anything about output 0 when signing input 1.
func TestCalcSignatureHashSingleCommitsOnlyToMatchingOutput(t *testing.T) {
	tx := testSigHashTx()

	base, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashSingle, tx, 1)
	require.NoError(t, err)

	mutated := testSigHashTx()
	mutated.TxOut[0].Value = 999999
	mutated.TxOut[0].PkScript = []byte{OP_RETURN}
	changed, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashSingle, mutated, 1)
	require.NoError(t, err)
	require.Equal(t, base, changed, "SIGHASH_SINGLE must not commit to unrelated outputs")

	mutated.TxOut[1].Value = 4242
	changed2, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashSingle, mutated, 1)
	require.NoError(t, err)
	require.NotEqual(t, base, changed2, "SIGHASH_SINGLE must commit to its matching output")
}

// TestCalcSignatureHashSinglePreservesOtherSequences matches
// transaction.py:101's `is_self or (flags & ~ANYONECANPAY) !=
// SIGHASH_NONE` sequence rule: SIGHASH_SINGLE must not zero any other
// input's sequence the way SIGHASH_NONE does.
func TestCalcSignatureHashSinglePreservesOtherSequences(t *testing.T) {
	tx := testSigHashTx()
	base, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashSingle, tx, 0)
	require.NoError(t, err)

	changedSeq := testSigHashTx()
	changedSeq.TxIn[1].Sequence = 0x11111111
	changed, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashSingle, changedSeq, 0)
	require.NoError(t, err)
	require.NotEqual(t, base, changed, "SIGHASH_SINGLE must commit to other inputs' sequences")
}

// TestCalcSignatureHashNoneZeroesOtherSequences checks the opposite side
// of the same rule: only SIGHASH_NONE blanks other inputs' sequences.
func TestCalcSignatureHashNoneZeroesOtherSequences(t *testing.T) {
	tx := testSigHashTx()
	base, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashNone, tx, 0)
	require.NoError(t, err)

	changedSeq := testSigHashTx()
	changedSeq.TxIn[1].Sequence = 0x11111111
	changed, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashNone, changedSeq, 0)
	require.NoError(t, err)
	require.Equal(t, base, changed, "SIGHASH_NONE must blank other inputs' sequences")
}

func TestCalcSignatureHashNoneDropsAllOutputs(t *testing.T) {
	tx := testSigHashTx()
	base, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashNone, tx, 0)
	require.NoError(t, err)

	mutated := testSigHashTx()
	mutated.TxOut[0].Value = 7
	mutated.TxOut[1].PkScript = []byte{OP_RETURN}
	changed, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashNone, mutated, 0)
	require.NoError(t, err)
	require.Equal(t, base, changed, "SIGHASH_NONE must not commit to any output")
}

func TestCalcSignatureHashAnyOneCanPayDropsOtherInputs(t *testing.T) {
	tx := testSigHashTx()
	base, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashAll|SigHashAnyOneCanPay, tx, 0)
	require.NoError(t, err)

	mutated := testSigHashTx()
	mutated.TxIn[1].PreviousOutPoint.Index = 99
	mutated.TxIn[1].Sequence = 0
	changed, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashAll|SigHashAnyOneCanPay, mutated, 0)
	require.NoError(t, err)
	require.Equal(t, base, changed, "ANYONECANPAY must not commit to other inputs")
}

func TestCalcSignatureHashInputIndexOutOfRangeIsAnError(t *testing.T) {
	tx := testSigHashTx()
	_, err := CalcSignatureHash([]byte{OP_CHECKSIG}, SigHashAll, tx, 5)
	require.Error(t, err)
}
