// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chainhash"
)

// TestTxDecodeOneInputTwoOutputs exercises the shape of the spec's
// transaction-decode scenario: one input, two outputs of 11,450,000 and
// 1,000,000 satoshi, lock-time zero, and a hash that depends on the full
// serialized bytes. The scenario's literal hex abbreviates the scriptSig
// signature bytes with an ellipsis, so this test builds the equivalent
// structure directly rather than decoding a truncated byte string.
func TestTxDecodeOneInputTwoOutputs(t *testing.T) {
	prevHash, err := chainhash.NewHashFromStr("9ea3d038b587a18a2d8fe8cab06c594fe3185a6ad85eadadd0d183085b3d9e73")
	require.NoError(t, err)

	tx := NewMsgTx(1)
	tx.AddTxIn(NewTxIn(NewOutPoint(prevHash, 0), bytes.Repeat([]byte{0x00}, 139)))
	tx.AddTxOut(NewTxOut(11450000, []byte{
		OP_DUP_test, OP_HASH160_test, 0x14,
		0xbc, 0x4a, 0xb5, 0xe0, 0x5c, 0xe0, 0xf8, 0x1b, 0xc1, 0x49,
		0xcd, 0x2f, 0x9f, 0x40, 0x91, 0xb6, 0x6b, 0xfe, 0x8c, 0x03,
		OP_EQUALVERIFY_test, OP_CHECKSIG_test,
	}))
	tx.AddTxOut(NewTxOut(1000000, []byte{
		OP_DUP_test, OP_HASH160_test, 0x14,
		0x06, 0xf1, 0xb6, 0x6f, 0xb6, 0xc0, 0xe2, 0x53, 0xf2, 0x4c,
		0x74, 0xd3, 0xed, 0x97, 0x2f, 0xf4, 0x47, 0xca, 0x28, 0x5c,
		OP_EQUALVERIFY_test, OP_CHECKSIG_test,
	}))
	tx.LockTime = 0

	var buf bytes.Buffer
	require.NoError(t, tx.Encode(&buf))

	var decoded MsgTx
	require.NoError(t, decoded.Decode(bytes.NewReader(buf.Bytes())))

	require.Len(t, decoded.TxIn, 1)
	require.Len(t, decoded.TxOut, 2)
	require.Equal(t, int64(11450000), decoded.TxOut[0].Value)
	require.Equal(t, int64(1000000), decoded.TxOut[1].Value)
	require.Equal(t, uint32(0), decoded.LockTime)
	require.Equal(t, tx.TxHash(), decoded.TxHash())

	mutated := tx.Copy()
	mutated.LockTime = 1
	require.NotEqual(t, tx.TxHash(), mutated.TxHash())
}

// Local opcode aliases so this test doesn't import txscript (wire must not
// depend on it) while still spelling out the standard P2PKH template.
const (
	OP_DUP_test        = 0x76
	OP_HASH160_test    = 0xa9
	OP_EQUALVERIFY_test = 0x88
	OP_CHECKSIG_test    = 0xac
)
