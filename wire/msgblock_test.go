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

func testBlockTx(index uint32) *MsgTx {
	prevHash, _ := chainhash.NewHashFromStr("9ea3d038b587a18a2d8fe8cab06c594fe3185a6ad85eadadd0d183085b3d9e73")
	tx := NewMsgTx(1)
	tx.AddTxIn(NewTxIn(NewOutPoint(prevHash, index), []byte{0x51}))
	tx.AddTxOut(NewTxOut(int64(index)+1, []byte{0x51}))
	return tx
}

// TestMsgBlockRoundTrip checks decode(encode(x)) = x for a full block:
// header plus an ordered transaction list, per spec §8's round-trip
// requirement for block.
func TestMsgBlockRoundTrip(t *testing.T) {
	block := NewMsgBlock(testBlockHeader())
	block.AddTransaction(testBlockTx(0))
	block.AddTransaction(testBlockTx(1))

	var buf bytes.Buffer
	require.NoError(t, block.Encode(&buf))

	var got MsgBlock
	require.NoError(t, got.Decode(&buf))

	require.Equal(t, block.Header.BlockHash(), got.Header.BlockHash())
	require.Len(t, got.Transactions, 2)
	require.Equal(t, block.Transactions[0].TxHash(), got.Transactions[0].TxHash())
	require.Equal(t, block.Transactions[1].TxHash(), got.Transactions[1].TxHash())
}

// TestMsgHeadersRoundTrip checks decode(encode(x)) = x for a headers
// message, including the trailing zero transaction count each entry
// carries on the wire.
func TestMsgHeadersRoundTrip(t *testing.T) {
	m := NewMsgHeaders()
	m.AddBlockHeader(testBlockHeader())

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	got := NewMsgHeaders()
	require.NoError(t, got.Decode(&buf))

	require.Len(t, got.Headers, 1)
	require.Equal(t, m.Headers[0].BlockHash(), got.Headers[0].BlockHash())
}

// TestMsgHeadersRejectsNonZeroTxCount checks a headers entry claiming
// transactions is treated as a protocol violation rather than decoded.
func TestMsgHeadersRejectsNonZeroTxCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVarInt(&buf, 1))
	require.NoError(t, testBlockHeader().Serialize(&buf))
	require.NoError(t, WriteVarInt(&buf, 1)) // non-zero tx count

	got := NewMsgHeaders()
	require.Error(t, got.Decode(&buf))
}
