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

// TestInvVectRoundTrip checks decode(encode(x)) = x for a single inventory
// vector, per spec §8's round-trip requirement for inv.
func TestInvVectRoundTrip(t *testing.T) {
	hash, err := chainhash.NewHashFromStr("9ea3d038b587a18a2d8fe8cab06c594fe3185a6ad85eadadd0d183085b3d9e73")
	require.NoError(t, err)

	iv := NewInvVect(InvTypeTx, hash)

	var buf bytes.Buffer
	require.NoError(t, writeInvVect(&buf, iv))

	var got InvVect
	require.NoError(t, readInvVect(&buf, &got))
	require.Equal(t, *iv, got)
}

// TestMsgInvRoundTrip checks decode(encode(x)) = x for a full inv message
// carrying several inventory vectors of mixed type.
func TestMsgInvRoundTrip(t *testing.T) {
	txHash, err := chainhash.NewHashFromStr("9ea3d038b587a18a2d8fe8cab06c594fe3185a6ad85eadadd0d183085b3d9e73")
	require.NoError(t, err)
	blockHash, err := chainhash.NewHashFromStr("00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048")
	require.NoError(t, err)

	m := NewMsgInv()
	require.NoError(t, m.AddInvVect(NewInvVect(InvTypeTx, txHash)))
	require.NoError(t, m.AddInvVect(NewInvVect(InvTypeBlock, blockHash)))

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	got := NewMsgInv()
	require.NoError(t, got.Decode(&buf))
	require.Equal(t, m.InvList, got.InvList)
}

// TestMsgInvRejectsOversizeList checks AddInvVect enforces MaxInvPerMsg
// rather than silently growing an unbounded list.
func TestMsgInvRejectsOversizeList(t *testing.T) {
	hash, err := chainhash.NewHashFromStr("9ea3d038b587a18a2d8fe8cab06c594fe3185a6ad85eadadd0d183085b3d9e73")
	require.NoError(t, err)

	m := &MsgInv{invList: invList{InvList: make([]*InvVect, MaxInvPerMsg)}}
	for i := range m.InvList {
		m.InvList[i] = NewInvVect(InvTypeTx, hash)
	}

	err = m.AddInvVect(NewInvVect(InvTypeTx, hash))
	require.Error(t, err)
}

func TestMsgGetDataRoundTrip(t *testing.T) {
	hash, err := chainhash.NewHashFromStr("9ea3d038b587a18a2d8fe8cab06c594fe3185a6ad85eadadd0d183085b3d9e73")
	require.NoError(t, err)

	m := NewMsgGetData()
	require.NoError(t, m.AddInvVect(NewInvVect(InvTypeBlock, hash)))

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	got := NewMsgGetData()
	require.NoError(t, got.Decode(&buf))
	require.Equal(t, m.InvList, got.InvList)
}
