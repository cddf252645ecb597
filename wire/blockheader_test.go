// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chainhash"
)

func testBlockHeader() *BlockHeader {
	prev, _ := chainhash.NewHashFromStr("9ea3d038b587a18a2d8fe8cab06c594fe3185a6ad85eadadd0d183085b3d9e73")
	merkle, _ := chainhash.NewHashFromStr("4d7b9fdeb4c2658f1b4d6c6b4d6c658f1b4d6c6b4d6c658f1b4d6c6b4d6c6590")
	return NewBlockHeader(1, prev, merkle, 0x1d00ffff, 2083236893)
}

// TestBlockHeaderRoundTrip checks decode(encode(x)) = x for the 80-byte
// fixed header layout, per spec §8's round-trip requirement for header.
func TestBlockHeaderRoundTrip(t *testing.T) {
	h := testBlockHeader()

	var buf bytes.Buffer
	require.NoError(t, h.Serialize(&buf))
	require.Equal(t, BlockHeaderLen, buf.Len())

	var got BlockHeader
	require.NoError(t, got.Deserialize(&buf))

	require.Equal(t, h.Version, got.Version)
	require.Equal(t, h.PrevBlock, got.PrevBlock)
	require.Equal(t, h.MerkleRoot, got.MerkleRoot)
	require.Equal(t, h.Timestamp.Unix(), got.Timestamp.Unix())
	require.Equal(t, h.Bits, got.Bits)
	require.Equal(t, h.Nonce, got.Nonce)
	require.Equal(t, h.BlockHash(), got.BlockHash())
}

// TestBlockHeaderTimestampTruncatesToSeconds matches the wire format's
// 4-byte unix-seconds timestamp: sub-second precision does not survive a
// round trip.
func TestBlockHeaderTimestampTruncatesToSeconds(t *testing.T) {
	h := testBlockHeader()
	h.Timestamp = time.Unix(1234567890, 500000000)

	var buf bytes.Buffer
	require.NoError(t, h.Serialize(&buf))

	var got BlockHeader
	require.NoError(t, got.Deserialize(&buf))
	require.Equal(t, int64(1234567890), got.Timestamp.Unix())
}

// TestCompactBigRoundTrip checks decode(encode(x)) = x for the compact
// difficulty-bits encoding across the exponent boundary at 3 bytes and for
// a mantissa whose high bit forces a one-byte exponent shift; negative
// values are covered by TestCompactToBigNegative.
func TestCompactBigRoundTrip(t *testing.T) {
	cases := []uint32{
		0x00000000,
		0x02008000,
		0x03123456,
		0x04123456,
		0x1d00ffff,
		0x1b0404cb,
	}

	for _, bits := range cases {
		n := CompactToBig(bits)
		got := BigToCompact(n)
		require.Equal(t, bits, got, "bits 0x%08x round trip", bits)
	}
}

// TestCompactToBigNegative checks the sign bit decodes to a negative
// big.Int and BigToCompact packs it back to the same canonical encoding.
func TestCompactToBigNegative(t *testing.T) {
	n := CompactToBig(0x01810000)
	require.Equal(t, -1, n.Sign())
	require.Equal(t, big.NewInt(-1), n)

	got := BigToCompact(n)
	require.Equal(t, uint32(0x01810000), got)
}

func TestBigToCompactZero(t *testing.T) {
	require.Equal(t, uint32(0), BigToCompact(big.NewInt(0)))
}

func TestCalcWorkDegenerateTargetIsZero(t *testing.T) {
	// A negative target (sign bit set) yields zero work rather than a
	// negative or nonsensical value.
	require.Equal(t, big.NewInt(0), CalcWork(0x01810000))
}
