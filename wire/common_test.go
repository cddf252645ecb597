// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVarIntRoundTrip checks decode(encode(x)) = x at and around every
// boundary where the varint encoding widens, per spec §8's round-trip
// requirement for varint.
func TestVarIntRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 0xfc, 0xfd, 0xfe, 0xff,
		0x100, math.MaxUint16, math.MaxUint16 + 1,
		math.MaxUint32, math.MaxUint32 + 1,
		math.MaxUint64,
	}

	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, v))
		require.Equal(t, VarIntSerializeSize(v), buf.Len())

		got, err := ReadVarInt(&buf)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

// TestVarBytesRoundTrip checks decode(encode(x)) = x for var_bytes, and
// that a length prefix above the caller's cap is rejected rather than
// read into an oversized allocation.
func TestVarBytesRoundTrip(t *testing.T) {
	original := []byte("an arbitrary payload blob")

	var buf bytes.Buffer
	require.NoError(t, WriteVarBytes(&buf, original))

	got, err := ReadVarBytes(&buf, uint64(len(original)), "test")
	require.NoError(t, err)
	require.Equal(t, original, got)

	var tooSmallCap bytes.Buffer
	require.NoError(t, WriteVarBytes(&tooSmallCap, original))
	_, err = ReadVarBytes(&tooSmallCap, uint64(len(original)-1), "test")
	require.ErrorIs(t, err, ErrVarBytesTooLong)
}

// TestVarStringRoundTrip checks decode(encode(x)) = x for var_string.
func TestVarStringRoundTrip(t *testing.T) {
	original := "a var_string value"

	var buf bytes.Buffer
	require.NoError(t, WriteVarString(&buf, original))

	got, err := ReadVarString(&buf, uint64(len(original)))
	require.NoError(t, err)
	require.Equal(t, original, got)
}
