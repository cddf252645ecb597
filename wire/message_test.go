// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestWriteMessageReadMessageHeaderRoundTrip checks decode(encode(x)) = x
// for the full magic/command/length/checksum envelope plus payload, per
// spec §8's round-trip requirement for network message.
func TestWriteMessageReadMessageHeaderRoundTrip(t *testing.T) {
	msg := &MsgPing{Nonce: 0xdeadbeefcafef00d}

	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, msg, TestNet))

	hdr, err := ReadMessageHeader(&buf, TestNet)
	require.NoError(t, err)
	require.Equal(t, CmdPing, hdr.Command)
	require.Equal(t, TestNet, hdr.Magic)

	payload := make([]byte, hdr.Length)
	_, err = buf.Read(payload)
	require.NoError(t, err)
	require.Equal(t, checksum(payload), hdr.Checksum)

	got := &MsgPing{}
	require.NoError(t, got.Decode(bytes.NewReader(payload)))
	require.Equal(t, msg.Nonce, got.Nonce)
}

// TestReadMessageHeaderRejectsWrongMagic checks a header built for one
// network is rejected when read back against another.
func TestReadMessageHeaderRejectsWrongMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &MsgPing{Nonce: 1}, MainNet))

	_, err := ReadMessageHeader(&buf, TestNet)
	require.ErrorIs(t, err, ErrBadMagic)
}

// TestFrameIncrementalRoundTrip checks FrameIncremental recovers exactly
// the command, payload and total on-wire length WriteMessage produced.
func TestFrameIncrementalRoundTrip(t *testing.T) {
	msg := &MsgPing{Nonce: 42}

	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, msg, RegTest))
	framed := buf.Bytes()

	result, err := FrameIncremental(framed, RegTest)
	require.NoError(t, err)
	require.True(t, result.HavePayload)
	require.Equal(t, CmdPing, result.Command)
	require.Equal(t, len(framed), result.TotalLength)

	got := &MsgPing{}
	require.NoError(t, got.Decode(bytes.NewReader(result.Payload)))
	require.Equal(t, msg.Nonce, got.Nonce)
}

// TestFrameIncrementalWaitsForFullPayload checks a buffer holding a
// complete header but a truncated payload reports HavePayload=false
// instead of erroring, so the caller knows to keep buffering.
func TestFrameIncrementalWaitsForFullPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &MsgPing{Nonce: 7}, MainNet))
	full := buf.Bytes()

	partial := full[:MessageHeaderSize+2]
	result, err := FrameIncremental(partial, MainNet)
	require.NoError(t, err)
	require.False(t, result.HavePayload)
	require.Equal(t, len(full), result.TotalLength)
}

// TestFrameIncrementalShortHeaderWaits checks a buffer shorter than the
// fixed header size is reported as "wait for more", not a framing error.
func TestFrameIncrementalShortHeaderWaits(t *testing.T) {
	_, err := FrameIncremental(make([]byte, MessageHeaderSize-1), MainNet)
	require.ErrorIs(t, err, ErrShortHeader)
}

// TestFrameIncrementalRejectsBadChecksum checks a corrupted payload byte
// is caught by the checksum rather than silently decoded.
func TestFrameIncrementalRejectsBadChecksum(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &MsgPing{Nonce: 7}, MainNet))
	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xff

	_, err := FrameIncremental(corrupted, MainNet)
	require.ErrorIs(t, err, ErrBadChecksum)
}
