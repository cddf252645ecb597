// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/spvsuite/spvd/chainhash"
)

// Framing errors, per spec §4.A.
var (
	// ErrShortHeader is returned when fewer than MessageHeaderSize bytes
	// are available to parse a header.
	ErrShortHeader = errors.New("wire: short buffer reading message header")

	// ErrBadMagic is returned when the leading 4 bytes don't match the
	// network's magic.
	ErrBadMagic = errors.New("wire: unexpected network magic")

	// ErrBadCommandEncoding is returned when the 12-byte command field
	// contains a non-NUL byte after the first NUL, or non-ASCII data.
	ErrBadCommandEncoding = errors.New("wire: malformed command string")

	// ErrBadChecksum is returned when the payload's double-SHA-256
	// doesn't match the header's checksum field.
	ErrBadChecksum = errors.New("wire: payload checksum mismatch")

	// ErrOversizeMessage is returned when the header's length field
	// exceeds MaxMessagePayload.
	ErrOversizeMessage = errors.New("wire: message payload exceeds maximum allowed size")
)

// Message is implemented by every wire payload type.
type Message interface {
	Command() string
	Encode(w io.Writer) error
	Decode(r io.Reader) error
}

// MessageHeader is the decoded form of the 24-byte envelope that precedes
// every message payload.
type MessageHeader struct {
	Magic    BitcoinNet
	Command  string
	Length   uint32
	Checksum [4]byte
}

// checksum returns the first four bytes of double-SHA-256(payload).
func checksum(payload []byte) [4]byte {
	var c [4]byte
	copy(c[:], chainhash.DoubleHashB(payload))
	return c
}

// encodeCommand NUL-pads (or truncates-rejects) cmd into the fixed 12-byte
// command field.
func encodeCommand(cmd string) ([CommandSize]byte, error) {
	var out [CommandSize]byte
	if len(cmd) > CommandSize {
		return out, fmt.Errorf("%w: command %q too long", ErrBadCommandEncoding, cmd)
	}
	copy(out[:], cmd)
	return out, nil
}

// decodeCommand validates and trims the fixed 12-byte command field,
// rejecting anything with a non-NUL byte following the first NUL or a
// non-printable byte in the name. A name filling all 12 bytes, with no NUL,
// is accepted.
func decodeCommand(raw [CommandSize]byte) (string, error) {
	end := CommandSize
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	for _, b := range raw[end:] {
		if b != 0 {
			return "", ErrBadCommandEncoding
		}
	}
	for _, b := range raw[:end] {
		if b < 0x20 || b > 0x7e {
			return "", ErrBadCommandEncoding
		}
	}
	return string(raw[:end]), nil
}

// WriteMessage serializes msg with the magic/command/length/checksum
// envelope described in spec §4.A and §6, and writes it to w.
func WriteMessage(w io.Writer, msg Message, magic BitcoinNet) error {
	var payloadBuf bytes.Buffer
	if err := msg.Encode(&payloadBuf); err != nil {
		return err
	}
	payload := payloadBuf.Bytes()
	if len(payload) > MaxMessagePayload {
		return ErrOversizeMessage
	}

	cmdBytes, err := encodeCommand(msg.Command())
	if err != nil {
		return err
	}

	var header bytes.Buffer
	header.Grow(MessageHeaderSize)
	binary.Write(&header, binary.LittleEndian, uint32(magic))
	header.Write(cmdBytes[:])
	binary.Write(&header, binary.LittleEndian, uint32(len(payload)))
	sum := checksum(payload)
	header.Write(sum[:])

	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadMessageHeader parses the fixed-size envelope from r, validating magic
// and command encoding but not the checksum (the payload isn't available
// yet) nor the length cap (left to the caller, who may want to drop the
// peer rather than simply error).
func ReadMessageHeader(r io.Reader, magic BitcoinNet) (*MessageHeader, error) {
	var raw [MessageHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: %v", ErrShortHeader, err)
		}
		return nil, err
	}

	gotMagic := BitcoinNet(binary.LittleEndian.Uint32(raw[0:4]))
	if gotMagic != magic {
		return nil, fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrBadMagic, uint32(gotMagic), uint32(magic))
	}

	var cmdRaw [CommandSize]byte
	copy(cmdRaw[:], raw[4:4+CommandSize])
	cmd, err := decodeCommand(cmdRaw)
	if err != nil {
		return nil, err
	}

	length := binary.LittleEndian.Uint32(raw[4+CommandSize : 4+CommandSize+4])

	var sum [4]byte
	copy(sum[:], raw[4+CommandSize+4:])

	return &MessageHeader{
		Magic:    gotMagic,
		Command:  cmd,
		Length:   length,
		Checksum: sum,
	}, nil
}

// FrameResult is the outcome of one incremental framing attempt: the parsed
// command, the payload (nil if not yet fully received), whether the payload
// is present, and the total on-wire length of header+payload, from which the
// caller works out how much of its buffer the message consumes.
type FrameResult struct {
	Command     string
	Payload     []byte
	HavePayload bool
	TotalLength int
}

// FrameIncremental attempts to parse one message out of buf, a peer's
// accumulated read buffer. It never blocks: if the header is present but
// the payload is not yet fully buffered, it returns HavePayload=false along
// with TotalLength so the caller (the network core) can apply
// MaxMessagePayload before reading further and drop misbehaving peers
// early. If buf doesn't yet contain a full header, it returns
// (nil, ErrShortHeader) so the caller knows to wait for more data rather
// than treating it as a framing violation.
func FrameIncremental(buf []byte, magic BitcoinNet) (*FrameResult, error) {
	if len(buf) < MessageHeaderSize {
		return nil, ErrShortHeader
	}

	hdr, err := ReadMessageHeader(bytes.NewReader(buf[:MessageHeaderSize]), magic)
	if err != nil {
		return nil, err
	}

	if hdr.Length > MaxMessagePayload {
		return nil, ErrOversizeMessage
	}

	total := MessageHeaderSize + int(hdr.Length)
	if len(buf) < total {
		return &FrameResult{
			Command:     hdr.Command,
			HavePayload: false,
			TotalLength: total,
		}, nil
	}

	payload := buf[MessageHeaderSize:total]
	got := checksum(payload)
	if got != hdr.Checksum {
		return nil, ErrBadChecksum
	}

	return &FrameResult{
		Command:     hdr.Command,
		Payload:     payload,
		HavePayload: true,
		TotalLength: total,
	}, nil
}

// MakeEmptyMessage returns a zero-value Message for the given command, or
// an error if the command is unrecognized. Unknown commands are logged and
// dropped by the caller per spec §4.K.
func MakeEmptyMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdPing:
		return &MsgPing{}, nil
	case CmdPong:
		return &MsgPong{}, nil
	case CmdAddr:
		return &MsgAddr{}, nil
	case CmdInv:
		return &MsgInv{}, nil
	case CmdGetData:
		return &MsgGetData{}, nil
	case CmdGetHeaders:
		return &MsgGetHeaders{}, nil
	case CmdGetBlocks:
		return &MsgGetBlocks{}, nil
	case CmdTx:
		return &MsgTx{}, nil
	case CmdHeaders:
		return &MsgHeaders{}, nil
	case CmdBlock:
		return &MsgBlock{}, nil
	case CmdGetAddr:
		return &MsgGetAddr{}, nil
	default:
		return nil, fmt.Errorf("unhandled command %q", command)
	}
}
