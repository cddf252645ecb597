// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgPing implements the Message interface and carries an opaque nonce the
// peer is expected to echo back in a pong.
type MsgPing struct {
	Nonce uint64
}

// Command returns the protocol command string.
func (m *MsgPing) Command() string { return CmdPing }

// Encode serializes m to w.
func (m *MsgPing) Encode(w io.Writer) error { return writeElement(w, m.Nonce) }

// Decode deserializes r into m.
func (m *MsgPing) Decode(r io.Reader) error { return readElement(r, &m.Nonce) }

// MsgPong implements the Message interface and echoes a ping's nonce.
type MsgPong struct {
	Nonce uint64
}

// Command returns the protocol command string.
func (m *MsgPong) Command() string { return CmdPong }

// Encode serializes m to w.
func (m *MsgPong) Encode(w io.Writer) error { return writeElement(w, m.Nonce) }

// Decode deserializes r into m.
func (m *MsgPong) Decode(r io.Reader) error { return readElement(r, &m.Nonce) }
