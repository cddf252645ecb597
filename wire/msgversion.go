// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
)

// MsgVersion implements the Message interface and represents the version
// handshake message exchanged by both ends of a new connection.
type MsgVersion struct {
	ProtocolVersion uint32
	Services        ServiceFlag
	Timestamp       int64
	AddrRecv        NetAddress
	AddrSender      NetAddress
	Nonce           uint64
	UserAgent       string
	LastBlock       int32
}

// Command returns the protocol command string.
func (m *MsgVersion) Command() string { return CmdVersion }

// Encode serializes m to w.
func (m *MsgVersion) Encode(w io.Writer) error {
	if err := writeElement(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := writeElement(w, uint64(m.Services)); err != nil {
		return err
	}
	if err := writeElement(w, m.Timestamp); err != nil {
		return err
	}
	if err := writeNetAddress(w, &m.AddrRecv, false); err != nil {
		return err
	}
	if err := writeNetAddress(w, &m.AddrSender, false); err != nil {
		return err
	}
	if err := writeElement(w, m.Nonce); err != nil {
		return err
	}
	if err := WriteVarString(w, m.UserAgent); err != nil {
		return err
	}
	return writeElement(w, m.LastBlock)
}

// Decode deserializes r into m.
func (m *MsgVersion) Decode(r io.Reader) error {
	if err := readElement(r, &m.ProtocolVersion); err != nil {
		return err
	}
	var services uint64
	if err := readElement(r, &services); err != nil {
		return err
	}
	m.Services = ServiceFlag(services)
	if err := readElement(r, &m.Timestamp); err != nil {
		return err
	}
	if err := readNetAddress(r, &m.AddrRecv, false); err != nil {
		return err
	}
	if err := readNetAddress(r, &m.AddrSender, false); err != nil {
		return err
	}
	if err := readElement(r, &m.Nonce); err != nil {
		return err
	}
	ua, err := ReadVarString(r, 256)
	if err != nil {
		return err
	}
	m.UserAgent = ua
	return readElement(r, &m.LastBlock)
}

// MsgVerAck implements the Message interface for the empty verack payload
// that completes the handshake.
type MsgVerAck struct{}

// Command returns the protocol command string.
func (m *MsgVerAck) Command() string { return CmdVerAck }

// Encode serializes m to w (a no-op; verack carries no payload).
func (m *MsgVerAck) Encode(w io.Writer) error { return nil }

// Decode deserializes r into m (a no-op).
func (m *MsgVerAck) Decode(r io.Reader) error { return nil }

// MsgGetAddr implements the Message interface for the empty getaddr
// request, to which a peer replies with up to 10 random known addresses.
type MsgGetAddr struct{}

// Command returns the protocol command string.
func (m *MsgGetAddr) Command() string { return CmdGetAddr }

// Encode serializes m to w (a no-op).
func (m *MsgGetAddr) Encode(w io.Writer) error { return nil }

// Decode deserializes r into m (a no-op).
func (m *MsgGetAddr) Decode(r io.Reader) error { return nil }
