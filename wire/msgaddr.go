// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MsgAddr implements the Message interface and announces known peer
// addresses.
type MsgAddr struct {
	AddrList []*NetAddress
}

// Command returns the protocol command string.
func (m *MsgAddr) Command() string { return CmdAddr }

// AddAddress appends an address to the message, enforcing MaxAddrPerMsg.
func (m *MsgAddr) AddAddress(na *NetAddress) error {
	if len(m.AddrList)+1 > MaxAddrPerMsg {
		return fmt.Errorf("addr message exceeds max allowed addresses of %d", MaxAddrPerMsg)
	}
	m.AddrList = append(m.AddrList, na)
	return nil
}

// Encode serializes m to w. Per spec §6, each entry carries a leading
// timestamp (negotiated via NetAddressTimeVersion, which every peer this
// node talks to is assumed to support since ProtocolVersion > 31402).
func (m *MsgAddr) Encode(w io.Writer) error {
	count := len(m.AddrList)
	if count > MaxAddrPerMsg {
		return fmt.Errorf("addr message has too many addresses (%d > %d)", count, MaxAddrPerMsg)
	}
	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for _, na := range m.AddrList {
		if err := writeNetAddress(w, na, true); err != nil {
			return err
		}
	}
	return nil
}

// Decode deserializes r into m.
func (m *MsgAddr) Decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxAddrPerMsg {
		return fmt.Errorf("addr message has too many addresses (%d > %d)", count, MaxAddrPerMsg)
	}

	addrList := make([]*NetAddress, 0, count)
	for i := uint64(0); i < count; i++ {
		var na NetAddress
		if err := readNetAddress(r, &na, true); err != nil {
			return err
		}
		addrList = append(addrList, &na)
	}
	m.AddrList = addrList
	return nil
}
