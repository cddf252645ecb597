// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/spvsuite/spvd/chainhash"
)

// InvVect represents a single entry of an inv or getdata message: the kind
// of item (tx or block) and its 32-byte hash.
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

// NewInvVect creates and returns a new InvVect.
func NewInvVect(typ InvType, hash *chainhash.Hash) *InvVect {
	return &InvVect{Type: typ, Hash: *hash}
}

func writeInvVect(w io.Writer, iv *InvVect) error {
	if err := writeElement(w, uint32(iv.Type)); err != nil {
		return err
	}
	return writeElement(w, iv.Hash)
}

func readInvVect(r io.Reader, iv *InvVect) error {
	var typ uint32
	if err := readElement(r, &typ); err != nil {
		return err
	}
	iv.Type = InvType(typ)
	return readElement(r, &iv.Hash)
}

// invList is the shared varint-count, count*(type,hash) body of inv and
// getdata.
type invList struct {
	InvList []*InvVect
}

func (m *invList) encode(w io.Writer) error {
	count := len(m.InvList)
	if count > MaxInvPerMsg {
		return fmt.Errorf("too many inventory vectors for message (%d > %d)", count, MaxInvPerMsg)
	}
	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for _, iv := range m.InvList {
		if err := writeInvVect(w, iv); err != nil {
			return err
		}
	}
	return nil
}

func (m *invList) decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxInvPerMsg {
		return fmt.Errorf("too many inventory vectors for message (%d > %d)", count, MaxInvPerMsg)
	}

	list := make([]*InvVect, 0, count)
	for i := uint64(0); i < count; i++ {
		iv := &InvVect{}
		if err := readInvVect(r, iv); err != nil {
			return err
		}
		list = append(list, iv)
	}
	m.InvList = list
	return nil
}

// AddInvVect appends iv to the list, enforcing MaxInvPerMsg.
func (m *invList) AddInvVect(iv *InvVect) error {
	if len(m.InvList)+1 > MaxInvPerMsg {
		return fmt.Errorf("inv list exceeds max allowed of %d", MaxInvPerMsg)
	}
	m.InvList = append(m.InvList, iv)
	return nil
}

// MsgInv implements the Message interface and announces the existence of
// transactions or blocks.
type MsgInv struct {
	invList
}

// Command returns the protocol command string.
func (m *MsgInv) Command() string { return CmdInv }

// Encode serializes m to w.
func (m *MsgInv) Encode(w io.Writer) error { return m.invList.encode(w) }

// Decode deserializes r into m.
func (m *MsgInv) Decode(r io.Reader) error { return m.invList.decode(r) }

// NewMsgInv returns a new empty inv message.
func NewMsgInv() *MsgInv { return &MsgInv{} }

// MsgGetData implements the Message interface and requests the raw bytes
// for the listed inventory items.
type MsgGetData struct {
	invList
}

// Command returns the protocol command string.
func (m *MsgGetData) Command() string { return CmdGetData }

// Encode serializes m to w.
func (m *MsgGetData) Encode(w io.Writer) error { return m.invList.encode(w) }

// Decode deserializes r into m.
func (m *MsgGetData) Decode(r io.Reader) error { return m.invList.decode(r) }

// NewMsgGetData returns a new empty getdata message.
func NewMsgGetData() *MsgGetData { return &MsgGetData{} }
