// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// maxTxPerBlock bounds decoded transaction counts; the true limit is
// enforced by MaxBlockSize accounting in blockchain, this just prevents an
// absurd varint from causing a huge slice allocation.
const maxTxPerBlock = 1_000_000

// MsgBlock implements the Message interface and represents a full block:
// a header plus its ordered transactions.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// NewMsgBlock returns a new block message with the given header and no
// transactions.
func NewMsgBlock(header *BlockHeader) *MsgBlock {
	return &MsgBlock{Header: *header}
}

// Command returns the protocol command string.
func (m *MsgBlock) Command() string { return CmdBlock }

// AddTransaction appends a transaction to the block.
func (m *MsgBlock) AddTransaction(tx *MsgTx) { m.Transactions = append(m.Transactions, tx) }

// Encode serializes m to w.
func (m *MsgBlock) Encode(w io.Writer) error {
	if err := m.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(m.Transactions))); err != nil {
		return err
	}
	for _, tx := range m.Transactions {
		if err := tx.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// Decode deserializes r into m.
func (m *MsgBlock) Decode(r io.Reader) error {
	if err := m.Header.Deserialize(r); err != nil {
		return err
	}

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxTxPerBlock {
		return fmt.Errorf("block contains too many transactions (%d > %d)", count, maxTxPerBlock)
	}

	m.Transactions = make([]*MsgTx, count)
	for i := uint64(0); i < count; i++ {
		tx := &MsgTx{}
		if err := tx.Decode(r); err != nil {
			return err
		}
		m.Transactions[i] = tx
	}
	return nil
}

// MsgHeaders implements the Message interface and carries a batch of block
// headers. On the wire each header is followed by a varint transaction
// count which is always zero (headers-only announcement).
type MsgHeaders struct {
	Headers []*BlockHeader
}

// NewMsgHeaders returns a new empty headers message.
func NewMsgHeaders() *MsgHeaders { return &MsgHeaders{} }

// AddBlockHeader appends a header to the message.
func (m *MsgHeaders) AddBlockHeader(h *BlockHeader) { m.Headers = append(m.Headers, h) }

// Command returns the protocol command string.
func (m *MsgHeaders) Command() string { return CmdHeaders }

// Encode serializes m to w.
func (m *MsgHeaders) Encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(m.Headers))); err != nil {
		return err
	}
	for _, h := range m.Headers {
		if err := h.Serialize(w); err != nil {
			return err
		}
		if err := WriteVarInt(w, 0); err != nil {
			return err
		}
	}
	return nil
}

// Decode deserializes r into m. A non-zero trailing transaction count is a
// protocol violation (headers messages never carry transactions).
func (m *MsgHeaders) Decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxBlockLocatorsPerMsg*2000 {
		return fmt.Errorf("headers message has too many headers (%d)", count)
	}

	headers := make([]*BlockHeader, 0, count)
	for i := uint64(0); i < count; i++ {
		h := &BlockHeader{}
		if err := h.Deserialize(r); err != nil {
			return err
		}
		txCount, err := ReadVarInt(r)
		if err != nil {
			return err
		}
		if txCount != 0 {
			return fmt.Errorf("headers message header %d carries %d transactions, want 0", i, txCount)
		}
		headers = append(headers, h)
	}
	m.Headers = headers
	return nil
}
