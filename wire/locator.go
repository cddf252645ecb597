// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/spvsuite/spvd/chainhash"
)

// BlockLocator is used to help locate a specific block. The algorithm for
// building the locator is to add the hashes in reverse order until the
// genesis block is reached, using exponentially larger steps after the
// first ten entries (doubling the step size each time), grounded on
// original_source/pyspv's blockchain.py locator construction.
type BlockLocator []*chainhash.Hash

// getBlocksOrHeaders is the shared body of getheaders and getblocks:
// protocol version, a block locator, and a stop hash.
type getBlocksOrHeaders struct {
	ProtocolVersion    uint32
	BlockLocatorHashes BlockLocator
	HashStop           chainhash.Hash
}

func (m *getBlocksOrHeaders) encode(w io.Writer) error {
	if err := writeElement(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(m.BlockLocatorHashes))); err != nil {
		return err
	}
	for _, hash := range m.BlockLocatorHashes {
		if err := writeElement(w, *hash); err != nil {
			return err
		}
	}
	return writeElement(w, m.HashStop)
}

func (m *getBlocksOrHeaders) decode(r io.Reader) error {
	if err := readElement(r, &m.ProtocolVersion); err != nil {
		return err
	}

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxBlockLocatorsPerMsg {
		return ErrVarBytesTooLong
	}

	locator := make(BlockLocator, 0, count)
	for i := uint64(0); i < count; i++ {
		var hash chainhash.Hash
		if err := readElement(r, &hash); err != nil {
			return err
		}
		locator = append(locator, &hash)
	}
	m.BlockLocatorHashes = locator

	return readElement(r, &m.HashStop)
}

// AddBlockLocatorHash adds a new hash to the end of the locator.
func (m *getBlocksOrHeaders) AddBlockLocatorHash(hash *chainhash.Hash) error {
	if len(m.BlockLocatorHashes)+1 > MaxBlockLocatorsPerMsg {
		return ErrVarBytesTooLong
	}
	m.BlockLocatorHashes = append(m.BlockLocatorHashes, hash)
	return nil
}

// MsgGetHeaders implements the Message interface and requests a headers
// message containing up to 2000 headers descending from the locator.
type MsgGetHeaders struct {
	getBlocksOrHeaders
}

// Command returns the protocol command string.
func (m *MsgGetHeaders) Command() string { return CmdGetHeaders }

// Encode serializes m to w.
func (m *MsgGetHeaders) Encode(w io.Writer) error { return m.getBlocksOrHeaders.encode(w) }

// Decode deserializes r into m.
func (m *MsgGetHeaders) Decode(r io.Reader) error { return m.getBlocksOrHeaders.decode(r) }

// NewMsgGetHeaders returns a new empty getheaders message.
func NewMsgGetHeaders() *MsgGetHeaders {
	return &MsgGetHeaders{getBlocksOrHeaders{ProtocolVersion: ProtocolVersion}}
}

// MsgGetBlocks implements the Message interface and requests an inv
// message containing up to 500 block hashes descending from the locator.
// The node being queried never serves the corresponding getdata for blocks
// it didn't source itself (spec §4.K: getblocks is otherwise ignored by
// this node as an incoming command, we serve no blocks).
type MsgGetBlocks struct {
	getBlocksOrHeaders
}

// Command returns the protocol command string.
func (m *MsgGetBlocks) Command() string { return CmdGetBlocks }

// Encode serializes m to w.
func (m *MsgGetBlocks) Encode(w io.Writer) error { return m.getBlocksOrHeaders.encode(w) }

// Decode deserializes r into m.
func (m *MsgGetBlocks) Decode(r io.Reader) error { return m.getBlocksOrHeaders.decode(r) }

// NewMsgGetBlocks returns a new empty getblocks message.
func NewMsgGetBlocks() *MsgGetBlocks {
	return &MsgGetBlocks{getBlocksOrHeaders{ProtocolVersion: ProtocolVersion}}
}

// BuildLocator builds a block locator from a walk-back function. heightOf
// returns the height of the chain tip the locator originates from; hashAt
// returns the hash of the ancestor the given number of blocks back from the
// tip, or nil once it runs out of ancestors (i.e. genesis has been passed).
// The first ten entries are consecutive; after that the step between
// entries doubles each time, and genesis is always included last.
func BuildLocator(tipHeight int32, hashAt func(stepsBack int32) *chainhash.Hash) BlockLocator {
	var locator BlockLocator

	step := int32(1)
	for stepsBack := int32(0); ; stepsBack += step {
		if stepsBack > tipHeight {
			stepsBack = tipHeight
		}
		hash := hashAt(stepsBack)
		if hash == nil {
			break
		}
		locator = append(locator, hash)

		if len(locator) >= 10 {
			step *= 2
		}
		if stepsBack >= tipHeight {
			break
		}
	}

	return locator
}
