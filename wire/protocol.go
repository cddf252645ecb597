// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the binary codec and peer-to-peer message
// framing used by the node: little-endian primitives, varints,
// length-prefixed bytes/strings, network addresses and the magic-prefixed,
// checksummed message envelope.
package wire

import "fmt"

// ProtocolVersion is the version of the protocol this package speaks. It
// mirrors the historical BIP0035 value used by SPV-era clients.
const ProtocolVersion uint32 = 60002

// NetAddressTimeVersion is the protocol version at and after which an addr
// message's entries carry a leading timestamp.
const NetAddressTimeVersion uint32 = 31402

// UserAgent identifies this software to peers during the version handshake.
const UserAgent = "/Satoshi:0.7.2/"

// BitcoinNet represents the magic number used to identify the network for
// a bitcoin-like wire message.
type BitcoinNet uint32

// String returns the BitcoinNet in human-readable form.
func (n BitcoinNet) String() string {
	switch n {
	case MainNet:
		return "MainNet"
	case TestNet:
		return "TestNet"
	case RegTest:
		return "RegTest"
	}
	return fmt.Sprintf("Unknown BitcoinNet (%d)", uint32(n))
}

// Network magics. A coin profile (chaincfg.Params) selects one of these (or
// a custom value) as Params.Net.
const (
	MainNet BitcoinNet = 0xd9b4bef9
	TestNet BitcoinNet = 0x0709110b
	RegTest BitcoinNet = 0xdab5bffa
)

// ServiceFlag identifies services supported by a peer.
type ServiceFlag uint64

const (
	// SFNodeNetwork indicates the peer is a full node capable of serving
	// blocks.
	SFNodeNetwork ServiceFlag = 1 << iota

	// SFNodeGetUTXO indicates BIP0064 getutxos/utxos support.
	SFNodeGetUTXO

	// SFNodeBloom indicates BIP0037 bloom-filtered connection support.
	SFNodeBloom
)

// InvType represents the type of an inventory vector.
type InvType uint32

const (
	// InvTypeError is an invalid inventory type.
	InvTypeError InvType = 0

	// InvTypeTx indicates a transaction hash.
	InvTypeTx InvType = 1

	// InvTypeBlock indicates a block hash.
	InvTypeBlock InvType = 2
)

// String returns the InvType in human-readable form.
func (t InvType) String() string {
	switch t {
	case InvTypeTx:
		return "MSG_TX"
	case InvTypeBlock:
		return "MSG_BLOCK"
	}
	return fmt.Sprintf("Unknown InvType (%d)", uint32(t))
}

// Message command strings. These occupy the 12-byte, NUL-padded command
// field of the message header.
const (
	CmdVersion    = "version"
	CmdVerAck     = "verack"
	CmdPing       = "ping"
	CmdPong       = "pong"
	CmdAddr       = "addr"
	CmdInv        = "inv"
	CmdGetData    = "getdata"
	CmdGetHeaders = "getheaders"
	CmdGetBlocks  = "getblocks"
	CmdTx         = "tx"
	CmdHeaders    = "headers"
	CmdBlock      = "block"
	CmdGetAddr    = "getaddr"
	CmdNotFound   = "notfound"
	CmdReject     = "reject"
)

// Resource limits enforced at the framing layer.
const (
	// MaxMessagePayload is the maximum bytes a message payload may
	// occupy. Peers that claim a larger length are dropped before the
	// payload is even read.
	MaxMessagePayload = 2 * 1024 * 1024

	// CommandSize is the fixed, NUL-padded size of the command field.
	CommandSize = 12

	// MessageHeaderSize is magic(4) + command(12) + length(4) + checksum(4).
	MessageHeaderSize = 4 + CommandSize + 4 + 4

	// MaxVarIntPayload is the largest number of bytes a variable length
	// integer can be.
	MaxVarIntPayload = 9

	// MaxInvPerMsg is the maximum number of inventory vectors in an inv
	// or getdata message.
	MaxInvPerMsg = 50000

	// MaxAddrPerMsg is the maximum number of addresses in an addr message.
	MaxAddrPerMsg = 1000

	// MaxBlockLocatorsPerMsg is the maximum number of block locator
	// hashes allowed per message.
	MaxBlockLocatorsPerMsg = 500
)
