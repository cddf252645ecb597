// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"math/big"
	"time"

	"github.com/spvsuite/spvd/chainhash"
)

// BlockHeaderLen is the number of bytes in a serialized block header:
// version(4) + prevBlock(32) + merkleRoot(32) + timestamp(4) + bits(4) +
// nonce(4).
const BlockHeaderLen = 80

// BlockHeader defines information about a block and is used in the bitcoin
// block (MsgBlock) and headers (MsgHeaders) messages. It is immutable once
// constructed; BlockHash is a pure function of its fields, and CalcWork
// derives its work from Bits alone.
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32
}

// BlockHash computes the double-SHA-256 hash of the serialized header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(BlockHeaderLen)
	_ = h.Serialize(&buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// Serialize encodes the header to w using the fixed 80-byte wire layout.
func (h *BlockHeader) Serialize(w io.Writer) error {
	if err := writeElement(w, h.Version); err != nil {
		return err
	}
	if err := writeElement(w, h.PrevBlock); err != nil {
		return err
	}
	if err := writeElement(w, h.MerkleRoot); err != nil {
		return err
	}
	if err := writeElement(w, uint32(h.Timestamp.Unix())); err != nil {
		return err
	}
	if err := writeElement(w, h.Bits); err != nil {
		return err
	}
	return writeElement(w, h.Nonce)
}

// Deserialize decodes a header from r using the fixed 80-byte wire layout.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	if err := readElement(r, &h.Version); err != nil {
		return err
	}
	if err := readElement(r, &h.PrevBlock); err != nil {
		return err
	}
	if err := readElement(r, &h.MerkleRoot); err != nil {
		return err
	}
	var ts uint32
	if err := readElement(r, &ts); err != nil {
		return err
	}
	h.Timestamp = time.Unix(int64(ts), 0)
	if err := readElement(r, &h.Bits); err != nil {
		return err
	}
	return readElement(r, &h.Nonce)
}

// NewBlockHeader returns a new BlockHeader using the provided fields.
func NewBlockHeader(version int32, prevHash, merkleRoot *chainhash.Hash, bits uint32, nonce uint32) *BlockHeader {
	return &BlockHeader{
		Version:    version,
		PrevBlock:  *prevHash,
		MerkleRoot: *merkleRoot,
		Timestamp:  time.Unix(time.Now().Unix(), 0),
		Bits:       bits,
		Nonce:      nonce,
	}
}

// oneLsh256 is 2^256 represented as a big.Int, used by CalcWork.
var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// CompactToBig expands the header's 4-byte "bits" field into the full
// target it encodes: a 1-byte exponent (how many bytes the mantissa needs
// shifting left by) packed with a 3-byte mantissa and a sign bit, per
// spec §4.E's difficulty-bits format. Valid proof-of-work targets never
// set the sign bit.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}
	return bn
}

// BigToCompact is the inverse of CompactToBig: it packs a target value back
// down into the header's 4-byte exponent/mantissa/sign encoding.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// CalcWork computes the work value for a block header given its compact
// difficulty bits: floor(2^256 / (target+1)). Headers whose target is
// degenerate (<=0) contribute zero work.
func CalcWork(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}
	denominator := new(big.Int).Add(target, big.NewInt(1))
	return new(big.Int).Div(oneLsh256, denominator)
}

// HashToBig converts a chainhash.Hash into a big.Int treating the hash as a
// little-endian number, matching bitcoin's convention for comparing a
// block's hash against its target.
func HashToBig(hash *chainhash.Hash) *big.Int {
	buf := *hash
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return new(big.Int).SetBytes(buf[:])
}
