// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"time"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// BlockLink is one node of the block tree: a header plus the bookkeeping
// the chain engine needs to select the best chain without parent
// pointers. Ancestors are found by looking PrevHash up in the index, per
// spec §9's "arena for the block tree" design note — this avoids the
// reference cycles a parent-pointer tree would require in Go.
type BlockLink struct {
	Hash      chainhash.Hash
	PrevHash  chainhash.Hash
	Header    wire.BlockHeader
	Height    int32
	Work      *big.Int // this link's own proof-of-work contribution
	ChainWork *big.Int // cumulative work from genesis to this link

	Connected bool // prev is connected (link participates in a tree rooted at genesis/checkpoint)
	Main      bool // link is on the current best chain
}

// newBlockLink derives a BlockLink from a decoded header. ChainWork and
// Connected/Main are filled in by the index as the link is connected.
func newBlockLink(header *wire.BlockHeader, height int32) *BlockLink {
	return &BlockLink{
		Hash:     header.BlockHash(),
		PrevHash: header.PrevBlock,
		Header:   *header,
		Height:   height,
		Work:     wire.CalcWork(header.Bits),
	}
}

// Timestamp is a convenience accessor for the header's timestamp.
func (l *BlockLink) Timestamp() time.Time { return l.Header.Timestamp }
