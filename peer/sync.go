// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"time"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// HeadersLeaseTimeout is spec §4.K's 25s bound: a peer holding the
// manager-wide headers-request lease that hasn't produced a headers
// command, or hasn't produced fresh data within a headers exchange, loses
// the lease and is dropped.
const HeadersLeaseTimeout = 25 * time.Second

// GetBlocksWait is spec §4.K's bound on waiting for an inv reply to a
// getblocks request once headers sync catches up to the peer's advertised
// tip.
const GetBlocksWait = 60 * time.Second

// RequestHeaders sends a getheaders built from locator, records the
// request time, and marks this peer as the manager's current lease
// holder. The manager (package netsync) is responsible for only calling
// this on one peer at a time.
func (p *Peer) RequestHeaders(locator wire.BlockLocator, stopHash *chainhash.Hash) error {
	msg := wire.NewMsgGetHeaders()
	msg.BlockLocatorHashes = locator
	if stopHash != nil {
		msg.HashStop = *stopHash
	}

	p.mu.Lock()
	p.headersRequestedAt = time.Now()
	p.holdsHeadersLease = true
	p.mu.Unlock()

	return p.queueMessage(msg)
}

// RequestBlocks sends a getblocks built from locator, used once headers
// sync has caught the peer's advertised tip but our block data is still
// behind it.
func (p *Peer) RequestBlocks(locator wire.BlockLocator) error {
	msg := wire.NewMsgGetBlocks()
	msg.BlockLocatorHashes = locator
	return p.queueMessage(msg)
}

// HoldsHeadersLease reports whether this peer currently holds the
// manager-wide headers-request lease.
func (p *Peer) HoldsHeadersLease() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.holdsHeadersLease
}

// ReleaseHeadersLease drops this peer's hold on the lease, whether because
// the exchange completed or because it timed out.
func (p *Peer) ReleaseHeadersLease() {
	p.mu.Lock()
	p.holdsHeadersLease = false
	p.mu.Unlock()
}

// HeadersLeaseExpired reports whether this peer has held the lease longer
// than HeadersLeaseTimeout without producing a headers command, or without
// fresh data since the last one it produced.
func (p *Peer) HeadersLeaseExpired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.holdsHeadersLease {
		return false
	}
	last := p.lastHeadersAt
	if last.IsZero() {
		last = p.headersRequestedAt
	}
	return time.Since(last) > HeadersLeaseTimeout
}
