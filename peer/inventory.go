// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"time"

	"github.com/spvsuite/spvd/wire"
)

// maxInvsInProgress bounds concurrent outstanding requests per peer, spec
// §4.K's MAX_INVS_IN_PROGRESS.
const maxInvsInProgress = 10

// blockInProgressTimeout and txInProgressTimeout are spec §4.K/§5's
// in-progress request timeouts: a block request that runs longer is treated
// as a dead peer, a tx request is simply abandoned and reported.
const (
	blockInProgressTimeout = 120 * time.Second
	txInProgressTimeout    = 30 * time.Second
	waitBackoff            = 5 * time.Second
)

// inventoryState is the per-peer bookkeeping spec §4.K describes: known
// invs awaiting a decision and in-flight requests awaiting delivery.
type inventoryState struct {
	invs       map[wire.InvVect]time.Time // next-eligible-time
	inprogress map[wire.InvVect]time.Time // request-time
}

func newInventoryState() *inventoryState {
	return &inventoryState{
		invs:       make(map[wire.InvVect]time.Time),
		inprogress: make(map[wire.InvVect]time.Time),
	}
}

func (s *inventoryState) isInProgress(iv wire.InvVect) bool {
	_, ok := s.inprogress[iv]
	return ok
}

func (s *inventoryState) completeRequest(iv wire.InvVect) {
	delete(s.inprogress, iv)
}

// handleInv records unknown inv entries as immediately eligible; known
// entries (already pending or in flight) are ignored per spec §4.K.
func (p *Peer) handleInv(m *wire.MsgInv) {
	now := time.Now()
	for _, iv := range m.InvList {
		if _, known := p.inv.invs[*iv]; known {
			continue
		}
		if p.inv.isInProgress(*iv) {
			continue
		}
		p.inv.invs[*iv] = now
	}
}

// tickInventory drives the per-peer inventory state machine once: it kills
// the peer on a stalled block request, reports and drops stalled tx
// requests, and otherwise asks the delegate whether to request each
// eligible inv, issuing a single getdata for everything approved.
func (p *Peer) tickInventory() {
	now := time.Now()

	for iv, requestedAt := range p.inv.inprogress {
		if iv.Type == wire.InvTypeBlock && now.Sub(requestedAt) > blockInProgressTimeout {
			log.Warnf("peer %s: block request for %s timed out, dropping peer", p.addr, iv.Hash)
			p.die()
			return
		}
		if iv.Type == wire.InvTypeTx && now.Sub(requestedAt) > txInProgressTimeout {
			log.Debugf("peer %s: tx request for %s timed out, abandoning", p.addr, iv.Hash)
			delete(p.inv.inprogress, iv)
		}
	}

	if len(p.inv.inprogress) >= maxInvsInProgress {
		return
	}

	var goList []*wire.InvVect
	for iv, eligibleAt := range p.inv.invs {
		if len(goList)+len(p.inv.inprogress) >= maxInvsInProgress {
			break
		}
		if eligibleAt.After(now) {
			continue
		}

		ivCopy := iv
		decision := RequestDont
		if p.cfg.Delegate != nil {
			decision = p.cfg.Delegate.WillRequestInv(p, &ivCopy)
		}

		switch decision {
		case RequestGo:
			goList = append(goList, &ivCopy)
			p.inv.inprogress[iv] = now
			delete(p.inv.invs, iv)
		case RequestDont:
			delete(p.inv.invs, iv)
		case RequestWait:
			p.inv.invs[iv] = now.Add(waitBackoff)
		}
	}

	if len(goList) == 0 {
		return
	}

	getData := &wire.MsgGetData{}
	for _, iv := range goList {
		getData.AddInvVect(iv)
	}
	if err := p.queueMessage(getData); err != nil {
		log.Warnf("peer %s: queue getdata: %v", p.addr, err)
	}
}
