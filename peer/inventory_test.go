// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

func invMsg(ivs ...*wire.InvVect) *wire.MsgInv {
	m := wire.NewMsgInv()
	for _, iv := range ivs {
		m.AddInvVect(iv)
	}
	return m
}

func newBareTestPeer(delegate *fakeDelegate) *Peer {
	cfg := &Config{ChainParams: testParams(), Delegate: delegate}
	p := &Peer{
		cfg:     cfg,
		addr:    "1.2.3.4:8333",
		state:   StateConnected,
		offsets: newOffsetTracker(),
		inv:     newInventoryState(),
	}
	return p
}

func TestInventoryGoSendsGetData(t *testing.T) {
	delegate := &fakeDelegate{decision: RequestGo}
	p := newBareTestPeer(delegate)

	var hash chainhash.Hash
	hash[0] = 1
	iv := wire.NewInvVect(wire.InvTypeTx, &hash)
	p.handleInv(invMsg(iv))

	p.tickInventory()

	require.Len(t, p.outQueue, 1)
	require.True(t, p.inv.isInProgress(*iv))
	require.Empty(t, p.inv.invs)
}

func TestInventoryDontDropsEntry(t *testing.T) {
	delegate := &fakeDelegate{decision: RequestDont}
	p := newBareTestPeer(delegate)

	var hash chainhash.Hash
	hash[0] = 2
	iv := wire.NewInvVect(wire.InvTypeTx, &hash)
	p.handleInv(invMsg(iv))

	p.tickInventory()

	require.Empty(t, p.outQueue)
	require.Empty(t, p.inv.invs)
	require.False(t, p.inv.isInProgress(*iv))
}

func TestInventoryWaitDefersEntry(t *testing.T) {
	delegate := &fakeDelegate{decision: RequestWait}
	p := newBareTestPeer(delegate)

	var hash chainhash.Hash
	hash[0] = 3
	iv := wire.NewInvVect(wire.InvTypeTx, &hash)
	p.handleInv(invMsg(iv))

	p.tickInventory()

	require.Empty(t, p.outQueue)
	eligibleAt, stillPending := p.inv.invs[*iv]
	require.True(t, stillPending)
	require.True(t, eligibleAt.After(time.Now()))
}

func TestInventoryKnownEntriesIgnored(t *testing.T) {
	delegate := &fakeDelegate{decision: RequestGo}
	p := newBareTestPeer(delegate)

	var hash chainhash.Hash
	hash[0] = 4
	iv := wire.NewInvVect(wire.InvTypeTx, &hash)
	p.inv.inprogress[*iv] = time.Now()

	p.handleInv(invMsg(iv))
	require.NotContains(t, p.inv.invs, *iv)
}

func TestBlockInProgressTimeoutKillsPeer(t *testing.T) {
	delegate := &fakeDelegate{}
	p := newBareTestPeer(delegate)

	var hash chainhash.Hash
	hash[0] = 5
	iv := wire.NewInvVect(wire.InvTypeBlock, &hash)
	p.inv.inprogress[*iv] = time.Now().Add(-blockInProgressTimeout - time.Second)

	p.tickInventory()

	require.Equal(t, StateDead, p.State())
	require.Len(t, delegate.bad, 1)
}

func TestTxInProgressTimeoutIsAbandonedNotFatal(t *testing.T) {
	delegate := &fakeDelegate{}
	p := newBareTestPeer(delegate)

	var hash chainhash.Hash
	hash[0] = 6
	iv := wire.NewInvVect(wire.InvTypeTx, &hash)
	p.inv.inprogress[*iv] = time.Now().Add(-txInProgressTimeout - time.Second)

	p.tickInventory()

	require.Equal(t, StateConnected, p.State())
	require.NotContains(t, p.inv.inprogress, *iv)
}
