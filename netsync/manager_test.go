// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/blockchain"
	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/peer"
	"github.com/spvsuite/spvd/wire"
)

func testChainParams() *chaincfg.Params {
	return &chaincfg.Params{
		Name:         "test",
		Net:          wire.TestNet,
		WorkInterval: 100,
		GenesisBlock: &wire.MsgBlock{Header: wire.BlockHeader{}},
	}
}

func testPeer(addr string) *peer.Peer {
	cfg := &peer.Config{ChainParams: &chaincfg.Params{Name: "test", Net: wire.TestNet}}
	return peer.NewOutboundPeer(cfg, addr)
}

func TestWillRequestInvGoThenWaitForOtherPeer(t *testing.T) {
	m := NewManager(Config{})
	p1 := testPeer("10.0.0.1:8333")
	p2 := testPeer("10.0.0.2:8333")

	var hash chainhash.Hash
	hash[0] = 1
	iv := wire.NewInvVect(wire.InvTypeTx, &hash)

	require.Equal(t, peer.RequestGo, m.WillRequestInv(p1, iv))
	require.Equal(t, peer.RequestWait, m.WillRequestInv(p2, iv))
}

func TestWillRequestInvDontForKnownTx(t *testing.T) {
	m := NewManager(Config{})
	p := testPeer("10.0.0.1:8333")

	var hash chainhash.Hash
	hash[0] = 2
	m.dedup.Add(hash)

	iv := wire.NewInvVect(wire.InvTypeTx, &hash)
	require.Equal(t, peer.RequestDont, m.WillRequestInv(p, iv))
}

func TestWillRequestInvWaitForBlockWhileNeedsHeaders(t *testing.T) {
	m := NewManager(Config{Chain: blockchain.NewIndex(testChainParams())})
	p := testPeer("10.0.0.1:8333")

	var hash chainhash.Hash
	hash[0] = 3
	iv := wire.NewInvVect(wire.InvTypeBlock, &hash)
	require.Equal(t, peer.RequestWait, m.WillRequestInv(p, iv))
}

func TestOnTxClearsInprogressAndFeedsCaches(t *testing.T) {
	m := NewManager(Config{})
	p := testPeer("10.0.0.1:8333")

	tx := &wire.MsgTx{Version: 1}
	hash := tx.TxHash()
	iv := wire.NewInvVect(wire.InvTypeTx, &hash)
	m.inprogress[*iv] = inprogressEntry{addr: p.Addr(), at: time.Now()}

	m.OnTx(p, tx)

	m.invMu.Lock()
	_, stillPending := m.inprogress[*iv]
	m.invMu.Unlock()
	require.False(t, stillPending)
	require.True(t, m.recent.Contains(hash))
}

func TestBroadcastAnnouncesAndServesGetData(t *testing.T) {
	m := NewManager(Config{})
	p := testPeer("10.0.0.1:8333")

	tx := &wire.MsgTx{Version: 1}
	m.Broadcast(tx, false)
	m.announceBroadcasts(p)

	m.invMu.Lock()
	require.True(t, m.broadcasts[tx.TxHash()].announcedTo[p.Addr()])
	m.invMu.Unlock()

	got, ok := m.GetDataTx(tx.TxHash())
	require.True(t, ok)
	require.Equal(t, tx, got)
}

func TestManageInventoryEvictsOldAnnouncedTx(t *testing.T) {
	m := NewManager(Config{PeerGoal: 1})
	tx := &wire.MsgTx{Version: 1}
	hash := tx.TxHash()

	m.broadcasts[hash] = &broadcastItem{
		hash:        hash,
		tx:          tx,
		insertedAt:  time.Now().Add(-txRetention - time.Minute),
		lastRelay:   time.Now(),
		announcedTo: map[string]bool{"10.0.0.1:8333": true},
	}

	m.manageInventory()

	_, ok := m.broadcasts[hash]
	require.False(t, ok)
}

func TestManageInventoryRetriesMustConfirmTx(t *testing.T) {
	m := NewManager(Config{})
	tx := &wire.MsgTx{Version: 1}
	hash := tx.TxHash()

	m.broadcasts[hash] = &broadcastItem{
		hash:        hash,
		tx:          tx,
		insertedAt:  time.Now().Add(-2 * txRetention),
		lastRelay:   time.Now().Add(-mustConfirmRetryWait - time.Minute),
		announcedTo: map[string]bool{"10.0.0.1:8333": true},
		mustConfirm: true,
	}

	m.manageInventory()

	item, ok := m.broadcasts[hash]
	require.True(t, ok)
	require.Empty(t, item.announcedTo)
}

func TestManageInventoryReclaimsStaleBlockInprogress(t *testing.T) {
	m := NewManager(Config{})
	var hash chainhash.Hash
	hash[0] = 9
	iv := *wire.NewInvVect(wire.InvTypeBlock, &hash)
	m.inprogress[iv] = inprogressEntry{addr: "10.0.0.1:8333", at: time.Now().Add(-blockRetention - time.Minute)}

	m.manageInventory()

	_, ok := m.inprogress[iv]
	require.False(t, ok)
}
