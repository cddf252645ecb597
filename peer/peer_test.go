// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

type fakeDelegate struct {
	bestHeight   int32
	needsHeaders bool
	good         []*Peer
	bad          []*Peer
	addrsFound   []*net.TCPAddr
	txs          []*wire.MsgTx
	headers      [][]*wire.BlockHeader
	decision     RequestDecision
}

func (d *fakeDelegate) AddressFound(addr *net.TCPAddr) { d.addrsFound = append(d.addrsFound, addr) }
func (d *fakeDelegate) PeerGood(p *Peer)               { d.good = append(d.good, p) }
func (d *fakeDelegate) PeerBad(p *Peer)                { d.bad = append(d.bad, p) }
func (d *fakeDelegate) BestHeight() int32              { return d.bestHeight }
func (d *fakeDelegate) NeedsHeaders() bool             { return d.needsHeaders }
func (d *fakeDelegate) WillRequestInv(p *Peer, inv *wire.InvVect) RequestDecision {
	return d.decision
}
func (d *fakeDelegate) OnTx(p *Peer, tx *wire.MsgTx) { d.txs = append(d.txs, tx) }
func (d *fakeDelegate) OnHeaders(p *Peer, headers []*wire.BlockHeader) {
	d.headers = append(d.headers, headers)
}
func (d *fakeDelegate) OnAddr(p *Peer, addrs []*wire.NetAddress) {}
func (d *fakeDelegate) OnGetAddr(p *Peer) []*wire.NetAddress     { return nil }
func (d *fakeDelegate) GetDataTx(hash chainhash.Hash) (*wire.MsgTx, bool) {
	return nil, false
}

func testParams() *chaincfg.Params {
	return &chaincfg.Params{Name: "test", Net: wire.TestNet}
}

// newHandshakingPair wires a Peer to one end of an in-memory pipe, the test
// driving the other end directly to stand in for the remote node.
func newHandshakingPair(t *testing.T, delegate *fakeDelegate) (*Peer, net.Conn) {
	t.Helper()
	client, remote := net.Pipe()
	// net.Pipe is unbuffered: drain what the peer sends so its flushes
	// never block waiting for a reader.
	go io.Copy(io.Discard, remote)

	cfg := &Config{
		ChainParams: testParams(),
		UserAgent:   "/spvd-test:0.0.1/",
		Services:    0,
		Delegate:    delegate,
	}
	p := NewInboundPeer(cfg, client)
	return p, remote
}

func writeMsg(t *testing.T, conn net.Conn, msg wire.Message, magic wire.BitcoinNet) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- wire.WriteMessage(conn, msg, magic) }()
	require.NoError(t, <-done)
}

func TestHandshakeCompletesAndReportsPeerGood(t *testing.T) {
	delegate := &fakeDelegate{bestHeight: 10}
	p, remote := newHandshakingPair(t, delegate)
	defer remote.Close()

	remoteVersion := &wire.MsgVersion{
		ProtocolVersion: wire.ProtocolVersion,
		Timestamp:       time.Now().Unix(),
		LastBlock:       20,
		UserAgent:       "/remote:1.0/",
	}

	go writeMsg(t, remote, remoteVersion, wire.TestNet)
	readLoopUntil(t, p, func() bool { return p.LastBlock() == 20 })

	// Peer hasn't seen our verack yet; manually complete the handshake by
	// feeding a verack too.
	go writeMsg(t, remote, &wire.MsgVerAck{}, wire.TestNet)
	readLoopUntil(t, p, func() bool { return len(delegate.good) > 0 || len(delegate.bad) > 0 })

	require.Len(t, delegate.good, 1)
	require.Empty(t, delegate.bad)
	require.Equal(t, int32(20), p.LastBlock())
}

func TestHandshakeDropsPeerBehindOurTip(t *testing.T) {
	delegate := &fakeDelegate{bestHeight: 100}
	p, remote := newHandshakingPair(t, delegate)
	defer remote.Close()

	go writeMsg(t, remote, &wire.MsgVersion{ProtocolVersion: wire.ProtocolVersion, LastBlock: 5}, wire.TestNet)
	go writeMsg(t, remote, &wire.MsgVerAck{}, wire.TestNet)

	readLoopUntil(t, p, func() bool { return len(delegate.bad) > 0 })
	require.Len(t, delegate.bad, 1)
	require.Equal(t, StateDead, p.State())
}

func TestNonHandshakeCommandBeforeVerAckKillsPeer(t *testing.T) {
	delegate := &fakeDelegate{}
	p, remote := newHandshakingPair(t, delegate)
	defer remote.Close()

	go writeMsg(t, remote, &wire.MsgPing{Nonce: 42}, wire.TestNet)
	readLoopUntil(t, p, func() bool { return len(delegate.bad) > 0 })
	require.Len(t, delegate.bad, 1)
}

// readLoopUntil repeatedly ticks the peer until cond is satisfied or a
// generous deadline passes.
func readLoopUntil(t *testing.T, p *Peer, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.Tick()
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
