// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"

	"github.com/spvsuite/spvd/wire"
)

var errBadHandshakeOrder = errors.New("peer: non-handshake command before verack")

// Tick performs one round of periodic per-peer work, per spec §4.K: flush
// the outgoing queue, read and frame whatever's available, dispatch decoded
// messages, then drive the inventory state machine. The caller is expected
// to invoke this roughly every 100ms for each connected peer.
func (p *Peer) Tick() {
	if p.State() == StateDead {
		return
	}

	if err := p.flushOutgoing(); err != nil {
		log.Debugf("peer %s: flush: %v", p.addr, err)
		p.die()
		return
	}

	if err := p.readIncoming(); err != nil && err != errNoData {
		log.Debugf("peer %s: read: %v", p.addr, err)
		p.die()
		return
	}

	if p.State() == StateConnected {
		p.tickInventory()
	}
}

func (p *Peer) die() {
	p.mu.Lock()
	p.state = StateDead
	conn := p.conn
	p.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	if p.cfg.Delegate != nil {
		p.cfg.Delegate.PeerBad(p)
	}
}

func (p *Peer) flushOutgoing() error {
	p.mu.Lock()
	queue := p.outQueue
	p.outQueue = nil
	conn := p.conn
	p.mu.Unlock()

	for i, buf := range queue {
		if conn == nil {
			return errors.New("peer: no connection")
		}
		n, err := conn.Write(buf)
		p.mu.Lock()
		p.bytesSent += uint64(n)
		p.mu.Unlock()
		if err != nil {
			// Requeue whatever didn't go out, including later messages.
			p.mu.Lock()
			p.outQueue = append(queue[i:], p.outQueue...)
			p.mu.Unlock()
			return err
		}
	}
	return nil
}

var errNoData = errors.New("peer: no data available")

// readIncoming reads whatever is immediately available (bounded by a short
// deadline so Tick never blocks the caller's scheduler loop) and dispatches
// any complete messages it can frame.
func (p *Peer) readIncoming() error {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return errNoData
	}

	conn.SetReadDeadline(time.Now().Add(readIOTimeout))
	buf := make([]byte, maxReadChunk)
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return errNoData
		}
		if err == io.EOF {
			return errors.New("peer: connection closed")
		}
		return err
	}
	if n == 0 {
		return errNoData
	}

	p.mu.Lock()
	p.bytesRecvd += uint64(n)
	p.readBuf = append(p.readBuf, buf[:n]...)
	data := p.readBuf
	p.mu.Unlock()

	return p.handleFrame(data)
}

// handleFrame parses and dispatches every complete message accumulated in
// p.readBuf, retaining whatever trailing bytes don't yet form a full
// message so the next Tick's read can complete them.
func (p *Peer) handleFrame(data []byte) error {
	for len(data) > 0 {
		result, err := wire.FrameIncremental(data, p.cfg.ChainParams.Net)
		if err == wire.ErrShortHeader {
			break
		}
		if err != nil {
			return err
		}
		if !result.HavePayload {
			break
		}

		msg, err := wire.MakeEmptyMessage(result.Command)
		if err != nil {
			log.Warnf("peer %s: unhandled command %q", p.addr, result.Command)
			data = data[result.TotalLength:]
			continue
		}
		if err := msg.Decode(bytes.NewReader(result.Payload)); err != nil {
			return err
		}

		if err := p.dispatch(result.Command, msg); err != nil {
			return err
		}
		data = data[result.TotalLength:]
	}

	p.mu.Lock()
	p.readBuf = append([]byte(nil), data...)
	p.mu.Unlock()
	return nil
}

func (p *Peer) dispatch(command string, msg wire.Message) error {
	p.mu.Lock()
	handshakeDone := p.verAckCount >= 2
	p.mu.Unlock()

	if !handshakeDone && command != wire.CmdVersion && command != wire.CmdVerAck {
		return errBadHandshakeOrder
	}

	switch m := msg.(type) {
	case *wire.MsgVersion:
		return p.handleVersion(m)
	case *wire.MsgVerAck:
		return p.handleVerAck()
	case *wire.MsgPing:
		return p.queueMessage(&wire.MsgPong{Nonce: m.Nonce})
	case *wire.MsgPong:
		return nil
	case *wire.MsgAddr:
		if p.cfg.Delegate != nil {
			p.cfg.Delegate.OnAddr(p, m.AddrList)
		}
		return nil
	case *wire.MsgInv:
		p.handleInv(m)
		return nil
	case *wire.MsgGetData:
		return p.handleGetData(m)
	case *wire.MsgGetHeaders:
		return nil // non-goal: we serve no headers
	case *wire.MsgGetBlocks:
		return nil // ignored, spec §4.K: "we serve no blocks"
	case *wire.MsgTx:
		p.handleTx(m)
		return nil
	case *wire.MsgHeaders:
		if p.cfg.Delegate != nil {
			p.cfg.Delegate.OnHeaders(p, m.Headers)
		}
		p.mu.Lock()
		p.lastHeadersAt = time.Now()
		p.mu.Unlock()
		return nil
	case *wire.MsgBlock:
		return nil // full block validation is a non-goal; blocks arrive only via inv/getdata bookkeeping
	case *wire.MsgGetAddr:
		if p.cfg.Delegate != nil {
			addrs := p.cfg.Delegate.OnGetAddr(p)
			return p.queueMessage(&wire.MsgAddr{AddrList: addrs})
		}
		return nil
	default:
		log.Warnf("peer %s: unhandled message type for command %q", p.addr, command)
		return nil
	}
}

func (p *Peer) handleVersion(m *wire.MsgVersion) error {
	p.mu.Lock()
	p.peerVersion = int32(m.ProtocolVersion)
	p.peerServices = m.Services
	p.peerUserAgent = m.UserAgent
	p.peerLastBlock = m.LastBlock
	p.verAckCount++
	count := p.verAckCount
	p.mu.Unlock()

	p.offsets.addSample(m.Timestamp - time.Now().Unix())

	if err := p.sendVerAck(); err != nil {
		return err
	}
	if count >= 2 {
		p.completeHandshake()
	}
	return nil
}

func (p *Peer) handleVerAck() error {
	p.mu.Lock()
	p.verAckCount++
	count := p.verAckCount
	p.mu.Unlock()
	if count >= 2 {
		p.completeHandshake()
	}
	return nil
}

// completeHandshake applies spec §4.K's post-handshake checks: a peer
// behind our best height is dropped (we prefer fully synced peers), and the
// clock offset is folded into the running median but never itself a reason
// to drop — only reported.
func (p *Peer) completeHandshake() {
	if offset, bad := p.offsets.exceedsBound(); bad {
		log.Warnf("peer %s: clock offset %s exceeds bound, continuing anyway", p.addr, offset)
	}

	if p.cfg.Delegate != nil {
		if p.LastBlock() < p.cfg.Delegate.BestHeight() {
			log.Debugf("peer %s: behind our tip (%d < %d), dropping", p.addr, p.LastBlock(), p.cfg.Delegate.BestHeight())
			p.die()
			return
		}
		p.cfg.Delegate.PeerGood(p)
	}
}

// handleGetData answers a peer's request for something we previously
// announced, per spec §4.K's Broadcast subsection: we serve no blocks (full
// validation is a non-goal), but a broadcast transaction's raw bytes are
// sent back when the delegate still holds them.
func (p *Peer) handleGetData(m *wire.MsgGetData) error {
	if p.cfg.Delegate == nil {
		return nil
	}
	for _, iv := range m.InvList {
		if iv.Type != wire.InvTypeTx {
			continue
		}
		tx, ok := p.cfg.Delegate.GetDataTx(iv.Hash)
		if !ok {
			continue
		}
		if err := p.queueMessage(tx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Peer) handleTx(tx *wire.MsgTx) {
	hash := tx.TxHash()
	inv := wire.NewInvVect(wire.InvTypeTx, &hash)
	if !p.inv.isInProgress(*inv) {
		log.Warnf("peer %s: sent unsolicited tx", p.addr)
	}
	p.inv.completeRequest(*inv)
	if p.cfg.Delegate != nil {
		p.cfg.Delegate.OnTx(p, tx)
	}
}
