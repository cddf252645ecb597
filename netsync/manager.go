// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netsync implements the network manager of spec §4.K/§5: the one
// goroutine that owns the peer set, the address book, the manager-wide
// headers-request lease, the will_request_inv policy, and the broadcast
// inventory. It is the netsync.Manager grounded on
// original_source/pyspv/network.py's MANAGER class, generalized to the
// peer.Delegate interface so package peer never imports it back.
package netsync

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/decred/dcrd/lru"

	"github.com/spvsuite/spvd/addrmgr"
	"github.com/spvsuite/spvd/blockchain"
	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/peer"
	"github.com/spvsuite/spvd/txdb"
	"github.com/spvsuite/spvd/wire"
)

// recentlySeenCacheSize bounds the manager's lru of txids it has already
// relayed to the sink, a tighter complement to the dedup bloom filter
// (which can only grow, never forget).
const recentlySeenCacheSize = 10000

// Sink receives the payloads the peer set delivers once they clear the
// will_request_inv policy: new transactions and chain reorganization
// events. The node's wiring (package config/cmd) implements this over the
// wallet and its monitors.
type Sink interface {
	OnTx(tx *wire.MsgTx)
	OnChainEvent(ev blockchain.Event)
}

// Config bundles everything the manager needs beyond the peer set it
// grows and shrinks on its own.
type Config struct {
	ChainParams *chaincfg.Params
	UserAgent   string
	Services    wire.ServiceFlag

	AddrBook *addrmgr.Book
	Chain    *blockchain.Index
	TxStore  *txdb.Store
	Sink     Sink

	// PeerGoal is the number of simultaneous outbound connections the
	// manager tries to maintain, spec §5's "peer_goal".
	PeerGoal int

	// ProxyAddr routes outbound dials through a SOCKS proxy when set,
	// per spec §6's --tor/--torproxy flags.
	ProxyAddr     string
	ProxyUsername string
	ProxyPassword string

	// Dial overrides how an address is turned into a connected Peer, for
	// tests. Defaults to peer.NewOutboundPeer + Connect.
	Dial func(cfg *peer.Config, addr string) (*peer.Peer, error)
}

// broadcastMinPeers is spec §4.K's min(8, peer_goal) threshold: a
// transaction is only evicted once it's been announced to this many peers.
func (m *Manager) broadcastMinPeers() int {
	if m.cfg.PeerGoal < 8 {
		return m.cfg.PeerGoal
	}
	return 8
}

const (
	blockRetention       = 120 * time.Minute
	txRetention          = 30 * time.Minute
	mustConfirmRetryWait = 30 * time.Minute
	manageInvBatchSize   = 200
)

// broadcastItem is one entry in the announce/serve inventory spec §4.K's
// Broadcast subsection describes: add_to_inventory keeps the transaction
// in memory and starts announcing, manage_inventory later decides when to
// forget it.
type broadcastItem struct {
	hash        chainhash.Hash
	tx          *wire.MsgTx
	insertedAt  time.Time
	lastRelay   time.Time
	announcedTo map[string]bool // peer addr -> true
	mustConfirm bool
	holdForever bool
}

// inprogressEntry records which peer is fetching an inv and when the
// request started, so a manager-wide entry nobody ever completes (a block
// inv whose delivery this SPV node doesn't itself parse) can still be
// reclaimed by manageInventory's sweep.
type inprogressEntry struct {
	addr string
	at   time.Time
}

// Manager is the network manager: one instance per running node.
type Manager struct {
	cfg      Config
	peerCfg  *peer.Config

	mu              sync.Mutex
	peers           map[string]*peer.Peer
	headersLease    string // addr of the peer holding the lease, "" if none
	lastLeaseHolder string

	invMu      sync.Mutex
	inprogress map[wire.InvVect]inprogressEntry
	broadcasts map[chainhash.Hash]*broadcastItem

	dedup  *dedupFilter
	recent *lru.Cache

	rng *rand.Rand
}

// NewManager constructs a Manager ready to Run.
func NewManager(cfg Config) *Manager {
	if cfg.PeerGoal <= 0 {
		cfg.PeerGoal = 8
	}

	m := &Manager{
		cfg:        cfg,
		peers:      make(map[string]*peer.Peer),
		inprogress: make(map[wire.InvVect]inprogressEntry),
		broadcasts: make(map[chainhash.Hash]*broadcastItem),
		dedup:      newDedupFilter(),
		recent:     lru.NewCache(recentlySeenCacheSize),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.peerCfg = &peer.Config{
		ChainParams:   cfg.ChainParams,
		UserAgent:     cfg.UserAgent,
		Services:      cfg.Services,
		Delegate:      m,
		ProxyAddr:     cfg.ProxyAddr,
		ProxyUsername: cfg.ProxyUsername,
		ProxyPassword: cfg.ProxyPassword,
	}
	return m
}

// Run drives the manager's scheduler loop until stop is closed, ticking
// every connected peer and performing the periodic bookkeeping spec §5
// assigns the manager thread: dead-peer reaping, new-peer dialing, seed
// bootstrap, and the inventory retention sweep.
func (m *Manager) Run(stop <-chan struct{}) {
	peerTick := time.NewTicker(100 * time.Millisecond)
	defer peerTick.Stop()
	managerTick := time.NewTicker(10 * time.Millisecond)
	defer managerTick.Stop()
	retentionTick := time.NewTicker(60 * time.Second)
	defer retentionTick.Stop()

	for {
		select {
		case <-stop:
			m.shutdownAll()
			return
		case <-peerTick.C:
			m.tickPeers()
		case <-managerTick.C:
			m.maintainPeerSet()
		case <-retentionTick.C:
			m.manageInventory()
		}
	}
}

func (m *Manager) tickPeers() {
	m.mu.Lock()
	snapshot := make([]*peer.Peer, 0, len(m.peers))
	for _, p := range m.peers {
		snapshot = append(snapshot, p)
	}
	m.mu.Unlock()

	for _, p := range snapshot {
		p.Tick()
		if p.State() == peer.StateDead {
			m.removePeer(p)
			continue
		}
		m.driveSync(p)
		m.announceBroadcasts(p)
	}
}

// AddInbound registers an already-accepted connection as a peer, for a
// listener goroutine started by the host application (cmd/spvnode) to
// hand off accepted sockets into the manager's peer set.
func (m *Manager) AddInbound(conn net.Conn) {
	p := peer.NewInboundPeer(m.peerCfg, conn)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.peers) >= m.cfg.PeerGoal*2 {
		conn.Close()
		return
	}
	m.peers[p.Addr()] = p
}

func (m *Manager) removePeer(p *peer.Peer) {
	m.mu.Lock()
	delete(m.peers, p.Addr())
	if m.headersLease == p.Addr() {
		m.headersLease = ""
		m.lastLeaseHolder = p.Addr()
	}
	m.mu.Unlock()

	m.invMu.Lock()
	for iv, entry := range m.inprogress {
		if entry.addr == p.Addr() {
			delete(m.inprogress, iv)
		}
	}
	m.invMu.Unlock()
}

// maintainPeerSet bootstraps DNS seeds if the address book is thin and
// dials fresh outbound connections up to PeerGoal, per spec §5's "one
// manager thread" responsibilities. Dead peers are reaped by tickPeers.
func (m *Manager) maintainPeerSet() {
	if m.cfg.AddrBook != nil {
		m.cfg.AddrBook.Bootstrap(m.cfg.ChainParams, nil)
	}

	m.mu.Lock()
	need := m.cfg.PeerGoal - len(m.peers)
	m.mu.Unlock()

	for i := 0; i < need; i++ {
		if !m.startNewPeer() {
			break
		}
	}
}

func (m *Manager) startNewPeer() bool {
	if m.cfg.AddrBook == nil {
		return false
	}
	candidates := m.cfg.AddrBook.Random(32)
	m.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	for _, a := range candidates {
		tcp, ok := a.(*net.TCPAddr)
		if !ok {
			continue
		}
		addr := tcp.String()

		m.mu.Lock()
		_, exists := m.peers[addr]
		m.mu.Unlock()
		if exists {
			continue
		}

		p := m.dial(addr)
		if p == nil {
			continue
		}

		m.mu.Lock()
		m.peers[addr] = p
		m.mu.Unlock()
		return true
	}
	return false
}

func (m *Manager) dial(addr string) *peer.Peer {
	if m.cfg.Dial != nil {
		p, err := m.cfg.Dial(m.peerCfg, addr)
		if err != nil {
			log.Debugf("netsync: dial %s: %v", addr, err)
			return nil
		}
		return p
	}

	p := peer.NewOutboundPeer(m.peerCfg, addr)
	if err := p.Connect(); err != nil {
		log.Debugf("netsync: connect %s: %v", addr, err)
		return nil
	}
	return p
}

func (m *Manager) shutdownAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.peers {
		p.Shutdown()
	}
}

// driveSync implements spec §4.K's blockchain-sync subsection: acquire the
// manager-wide headers lease for at most one peer, time it out after 25s
// of silence, and once headers are caught up request blocks from a peer
// that advertises a higher tip.
func (m *Manager) driveSync(p *peer.Peer) {
	if m.cfg.Chain == nil {
		return
	}

	m.mu.Lock()
	holder := m.headersLease
	lastHolder := m.lastLeaseHolder
	m.mu.Unlock()

	if p.HoldsHeadersLease() && p.HeadersLeaseExpired() {
		log.Warnf("netsync: peer %s headers lease expired, dropping", p.Addr())
		p.Shutdown()
		m.removePeer(p)
		return
	}

	if holder == "" && m.cfg.Chain.NeedsHeaders() && p.Addr() != lastHolder {
		locator := m.cfg.Chain.BuildLocator()
		if err := p.RequestHeaders(locator, nil); err != nil {
			log.Debugf("netsync: %s: request headers: %v", p.Addr(), err)
			return
		}
		m.mu.Lock()
		m.headersLease = p.Addr()
		m.mu.Unlock()
		return
	}

	if !m.cfg.Chain.NeedsHeaders() && p.LastBlock() > m.cfg.Chain.BestTip().Height {
		locator := m.cfg.Chain.BuildLocator()
		if err := p.RequestBlocks(locator); err != nil {
			log.Debugf("netsync: %s: request blocks: %v", p.Addr(), err)
		}
	}
}

// --- peer.Delegate ---

var _ peer.Delegate = (*Manager)(nil)

// AddressFound records a peer address learned from a successful
// connection, an addr message, or a dial target.
func (m *Manager) AddressFound(addr *net.TCPAddr) {
	if m.cfg.AddrBook == nil {
		return
	}
	if err := m.cfg.AddrBook.Add(addr.IP, uint16(addr.Port)); err != nil {
		log.Debugf("netsync: add address %s: %v", addr, err)
	}
}

// PeerGood marks a successful handshake in the address book. It does not
// touch the headers lease; OnHeaders and removePeer release that.
func (m *Manager) PeerGood(p *peer.Peer) {
	if m.cfg.AddrBook == nil {
		return
	}
	host, portStr, err := net.SplitHostPort(p.Addr())
	if err != nil {
		return
	}
	ip := net.ParseIP(host)
	var port uint16
	fmt.Sscanf(portStr, "%d", &port)
	if ip != nil {
		if err := m.cfg.AddrBook.MarkSuccess(ip, port, float64(time.Now().Unix())); err != nil {
			log.Debugf("netsync: mark success %s: %v", p.Addr(), err)
		}
	}
}

// PeerBad forgets the peer's address, per spec §4.K: a peer that misbehaves
// badly enough to be killed isn't worth remembering for reconnection.
func (m *Manager) PeerBad(p *peer.Peer) {
	if m.cfg.AddrBook == nil {
		return
	}
	host, portStr, err := net.SplitHostPort(p.Addr())
	if err != nil {
		return
	}
	ip := net.ParseIP(host)
	var port uint16
	fmt.Sscanf(portStr, "%d", &port)
	if ip != nil {
		if err := m.cfg.AddrBook.Delete(ip, port); err != nil {
			log.Debugf("netsync: delete address %s: %v", p.Addr(), err)
		}
	}
}

// BestHeight returns the chain engine's current tip height.
func (m *Manager) BestHeight() int32 {
	if m.cfg.Chain == nil {
		return 0
	}
	return m.cfg.Chain.BestTip().Height
}

// NeedsHeaders reports whether the chain engine still wants headers.
func (m *Manager) NeedsHeaders() bool {
	if m.cfg.Chain == nil {
		return false
	}
	return m.cfg.Chain.NeedsHeaders()
}

// OnTx delivers a decoded transaction to the sink once the per-peer state
// machine has matched it against an in-progress request, and folds it into
// the recently-seen caches WillRequestInv consults for future invs.
func (m *Manager) OnTx(p *peer.Peer, tx *wire.MsgTx) {
	hash := tx.TxHash()

	m.invMu.Lock()
	delete(m.inprogress, *wire.NewInvVect(wire.InvTypeTx, &hash))
	m.invMu.Unlock()

	m.recent.Add(hash)
	m.dedup.Add(hash)

	if m.cfg.Sink != nil {
		m.cfg.Sink.OnTx(tx)
	}
}

// OnHeaders feeds every header in the batch to the chain engine in order,
// clearing needs_headers once a short (< 2000) batch signals we've caught
// up, and forwards any resulting reorg events to the sink.
func (m *Manager) OnHeaders(p *peer.Peer, headers []*wire.BlockHeader) {
	if m.cfg.Chain == nil {
		return
	}
	for _, h := range headers {
		events, err := m.cfg.Chain.ProcessHeader(h)
		if err != nil {
			log.Debugf("netsync: %s: process header: %v", p.Addr(), err)
			continue
		}
		for _, ev := range events {
			if m.cfg.Sink != nil {
				m.cfg.Sink.OnChainEvent(ev)
			}
		}
	}
	if len(headers) < 2000 {
		m.cfg.Chain.SetNeedsHeaders(false)
	}
	p.ReleaseHeadersLease()
	m.mu.Lock()
	if m.headersLease == p.Addr() {
		m.headersLease = ""
	}
	m.mu.Unlock()
}

// OnAddr records every address a peer tells us about.
func (m *Manager) OnAddr(p *peer.Peer, addrs []*wire.NetAddress) {
	if m.cfg.AddrBook == nil {
		return
	}
	for _, a := range addrs {
		if err := m.cfg.AddrBook.Add(a.IP, a.Port); err != nil {
			log.Debugf("netsync: add address %s: %v", a.IP, err)
		}
	}
}

// OnGetAddr answers a getaddr with up to 10 random known addresses, per
// spec §4.K's supported-commands subsection.
func (m *Manager) OnGetAddr(p *peer.Peer) []*wire.NetAddress {
	if m.cfg.AddrBook == nil {
		return nil
	}
	addrs := m.cfg.AddrBook.Random(10)
	out := make([]*wire.NetAddress, 0, len(addrs))
	for _, a := range addrs {
		tcp, ok := a.(*net.TCPAddr)
		if !ok {
			continue
		}
		out = append(out, wire.NewNetAddressIPPort(tcp.IP, uint16(tcp.Port), m.cfg.Services))
	}
	return out
}

// WillRequestInv implements spec §4.K's manager-wide will_request_inv
// policy: dedup across every peer's in-flight requests, then per-type
// membership checks.
func (m *Manager) WillRequestInv(p *peer.Peer, iv *wire.InvVect) peer.RequestDecision {
	m.invMu.Lock()
	defer m.invMu.Unlock()

	if entry, ok := m.inprogress[*iv]; ok && entry.addr != p.Addr() {
		return peer.RequestWait
	}

	switch iv.Type {
	case wire.InvTypeTx:
		if m.recent.Contains(iv.Hash) || m.dedup.Contains(iv.Hash) {
			return peer.RequestDont
		}
		if m.cfg.TxStore != nil && m.cfg.TxStore.HasTx(iv.Hash) {
			return peer.RequestDont
		}
		m.inprogress[*iv] = inprogressEntry{addr: p.Addr(), at: time.Now()}
		return peer.RequestGo

	case wire.InvTypeBlock:
		if m.cfg.Chain != nil && m.cfg.Chain.NeedsHeaders() {
			return peer.RequestWait
		}
		if m.cfg.Chain != nil {
			if _, ok := m.cfg.Chain.Link(iv.Hash); ok {
				return peer.RequestDont
			}
		}
		m.inprogress[*iv] = inprogressEntry{addr: p.Addr(), at: time.Now()}
		return peer.RequestGo
	}

	return peer.RequestDont
}

// GetDataTx answers a peer's getdata for something we broadcast, per spec
// §4.K's Broadcast subsection.
func (m *Manager) GetDataTx(hash chainhash.Hash) (*wire.MsgTx, bool) {
	m.invMu.Lock()
	defer m.invMu.Unlock()
	item, ok := m.broadcasts[hash]
	if !ok {
		return nil, false
	}
	return item.tx, true
}

// Broadcast adds tx to the announce inventory, per spec §4.K's
// add_to_inventory: it records the transaction in the in-memory inventory
// (nothing is written to disk) and begins announcing it to every peer on
// the next tick. mustConfirm transactions (our own wallet's spends) are
// retried until the transaction store reports them at confirmation depth
// rather than evicted on the usual 30-minute schedule.
func (m *Manager) Broadcast(tx *wire.MsgTx, mustConfirm bool) {
	hash := tx.TxHash()
	now := time.Now()

	m.invMu.Lock()
	m.broadcasts[hash] = &broadcastItem{
		hash:        hash,
		tx:          tx,
		insertedAt:  now,
		lastRelay:   now,
		announcedTo: make(map[string]bool),
		mustConfirm: mustConfirm,
	}
	m.invMu.Unlock()

	m.dedup.Add(hash)
	m.recent.Add(hash)
}

// announceBroadcasts sends p an inv for up to 200 pending broadcast items
// it hasn't already been told about, per spec §4.K's Broadcast subsection.
func (m *Manager) announceBroadcasts(p *peer.Peer) {
	m.invMu.Lock()
	var pending []*broadcastItem
	for _, item := range m.broadcasts {
		if item.announcedTo[p.Addr()] {
			continue
		}
		pending = append(pending, item)
		if len(pending) >= manageInvBatchSize {
			break
		}
	}
	m.invMu.Unlock()

	if len(pending) == 0 {
		return
	}

	msg := wire.NewMsgInv()
	for _, item := range pending {
		hash := item.hash
		msg.AddInvVect(wire.NewInvVect(wire.InvTypeTx, &hash))
	}
	if err := p.QueueMessage(msg); err != nil {
		log.Debugf("netsync: %s: queue inv: %v", p.Addr(), err)
		return
	}

	m.invMu.Lock()
	for _, item := range pending {
		item.announcedTo[p.Addr()] = true
	}
	m.invMu.Unlock()
}

// manageInventory runs spec §4.K's retention sweep: transactions older
// than 30 minutes are forgotten once announced to enough peers (unless
// they must still confirm or are held forever), mustConfirm transactions
// are dropped once the transaction store reports them at ConfirmDepth, and
// those idle for 30 minutes are reset to re-announce to everyone.
// It also reclaims manager-wide inprogress entries that this SPV node
// never itself completes, namely block invs (full block bodies are a
// non-goal so no OnBlock callback ever clears them).
func (m *Manager) manageInventory() {
	now := time.Now()
	minPeers := m.broadcastMinPeers()

	m.invMu.Lock()
	for hash, item := range m.broadcasts {
		if item.holdForever {
			continue
		}
		if item.mustConfirm {
			if m.cfg.TxStore != nil && m.cfg.ChainParams != nil && m.cfg.TxStore.HasTx(hash) &&
				m.cfg.TxStore.GetTxDepth(hash) >= m.cfg.ChainParams.ConfirmDepth {
				delete(m.broadcasts, hash)
				continue
			}
			if now.Sub(item.lastRelay) > mustConfirmRetryWait {
				item.announcedTo = make(map[string]bool)
				item.lastRelay = now
			}
			continue
		}
		if now.Sub(item.insertedAt) > txRetention && len(item.announcedTo) >= minPeers {
			delete(m.broadcasts, hash)
		}
	}

	for iv, entry := range m.inprogress {
		if iv.Type == wire.InvTypeBlock && now.Sub(entry.at) > blockRetention {
			delete(m.inprogress, iv)
		}
	}
	m.invMu.Unlock()
}
