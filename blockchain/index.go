// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// Event describes one link entering or leaving the main chain. ProcessHeader
// returns removals from the old tip down to the fork point, then additions
// from the fork point out to the new tip.
type Event struct {
	Added bool // true for block_added, false for block_removed
	Link  *BlockLink
}

// Index is the header chain engine: an in-memory tree of BlockLinks keyed
// by hash, an orphan index of headers whose parent hasn't arrived yet, and
// the currently selected best chain. Spec §9 calls this the "arena for
// the block tree" — links reference their parent only by hash, so the
// structure is a plain map rather than a pointer tree.
type Index struct {
	mu sync.RWMutex

	params *chaincfg.Params

	links map[chainhash.Hash]*BlockLink

	// orphans maps a not-yet-connected prev hash to the set of header
	// hashes waiting on it, per spec §4.E's orphan index.
	orphans map[chainhash.Hash]map[chainhash.Hash]*BlockLink

	best *BlockLink // tip of the current main chain

	// recent is the persistent ring buffer of the most recently connected
	// links, sized max(100, WorkInterval) per spec §9.
	recent      []*BlockLink
	recentStart int
	recentCount int

	needsHeaders bool

	// syncBlockStart is the optional wallet-creation-time-derived height
	// floor spec §6's on-disk layout persists alongside the ring buffer;
	// nil if the node is doing a full from-genesis sync.
	syncBlockStart *int32

	// db is non-nil for an Index opened with OpenIndex, which persists
	// the ring buffer after every successful ProcessHeader. A plain
	// NewIndex-constructed Index (used directly by tests) never touches
	// disk.
	db *leveldb.DB
}

// NewIndex seeds a fresh index with the two trusted roots named in spec
// §9: genesis, and the network's hard checkpoint if one is configured.
// Both roots start out connected and on the main chain.
func NewIndex(params *chaincfg.Params) *Index {
	ringSize := params.WorkInterval
	if ringSize < 100 {
		ringSize = 100
	}

	idx := &Index{
		params:       params,
		links:        make(map[chainhash.Hash]*BlockLink),
		orphans:      make(map[chainhash.Hash]map[chainhash.Hash]*BlockLink),
		recent:       make([]*BlockLink, ringSize),
		needsHeaders: true,
	}

	genesisHeader := params.GenesisBlock.Header
	genesis := newBlockLink(&genesisHeader, 0)
	genesis.ChainWork = new(big.Int).Set(genesis.Work)
	genesis.Connected = true
	genesis.Main = true
	idx.links[genesis.Hash] = genesis
	idx.best = genesis
	idx.pushRecent(genesis)

	if params.Checkpoint != nil {
		cp := &BlockLink{
			Hash:      *params.Checkpoint.Hash,
			Height:    params.Checkpoint.Height,
			Work:      wire.CalcWork(params.Checkpoint.Bits),
			Connected: true,
			Main:      true,
		}
		cp.ChainWork = new(big.Int).Set(cp.Work)
		cp.Header.Bits = params.Checkpoint.Bits
		cp.Header.Timestamp = params.Checkpoint.Timestamp
		idx.links[cp.Hash] = cp
		if cp.Height > idx.best.Height {
			idx.best = cp
		}
		idx.pushRecent(cp)
	}

	return idx
}

// NeedsHeaders reports whether the index still needs more headers to reach
// the network's current tip, i.e. whether a getheaders request is due.
func (idx *Index) NeedsHeaders() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.needsHeaders
}

// SetNeedsHeaders updates the needs_headers flag; callers clear it once a
// headers response arrives with fewer than the maximum batch size.
func (idx *Index) SetNeedsHeaders(v bool) {
	idx.mu.Lock()
	idx.needsHeaders = v
	if err := idx.persistLocked(); err != nil {
		log.Warnf("blockchain: persist: %v", err)
	}
	idx.mu.Unlock()
}

// SyncBlockStart returns the persisted height floor below which the
// wallet does not need block data, and whether one is set.
func (idx *Index) SyncBlockStart() (int32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.syncBlockStart == nil {
		return 0, false
	}
	return *idx.syncBlockStart, true
}

// SetSyncBlockStart records the height floor, per spec §6's on-disk
// sync_block_start field. Once set it is never cleared back to unset by
// this node; only a fresh --resync'd store starts with it unset again.
func (idx *Index) SetSyncBlockStart(height int32) {
	idx.mu.Lock()
	idx.syncBlockStart = &height
	if err := idx.persistLocked(); err != nil {
		log.Warnf("blockchain: persist: %v", err)
	}
	idx.mu.Unlock()
}

// BestTip returns the current main-chain tip.
func (idx *Index) BestTip() *BlockLink {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.best
}

// Link looks up a link by hash.
func (idx *Index) Link(hash chainhash.Hash) (*BlockLink, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	l, ok := idx.links[hash]
	return l, ok
}

// BuildLocator builds a getheaders/getblocks locator walking back from the
// current best tip, per spec §4.K's blockchain sync subsection.
func (idx *Index) BuildLocator() wire.BlockLocator {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tip := idx.best
	return wire.BuildLocator(tip.Height, func(stepsBack int32) *chainhash.Hash {
		link := idx.ancestorAtHeight(tip, tip.Height-stepsBack)
		if link == nil {
			return nil
		}
		h := link.Hash
		return &h
	})
}

// ancestorAtHeight walks prev-hash pointers from link back to the given
// height. Assumes the caller holds idx.mu (read or write).
func (idx *Index) ancestorAtHeight(link *BlockLink, height int32) *BlockLink {
	cur := link
	for cur != nil && cur.Height > height {
		prev, ok := idx.links[cur.PrevHash]
		if !ok {
			return nil
		}
		cur = prev
	}
	if cur != nil && cur.Height == height {
		return cur
	}
	return nil
}

func (idx *Index) pushRecent(link *BlockLink) {
	size := len(idx.recent)
	pos := (idx.recentStart + idx.recentCount) % size
	if idx.recentCount == size {
		idx.recentStart = (idx.recentStart + 1) % size
	} else {
		idx.recentCount++
	}
	idx.recent[pos] = link
}

// ProcessHeader validates and inserts a single header, connecting it and
// any orphans it unblocks, then reselects the best chain. It returns the
// ordered block_removed/block_added events the reselection produced.
func (idx *Index) ProcessHeader(header *wire.BlockHeader) ([]Event, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	hash := header.BlockHash()
	if _, ok := idx.links[hash]; ok {
		return nil, ruleError(ErrDuplicateLink, "link %s already indexed", hash)
	}

	prev, ok := idx.links[header.PrevBlock]
	if !ok {
		// Orphan: park it until its parent arrives.
		link := newBlockLink(header, 0)
		if idx.orphans[header.PrevBlock] == nil {
			idx.orphans[header.PrevBlock] = make(map[chainhash.Hash]*BlockLink)
		}
		idx.orphans[header.PrevBlock][hash] = link
		idx.links[hash] = link
		return nil, nil
	}

	link := newBlockLink(header, prev.Height+1)
	if err := idx.checkLinkHeader(link, prev); err != nil {
		return nil, err
	}
	idx.connect(link, prev)

	events := idx.selectBestChain()
	if err := idx.persistLocked(); err != nil {
		log.Warnf("blockchain: persist: %v", err)
	}
	return events, nil
}

// checkLinkHeader enforces spec §4.E's per-header rules: correct proof of
// work for its position, a timestamp after the median of its predecessor's
// past MedianTimeSpan blocks, and the version-supermajority gate.
func (idx *Index) checkLinkHeader(link *BlockLink, prev *BlockLink) error {
	expectedBits := calcNextRequiredDifficulty(idx, prev, link.Header.Timestamp.Unix(), idx.params)
	if link.Header.Bits != expectedBits {
		return ruleError(ErrBadProofOfWork, "link %s: block's bits of %08x is not the expected value of %08x", link.Hash, link.Header.Bits, expectedBits)
	}

	hashNum := wire.HashToBig(&link.Hash)
	if hashNum.Cmp(wire.CompactToBig(link.Header.Bits)) > 0 {
		return ruleError(ErrBadProofOfWork, "link %s: hash does not satisfy its own target", link.Hash)
	}

	medianTime := calcPastMedianTime(idx, prev, idx.params)
	if link.Header.Timestamp.Unix() <= medianTime {
		return ruleError(ErrTimeTooOld, "link %s: timestamp %d is not after median time %d", link.Hash, link.Header.Timestamp.Unix(), medianTime)
	}

	if err := idx.checkVersionSupermajority(link, prev); err != nil {
		return err
	}

	return nil
}

// checkVersionSupermajority enforces spec §9's version-gate rule: a header
// below the currently enforced minimum version is rejected once a
// supermajority of the past SupermajorityWindow headers have upgraded.
func (idx *Index) checkVersionSupermajority(link *BlockLink, prev *BlockLink) error {
	requiredVersion, ok := idx.enforcedMinVersion(prev)
	if !ok {
		return nil
	}
	if link.Header.Version < requiredVersion {
		return ruleError(ErrBadVersion, "link %s: version %d is below the enforced minimum %d", link.Hash, link.Header.Version, requiredVersion)
	}
	return nil
}

// enforcedMinVersion walks back SupermajorityWindow ancestors of prev and
// returns the highest version gate (2 or 3) whose numerator/denominator
// threshold is satisfied, following spec §9's BIP34/BIP66-style gate.
func (idx *Index) enforcedMinVersion(prev *BlockLink) (int32, bool) {
	window := idx.params.SupermajorityWindow
	if window == 0 {
		return 0, false
	}

	var v2Count, v3Count, total int
	cur := prev
	for total < window && cur != nil {
		if cur.Header.Version >= 3 {
			v3Count++
		}
		if cur.Header.Version >= 2 {
			v2Count++
		}
		total++
		p, ok := idx.links[cur.PrevHash]
		if !ok {
			break
		}
		cur = p
	}
	if total == 0 {
		return 0, false
	}

	if v3Count*idx.params.BlockV3Supermajority.Denominator >= idx.params.BlockV3Supermajority.Numerator*total {
		return 3, true
	}
	if v2Count*idx.params.BlockV2Supermajority.Denominator >= idx.params.BlockV2Supermajority.Numerator*total {
		return 2, true
	}
	return 0, false
}

// connect marks link as connected (its parent is known-connected) and
// recurses into any orphans that were waiting on it, assigning each its
// height and chain work as it goes. Assumes idx.mu is held.
func (idx *Index) connect(link *BlockLink, prev *BlockLink) {
	link.ChainWork = new(big.Int).Add(prev.ChainWork, link.Work)
	link.Connected = true
	idx.links[link.Hash] = link
	idx.pushRecent(link)

	pending := idx.orphans[link.Hash]
	delete(idx.orphans, link.Hash)
	for _, child := range pending {
		child.Height = link.Height + 1
		idx.connect(child, link)
	}
}

// selectBestChain compares the connected link with the greatest cumulative
// work against the current tip and, if it differs, walks both chains back
// to their fork point and emits block_removed events (old tip to fork
// point, descending height) followed by block_added events (fork point to
// new tip, ascending height, closest to the fork point first).
func (idx *Index) selectBestChain() []Event {
	candidate := idx.bestCandidate()
	if candidate == idx.best {
		return nil
	}

	oldTip, newTip := idx.best, candidate
	var removed, added []*BlockLink

	a, b := oldTip, newTip
	for a.Height > b.Height {
		removed = append(removed, a)
		a = idx.links[a.PrevHash]
	}
	for b.Height > a.Height {
		added = append(added, b)
		b = idx.links[b.PrevHash]
	}
	for a.Hash != b.Hash {
		removed = append(removed, a)
		added = append(added, b)
		a = idx.links[a.PrevHash]
		b = idx.links[b.PrevHash]
	}

	events := make([]Event, 0, len(removed)+len(added))
	for _, l := range removed {
		l.Main = false
		events = append(events, Event{Added: false, Link: l})
	}
	// added was accumulated tip-to-fork; reverse to fork-to-tip so the
	// closest-to-fork link is delivered first.
	for i := len(added) - 1; i >= 0; i-- {
		added[i].Main = true
		events = append(events, Event{Added: true, Link: added[i]})
	}

	idx.best = newTip
	return events
}

// bestCandidate returns the connected link with the greatest cumulative
// chain work, preferring the current tip on ties to avoid needless churn.
func (idx *Index) bestCandidate() *BlockLink {
	best := idx.best
	for _, link := range idx.links {
		if !link.Connected {
			continue
		}
		if link.ChainWork.Cmp(best.ChainWork) > 0 {
			best = link
		}
	}
	return best
}
