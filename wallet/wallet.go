// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet implements spec §4.G's wallet store: named collections of
// keys/watched scripts, a deduplicated spend registry with per-category
// balances, monitor dispatch, coin selection and transaction building.
package wallet

import (
	"bytes"
	"encoding/hex"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

const (
	collectionKeyPrefix = "coll-" // coll-<kind>-<hex id>
	spendKeyPrefix      = "spend-"
)

// Wallet is the persistent store described by spec §4.G.
type Wallet struct {
	mu sync.Mutex
	db *leveldb.DB

	collections map[CollectionKind]*Collection

	spendsByID      map[chainhash.Hash]*Spend
	spendsByPrevout map[wire.OutPoint]*Spend
	spendOrder      []chainhash.Hash // insertion order, for deterministic iteration

	balance       map[string]int64         // balance[category]
	balanceSpends map[chainhash.Hash]struct{} // the set of unspent spend ids

	monitors []Monitor

	isConflicted func(chainhash.Hash) bool
}

// Open opens (creating if necessary) the leveldb-backed wallet at path.
// isConflicted is the txdb-backed predicate spend spent-ness checks defer
// to, per spec §9's conservative is_spent default.
func Open(path string, isConflicted func(chainhash.Hash) bool) (*Wallet, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	w := &Wallet{
		db:              db,
		collections:     make(map[CollectionKind]*Collection),
		spendsByID:      make(map[chainhash.Hash]*Spend),
		spendsByPrevout: make(map[wire.OutPoint]*Spend),
		balance:         make(map[string]int64),
		balanceSpends: make(map[chainhash.Hash]struct{}),
		isConflicted:  isConflicted,
	}
	for _, kind := range []CollectionKind{CollectionPrivateKeys, CollectionWatchedScripts, CollectionStealthKeys} {
		w.collections[kind] = newCollection(collectionName(kind))
	}

	if err := w.load(); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func collectionName(kind CollectionKind) string {
	switch kind {
	case CollectionPrivateKeys:
		return "keys"
	case CollectionWatchedScripts:
		return "watched_scripts"
	case CollectionStealthKeys:
		return "stealth_keys"
	default:
		return "unknown"
	}
}

// Close releases the underlying database handle.
func (w *Wallet) Close() error {
	return w.db.Close()
}

func collectionKey(kind CollectionKind, id chainhash.Hash) []byte {
	return []byte(collectionKeyPrefix + collectionName(kind) + "-" + hex.EncodeToString(id[:]))
}

func spendKey(id chainhash.Hash) []byte {
	return []byte(spendKeyPrefix + hex.EncodeToString(id[:]))
}

// load replays every persisted collection item and spend back into memory
// in key order (collections are small enough that insertion order is not
// preserved across restarts; live sessions preserve it via AddItem).
func (w *Wallet) load() error {
	for _, coll := range w.collections {
		prefix := collectionKeyPrefix + coll.name + "-"
		iter := w.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
		for iter.Next() {
			id, err := idFromKey(iter.Key(), prefix)
			if err != nil {
				continue
			}
			metadata, err := wire.DecodeTaggedObject(bytes.NewReader(iter.Value()))
			if err != nil {
				continue
			}
			_ = coll.Add(id, metadata)
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return err
		}
	}

	iter := w.db.NewIterator(util.BytesPrefix([]byte(spendKeyPrefix)), nil)
	for iter.Next() {
		spend, err := decodeSpend(iter.Value())
		if err != nil {
			continue
		}
		w.indexSpend(spend)
	}
	iter.Release()
	return iter.Error()
}

func idFromKey(key []byte, prefix string) (chainhash.Hash, error) {
	var id chainhash.Hash
	decoded, err := hex.DecodeString(string(key[len(prefix):]))
	if err != nil {
		return id, err
	}
	copy(id[:], decoded)
	return id, nil
}

// AddItem adds an item to the named collection, persists it, and
// dispatches OnNewItem to every registered monitor, per spec §4.G's "the
// mechanism by which monitors rebuild their in-memory indexes."
func (w *Wallet) AddItem(kind CollectionKind, id chainhash.Hash, metadata wire.TaggedObject) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.collections[kind].Add(id, metadata); err != nil {
		return err
	}
	if err := w.db.Put(collectionKey(kind, id), metadata.Bytes(), nil); err != nil {
		return err
	}

	for _, m := range w.monitors {
		m.OnNewItem(kind, id, metadata)
	}
	return nil
}

// UpdateItem updates an existing collection item's metadata in place.
func (w *Wallet) UpdateItem(kind CollectionKind, id chainhash.Hash, metadata wire.TaggedObject) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.collections[kind].Update(id, metadata); err != nil {
		return err
	}
	return w.db.Put(collectionKey(kind, id), metadata.Bytes(), nil)
}

// GetItem returns a collection item's metadata.
func (w *Wallet) GetItem(kind CollectionKind, id chainhash.Hash) (wire.TaggedObject, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.collections[kind].Get(id)
}

// CollectionLen returns the number of items in a collection.
func (w *Wallet) CollectionLen(kind CollectionKind) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.collections[kind].Len()
}

// RegisterMonitor adds m to the set of monitors dispatched to on every
// collection/spend mutation, and immediately replays the wallet's current
// state to it so its in-memory indexes are built from scratch, per spec
// §4.G.
func (w *Wallet) RegisterMonitor(m Monitor) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.monitors = append(w.monitors, m)
	for kind, coll := range w.collections {
		coll.Each(func(id chainhash.Hash, metadata wire.TaggedObject) {
			m.OnNewItem(kind, id, metadata)
		})
	}
	for _, id := range w.spendOrder {
		m.OnNewSpend(w.spendsByID[id])
	}
}

// AddSpend idempotently inserts a new spend, keyed by its prevout-derived
// id, and dispatches OnNewSpend. Calling AddSpend again with a spend
// hashing to the same id is a no-op, per spec §4.G's add_spend idempotency.
func (w *Wallet) AddSpend(spend *Spend) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := spend.ID()
	if _, ok := w.spendsByID[id]; ok {
		return nil
	}

	w.indexSpend(spend)
	if err := w.persistSpend(id, spend); err != nil {
		return err
	}

	for _, m := range w.monitors {
		m.OnNewSpend(spend)
	}
	return nil
}

// UpdateSpend replaces a spend in place, preserving its index position,
// and recomputes balance[category] / balance_spends from its new
// spent-ness, per spec §4.G's update_spend.
func (w *Wallet) UpdateSpend(spend *Spend) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := spend.ID()
	old, ok := w.spendsByID[id]
	if !ok {
		return errUnknownWalletItem
	}

	// Membership in balanceSpends, not old's spent-ness, says whether old is
	// counted: callers may have mutated the stored spend before this call.
	if _, counted := w.balanceSpends[id]; counted {
		w.balance[old.Category] -= old.Amount
		delete(w.balanceSpends, id)
	}

	w.spendsByID[id] = spend
	w.spendsByPrevout[spend.Prevout] = spend
	if !spend.IsSpent(w.isConflicted) {
		w.balance[spend.Category] += spend.Amount
		w.balanceSpends[id] = struct{}{}
	}

	return w.persistSpend(id, spend)
}

// indexSpend inserts spend into the in-memory index (used by both AddSpend
// and load) and updates balances; callers hold w.mu.
func (w *Wallet) indexSpend(spend *Spend) {
	id := spend.ID()
	w.spendsByID[id] = spend
	w.spendsByPrevout[spend.Prevout] = spend
	w.spendOrder = append(w.spendOrder, id)
	if !spend.IsSpent(w.isConflicted) {
		w.balance[spend.Category] += spend.Amount
		w.balanceSpends[id] = struct{}{}
	}
}

// SpendByPrevout looks up a tracked spend by the outpoint it pays from,
// the lookup payment monitors need to recognize a transaction input as
// spending one of the wallet's known outputs.
func (w *Wallet) SpendByPrevout(prevout wire.OutPoint) (*Spend, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.spendsByPrevout[prevout]
	return s, ok
}

func (w *Wallet) persistSpend(id chainhash.Hash, spend *Spend) error {
	data, err := spend.encode()
	if err != nil {
		return err
	}
	return w.db.Put(spendKey(id), data, nil)
}

// Balance returns the wallet's current balance for category, the sum of
// all unspent spend amounts in that category.
func (w *Wallet) Balance(category string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance[category]
}

// Spends returns every spend currently indexed, in insertion order.
func (w *Wallet) Spends() []*Spend {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Spend, len(w.spendOrder))
	for i, id := range w.spendOrder {
		out[i] = w.spendsByID[id]
	}
	return out
}

// SpendableSpends returns the spends currently in balance_spends, i.e. the
// unspent set, in insertion order.
func (w *Wallet) SpendableSpends() []*Spend {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Spend, 0, len(w.balanceSpends))
	for _, id := range w.spendOrder {
		if _, ok := w.balanceSpends[id]; ok {
			out = append(out, w.spendsByID[id])
		}
	}
	return out
}

