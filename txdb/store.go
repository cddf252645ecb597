// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txdb implements spec §4.F's transaction database: a persistent
// store of wallet-relevant raw transactions, the set of blocks each one
// has been seen in, and the main-chain height of each watched block.
package txdb

import (
	"encoding/hex"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

const (
	txKeyPrefix  = "tx-"
	wbhKeyPrefix = "wbh-"
	tipKey       = "tip"
)

func txKey(hash *chainhash.Hash) []byte {
	return []byte(txKeyPrefix + hex.EncodeToString(hash[:]))
}

func wbhKey(hash *chainhash.Hash) []byte {
	return []byte(wbhKeyPrefix + hex.EncodeToString(hash[:]))
}

// Store is the persistent transaction database described by spec §4.F.
// All operations take store.mu; callers are responsible for the ordering
// constraint the spec calls out explicitly: BindTx for a block must
// complete before OnBlockAdded is called for that same block.
type Store struct {
	mu sync.Mutex
	db *leveldb.DB

	// hasTx mirrors which tx-<hash> keys exist, for fast HasTx lookups
	// without a disk read (spec §4.F's "in-memory mirror").
	hasTx map[chainhash.Hash]struct{}

	// watched mirrors the persistent watched_block_height map.
	watched map[chainhash.Hash]int32

	tipHeight int32
}

// Open opens (creating if necessary) the leveldb-backed store at path and
// loads its in-memory mirrors.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:      db,
		hasTx:   make(map[chainhash.Hash]struct{}),
		watched: make(map[chainhash.Hash]int32),
	}

	if err := s.loadMirrors(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) loadMirrors() error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(txKeyPrefix)), nil)
	for iter.Next() {
		hash, err := hashFromKey(iter.Key(), txKeyPrefix)
		if err != nil {
			continue
		}
		s.hasTx[hash] = struct{}{}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	iter = s.db.NewIterator(util.BytesPrefix([]byte(wbhKeyPrefix)), nil)
	for iter.Next() {
		hash, err := hashFromKey(iter.Key(), wbhKeyPrefix)
		if err != nil {
			continue
		}
		height, _ := wire.ReadVarInt(byteReader(iter.Value()))
		s.watched[hash] = int32(height)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	if raw, err := s.db.Get([]byte(tipKey), nil); err == nil {
		height, _ := wire.ReadVarInt(byteReader(raw))
		s.tipHeight = int32(height)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTx idempotently inserts a wallet-relevant transaction with an empty
// in_blocks set, per spec §4.F's save_tx.
func (s *Store) SaveTx(tx *wire.MsgTx) error {
	hash := tx.TxHash()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hasTx[hash]; ok {
		return nil
	}

	raw, err := encodeTx(tx)
	if err != nil {
		return err
	}
	rec := newRecord(raw)
	data, err := rec.encode()
	if err != nil {
		return err
	}
	if err := s.db.Put(txKey(&hash), data, nil); err != nil {
		return err
	}
	s.hasTx[hash] = struct{}{}
	return nil
}

// GetTx returns the stored raw transaction for hash, or nil if it is not
// known to the store.
func (s *Store) GetTx(hash chainhash.Hash) (*wire.MsgTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.db.Get(txKey(&hash), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return decodeTx(rec.rawTx)
}

// HasTx reports whether hash is a known wallet-relevant transaction,
// answered from the in-memory mirror without touching disk.
func (s *Store) HasTx(hash chainhash.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.hasTx[hash]
	return ok
}

// BindTx adds blockHash to txHash's in_blocks set and, if blockHash has
// never been seen before, inserts it into watched_block_height with value
// zero. Per spec §4.F this must complete before OnBlockAdded is called
// for blockHash.
func (s *Store) BindTx(txHash, blockHash chainhash.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.db.Get(txKey(&txHash), nil)
	if err != nil {
		return err
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return err
	}

	rec.inBlocks[blockHash] = struct{}{}
	encoded, err := rec.encode()
	if err != nil {
		return err
	}
	if err := s.db.Put(txKey(&txHash), encoded, nil); err != nil {
		return err
	}

	if _, ok := s.watched[blockHash]; !ok {
		if err := s.putWatched(blockHash, 0); err != nil {
			return err
		}
	}
	return nil
}

// OnBlockAdded advances the main-chain tip to height and, if blockHash is
// watched, sets its height to the new tip.
func (s *Store) OnBlockAdded(blockHash chainhash.Hash, height int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tipHeight = height
	if err := s.putTip(height); err != nil {
		return err
	}

	if _, ok := s.watched[blockHash]; ok {
		return s.putWatched(blockHash, height)
	}
	return nil
}

// OnBlockRemoved reverts the main-chain tip to height and, if blockHash is
// watched, zeros its height.
func (s *Store) OnBlockRemoved(blockHash chainhash.Hash, height int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tipHeight = height
	if err := s.putTip(height); err != nil {
		return err
	}

	if _, ok := s.watched[blockHash]; ok {
		return s.putWatched(blockHash, 0)
	}
	return nil
}

// GetTxDepth returns tip - min(nonzero heights of its in_blocks) + 1, or
// zero if the transaction is unknown or has no block on the main chain.
// A missing transaction is logged and reported as depth zero, per spec
// §4.F.
func (s *Store) GetTxDepth(txHash chainhash.Hash) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.db.Get(txKey(&txHash), nil)
	if err != nil {
		log.Warnf("txdb: get_tx_depth on unknown tx %s", txHash)
		return 0
	}
	rec, err := decodeRecord(data)
	if err != nil {
		log.Warnf("txdb: get_tx_depth: corrupt record for %s: %v", txHash, err)
		return 0
	}

	minHeight := int32(0)
	for block := range rec.inBlocks {
		height, ok := s.watched[block]
		if !ok || height == 0 {
			continue
		}
		if minHeight == 0 || height < minHeight {
			minHeight = height
		}
	}
	if minHeight == 0 {
		return 0
	}
	return s.tipHeight - minHeight + 1
}

// IsConflicted reports whether txHash is known but none of its in_blocks
// are currently on the main chain. The prevout-conflict policy hook spec
// §4.F describes (another transaction spending one of its prevouts is on
// the main chain at sufficient depth) is left to wallet-level callers,
// which have the prevout graph this package does not track.
func (s *Store) IsConflicted(txHash chainhash.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.db.Get(txKey(&txHash), nil)
	if err != nil {
		return false
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return false
	}
	if len(rec.inBlocks) == 0 {
		return false
	}

	for block := range rec.inBlocks {
		if height, ok := s.watched[block]; ok && height != 0 {
			return false
		}
	}
	return true
}

func (s *Store) putWatched(blockHash chainhash.Hash, height int32) error {
	s.watched[blockHash] = height
	var buf []byte
	buf = appendVarInt(buf, uint64(height))
	return s.db.Put(wbhKey(&blockHash), buf, nil)
}

func (s *Store) putTip(height int32) error {
	var buf []byte
	buf = appendVarInt(buf, uint64(height))
	return s.db.Put([]byte(tipKey), buf, nil)
}
