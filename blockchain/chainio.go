// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/wire"
)

// Keys for the single-record keyed store spec §6 describes: the ring
// buffer ("blockchain"), needs_headers and sync_block_start.
const (
	chainDBKey          = "blockchain"
	needsHeadersDBKey   = "needs_headers"
	syncBlockStartDBKey = "sync_block_start"
)

// OpenIndex opens (creating if necessary) a leveldb-backed Index at path,
// restoring the ring buffer of recently connected links, needs_headers
// and sync_block_start from a prior run. resync discards any persisted
// state and starts fresh from genesis, per spec §6's --resync flag.
func OpenIndex(path string, params *chaincfg.Params, resync bool) (*Index, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	idx := NewIndex(params)
	idx.db = db

	if resync {
		if err := idx.persistLocked(); err != nil {
			db.Close()
			return nil, err
		}
		return idx, nil
	}

	if err := idx.load(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Close releases the underlying database handle. An Index constructed
// directly with NewIndex (tests, and any purely in-memory use) never
// opened one, so Close is a no-op for it.
func (idx *Index) Close() error {
	if idx.db == nil {
		return nil
	}
	return idx.db.Close()
}

// load replays the persisted ring buffer back into the index, trusting
// each entry was already validated and connected to the main chain
// before the last shutdown, mirroring pyspv's skip_validation load path.
// Assumes the caller has exclusive access (called only from OpenIndex,
// before the Index is shared).
func (idx *Index) load() error {
	data, err := idx.db.Get([]byte(chainDBKey), nil)
	if err == leveldb.ErrNotFound {
		return idx.persistLocked()
	}
	if err != nil {
		return err
	}

	r := bytes.NewReader(data)
	if _, err := wire.ReadVarInt(r); err != nil { // start: ring position is rebuilt fresh, not reused
		return err
	}
	count, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}

	for i := uint64(0); i < count; i++ {
		raw, err := wire.ReadVarBytes(r, wire.MaxMessagePayload, "link")
		if err != nil {
			return err
		}
		link, err := decodeLinkRecord(raw)
		if err != nil {
			return err
		}
		idx.restoreLink(link)
	}

	if needsHeadersByte, err := idx.db.Get([]byte(needsHeadersDBKey), nil); err == nil && len(needsHeadersByte) > 0 {
		idx.needsHeaders = needsHeadersByte[0] != 0
	}

	if sb, err := idx.db.Get([]byte(syncBlockStartDBKey), nil); err == nil && len(sb) == 4 {
		v := int32(binary.LittleEndian.Uint32(sb))
		idx.syncBlockStart = &v
	}

	return nil
}

// restoreLink re-inserts a previously connected link read back from disk.
// Its parent must already be indexed (genesis, checkpoint, or an earlier
// entry in the same ring buffer); an entry whose parent isn't found is
// silently dropped, which is exactly what happens for genesis/checkpoint
// themselves since their zero-value PrevHash never resolves to anything.
func (idx *Index) restoreLink(link *BlockLink) {
	parent, ok := idx.links[link.PrevHash]
	if !ok {
		return
	}
	link.ChainWork = new(big.Int).Add(parent.ChainWork, link.Work)
	link.Connected = true
	link.Main = true

	idx.links[link.Hash] = link
	idx.best = link
	idx.pushRecent(link)
}

// persistLocked writes the current ring buffer, needs_headers and
// sync_block_start to disk. Assumes the caller holds idx.mu. A no-op for
// an Index that was never opened with OpenIndex.
func (idx *Index) persistLocked() error {
	if idx.db == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := wire.WriteVarInt(&buf, uint64(idx.recentStart)); err != nil {
		return err
	}
	if err := wire.WriteVarInt(&buf, uint64(idx.recentCount)); err != nil {
		return err
	}

	size := len(idx.recent)
	for i := 0; i < idx.recentCount; i++ {
		link := idx.recent[(idx.recentStart+i)%size]
		rec, err := encodeLinkRecord(link)
		if err != nil {
			return err
		}
		if err := wire.WriteVarBytes(&buf, rec); err != nil {
			return err
		}
	}
	if err := idx.db.Put([]byte(chainDBKey), buf.Bytes(), nil); err != nil {
		return err
	}

	needsHeadersByte := byte(0)
	if idx.needsHeaders {
		needsHeadersByte = 1
	}
	if err := idx.db.Put([]byte(needsHeadersDBKey), []byte{needsHeadersByte}, nil); err != nil {
		return err
	}

	if idx.syncBlockStart == nil {
		return idx.db.Delete([]byte(syncBlockStartDBKey), nil)
	}
	var sb [4]byte
	binary.LittleEndian.PutUint32(sb[:], uint32(*idx.syncBlockStart))
	return idx.db.Put([]byte(syncBlockStartDBKey), sb[:], nil)
}

// encodeLinkRecord serializes a BlockLink's ring-buffer entry as the
// height (varint), the work (var-bytes), then the 80-byte header. The
// hash is not stored; it and the prev-hash are recovered from the header
// on decode.
func encodeLinkRecord(l *BlockLink) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarInt(&buf, uint64(l.Height)); err != nil {
		return nil, err
	}
	if err := wire.WriteVarBytes(&buf, l.Work.Bytes()); err != nil {
		return nil, err
	}
	if err := l.Header.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeLinkRecord(data []byte) (*BlockLink, error) {
	r := bytes.NewReader(data)
	height, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	workBytes, err := wire.ReadVarBytes(r, 64, "work")
	if err != nil {
		return nil, err
	}
	var header wire.BlockHeader
	if err := header.Deserialize(r); err != nil {
		return nil, err
	}

	link := newBlockLink(&header, int32(height))
	link.Work = new(big.Int).SetBytes(workBytes)
	return link, nil
}
