// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"bytes"
	"fmt"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// record is the on-disk representation of spec §4.F's
// tx-<hex(hash)> -> {raw-tx-bytes, in_blocks} entry: the raw transaction
// as var-bytes, followed by a varint count of containing block hashes and
// then those hashes as raw 32-byte values.
type record struct {
	rawTx    []byte
	inBlocks map[chainhash.Hash]struct{}
}

func newRecord(rawTx []byte) *record {
	return &record{rawTx: rawTx, inBlocks: make(map[chainhash.Hash]struct{})}
}

func (r *record) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarBytes(&buf, r.rawTx); err != nil {
		return nil, err
	}
	if err := wire.WriteVarInt(&buf, uint64(len(r.inBlocks))); err != nil {
		return nil, err
	}
	for h := range r.inBlocks {
		if _, err := buf.Write(h[:]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*record, error) {
	r := bytes.NewReader(data)
	rawTx, err := wire.ReadVarBytes(r, wire.MaxMessagePayload, "rawTx")
	if err != nil {
		return nil, err
	}
	count, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	rec := newRecord(rawTx)
	for i := uint64(0); i < count; i++ {
		var h chainhash.Hash
		if _, err := r.Read(h[:]); err != nil {
			return nil, fmt.Errorf("txdb: short in_blocks entry: %w", err)
		}
		rec.inBlocks[h] = struct{}{}
	}
	return rec, nil
}
