// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/spvsuite/spvd/chainhash"
)

// bloomBits and bloomHashFuncs implement spec §9's broadcast-dedup filter:
// a fixed-size bit array with k=32 hashes, the first taken from the tx's
// own id and the rest from iterating SHA-256 on it. At one bit per slot
// this costs 2^23/8 = 1 MiB; collisions only cause an unnecessary
// re-request, never a missed broadcast, so it is not security-critical.
const (
	bloomBits      = 1 << 23
	bloomHashFuncs = 32
)

// dedupFilter is the broadcast-tx bloom filter. It is append-only for the
// lifetime of the process, matching spec §9's note that this is a coarse,
// non-authoritative hint layered on top of txdb's exact membership check.
type dedupFilter struct {
	mu   sync.Mutex
	bits []byte
}

func newDedupFilter() *dedupFilter {
	return &dedupFilter{bits: make([]byte, bloomBits/8)}
}

// indices derives the k bit positions for a tx id: the first from the id
// itself, each subsequent one from SHA-256 of the previous hash.
func (f *dedupFilter) indices(txid chainhash.Hash) [bloomHashFuncs]uint32 {
	var idx [bloomHashFuncs]uint32
	cur := txid[:]
	for i := 0; i < bloomHashFuncs; i++ {
		idx[i] = binary.LittleEndian.Uint32(cur[:4]) % bloomBits
		next := sha256.Sum256(cur)
		cur = next[:]
	}
	return idx
}

// Add marks a tx id as seen.
func (f *dedupFilter) Add(txid chainhash.Hash) {
	idx := f.indices(txid)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range idx {
		f.bits[i/8] |= 1 << (i % 8)
	}
}

// Contains reports whether every bit position for txid is set. A false
// positive only causes a redundant fetch; a false negative never occurs.
func (f *dedupFilter) Contains(txid chainhash.Hash) bool {
	idx := f.indices(txid)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range idx {
		if f.bits[i/8]&(1<<(i%8)) == 0 {
			return false
		}
	}
	return true
}
