// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package addrmgr implements spec §4.K's peer address book: a flat file of
// fixed-size records mirrored by an in-memory hashmap, with swap-fill
// compaction on deletion so the file never grows dead slots.
package addrmgr

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"sync"
)

// entry is one in-memory mirror of a peer address book record.
type entry struct {
	ip          net.IP
	port        uint16
	lastSuccess float64
	slot        int
}

func key(ip net.IP, port uint16) string {
	return fmt.Sprintf("%s:%d", ip.To4().String(), port)
}

// Book is the persistent peer address book described by spec §4.K.
type Book struct {
	mu   sync.Mutex
	file *os.File

	byKey map[string]*entry
	order []*entry // indexed by slot
}

// Open opens (creating if necessary) the address book file at path and
// loads its records into memory.
func Open(path string) (*Book, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}

	b := &Book{file: f, byKey: make(map[string]*entry)}
	if err := b.load(); err != nil {
		f.Close()
		return nil, err
	}
	return b, nil
}

// Close releases the underlying file handle.
func (b *Book) Close() error {
	return b.file.Close()
}

func (b *Book) load() error {
	buf := make([]byte, recordSize)
	for slot := 0; ; slot++ {
		n, err := b.file.ReadAt(buf, int64(slot)*recordSize)
		if n < recordSize {
			// Short or empty read: end of file reached.
			break
		}
		ip, port, lastSuccess, err := decodeRecord(buf)
		if err != nil {
			return err
		}
		e := &entry{ip: ip, port: port, lastSuccess: lastSuccess, slot: slot}
		b.byKey[key(ip, port)] = e
		b.order = append(b.order, e)
	}
	log.Infof("addrmgr: %d peer addresses loaded", len(b.order))
	return nil
}

// Len returns the number of addresses currently tracked.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// NeedsSeeds reports whether the book holds fewer than five entries, the
// threshold spec §4.K gives for falling back to DNS seeds.
func (b *Book) NeedsSeeds() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order) < 5
}

// Add inserts an address with no recorded last-success time if it is not
// already present; a no-op otherwise.
func (b *Book) Add(ip net.IP, port uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key(ip, port)
	if _, ok := b.byKey[k]; ok {
		return nil
	}

	e := &entry{ip: ip.To4(), port: port, slot: len(b.order)}
	b.byKey[k] = e
	b.order = append(b.order, e)
	return b.writeSlot(e)
}

// MarkSuccess records that a connection to ip:port most recently
// succeeded at lastSuccess (seconds since epoch, matching the reference
// book's f64 timestamp field).
func (b *Book) MarkSuccess(ip net.IP, port uint16, lastSuccess float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.byKey[key(ip, port)]
	if !ok {
		return nil
	}
	e.lastSuccess = lastSuccess
	return b.writeSlot(e)
}

// Delete removes an address, swap-filling the vacated slot from the
// file's tail entry to keep the file compact, per spec §4.K.
func (b *Book) Delete(ip net.IP, port uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key(ip, port)
	e, ok := b.byKey[k]
	if !ok {
		return nil
	}
	delete(b.byKey, k)

	last := len(b.order) - 1
	tail := b.order[last]
	b.order = b.order[:last]

	if err := b.file.Truncate(int64(last) * recordSize); err != nil {
		return err
	}

	if tail == e {
		// The deleted entry was already the tail; nothing to move.
		return nil
	}

	tail.slot = e.slot
	b.byKey[key(tail.ip, tail.port)] = tail
	b.order[tail.slot] = tail
	return b.writeSlot(tail)
}

// Random returns up to n addresses chosen at random, the reply spec §4.K
// gives for an incoming getaddr.
func (b *Book) Random(n int) []net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(b.order) {
		n = len(b.order)
	}
	perm := rand.Perm(len(b.order))[:n]
	out := make([]net.Addr, n)
	for i, idx := range perm {
		e := b.order[idx]
		out[i] = &net.TCPAddr{IP: e.ip, Port: int(e.port)}
	}
	return out
}

func (b *Book) writeSlot(e *entry) error {
	data, err := encodeRecord(e.ip, e.port, e.lastSuccess)
	if err != nil {
		return err
	}
	_, err = b.file.WriteAt(data, int64(e.slot)*recordSize)
	return err
}
