// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// ErrDuplicateWalletItem is returned by Collection.Add when the item is
// already present, per spec §4.G.
var ErrDuplicateWalletItem = errors.New("duplicate wallet item")

// item is one entry of a named collection: the item's own hashable,
// equatable identity plus its tagged-object metadata.
type item struct {
	id       chainhash.Hash
	metadata wire.TaggedObject
}

// Collection is one of the wallet's named persistent collections (spec
// §4.G): a set of hashable items each carrying opaque metadata, with
// insertion order preserved for deterministic iteration.
type Collection struct {
	name  string
	byID  map[chainhash.Hash]*item
	order []*item
}

func newCollection(name string) *Collection {
	return &Collection{name: name, byID: make(map[chainhash.Hash]*item)}
}

// Add inserts a new item keyed by id, returning ErrDuplicateWalletItem if
// it is already present.
func (c *Collection) Add(id chainhash.Hash, metadata wire.TaggedObject) error {
	if _, ok := c.byID[id]; ok {
		return ErrDuplicateWalletItem
	}
	it := &item{id: id, metadata: metadata}
	c.byID[id] = it
	c.order = append(c.order, it)
	return nil
}

// Update replaces the metadata of an existing item in place, preserving
// its position in iteration order.
func (c *Collection) Update(id chainhash.Hash, metadata wire.TaggedObject) error {
	it, ok := c.byID[id]
	if !ok {
		return errUnknownWalletItem
	}
	it.metadata = metadata
	return nil
}

// errUnknownWalletItem is returned by Update/Get for an id Add was never
// called with.
var errUnknownWalletItem = errors.New("unknown wallet item")

// Get returns the metadata stored for id.
func (c *Collection) Get(id chainhash.Hash) (wire.TaggedObject, error) {
	it, ok := c.byID[id]
	if !ok {
		return wire.TaggedObject{}, errUnknownWalletItem
	}
	return it.metadata, nil
}

// Len returns the number of items in the collection.
func (c *Collection) Len() int { return len(c.order) }

// Each calls fn for every item in insertion order.
func (c *Collection) Each(fn func(id chainhash.Hash, metadata wire.TaggedObject)) {
	for _, it := range c.order {
		fn(it.id, it.metadata)
	}
}
