// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// CollectionKind enumerates the wallet's named persistent collections.
// Spec §9 replaces the source's attribute-naming-convention dispatch
// (`on_new_<collection>`) with this closed enum so the compiler can check
// a monitor's dispatch switch is exhaustive.
type CollectionKind int

const (
	// CollectionPrivateKeys holds the wallet's own private keys, used by
	// the P2PKH/P2PK monitor to recognize payments to their addresses.
	CollectionPrivateKeys CollectionKind = iota

	// CollectionWatchedScripts holds P2SH redemption scripts the
	// multisig monitor watches for.
	CollectionWatchedScripts

	// CollectionStealthKeys holds stealth-address scan keypairs.
	CollectionStealthKeys
)

// Monitor is the interface every payment monitor implements (spec §4.H),
// invoked by the wallet as collections and spends change.
type Monitor interface {
	// OnNewItem is called once per item added to any collection, in
	// insertion order, both during wallet load and on live mutation.
	OnNewItem(kind CollectionKind, id chainhash.Hash, metadata wire.TaggedObject)

	// OnNewSpend is called once per spend added to the spend index.
	OnNewSpend(spend *Spend)

	// OnTx is called for every transaction the network layer delivers,
	// giving the monitor a chance to recognize a new payment or spend.
	OnTx(tx *wire.MsgTx)
}
