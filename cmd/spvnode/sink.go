// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spvsuite/spvd/blockchain"
	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/notify"
	"github.com/spvsuite/spvd/txdb"
	"github.com/spvsuite/spvd/wallet"
	"github.com/spvsuite/spvd/wire"
)

// chainSink implements netsync.Sink, fanning a relayed transaction out to
// every registered wallet monitor and recording chain-tip movement in the
// transaction database, publishing both onward to the notification stream.
type chainSink struct {
	monitors []wallet.Monitor
	txdb     *txdb.Store
	notify   *notify.Server
}

func (s *chainSink) OnTx(tx *wire.MsgTx) {
	for _, m := range s.monitors {
		m.OnTx(tx)
	}
}

func (s *chainSink) OnChainEvent(ev blockchain.Event) {
	var err error
	evType := notify.EventBlockRemoved
	if ev.Added {
		evType = notify.EventBlockAdded
		err = s.txdb.OnBlockAdded(ev.Link.Hash, ev.Link.Height)
	} else {
		err = s.txdb.OnBlockRemoved(ev.Link.Hash, ev.Link.Height)
	}
	if err != nil {
		log.Errorf("spvnode: chain event: %v", err)
	}

	s.notify.Publish(notify.Event{
		Type:  evType,
		Block: &notify.BlockInfo{Hash: ev.Link.Hash, Height: ev.Link.Height},
	})
}

// notifyMonitor is the glue between the wallet's spend index and the
// notification stream. It implements wallet.Monitor but only OnNewSpend
// does anything; item replay and raw tx sightings are of no interest to a
// read-only listener.
type notifyMonitor struct {
	srv *notify.Server
}

func (n *notifyMonitor) OnNewItem(wallet.CollectionKind, chainhash.Hash, wire.TaggedObject) {}

func (n *notifyMonitor) OnNewSpend(spend *wallet.Spend) {
	n.srv.Publish(notify.Event{
		Type: notify.EventNewSpend,
		Spend: &notify.SpendInfo{
			Category: spend.Category,
			Amount:   spend.Amount,
			Prevout:  spend.Prevout,
		},
	})
}

func (n *notifyMonitor) OnTx(*wire.MsgTx) {}
