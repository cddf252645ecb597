// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate"

	"github.com/spvsuite/spvd/addrmgr"
	"github.com/spvsuite/spvd/blockchain"
	"github.com/spvsuite/spvd/monitors"
	"github.com/spvsuite/spvd/netsync"
	"github.com/spvsuite/spvd/notify"
	"github.com/spvsuite/spvd/peer"
	"github.com/spvsuite/spvd/txdb"
	"github.com/spvsuite/spvd/wallet"
)

// log is this command's own subsystem logger, set up alongside every
// library package's logger in initLogging.
var log = btclog.Disabled

// initLogging wires a stdout-and-rotated-file backend and hands each
// package its own subsystem logger, the standard btcsuite pattern every
// package's log.go already expects via UseLogger.
func initLogging(logDir string) (func() error, error) {
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, err
	}

	rotator, err := logrotate.NewRotator(filepath.Join(logDir, "spvd.log"))
	if err != nil {
		return nil, err
	}

	backend := btclog.NewBackend(io.MultiWriter(os.Stdout, rotator))

	blockchain.UseLogger(backend.Logger("CHAN"))
	txdb.UseLogger(backend.Logger("TXDB"))
	wallet.UseLogger(backend.Logger("WLET"))
	addrmgr.UseLogger(backend.Logger("ADXR"))
	peer.UseLogger(backend.Logger("PEER"))
	netsync.UseLogger(backend.Logger("SYNC"))
	notify.UseLogger(backend.Logger("NTFY"))
	monitors.UseLogger(backend.Logger("MNTR"))
	log = backend.Logger("SPVD")

	return rotator.Close, nil
}
