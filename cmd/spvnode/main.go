// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command spvnode wires together the codec, chain engine, transaction
// database, wallet store, payment monitors, address book, peer manager and
// notification stream into a standalone SPV node, per spec §6's external
// interfaces. It speaks no RPC/CLI command protocol of its own: an
// external collaborator drives the wallet through the documented
// component APIs and listens on the notification stream for events.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spvsuite/spvd/addrmgr"
	"github.com/spvsuite/spvd/blockchain"
	"github.com/spvsuite/spvd/config"
	"github.com/spvsuite/spvd/monitors"
	"github.com/spvsuite/spvd/netsync"
	"github.com/spvsuite/spvd/notify"
	"github.com/spvsuite/spvd/txdb"
	"github.com/spvsuite/spvd/wallet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "spvnode:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	closeLog, err := initLogging(filepath.Join(cfg.DataDir, "logs"))
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()

	params := cfg.ChainParams()

	if cfg.Resync {
		os.RemoveAll(filepath.Join(cfg.DataDir, "txdb"))
		os.RemoveAll(filepath.Join(cfg.DataDir, "wallet"))
	}

	chain, err := blockchain.OpenIndex(filepath.Join(cfg.DataDir, "chain"), params, cfg.Resync)
	if err != nil {
		return fmt.Errorf("open chain index: %w", err)
	}
	defer chain.Close()

	txStore, err := txdb.Open(filepath.Join(cfg.DataDir, "txdb"))
	if err != nil {
		return fmt.Errorf("open tx store: %w", err)
	}
	defer txStore.Close()

	wlt, err := wallet.Open(filepath.Join(cfg.DataDir, "wallet"), txStore.IsConflicted)
	if err != nil {
		return fmt.Errorf("open wallet: %w", err)
	}
	defer wlt.Close()

	addrBook, err := addrmgr.Open(filepath.Join(cfg.DataDir, "peers"))
	if err != nil {
		return fmt.Errorf("open address book: %w", err)
	}
	defer addrBook.Close()

	notifySrv := notify.NewServer()

	allMonitors := []wallet.Monitor{
		monitors.NewPubKeyMonitor(wlt, txStore, params),
		monitors.NewScriptHashMonitor(wlt, txStore, params),
		monitors.NewStealthMonitor(wlt, txStore, params),
		&notifyMonitor{srv: notifySrv},
	}
	for _, m := range allMonitors {
		wlt.RegisterMonitor(m)
	}

	sink := &chainSink{monitors: allMonitors, txdb: txStore, notify: notifySrv}

	mgr := netsync.NewManager(netsync.Config{
		ChainParams: params,
		UserAgent:   "/spvd:0.1.0/",
		AddrBook:    addrBook,
		Chain:       chain,
		TxStore:     txStore,
		Sink:        sink,
		PeerGoal:    cfg.Peers,
		ProxyAddr:   cfg.ProxyAddr(),
	})

	stopNotify := make(chan struct{})
	go notifySrv.Run(stopNotify)

	httpSrv := &http.Server{Addr: cfg.NotifyListen, Handler: notifySrv}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("spvnode: notify server: %v", err)
		}
	}()

	listener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}
	go acceptInbound(listener, mgr)

	stopMgr := make(chan struct{})
	go mgr.Run(stopMgr)

	log.Infof("spvnode: started (%s)", cfg)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Infof("spvnode: shutting down")
	close(stopMgr)
	close(stopNotify)
	listener.Close()
	httpSrv.Close()
	return nil
}

// acceptInbound hands every accepted connection to the manager's peer
// set until the listener is closed at shutdown.
func acceptInbound(l net.Listener, mgr *netsync.Manager) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		mgr.AddInbound(conn)
	}
}
