// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config declares the command-line surface spec §6 documents for
// the core: --resync, --testnet, --tor, --torproxy, plus the ambient
// --datadir, --peers and --listen flags a standalone node binary needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"

	"github.com/spvsuite/spvd/chaincfg"
)

const (
	appName            = "spvd"
	defaultPeerGoal    = 8
	defaultListen      = ":8333"
	defaultTestnetPort = ":18333"
)

// Config is the flag-tagged CLI surface, parsed with jessevdk/go-flags the
// way the wider btcsuite ecosystem parses its node binaries' flags.
type Config struct {
	DataDir      string `long:"datadir" description:"Directory to store data"`
	Resync       bool   `long:"resync" description:"Drop the chain index, transaction database, and wallet spend state on startup"`
	TestNet      bool   `long:"testnet" description:"Use the test network"`
	Tor          bool   `long:"tor" description:"Route outbound connections through a SOCKS proxy (Tor)"`
	TorProxy     string `long:"torproxy" description:"SOCKS proxy host[:port] to use when --tor is set" default:"127.0.0.1:9050"`
	Peers        int    `long:"peers" description:"Target number of connected peers" default:"8"`
	Listen       string `long:"listen" description:"Address to listen on for inbound peer connections"`
	NotifyListen string `long:"notify" description:"Address to serve the read-only websocket event stream on" default:":8334"`
}

// Load parses os.Args (excluding argv[0]) into a Config, filling in
// defaults that depend on other flags (--datadir, --listen) once the
// network selection is known.
func Load() (*Config, error) {
	cfg := &Config{Peers: defaultPeerGoal}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if cfg.TestNet {
		cfg.DataDir = filepath.Join(cfg.DataDir, "testnet")
	}
	if cfg.Listen == "" {
		if cfg.TestNet {
			cfg.Listen = defaultTestnetPort
		} else {
			cfg.Listen = defaultListen
		}
	}
	if cfg.Peers <= 0 {
		cfg.Peers = defaultPeerGoal
	}
}

// ChainParams resolves the coin profile spec §6 calls out, selected by
// --testnet.
func (cfg *Config) ChainParams() *chaincfg.Params {
	if cfg.TestNet {
		return &chaincfg.TestNetParams
	}
	return &chaincfg.MainNetParams
}

// defaultDataDir resolves the OS-appropriate application data directory,
// then appends <app_name>/<coin_name_lowercase>, per spec §6's on-disk
// layout rule.
func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, appName, "spv")
}

// ProxyAddr returns the SOCKS proxy address to dial through, or "" if
// --tor was not set.
func (cfg *Config) ProxyAddr() string {
	if !cfg.Tor {
		return ""
	}
	return cfg.TorProxy
}

// String renders a human-readable summary for startup logging.
func (cfg *Config) String() string {
	return fmt.Sprintf("datadir=%s testnet=%v tor=%v peers=%d listen=%s",
		cfg.DataDir, cfg.TestNet, cfg.Tor, cfg.Peers, cfg.Listen)
}
