// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import (
	"net"
	"strconv"

	"github.com/spvsuite/spvd/chaincfg"
)

// SeedFunc resolves a DNS seed hostname to a set of peer IPv4 addresses;
// its default is net.LookupHost, overridable in tests.
type SeedFunc func(host string) ([]string, error)

// Bootstrap resolves the coin profile's hardcoded DNS seeds and adds any
// IPv4 results on the default port, per spec §4.K: "when the book has
// fewer than five entries, resolve the coin's hardcoded DNS seeds."
func (b *Book) Bootstrap(params *chaincfg.Params, lookup SeedFunc) {
	if !b.NeedsSeeds() {
		return
	}
	if lookup == nil {
		lookup = net.LookupHost
	}

	port, err := strconv.ParseUint(params.DefaultPort, 10, 16)
	if err != nil {
		log.Errorf("addrmgr: bad default port %q: %v", params.DefaultPort, err)
		return
	}

	for _, seed := range params.DNSSeeds {
		addrs, err := lookup(seed.Host)
		if err != nil {
			log.Warnf("addrmgr: dns seed %s: %v", seed.Host, err)
			continue
		}
		for _, addr := range addrs {
			ip := net.ParseIP(addr)
			if ip == nil || ip.To4() == nil {
				continue
			}
			if err := b.Add(ip, uint16(port)); err != nil {
				log.Errorf("addrmgr: add seed address %s: %v", addr, err)
			}
		}
	}
}
