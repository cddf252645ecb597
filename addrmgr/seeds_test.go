// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chaincfg"
)

func TestBootstrapAddsSeedAddressesWhenBelowThreshold(t *testing.T) {
	b, _ := newTestBook(t)

	fakeLookup := func(host string) ([]string, error) {
		return []string{"1.2.3.4", "::1"}, nil
	}

	b.Bootstrap(&chaincfg.MainNetParams, fakeLookup)

	// Both seeds resolve to the same IPv4 address, which is added once;
	// IPv6 results are filtered out.
	require.Equal(t, 1, b.Len())
}

func TestBootstrapSkipsWhenAboveThreshold(t *testing.T) {
	b, _ := newTestBook(t)
	for i := 1; i <= 5; i++ {
		require.NoError(t, b.Add(net.ParseIP(fmt4(i)), 8333))
	}

	called := false
	b.Bootstrap(&chaincfg.MainNetParams, func(string) ([]string, error) {
		called = true
		return nil, nil
	})
	require.False(t, called)
}
