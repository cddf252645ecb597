// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/wire"
)

func TestRequestHeadersAcquiresLease(t *testing.T) {
	p := newBareTestPeer(&fakeDelegate{})
	require.False(t, p.HoldsHeadersLease())

	err := p.RequestHeaders(wire.BlockLocator{}, nil)
	require.NoError(t, err)
	require.True(t, p.HoldsHeadersLease())
	require.Len(t, p.outQueue, 1)
}

func TestHeadersLeaseExpiresAfterTimeout(t *testing.T) {
	p := newBareTestPeer(&fakeDelegate{})
	require.NoError(t, p.RequestHeaders(wire.BlockLocator{}, nil))
	require.False(t, p.HeadersLeaseExpired())

	p.headersRequestedAt = time.Now().Add(-HeadersLeaseTimeout - time.Second)
	require.True(t, p.HeadersLeaseExpired())
}

func TestHeadersLeaseNotExpiredWithoutHoldingIt(t *testing.T) {
	p := newBareTestPeer(&fakeDelegate{})
	require.False(t, p.HeadersLeaseExpired())
}

func TestReleaseHeadersLease(t *testing.T) {
	p := newBareTestPeer(&fakeDelegate{})
	require.NoError(t, p.RequestHeaders(wire.BlockLocator{}, nil))
	p.ReleaseHeadersLease()
	require.False(t, p.HoldsHeadersLease())
}
