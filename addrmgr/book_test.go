// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBook(t *testing.T) (*Book, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addresses.dat")
	b, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b, path
}

func TestAddIsIdempotent(t *testing.T) {
	b, _ := newTestBook(t)
	ip := net.ParseIP("10.0.0.1")

	require.NoError(t, b.Add(ip, 8333))
	require.NoError(t, b.Add(ip, 8333))
	require.Equal(t, 1, b.Len())
}

func TestNeedsSeedsBelowFive(t *testing.T) {
	b, _ := newTestBook(t)
	for i := 1; i <= 4; i++ {
		require.NoError(t, b.Add(net.ParseIP(fmt4(i)), 8333))
	}
	require.True(t, b.NeedsSeeds())

	require.NoError(t, b.Add(net.ParseIP(fmt4(5)), 8333))
	require.False(t, b.NeedsSeeds())
}

func TestDeleteSwapFillsFromTail(t *testing.T) {
	b, path := newTestBook(t)
	for i := 1; i <= 3; i++ {
		require.NoError(t, b.Add(net.ParseIP(fmt4(i)), 8333))
	}

	// Delete the middle entry; the tail (3rd) entry should move into its
	// slot and the file should shrink by exactly one record.
	require.NoError(t, b.Delete(net.ParseIP(fmt4(2)), 8333))
	require.Equal(t, 2, b.Len())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(2*recordSize), info.Size())

	moved := b.byKey[key(net.ParseIP(fmt4(3)), 8333)]
	require.Equal(t, 0, moved.slot)
}

func TestReopenReloadsRecords(t *testing.T) {
	b, path := newTestBook(t)
	require.NoError(t, b.Add(net.ParseIP("192.168.1.1"), 8333))
	require.NoError(t, b.MarkSuccess(net.ParseIP("192.168.1.1"), 8333, 1234.5))
	require.NoError(t, b.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, 1, reopened.Len())
	e := reopened.byKey[key(net.ParseIP("192.168.1.1"), 8333)]
	require.Equal(t, 1234.5, e.lastSuccess)
}

func fmt4(i int) string {
	return "10.0.0." + string(rune('0'+i))
}
