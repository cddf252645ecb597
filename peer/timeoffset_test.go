// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOffsetTrackerNeedsMinimumSamples(t *testing.T) {
	tr := newOffsetTracker()
	for i := 0; i < 4; i++ {
		tr.addSample(int64(10000))
	}
	_, ok := tr.median()
	require.False(t, ok)

	tr.addSample(int64(10000))
	_, ok = tr.median()
	require.True(t, ok)
}

func TestOffsetTrackerExceedsBound(t *testing.T) {
	tr := newOffsetTracker()
	for i := 0; i < 5; i++ {
		tr.addSample(int64(71 * 60)) // 71 minutes, over the 70 minute bound
	}
	offset, exceeds := tr.exceedsBound()
	require.True(t, exceeds)
	require.Equal(t, int64(71*60), int64(offset.Seconds()))
}

func TestOffsetTrackerWithinBound(t *testing.T) {
	tr := newOffsetTracker()
	for i := 0; i < 5; i++ {
		tr.addSample(int64(60))
	}
	_, exceeds := tr.exceedsBound()
	require.False(t, exceeds)
}

func TestOffsetTrackerNegativeExceedsBound(t *testing.T) {
	tr := newOffsetTracker()
	for i := 0; i < 5; i++ {
		tr.addSample(int64(-71 * 60))
	}
	_, exceeds := tr.exceedsBound()
	require.True(t, exceeds)
}
