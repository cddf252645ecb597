// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"sort"
	"sync"
	"time"
)

// maxAllowedOffset is the clock-skew tolerance from spec §4.K/§5: once at
// least minOffsetSamples peers have completed the handshake, the median of
// their reported offsets is compared against this bound.
const (
	maxAllowedOffset = 70 * time.Minute
	minOffsetSamples = 5
)

// offsetTracker accumulates the (peer time - our time) offset reported by
// each peer's version message during the handshake and tracks the running
// median, per original_source/pyspv's time-offset handling of SPV peers: a
// skewed median is reported but never causes us to refuse or drop peers on
// its own, since any individual peer can simply be lying.
type offsetTracker struct {
	mu      sync.Mutex
	samples []int64
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{}
}

// addSample records one peer's clock offset in seconds.
func (t *offsetTracker) addSample(offsetSeconds int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, offsetSeconds)
}

// median returns the current median offset and whether enough samples have
// accumulated to trust it.
func (t *offsetTracker) median() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) < minOffsetSamples {
		return 0, false
	}

	sorted := make([]int64, len(t.samples))
	copy(sorted, t.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	var median int64
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}
	return time.Duration(median) * time.Second, true
}

// exceedsBound reports whether the current median offset exceeds
// maxAllowedOffset, and the offset itself for logging.
func (t *offsetTracker) exceedsBound() (time.Duration, bool) {
	median, ok := t.median()
	if !ok {
		return 0, false
	}
	if median < 0 {
		return median, -median > maxAllowedOffset
	}
	return median, median > maxAllowedOffset
}
