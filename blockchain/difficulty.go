// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/wire"
)

// calcNextRequiredDifficulty returns the bits a link at the given height
// extending lastLink must carry. Retargets happen every params.WorkInterval
// blocks (spec §4.E); all other heights simply repeat the parent's bits,
// except on testnet/regtest where a large gap since the last block resets
// to the network's minimum difficulty.
func calcNextRequiredDifficulty(idx *Index, lastLink *BlockLink, newBlockTime int64, params *chaincfg.Params) uint32 {
	nextHeight := lastLink.Height + 1

	if nextHeight%params.WorkInterval != 0 {
		if params.ReduceMinDifficulty {
			maxGap := int64(params.TestnetMinDifficultyGap.Seconds())
			if newBlockTime-lastLink.Timestamp().Unix() > maxGap {
				return wire.BigToCompact(params.PowLimit)
			}
			return reduceMinDifficultyBits(idx, lastLink, params)
		}
		return lastLink.Header.Bits
	}

	firstLink := idx.ancestorAtHeight(lastLink, nextHeight-params.WorkInterval)
	if firstLink == nil {
		return lastLink.Header.Bits
	}

	return retarget(firstLink, lastLink, params)
}

// reduceMinDifficultyBits walks back over same-bits links to find the most
// recent link that was not itself a reduced-difficulty block, matching the
// bitcoin testnet rule of reverting to the interval's genuine difficulty
// once blocks resume arriving on schedule.
func reduceMinDifficultyBits(idx *Index, lastLink *BlockLink, params *chaincfg.Params) uint32 {
	minBits := wire.BigToCompact(params.PowLimit)
	link := lastLink
	for link.Height%params.WorkInterval != 0 && link.Header.Bits == minBits {
		prev, ok := idx.links[link.PrevHash]
		if !ok {
			break
		}
		link = prev
	}
	return link.Header.Bits
}

// retarget implements spec §4.E's difficulty adjustment: clamp the observed
// timespan to [target/4, target*4], scale the previous target by that
// timespan over the target timespan, then clamp the result to the network's
// proof-of-work limit.
func retarget(firstLink, lastLink *BlockLink, params *chaincfg.Params) uint32 {
	actualTimespan := lastLink.Timestamp().Unix() - firstLink.Timestamp().Unix()
	targetTimespan := int64(params.TargetTimespan.Seconds())

	minTimespan := targetTimespan / 4
	maxTimespan := targetTimespan * 4
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	}
	if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	oldTarget := wire.CompactToBig(lastLink.Header.Bits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))

	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget = params.PowLimit
	}
	return wire.BigToCompact(newTarget)
}

// calcPastMedianTime returns the median timestamp of link and its preceding
// params.MedianTimeSpan-1 ancestors, used by the time-too-old rule in
// checkLinkHeader.
func calcPastMedianTime(idx *Index, link *BlockLink, params *chaincfg.Params) int64 {
	timestamps := make([]int64, 0, params.MedianTimeSpan)
	cur := link
	for i := 0; i < params.MedianTimeSpan && cur != nil; i++ {
		timestamps = append(timestamps, cur.Timestamp().Unix())
		prev, ok := idx.links[cur.PrevHash]
		if !ok {
			break
		}
		cur = prev
	}

	sortInt64s(timestamps)
	return timestamps[len(timestamps)/2]
}

func sortInt64s(s []int64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
