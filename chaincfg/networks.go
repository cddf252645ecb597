// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/spvsuite/spvd/txscript"
	"github.com/spvsuite/spvd/wire"
)

// MainNetParams is the coin profile for the production network: standard
// Bitcoin-style address/WIF version bytes, ten-minute block spacing and a
// 2016-block retarget window.
var MainNetParams = Params{
	Name: "mainnet",
	Net:  wire.MainNet,

	DefaultPort: "8333",
	DNSSeeds: []DNSSeed{
		{Host: "seed.spvsuite.org"},
		{Host: "seed2.spvsuite.org"},
	},

	GenesisBlock: &genesisBlock,
	GenesisHash:  &genesisHash,

	Checkpoint: nil,

	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1d00ffff,

	WorkInterval:        2016,
	TargetTimespan:      14 * 24 * time.Hour,
	TargetTimePerBlock:  10 * time.Minute,
	MedianTimeSpan:      11,
	ReduceMinDifficulty: false,

	PubKeyHashAddrID: 0x00,
	ScriptHashAddrID: 0x05,
	PrivateKeyID:     0x80,

	StealthAddrVersion: 0x2a,
	StealthAddrSuffix:  []byte{0x00},

	BlockV2Supermajority: VersionSupermajority{Numerator: 950, Denominator: 1000},
	BlockV3Supermajority: VersionSupermajority{Numerator: 750, Denominator: 1000},
	SupermajorityWindow:  1000,

	MaxBlockSize: 1_000_000,

	MaxFeeRate:   100_000,
	MinFeeRate:   1_000,
	RelayFee:     1_000,
	DustLimit:    546,
	CoinScale:    100_000_000,
	ConfirmDepth: 6,

	MaxScriptElementSize: txscript.MaxScriptElementSize,
	MaxInstructions:      txscript.MaxInstructions,
}

// TestNetParams is the coin profile for the public test network: looser
// supermajority thresholds and the minimum-difficulty reversion rule spec
// §9 describes (a 2x target-spacing gap reverts bits to PowLimitBits).
var TestNetParams = Params{
	Name: "testnet",
	Net:  wire.TestNet,

	DefaultPort: "18333",
	DNSSeeds: []DNSSeed{
		{Host: "testnet-seed.spvsuite.org"},
	},

	GenesisBlock: &testNetGenesisBlock,
	GenesisHash:  &testNetGenesisHash,

	Checkpoint: nil,

	PowLimit:     testNetPowLimit,
	PowLimitBits: 0x1d00ffff,

	WorkInterval:            2016,
	TargetTimespan:          14 * 24 * time.Hour,
	TargetTimePerBlock:      10 * time.Minute,
	MedianTimeSpan:          11,
	TestnetMinDifficultyGap: 20 * time.Minute,
	ReduceMinDifficulty:     true,

	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0xc4,
	PrivateKeyID:     0xef,

	StealthAddrVersion: 0x2b,
	StealthAddrSuffix:  []byte{0x00},

	BlockV2Supermajority: VersionSupermajority{Numerator: 75, Denominator: 100},
	BlockV3Supermajority: VersionSupermajority{Numerator: 51, Denominator: 100},
	SupermajorityWindow:  100,

	MaxBlockSize: 1_000_000,

	MaxFeeRate:   100_000,
	MinFeeRate:   1_000,
	RelayFee:     1_000,
	DustLimit:    546,
	CoinScale:    100_000_000,
	ConfirmDepth: 6,

	MaxScriptElementSize: txscript.MaxScriptElementSize,
	MaxInstructions:      txscript.MaxInstructions,
}

// RegressionNetParams is the coin profile for local regression testing:
// trivial proof-of-work and minimum-difficulty reversion on any gap since
// the previous block, so tests can mine blocks without waiting on real
// difficulty. It still retargets every WorkInterval blocks.
var RegressionNetParams = Params{
	Name: "regtest",
	Net:  wire.RegTest,

	DefaultPort: "18444",
	DNSSeeds:    nil,

	GenesisBlock: &regTestGenesisBlock,
	GenesisHash:  &regTestGenesisHash,

	Checkpoint: nil,

	PowLimit:     regTestPowLimit,
	PowLimitBits: 0x207fffff,

	WorkInterval:        2016,
	TargetTimespan:      14 * 24 * time.Hour,
	TargetTimePerBlock:  10 * time.Minute,
	MedianTimeSpan:      11,
	ReduceMinDifficulty: true,

	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0xc4,
	PrivateKeyID:     0xef,

	StealthAddrVersion: 0x2b,
	StealthAddrSuffix:  []byte{0x00},

	BlockV2Supermajority: VersionSupermajority{Numerator: 75, Denominator: 100},
	BlockV3Supermajority: VersionSupermajority{Numerator: 51, Denominator: 100},
	SupermajorityWindow:  100,

	MaxBlockSize: 1_000_000,

	MaxFeeRate:   100_000,
	MinFeeRate:   1_000,
	RelayFee:     1_000,
	DustLimit:    546,
	CoinScale:    100_000_000,
	ConfirmDepth: 1,

	MaxScriptElementSize: txscript.MaxScriptElementSize,
	MaxInstructions:      txscript.MaxInstructions,
}
