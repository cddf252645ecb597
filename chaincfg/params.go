// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the coin profile described in the spec: the
// per-network table of address/WIF version bytes, genesis data, difficulty
// limits, retarget parameters, fee/dust limits and script limits that the
// rest of the node is parameterized on.
package chaincfg

import (
	"errors"
	"math/big"
	"time"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

var bigOne = big.NewInt(1)

// mainPowLimit is the highest proof-of-work target (lowest difficulty) a
// mainnet block may have: 2^224 - 1.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// testNetPowLimit is the highest proof-of-work target a testnet block may
// have: 2^224 - 1, same exponent as mainnet but subject to the testnet
// minimum-difficulty reversion rule.
var testNetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// regTestPowLimit is the highest proof-of-work target for the regression
// test network: 2^255 - 1, i.e. difficulty 1 is trivially satisfiable.
var regTestPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

// Checkpoint identifies a known good point in the chain; the hard
// checkpoint used to seed the second trusted root alongside genesis must
// fall on a retarget boundary (height a multiple of WorkInterval) per
// spec §9.
type Checkpoint struct {
	Height    int32
	Hash      *chainhash.Hash
	Timestamp time.Time
	Bits      uint32
}

// DNSSeed identifies a DNS seed used to discover peers when the address
// book holds too few entries.
type DNSSeed struct {
	Host string
}

// VersionSupermajority holds the numerator/denominator thresholds spec §9's
// version-gate rule checks over the past M headers (e.g. 950 of the past
// 1000 for the v2 gate on mainnet).
type VersionSupermajority struct {
	Numerator   int
	Denominator int
}

// Params defines one network's coin profile: the full set of constants
// spec §6 requires (version bytes, genesis/checkpoint data, difficulty and
// retarget parameters, fee/dust limits, script limits). Testnet overrides
// only the fields the spec calls out; every other field is shared via
// explicit construction below rather than partial mutation, to keep both
// tables self-contained and auditable.
type Params struct {
	Name string
	Net  wire.BitcoinNet

	DefaultPort string
	DNSSeeds    []DNSSeed

	GenesisBlock *wire.MsgBlock
	GenesisHash  *chainhash.Hash

	// Checkpoint is the optional hard checkpoint seeded as a second
	// trusted root alongside genesis (spec §9 "two roots are seeded").
	Checkpoint *Checkpoint

	PowLimit     *big.Int
	PowLimitBits uint32

	// WorkInterval is the number of blocks between difficulty retargets
	// (spec §9's WORK_INTERVAL, 2016).
	WorkInterval int32

	// TargetTimespan is the total time WorkInterval blocks should span
	// at the target spacing; retarget timespan is clamped to
	// [TargetTimespan/4, TargetTimespan*4].
	TargetTimespan time.Duration

	// TargetTimePerBlock is the desired spacing between blocks.
	TargetTimePerBlock time.Duration

	// MedianTimeSpan is the median-time-past window (11, per spec §6).
	MedianTimeSpan int

	// TestnetMinDifficultyGap is the time since the last block after
	// which testnet allows bits to revert to PowLimitBits (spec §9: "2x
	// target-block-spacing gap reverts bits to the limit"; for a 10
	// minute spacing that gap is 20 minutes).
	TestnetMinDifficultyGap time.Duration
	ReduceMinDifficulty     bool

	// PubKeyHashAddrID, ScriptHashAddrID and PrivateKeyID are the
	// base58check version bytes for P2PKH addresses, P2SH addresses and
	// WIF-encoded private keys respectively.
	PubKeyHashAddrID byte
	ScriptHashAddrID byte
	PrivateKeyID     byte

	// StealthAddrVersion and StealthAddrSuffix are the version byte and
	// trailing suffix byte(s) a stealth address's base58check payload
	// carries, per spec §4.H / §6.
	StealthAddrVersion byte
	StealthAddrSuffix  []byte

	// Supermajority thresholds for the v2 (coinbase-height) and v3 gates
	// respectively, checked over the past 1000 (mainnet) or 100
	// (testnet) headers per spec §9.
	BlockV2Supermajority VersionSupermajority
	BlockV3Supermajority VersionSupermajority
	SupermajorityWindow  int

	MaxBlockSize int64

	MaxFeeRate     int64
	MinFeeRate     int64
	RelayFee       int64
	DustLimit      int64
	CoinScale      int64
	ConfirmDepth   int32

	MaxScriptElementSize int
	MaxInstructions      int
}

// newHashFromStr converts a reversed-byte-order hex string to a Hash, and
// panics if it isn't valid. Used only for hard-coded constants below,
// following the teacher's chaincfg.newHashFromStr convention: an invalid
// literal is a programmer error, not a runtime condition.
func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}

// ErrDuplicateNet describes an error where the parameters for a network
// could not be set due to the network already being registered.
var ErrDuplicateNet = errors.New("duplicate network")

// ErrUnknownNet describes an error where a network was not recognized.
var ErrUnknownNet = errors.New("unknown network")

var registeredNets = make(map[wire.BitcoinNet]*Params)

// Register makes a network's parameters available for lookup by net magic.
// It returns ErrDuplicateNet if the network has already been registered.
func Register(p *Params) error {
	if _, ok := registeredNets[p.Net]; ok {
		return ErrDuplicateNet
	}
	registeredNets[p.Net] = p
	return nil
}

// ParamsForNet returns the registered Params for the given network magic,
// or ErrUnknownNet if none has been registered.
func ParamsForNet(net wire.BitcoinNet) (*Params, error) {
	p, ok := registeredNets[net]
	if !ok {
		return nil, ErrUnknownNet
	}
	return p, nil
}

func init() {
	if err := Register(&MainNetParams); err != nil {
		panic(err)
	}
	if err := Register(&TestNetParams); err != nil {
		panic(err)
	}
	if err := Register(&RegressionNetParams); err != nil {
		panic(err)
	}
}
