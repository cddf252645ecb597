// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package address

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ErrInvalidStealthAddress indicates a decoded stealth address payload
// isn't a 33-byte compressed public key, or its version/suffix bytes
// don't match the active coin profile.
var ErrInvalidStealthAddress = errors.New("invalid stealth address")

// StealthAddress wraps the single scan public key a payer needs to derive
// a one-time destination for the watcher holding the matching private
// scalar, per spec §4.H.
type StealthAddress struct {
	ScanPubKey *btcec.PublicKey
	version    byte
	suffix     []byte
}

// NewStealthAddress wraps a public key for encoding under the given
// network version byte and suffix.
func NewStealthAddress(pub *btcec.PublicKey, version byte, suffix []byte) *StealthAddress {
	return &StealthAddress{ScanPubKey: pub, version: version, suffix: suffix}
}

// String returns the base58check encoding of the stealth address:
// version || 33-byte compressed pubkey || suffix || checksum.
func (s *StealthAddress) String() string {
	return Base58CheckEncode(s.version, s.ScanPubKey.SerializeCompressed(), s.suffix)
}

// DecodeStealthAddress parses a stealth address string, validating its
// version and suffix against the active coin profile.
func DecodeStealthAddress(encoded string, version byte, suffix []byte) (*StealthAddress, error) {
	gotVersion, payload, gotSuffix, err := Base58CheckDecode(encoded, len(suffix))
	if err != nil {
		return nil, err
	}
	if gotVersion != version {
		return nil, ErrInvalidStealthAddress
	}
	for i := range suffix {
		if gotSuffix[i] != suffix[i] {
			return nil, ErrInvalidStealthAddress
		}
	}
	pub, err := btcec.ParsePubKey(payload)
	if err != nil {
		return nil, ErrInvalidStealthAddress
	}
	return &StealthAddress{ScanPubKey: pub, version: version, suffix: suffix}, nil
}
