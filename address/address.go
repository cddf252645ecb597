// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package address

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/spvsuite/spvd/chainhash"
)

// ErrWrongAddrType indicates an address decoded successfully but under a
// version byte that doesn't match the kind the caller asked for.
var ErrWrongAddrType = errors.New("address is not of the requested type")

// PubKeyHashAddress is a standard pay-to-pubkey-hash address: base58check
// of a coin profile's PubKeyHashAddrID plus a 20-byte Hash160.
type PubKeyHashAddress struct {
	hash    [20]byte
	version byte
}

// NewPubKeyHashAddress wraps a 20-byte pubkey hash for encoding under the
// given network version byte.
func NewPubKeyHashAddress(pkHash []byte, version byte) (*PubKeyHashAddress, error) {
	if len(pkHash) != 20 {
		return nil, errors.New("pubkey hash must be 20 bytes")
	}
	a := &PubKeyHashAddress{version: version}
	copy(a.hash[:], pkHash)
	return a, nil
}

// PubKeyHashAddressFromPubKey derives the address for a secp256k1 public
// key, serialized compressed or uncompressed as requested.
func PubKeyHashAddressFromPubKey(pub *btcec.PublicKey, compressed bool, version byte) *PubKeyHashAddress {
	var pubBytes []byte
	if compressed {
		pubBytes = pub.SerializeCompressed()
	} else {
		pubBytes = pub.SerializeUncompressed()
	}
	a := &PubKeyHashAddress{version: version}
	copy(a.hash[:], chainhash.Hash160(pubBytes))
	return a
}

// Hash160 returns the 20-byte pubkey hash.
func (a *PubKeyHashAddress) Hash160() []byte { return a.hash[:] }

// String returns the base58check encoding of the address.
func (a *PubKeyHashAddress) String() string {
	return Base58CheckEncode(a.version, a.hash[:], nil)
}

// ScriptHashAddress is a standard pay-to-script-hash address: base58check
// of a coin profile's ScriptHashAddrID plus a 20-byte Hash160 of the
// redeem script.
type ScriptHashAddress struct {
	hash    [20]byte
	version byte
}

// NewScriptHashAddress wraps a 20-byte script hash for encoding under the
// given network version byte.
func NewScriptHashAddress(scriptHash []byte, version byte) (*ScriptHashAddress, error) {
	if len(scriptHash) != 20 {
		return nil, errors.New("script hash must be 20 bytes")
	}
	a := &ScriptHashAddress{version: version}
	copy(a.hash[:], scriptHash)
	return a, nil
}

// ScriptHashAddressFromScript derives the address for a redeem script.
func ScriptHashAddressFromScript(script []byte, version byte) *ScriptHashAddress {
	a := &ScriptHashAddress{version: version}
	copy(a.hash[:], chainhash.Hash160(script))
	return a
}

// Hash160 returns the 20-byte script hash.
func (a *ScriptHashAddress) Hash160() []byte { return a.hash[:] }

// String returns the base58check encoding of the address.
func (a *ScriptHashAddress) String() string {
	return Base58CheckEncode(a.version, a.hash[:], nil)
}

// DecodePubKeyHashOrScriptHash decodes encoded against the given
// pubKeyHashVersion/scriptHashVersion pair, returning which kind matched
// and the 20-byte hash. It is the inverse the payment monitors use when a
// caller hands them an address string to watch rather than a raw hash.
func DecodePubKeyHashOrScriptHash(encoded string, pubKeyHashVersion, scriptHashVersion byte) (isScriptHash bool, hash []byte, err error) {
	version, payload, _, err := Base58CheckDecode(encoded, 0)
	if err != nil {
		return false, nil, err
	}
	if len(payload) != 20 {
		return false, nil, ErrMalformedAddress
	}
	switch version {
	case pubKeyHashVersion:
		return false, payload, nil
	case scriptHashVersion:
		return true, payload, nil
	default:
		return false, nil, ErrWrongAddrType
	}
}
