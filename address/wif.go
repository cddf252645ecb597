// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package address

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// ErrMalformedPrivateKey indicates a decoded WIF string's payload is
// neither the 32-byte (uncompressed) nor 33-byte with trailing 0x01
// (compressed) form spec §6 describes.
var ErrMalformedPrivateKey = errors.New("malformed private key")

const privKeyLen = 32

// compressMarker is the trailing payload byte that flags a WIF-encoded
// key as corresponding to a compressed public key serialization.
const compressMarker = 0x01

// WIF holds a decoded Wallet Import Format private key: the scalar itself
// plus whether the address derived from it used a compressed or
// uncompressed public key serialization.
type WIF struct {
	PrivKey    *btcec.PrivateKey
	Compressed bool
}

// EncodeWIF renders priv as a WIF string under the given network version
// byte, per spec §6: version || 32-byte scalar || (0x01 if compressed) ||
// 4-byte checksum, base58-encoded.
func EncodeWIF(priv *btcec.PrivateKey, version byte, compressed bool) string {
	scalar := priv.Serialize()
	var suffix []byte
	if compressed {
		suffix = []byte{compressMarker}
	}
	return Base58CheckEncode(version, scalar, suffix)
}

// DecodeWIF parses a WIF string, verifying its checksum and returning the
// decoded private key, compression flag, and the version byte found (the
// caller compares this against the active coin profile's PrivateKeyID).
func DecodeWIF(wif string) (w *WIF, version byte, err error) {
	raw := base58.Decode(wif)
	if len(raw) < 1+privKeyLen+checksumLen {
		return nil, 0, ErrMalformedPrivateKey
	}

	body := raw[:len(raw)-checksumLen]
	wantCksum := checksum(body)
	gotCksum := raw[len(raw)-checksumLen:]
	for i := 0; i < checksumLen; i++ {
		if wantCksum[i] != gotCksum[i] {
			return nil, 0, ErrChecksumMismatch
		}
	}

	version = body[0]
	rest := body[1:]

	var compressed bool
	var scalar []byte
	switch len(rest) {
	case privKeyLen:
		compressed = false
		scalar = rest
	case privKeyLen + 1:
		if rest[privKeyLen] != compressMarker {
			return nil, 0, ErrMalformedPrivateKey
		}
		compressed = true
		scalar = rest[:privKeyLen]
	default:
		return nil, 0, ErrMalformedPrivateKey
	}

	priv := btcec.PrivKeyFromBytes(scalar)
	return &WIF{PrivKey: priv, Compressed: compressed}, version, nil
}

// secp256k1PubKeyBytes serializes priv's public key, compressed or
// uncompressed as requested, for hashing into an address.
func secp256k1PubKeyBytes(priv *btcec.PrivateKey, compressed bool) []byte {
	pub := priv.PubKey()
	if compressed {
		return pub.SerializeCompressed()
	}
	return pub.SerializeUncompressed()
}
