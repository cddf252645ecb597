// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package address implements the base58check address and WIF encodings
// spec §6 describes: version_bytes || payload || suffix_bytes, then a
// 4-byte double-SHA-256 checksum, with base58's leading-zero-byte rule
// mapping to the literal character '1'.
package address

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/spvsuite/spvd/chainhash"
)

// ErrChecksumMismatch indicates a decoded base58check payload's trailing
// four bytes don't match the double-SHA-256 checksum of everything before
// them.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrMalformedAddress indicates a decoded payload is too short to contain
// a version byte and checksum, or its payload has the wrong length for
// the address kind being decoded.
var ErrMalformedAddress = errors.New("malformed address")

const checksumLen = 4

// checksum returns the first 4 bytes of the double-SHA-256 hash of b.
func checksum(b []byte) [checksumLen]byte {
	var cksum [checksumLen]byte
	copy(cksum[:], chainhash.DoubleHashB(b))
	return cksum
}

// Base58CheckEncode prepends version to payload, appends suffix, appends a
// 4-byte checksum of the result, and base58-encodes the whole thing.
func Base58CheckEncode(version byte, payload, suffix []byte) string {
	b := make([]byte, 0, 1+len(payload)+len(suffix)+checksumLen)
	b = append(b, version)
	b = append(b, payload...)
	b = append(b, suffix...)
	cksum := checksum(b)
	b = append(b, cksum[:]...)
	return base58.Encode(b)
}

// Base58CheckDecode decodes a base58check string with a suffixLen-byte
// trailing suffix (0 for ordinary addresses and WIF keys), returning the
// leading version byte, the payload between version and suffix, and the
// suffix bytes. It validates the checksum but not the version byte —
// callers compare that against the coin profile in use.
func Base58CheckDecode(encoded string, suffixLen int) (version byte, payload, suffix []byte, err error) {
	decoded := base58.Decode(encoded)
	if len(decoded) < 1+suffixLen+checksumLen {
		return 0, nil, nil, ErrMalformedAddress
	}

	body := decoded[:len(decoded)-checksumLen]
	wantCksum := checksum(body)
	gotCksum := decoded[len(decoded)-checksumLen:]
	for i := 0; i < checksumLen; i++ {
		if wantCksum[i] != gotCksum[i] {
			return 0, nil, nil, ErrChecksumMismatch
		}
	}

	version = body[0]
	payload = body[1 : len(body)-suffixLen]
	if suffixLen > 0 {
		suffix = body[len(body)-suffixLen:]
	}
	return version, payload, suffix, nil
}
