// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// hashFromKey recovers the hash encoded in a leveldb key built by txKey or
// wbhKey, stripping the given prefix and hex-decoding the remainder.
func hashFromKey(key []byte, prefix string) (chainhash.Hash, error) {
	var hash chainhash.Hash
	if len(key) <= len(prefix) {
		return hash, fmt.Errorf("txdb: short key %q", key)
	}
	decoded, err := hex.DecodeString(string(key[len(prefix):]))
	if err != nil {
		return hash, err
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("txdb: bad hash length in key %q", key)
	}
	copy(hash[:], decoded)
	return hash, nil
}

// encodeTx serializes a transaction using the wire codec, the same
// representation used on the network, so a stored raw-tx value can be
// decoded back into a *wire.MsgTx without a second format.
func encodeTx(tx *wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeTx is the inverse of encodeTx.
func decodeTx(raw []byte) (*wire.MsgTx, error) {
	var tx wire.MsgTx
	if err := tx.Decode(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return &tx, nil
}

// byteReader adapts a raw byte slice to an io.Reader for the wire varint
// helpers, which this package reuses for its own small on-disk integers.
func byteReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// appendVarInt appends n to buf in the wire varint encoding.
func appendVarInt(buf []byte, n uint64) []byte {
	var b bytes.Buffer
	_ = wire.WriteVarInt(&b, n)
	return append(buf, b.Bytes()...)
}
