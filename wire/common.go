// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/spvsuite/spvd/chainhash"
)

// ErrShortBuffer indicates the source had fewer bytes than a decode needed.
var ErrShortBuffer = fmt.Errorf("short buffer")

// ErrVarBytesTooLong indicates a var_bytes length prefix exceeded the
// caller-supplied maximum, guarding against memory-exhaustion attacks from a
// misbehaving peer.
var ErrVarBytesTooLong = fmt.Errorf("var bytes length exceeds maximum")

var littleEndian = binary.LittleEndian

// readElement reads a fixed-size little-endian element from r into element.
func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *int32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = int32(littleEndian.Uint32(b[:]))
		return nil
	case *uint32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = littleEndian.Uint32(b[:])
		return nil
	case *int64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = int64(littleEndian.Uint64(b[:]))
		return nil
	case *uint64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = littleEndian.Uint64(b[:])
		return nil
	case *uint16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = littleEndian.Uint16(b[:])
		return nil
	case *bool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0] != 0
		return nil
	case *chainhash.Hash:
		_, err := io.ReadFull(r, e[:])
		return err
	default:
		return binary.Read(r, littleEndian, element)
	}
}

// ReadElement reads a fixed-size little-endian element from r into
// element. It is exported for packages outside wire (such as the wallet's
// spend serializer) that build their own small records using the same
// fixed-width field encoding as the message types in this package.
func ReadElement(r io.Reader, element interface{}) error {
	return readElement(r, element)
}

// WriteElement writes a fixed-size little-endian element to w. It is
// exported for packages (such as txscript's sighash preimage builder) that
// need to append a raw trailing field after an otherwise-standard message
// encoding.
func WriteElement(w io.Writer, element interface{}) error {
	return writeElement(w, element)
}

// writeElement writes a fixed-size little-endian element to w.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case int32:
		var b [4]byte
		littleEndian.PutUint32(b[:], uint32(e))
		_, err := w.Write(b[:])
		return err
	case uint32:
		var b [4]byte
		littleEndian.PutUint32(b[:], e)
		_, err := w.Write(b[:])
		return err
	case int64:
		var b [8]byte
		littleEndian.PutUint64(b[:], uint64(e))
		_, err := w.Write(b[:])
		return err
	case uint64:
		var b [8]byte
		littleEndian.PutUint64(b[:], e)
		_, err := w.Write(b[:])
		return err
	case uint16:
		var b [2]byte
		littleEndian.PutUint16(b[:], e)
		_, err := w.Write(b[:])
		return err
	case bool:
		var b [1]byte
		if e {
			b[0] = 1
		}
		_, err := w.Write(b[:])
		return err
	case chainhash.Hash:
		_, err := w.Write(e[:])
		return err
	default:
		return binary.Write(w, littleEndian, element)
	}
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// n as a variable length integer.
func VarIntSerializeSize(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= math.MaxUint16:
		return 3
	case n <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// WriteVarInt writes n to w using the minimal number of bytes possible for
// the given value: one byte for values under 0xfd, else a one-byte marker
// (0xfd/0xfe/0xff) followed by a little-endian 16/32/64-bit value.
func WriteVarInt(w io.Writer, n uint64) error {
	switch {
	case n < 0xfd:
		_, err := w.Write([]byte{byte(n)})
		return err
	case n <= math.MaxUint16:
		var b [3]byte
		b[0] = 0xfd
		littleEndian.PutUint16(b[1:], uint16(n))
		_, err := w.Write(b[:])
		return err
	case n <= math.MaxUint32:
		var b [5]byte
		b[0] = 0xfe
		littleEndian.PutUint32(b[1:], uint32(n))
		_, err := w.Write(b[:])
		return err
	default:
		var b [9]byte
		b[0] = 0xff
		littleEndian.PutUint64(b[1:], n)
		_, err := w.Write(b[:])
		return err
	}
}

// ReadVarInt reads a variable length integer from r and returns it as a
// uint64.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}

	switch prefix[0] {
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return littleEndian.Uint64(b[:]), nil
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(littleEndian.Uint32(b[:])), nil
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(littleEndian.Uint16(b[:])), nil
	default:
		return uint64(prefix[0]), nil
	}
}

// ReadVarBytes reads a variable length byte array. maxAllowed bounds the
// allowed length so a lying peer can't force an oversized allocation;
// fieldName is used only to make the resulting error readable.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, fmt.Errorf("%s: %w (%d > max %d)", fieldName, ErrVarBytesTooLong, count, maxAllowed)
	}

	b := make([]byte, count)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes writes a variable length byte array.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVarString reads a variable length UTF-8 string.
func ReadVarString(r io.Reader, maxAllowed uint64) (string, error) {
	b, err := ReadVarBytes(r, maxAllowed, "var_string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteVarString writes a variable length UTF-8 string.
func WriteVarString(w io.Writer, s string) error {
	return WriteVarBytes(w, []byte(s))
}
