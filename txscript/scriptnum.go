// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// defaultScriptNumLen is the maximum number of bytes data being interpreted
// as an integer may be for most operators.
const defaultScriptNumLen = 4

// scriptNum represents the variable-length, minimally-encoded,
// little-endian integer format used by the scripting language's
// arithmetic opcodes, per spec §4.C: two's-complement-like with a sign bit
// on the high bit of the top byte.
type scriptNum int64

// makeScriptNum interprets the passed byte array as an encoded integer and
// returns the result as a scriptNum, enforcing that the data is no more
// than maxNumLen bytes and, when requireMinimal is set, is minimally
// encoded (no unnecessary trailing zero byte).
func makeScriptNum(v []byte, requireMinimal bool, maxNumLen int) (scriptNum, error) {
	if len(v) > maxNumLen {
		return 0, scriptError(ErrNumberTooBig, "numeric value encoded as %x is %d bytes "+
			"which exceeds the max allowed of %d", v, len(v), maxNumLen)
	}

	if requireMinimal && len(v) > 0 {
		if v[len(v)-1]&0x7f == 0 {
			if len(v) == 1 || v[len(v)-2]&0x80 == 0 {
				return 0, scriptError(ErrNumberTooBig, "numeric value encoded as %x is not minimally encoded", v)
			}
		}
	}

	if len(v) == 0 {
		return 0, nil
	}

	var result int64
	for i, b := range v {
		result |= int64(b) << uint8(8*i)
	}

	if v[len(v)-1]&0x80 != 0 {
		result &= ^(int64(0x80) << uint8(8*(len(v)-1)))
		return scriptNum(-result), nil
	}

	return scriptNum(result), nil
}

// Bytes returns the minimally-encoded, variable-length, little-endian
// representation of the number.
func (n scriptNum) Bytes() []byte {
	if n == 0 {
		return nil
	}

	isNegative := n < 0
	absVal := n
	if isNegative {
		absVal = -n
	}

	var result []byte
	for absVal > 0 {
		result = append(result, byte(absVal&0xff))
		absVal >>= 8
	}

	if result[len(result)-1]&0x80 != 0 {
		if isNegative {
			result = append(result, 0x80)
		} else {
			result = append(result, 0x00)
		}
	} else if isNegative {
		result[len(result)-1] |= 0x80
	}

	return result
}

// Int32 returns the scriptNum clamped to the range of a 32-bit integer.
func (n scriptNum) Int32() int32 {
	if n > 2147483647 {
		return 2147483647
	}
	if n < -2147483648 {
		return -2147483648
	}
	return int32(n)
}

// EncodeScriptNum returns the minimally-encoded, variable-length,
// little-endian representation of n, exported for callers outside this
// package that need to build a coinbase height push (spec §4.E's
// coinbase-height rule) without duplicating the encoding.
func EncodeScriptNum(n int64) []byte {
	return scriptNum(n).Bytes()
}

// DecodeScriptNum interprets v as a minimally-encoded scriptNum no longer
// than maxNumLen bytes and returns it as an int64.
func DecodeScriptNum(v []byte, maxNumLen int) (int64, error) {
	n, err := makeScriptNum(v, true, maxNumLen)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// asBool interprets raw script stack bytes as the boolean truth value
// described in spec §4.C: truthy iff any byte is non-zero, except that a
// final byte of 0x80 (negative zero) is also false.
func asBool(v []byte) bool {
	for i, b := range v {
		if b != 0 {
			if i == len(v)-1 && b == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

// fromBool returns the canonical stack encoding of a boolean.
func fromBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return nil
}
