// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import (
	"encoding/binary"
	"errors"
	"math"
	"net"
)

// recordSize is the width of one peer address book record: a 4-byte IPv4
// address, a little-endian u16 port, and a little-endian f64 last-success
// timestamp, per spec §4.K.
const recordSize = 14

// errNotIPv4 is returned when an address cannot be represented in the
// book's fixed IPv4-only record format.
var errNotIPv4 = errors.New("addrmgr: address is not IPv4")

// encodeRecord serializes one peer address book entry to its 14-byte
// on-disk form.
func encodeRecord(ip net.IP, port uint16, lastSuccess float64) ([]byte, error) {
	v4 := ip.To4()
	if v4 == nil {
		return nil, errNotIPv4
	}
	buf := make([]byte, recordSize)
	copy(buf[0:4], v4)
	binary.LittleEndian.PutUint16(buf[4:6], port)
	binary.LittleEndian.PutUint64(buf[6:14], math.Float64bits(lastSuccess))
	return buf, nil
}

// decodeRecord parses one 14-byte peer address book record.
func decodeRecord(data []byte) (ip net.IP, port uint16, lastSuccess float64, err error) {
	if len(data) != recordSize {
		return nil, 0, 0, errors.New("addrmgr: short record")
	}
	ip = net.IPv4(data[0], data[1], data[2], data[3]).To4()
	port = binary.LittleEndian.Uint16(data[4:6])
	lastSuccess = math.Float64frombits(binary.LittleEndian.Uint64(data[6:14]))
	return ip, port, lastSuccess, nil
}
