// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// NetAddress represents the network address of a peer. IPv6 is not
// supported (spec Non-goal); addresses are always IPv4, stored IPv6-mapped
// on the wire for compatibility with the historical 16-byte field.
type NetAddress struct {
	// Timestamp is only present/meaningful when the surrounding message
	// negotiates NetAddressTimeVersion or better (e.g. inside addr).
	Timestamp uint32
	Services  ServiceFlag
	IP        net.IP
	Port      uint16
}

// NewNetAddressIPPort creates a new NetAddress from an IPv4 address and
// port.
func NewNetAddressIPPort(ip net.IP, port uint16, services ServiceFlag) *NetAddress {
	return &NetAddress{
		Services: services,
		IP:       ip,
		Port:     port,
	}
}

// HasService returns true if the NetAddress advertises the given service.
func (na *NetAddress) HasService(service ServiceFlag) bool {
	return na.Services&service == service
}

// writeNetAddress serializes a NetAddress. When ts is true a leading
// 4-byte timestamp is written first (addr message entries at
// pver >= NetAddressTimeVersion).
func writeNetAddress(w io.Writer, na *NetAddress, ts bool) error {
	if ts {
		if err := writeElement(w, uint32(na.Timestamp)); err != nil {
			return err
		}
	}

	if err := writeElement(w, uint64(na.Services)); err != nil {
		return err
	}

	var ip [16]byte
	if v4 := na.IP.To4(); v4 != nil {
		// IPv4-mapped IPv6 prefix.
		copy(ip[:], []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff})
		copy(ip[12:16], v4)
	} else if na.IP != nil {
		copy(ip[:], na.IP.To16())
	}
	if _, err := w.Write(ip[:]); err != nil {
		return err
	}

	// Port is big-endian on the wire, unlike everything else.
	var portBytes [2]byte
	binary.BigEndian.PutUint16(portBytes[:], na.Port)
	_, err := w.Write(portBytes[:])
	return err
}

// readNetAddress deserializes a NetAddress, mirroring writeNetAddress.
func readNetAddress(r io.Reader, na *NetAddress, ts bool) error {
	var timestamp uint32
	if ts {
		if err := readElement(r, &timestamp); err != nil {
			return err
		}
	}

	var services uint64
	if err := readElement(r, &services); err != nil {
		return err
	}

	var ip [16]byte
	if _, err := io.ReadFull(r, ip[:]); err != nil {
		return err
	}

	var portBytes [2]byte
	if _, err := io.ReadFull(r, portBytes[:]); err != nil {
		return err
	}

	*na = NetAddress{
		Timestamp: timestamp,
		Services:  ServiceFlag(services),
		IP:        net.IP(append([]byte(nil), ip[:]...)),
		Port:      binary.BigEndian.Uint16(portBytes[:]),
	}
	return nil
}

// String renders the address as host:port for logging.
func (na *NetAddress) String() string {
	return fmt.Sprintf("%s:%d", na.IP.To4(), na.Port)
}
