/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package netdata

import (
	"bytes"
	"encoding/binary"
)

// ServiceTlv registers an application-level service. Its payload is a
// flag byte, the service ID, the enterprise number, the length-prefixed
// service data, and a run of Server sub-TLVs.
type ServiceTlv struct{ Tlv }

// serviceFixedSize covers flags, service ID, enterprise number and the
// service data length byte.
const serviceFixedSize = 1 + 1 + 4 + 1

func (s ServiceTlv) Flags() uint8 {
	return s.nd.tlvs[s.off+2]
}

func (s ServiceTlv) ServiceID() uint8 {
	return s.nd.tlvs[s.off+3]
}

func (s ServiceTlv) setServiceID(id uint8) {
	s.nd.tlvs[s.off+3] = id
}

func (s ServiceTlv) EnterpriseNumber() uint32 {
	return binary.BigEndian.Uint32(s.nd.tlvs[s.off+4:])
}

func (s ServiceTlv) serviceDataLength() int {
	return int(s.nd.tlvs[s.off+8])
}

func (s ServiceTlv) ServiceData() []byte {
	start := s.off + headerSize + serviceFixedSize
	return s.nd.tlvs[start : start+s.serviceDataLength()]
}

func (s ServiceTlv) subTlvsOffset() int {
	return s.off + headerSize + serviceFixedSize + s.serviceDataLength()
}

func (s ServiceTlv) IsValid() bool {
	return s.Length() >= serviceFixedSize && s.Length() >= serviceFixedSize+s.serviceDataLength()
}

// ServiceMatch returns whether this TLV carries the given enterprise
// number and byte-identical service data.
func (s ServiceTlv) ServiceMatch(enterprise uint32, serviceData []byte) bool {
	return s.EnterpriseNumber() == enterprise && bytes.Equal(s.ServiceData(), serviceData)
}

// FindServer returns the first Server sub-TLV.
func (s ServiceTlv) FindServer() (ServerTlv, bool) {
	t, ok := s.nd.findTlv(s.subTlvsOffset(), s.End(), TypeServer)
	return ServerTlv{t}, ok
}

func serviceTlvSize(serviceDataLength int) int {
	return headerSize + serviceFixedSize + serviceDataLength
}

// ServerTlv names one server of a service: its RLOC16 and opaque
// server data.
type ServerTlv struct{ Tlv }

func (s ServerTlv) Server16() uint16 {
	return binary.BigEndian.Uint16(s.nd.tlvs[s.off+2:])
}

func (s ServerTlv) ServerData() []byte {
	return s.nd.tlvs[s.off+4 : s.End()]
}

func (s ServerTlv) IsValid() bool {
	return s.Length() >= 2
}
