/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package netdata

// Type identifies a Network Data TLV. The wire encoding packs the type
// into the upper seven bits of the first header byte; the low bit is
// the stable flag.
type Type uint8

const (
	TypeHasRoute          Type = 0
	TypePrefix            Type = 1
	TypeBorderRouter      Type = 2
	TypeContext           Type = 3
	TypeCommissioningData Type = 4
	TypeService           Type = 5
	TypeServer            Type = 6
)

func (t Type) String() string {
	switch t {
	case TypeHasRoute:
		return "HasRoute"
	case TypePrefix:
		return "Prefix"
	case TypeBorderRouter:
		return "BorderRouter"
	case TypeContext:
		return "Context"
	case TypeCommissioningData:
		return "CommissioningData"
	case TypeService:
		return "Service"
	case TypeServer:
		return "Server"
	}
	return "Unknown"
}

const (
	// headerSize is the two-byte TLV header: type/stable, length.
	headerSize = 2

	stableFlag = 0x01
	typeOffset = 1
)

// Tlv is a handle to one TLV inside a NetworkData buffer, identified by
// its byte offset. A handle is invalidated by any buffer edit at or
// before its offset; handles are therefore derived on demand and never
// retained across mutations.
type Tlv struct {
	nd  *NetworkData
	off int
}

func (t Tlv) Type() Type {
	return Type(t.nd.tlvs[t.off] >> typeOffset)
}

func (t Tlv) IsStable() bool {
	return t.nd.tlvs[t.off]&stableFlag != 0
}

func (t Tlv) setStable() {
	t.nd.tlvs[t.off] |= stableFlag
}

func (t Tlv) clearStable() {
	t.nd.tlvs[t.off] &^= stableFlag
}

// Length returns the payload length in bytes.
func (t Tlv) Length() int {
	return int(t.nd.tlvs[t.off+1])
}

// Size returns the full TLV size including the header.
func (t Tlv) Size() int {
	return headerSize + t.Length()
}

// End returns the offset just past this TLV.
func (t Tlv) End() int {
	return t.off + t.Size()
}

func (t Tlv) valueOffset() int {
	return t.off + headerSize
}

// Value returns the payload bytes as a view into the buffer.
func (t Tlv) Value() []byte {
	return t.nd.tlvs[t.valueOffset():t.End()]
}

// Bytes returns the full TLV including the header as a view into the buffer.
func (t Tlv) Bytes() []byte {
	return t.nd.tlvs[t.off:t.End()]
}

func (t Tlv) increaseLength(n int) {
	t.nd.tlvs[t.off+1] += uint8(n)
}

func (t Tlv) decreaseLength(n int) {
	t.nd.tlvs[t.off+1] -= uint8(n)
}

func initTlv(buf []byte, off int, typ Type, length int, stable bool) {
	b := uint8(typ) << typeOffset
	if stable {
		b |= stableFlag
	}
	buf[off] = b
	buf[off+1] = uint8(length)
}
