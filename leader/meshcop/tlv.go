/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package meshcop carries the MeshCoP TLV family used by the leader's
// commissioning dataset handlers.
package meshcop

import (
	"encoding/binary"
	"errors"
)

// Type identifies a MeshCoP TLV.
type Type uint8

const (
	TypeChannel                 Type = 0
	TypePanID                   Type = 1
	TypeExtendedPanID           Type = 2
	TypeNetworkName             Type = 3
	TypePskc                    Type = 4
	TypeNetworkKey              Type = 5
	TypeNetworkKeySequence      Type = 6
	TypeMeshLocalPrefix         Type = 7
	TypeSteeringData            Type = 8
	TypeBorderAgentLocator      Type = 9
	TypeCommissionerID          Type = 10
	TypeCommissionerSessionID   Type = 11
	TypeSecurityPolicy          Type = 12
	TypeGet                     Type = 13
	TypeActiveTimestamp         Type = 14
	TypeCommissionerUDPPort     Type = 15
	TypeState                   Type = 16
	TypeJoinerDtlsEncapsulation Type = 17
	TypeJoinerUDPPort           Type = 18
)

// State is the value of a State TLV in MGMT responses.
type State uint8

const (
	StateReject  State = 0xff
	StatePending State = 0
	StateAccept  State = 1
)

func (s State) String() string {
	switch s {
	case StateReject:
		return "Reject"
	case StatePending:
		return "Pending"
	case StateAccept:
		return "Accept"
	}
	return "Unknown"
}

// StateTlvBytes encodes a State TLV.
func StateTlvBytes(s State) []byte {
	return []byte{byte(TypeState), 1, byte(s)}
}

// extendedLength in the length byte marks the extended TLV form, which
// this parser rejects.
const extendedLength = 0xff

var ErrMalformed = errors.New("malformed MeshCoP TLV sequence")

// Next decodes the TLV at off and returns its type, value, and the
// offset of the following TLV.
func Next(buf []byte, off int) (typ Type, value []byte, next int, err error) {
	if off+2 > len(buf) || buf[off+1] == extendedLength {
		return 0, nil, 0, ErrMalformed
	}
	next = off + 2 + int(buf[off+1])
	if next > len(buf) {
		return 0, nil, 0, ErrMalformed
	}
	return Type(buf[off]), buf[off+2 : next], next, nil
}

// FindTlvValue returns the value of the first TLV of the given type. A
// malformed sequence reads as not found.
func FindTlvValue(buf []byte, typ Type) ([]byte, bool) {
	for off := 0; off < len(buf); {
		t, value, next, err := Next(buf, off)
		if err != nil {
			return nil, false
		}
		if t == typ {
			return value, true
		}
		off = next
	}
	return nil, false
}

// FindTlv returns the full TLV (header included) of the first TLV of
// the given type.
func FindTlv(buf []byte, typ Type) ([]byte, bool) {
	for off := 0; off < len(buf); {
		t, _, next, err := Next(buf, off)
		if err != nil {
			return nil, false
		}
		if t == typ {
			return buf[off:next], true
		}
		off = next
	}
	return nil, false
}

// SessionIDFromValue decodes a Commissioner Session ID TLV value.
func SessionIDFromValue(value []byte) (uint16, bool) {
	if len(value) < 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(value), true
}

// SessionIDTlvBytes encodes a Commissioner Session ID TLV.
func SessionIDTlvBytes(sessionID uint16) []byte {
	b := []byte{byte(TypeCommissionerSessionID), 2, 0, 0}
	binary.BigEndian.PutUint16(b[2:], sessionID)
	return b
}
