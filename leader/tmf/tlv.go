/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tmf

import (
	"encoding/binary"
	"errors"

	"github.com/thread-mesh/tnd/std/types/optional"
)

// ThreadType identifies a Thread network layer TLV inside a TMF payload.
type ThreadType uint8

const (
	ThreadTypeTarget              ThreadType = 0
	ThreadTypeExtMacAddress       ThreadType = 1
	ThreadTypeRloc16              ThreadType = 2
	ThreadTypeMeshLocalEid        ThreadType = 3
	ThreadTypeStatus              ThreadType = 4
	ThreadTypeLastTransactionTime ThreadType = 6
	ThreadTypeRouterMask          ThreadType = 7
	ThreadTypeNetworkData         ThreadType = 12
)

// extendedLength in the length byte marks the extended TLV form, which
// this parser rejects.
const extendedLength = 0xff

var errMalformed = errors.New("malformed TLV sequence")

// FindThreadTlv returns the value of the first TLV of the given type.
// It fails when the payload is malformed before the TLV is found.
func FindThreadTlv(payload []byte, typ ThreadType) (value []byte, found bool, err error) {
	for off := 0; off < len(payload); {
		if off+2 > len(payload) || payload[off+1] == extendedLength {
			return nil, false, errMalformed
		}
		end := off + 2 + int(payload[off+1])
		if end > len(payload) {
			return nil, false, errMalformed
		}

		if ThreadType(payload[off]) == typ {
			return payload[off+2 : end], true, nil
		}

		off = end
	}
	return nil, false, nil
}

// FindRloc16Tlv extracts the RLOC16 TLV, if present.
func FindRloc16Tlv(payload []byte) (optional.Optional[uint16], error) {
	value, found, err := FindThreadTlv(payload, ThreadTypeRloc16)
	if err != nil {
		return optional.None[uint16](), err
	}
	if !found {
		return optional.None[uint16](), nil
	}
	if len(value) < 2 {
		return optional.None[uint16](), errMalformed
	}
	return optional.Some(binary.BigEndian.Uint16(value)), nil
}

// FindNetworkDataTlv extracts the Thread Network Data TLV value, if
// present.
func FindNetworkDataTlv(payload []byte) (value []byte, found bool, err error) {
	return FindThreadTlv(payload, ThreadTypeNetworkData)
}
