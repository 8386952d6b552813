/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package netdata

// MaxSize is the capacity of a Network Data buffer in bytes.
const MaxSize = 254

// NetworkData is a flat, length-prefixed TLV stream. The byte buffer is
// the single source of truth; all typed accessors are views into it.
//
// The registry and submitted blobs share this representation; only the
// registry (via Leader) is ever mutated.
type NetworkData struct {
	tlvs []byte
}

// NewNetworkData creates an empty buffer with full capacity.
func NewNetworkData() *NetworkData {
	return &NetworkData{tlvs: make([]byte, 0, MaxSize)}
}

// NetworkDataFromBytes copies b into a new buffer.
func NetworkDataFromBytes(b []byte) *NetworkData {
	c := max(len(b), MaxSize)
	nd := &NetworkData{tlvs: make([]byte, len(b), c)}
	copy(nd.tlvs, b)
	return nd
}

// Length returns the serialized length in bytes.
func (nd *NetworkData) Length() int {
	return len(nd.tlvs)
}

// Bytes returns the serialized TLV stream as a view into the buffer.
// Callers must not modify or retain it across mutations.
func (nd *NetworkData) Bytes() []byte {
	return nd.tlvs
}

// BytesCopy returns a copy of the serialized TLV stream.
func (nd *NetworkData) BytesCopy() []byte {
	b := make([]byte, len(nd.tlvs))
	copy(b, nd.tlvs)
	return b
}

func (nd *NetworkData) clear() {
	nd.tlvs = nd.tlvs[:0]
}

func (nd *NetworkData) tlvAt(off int) Tlv {
	return Tlv{nd: nd, off: off}
}

// findTlv scans [start,end) for the first TLV of the given type. The
// scan stops early if a header would extend past end.
func (nd *NetworkData) findTlv(start, end int, typ Type) (Tlv, bool) {
	for off := start; off+headerSize <= end; {
		t := nd.tlvAt(off)
		if t.End() > end {
			break
		}
		if t.Type() == typ {
			return t, true
		}
		off = t.End()
	}
	return Tlv{}, false
}

// findTlvStable is findTlv restricted to a stable flag value.
func (nd *NetworkData) findTlvStable(start, end int, typ Type, stable bool) (Tlv, bool) {
	for off := start; off+headerSize <= end; {
		t := nd.tlvAt(off)
		if t.End() > end {
			break
		}
		if t.Type() == typ && t.IsStable() == stable {
			return t, true
		}
		off = t.End()
	}
	return Tlv{}, false
}

// FindPrefix returns the Prefix TLV matching (prefix, prefixLength).
func (nd *NetworkData) FindPrefix(prefix []byte, prefixLength uint8) (PrefixTlv, bool) {
	return nd.findPrefixIn(0, nd.Length(), prefix, prefixLength)
}

func (nd *NetworkData) findPrefixIn(start, end int, prefix []byte, prefixLength uint8) (PrefixTlv, bool) {
	for off := start; off+headerSize <= end; {
		t := nd.tlvAt(off)
		if t.End() > end {
			break
		}
		if t.Type() == TypePrefix {
			p := PrefixTlv{t}
			if p.IsValid() && p.PrefixMatch(prefix, prefixLength) {
				return p, true
			}
		}
		off = t.End()
	}
	return PrefixTlv{}, false
}

// FindService returns the Service TLV matching (enterprise, serviceData)
// exactly.
func (nd *NetworkData) FindService(enterprise uint32, serviceData []byte) (ServiceTlv, bool) {
	return nd.findServiceIn(0, nd.Length(), enterprise, serviceData)
}

func (nd *NetworkData) findServiceIn(start, end int, enterprise uint32, serviceData []byte) (ServiceTlv, bool) {
	for off := start; off+headerSize <= end; {
		t := nd.tlvAt(off)
		if t.End() > end {
			break
		}
		if t.Type() == TypeService {
			s := ServiceTlv{t}
			if s.IsValid() && s.ServiceMatch(enterprise, serviceData) {
				return s, true
			}
		}
		off = t.End()
	}
	return ServiceTlv{}, false
}

// FindServiceByID returns the Service TLV holding the given service ID.
func (nd *NetworkData) FindServiceByID(serviceID uint8) (ServiceTlv, bool) {
	for off := 0; off+headerSize <= nd.Length(); {
		t := nd.tlvAt(off)
		if t.End() > nd.Length() {
			break
		}
		if t.Type() == TypeService {
			s := ServiceTlv{t}
			if s.IsValid() && s.ServiceID() == serviceID {
				return s, true
			}
		}
		off = t.End()
	}
	return ServiceTlv{}, false
}

func (nd *NetworkData) findCommissioningData() (Tlv, bool) {
	return nd.findTlv(0, nd.Length(), TypeCommissioningData)
}

// CanInsert reports whether n more bytes fit in the buffer.
func (nd *NetworkData) CanInsert(n int) bool {
	return nd.Length()+n <= MaxSize
}

// insert opens a zeroed gap of n bytes at off. The caller must have
// checked CanInsert.
func (nd *NetworkData) insert(off, n int) {
	old := len(nd.tlvs)
	nd.tlvs = nd.tlvs[:old+n]
	copy(nd.tlvs[off+n:], nd.tlvs[off:old])
	for i := off; i < off+n; i++ {
		nd.tlvs[i] = 0
	}
}

// remove deletes n bytes at off.
func (nd *NetworkData) remove(off, n int) {
	copy(nd.tlvs[off:], nd.tlvs[off+n:])
	nd.tlvs = nd.tlvs[:len(nd.tlvs)-n]
}

func (nd *NetworkData) removeTlv(t Tlv) {
	nd.remove(t.off, t.Size())
}

// appendTlv reserves size zeroed bytes at the tail for a new top-level
// TLV and returns its offset. The caller initializes the header.
func (nd *NetworkData) appendTlv(size int) (int, error) {
	if !nd.CanInsert(size) {
		return 0, ErrNoBufs
	}
	off := len(nd.tlvs)
	nd.tlvs = nd.tlvs[:off+size]
	for i := off; i < off+size; i++ {
		nd.tlvs[i] = 0
	}
	return off, nil
}
