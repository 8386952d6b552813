/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package netdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTlvHeaderEncoding(t *testing.T) {
	nd := NewNetworkData()
	off, err := nd.appendTlv(headerSize + 3)
	require.NoError(t, err)
	initTlv(nd.tlvs, off, TypeBorderRouter, 3, true)

	tlv := nd.tlvAt(off)
	assert.Equal(t, TypeBorderRouter, tlv.Type())
	assert.True(t, tlv.IsStable())
	assert.Equal(t, 3, tlv.Length())
	assert.Equal(t, 5, tlv.Size())
	assert.Equal(t, off+5, tlv.End())

	tlv.clearStable()
	assert.False(t, tlv.IsStable())
	assert.Equal(t, TypeBorderRouter, tlv.Type())
	tlv.setStable()
	assert.True(t, tlv.IsStable())
}

func TestAppendTlvBounds(t *testing.T) {
	nd := NewNetworkData()

	off, err := nd.appendTlv(MaxSize)
	require.NoError(t, err)
	assert.Zero(t, off)
	assert.Equal(t, MaxSize, nd.Length())

	_, err = nd.appendTlv(1)
	assert.ErrorIs(t, err, ErrNoBufs)
}

func TestInsertRemoveShiftBytes(t *testing.T) {
	nd := NetworkDataFromBytes([]byte{1, 2, 3, 4})

	require.True(t, nd.CanInsert(2))
	nd.insert(2, 2)
	assert.Equal(t, []byte{1, 2, 0, 0, 3, 4}, nd.Bytes())

	nd.remove(2, 2)
	assert.Equal(t, []byte{1, 2, 3, 4}, nd.Bytes())

	nd.remove(0, 1)
	assert.Equal(t, []byte{2, 3, 4}, nd.Bytes())
}

func TestPrefixTlvAccessors(t *testing.T) {
	nd := makeNetData(makePrefixTlv(5, 64, prefix2001db8,
		makeHasRouteSub(true, 0x0400, 0x40),
		makeBorderRouterSub(false, 0x0400, testBorderRouterFlags)))

	tlv, ok := nd.findTlv(0, nd.Length(), TypePrefix)
	require.True(t, ok)
	p := PrefixTlv{tlv}

	assert.True(t, p.IsValid())
	assert.Equal(t, uint8(5), p.DomainID())
	assert.Equal(t, uint8(64), p.PrefixLength())
	assert.Equal(t, prefix2001db8, p.Prefix())
	assert.True(t, p.PrefixMatch(prefix2001db8, 64))
	assert.False(t, p.PrefixMatch(prefixFd00, 64))
	assert.False(t, p.PrefixMatch(prefix2001db8, 48))

	h, ok := p.FindHasRoute(true)
	require.True(t, ok)
	assert.Equal(t, 1, h.EntryCount())
	assert.Equal(t, uint16(0x0400), h.Entry(0).Rloc16())
	assert.Equal(t, uint8(1), h.Entry(0).Preference())

	_, ok = p.FindHasRoute(false)
	assert.False(t, ok)

	b, ok := p.FindBorderRouter(false)
	require.True(t, ok)
	assert.Equal(t, uint16(testBorderRouterFlags), b.Entry(0).Flags())
	_, ok = p.FindBorderRouter(true)
	assert.False(t, ok)
	_, ok = p.FindAnyBorderRouter()
	assert.True(t, ok)

	_, ok = p.FindContext()
	assert.False(t, ok)
}

func TestContextTlvFlags(t *testing.T) {
	nd := NetworkDataFromBytes([]byte{byte(TypeContext) << typeOffset, 2, 0x1a, 64})
	c := ContextTlv{nd.tlvAt(0)}

	assert.True(t, c.IsValid())
	assert.Equal(t, uint8(0x0a), c.ContextID())
	assert.True(t, c.IsCompress())
	assert.Equal(t, uint8(64), c.ContextLength())

	c.clearCompress()
	assert.False(t, c.IsCompress())
	assert.Equal(t, uint8(0x0a), c.ContextID())
	c.setCompress()
	assert.True(t, c.IsCompress())
}

func TestServiceTlvAccessors(t *testing.T) {
	nd := makeNetData(makeServiceTlv(0xdeadbeef, []byte{0x01, 0x02},
		makeServerSub(true, 0x0400, []byte{0xaa})))

	tlv, ok := nd.findTlv(0, nd.Length(), TypeService)
	require.True(t, ok)
	s := ServiceTlv{tlv}

	assert.True(t, s.IsValid())
	assert.Equal(t, uint32(0xdeadbeef), s.EnterpriseNumber())
	assert.Equal(t, []byte{0x01, 0x02}, s.ServiceData())
	assert.True(t, s.ServiceMatch(0xdeadbeef, []byte{0x01, 0x02}))
	assert.False(t, s.ServiceMatch(0xdeadbeef, []byte{0x01}))
	assert.False(t, s.ServiceMatch(1, []byte{0x01, 0x02}))

	server, ok := s.FindServer()
	require.True(t, ok)
	assert.True(t, server.IsStable())
	assert.Equal(t, uint16(0x0400), server.Server16())
	assert.Equal(t, []byte{0xaa}, server.ServerData())
}

func TestFindPrefixAndService(t *testing.T) {
	nd := makeNetData(
		makePrefixTlv(0, 64, prefix2001db8, makeHasRouteSub(false, 0x0400, 0)),
		makeServiceTlv(44970, []byte{0x01}, makeServerSub(false, 0x0400, nil)),
		makePrefixTlv(0, 64, prefixFd00, makeHasRouteSub(false, 0x0400, 0)))

	p, ok := nd.FindPrefix(prefixFd00, 64)
	require.True(t, ok)
	assert.Equal(t, prefixFd00, p.Prefix())

	_, ok = nd.FindPrefix(prefixFd00, 48)
	assert.False(t, ok)

	s, ok := nd.FindService(44970, []byte{0x01})
	require.True(t, ok)
	assert.Equal(t, uint32(44970), s.EnterpriseNumber())

	_, ok = nd.FindService(44970, []byte{0x02})
	assert.False(t, ok)
}

func TestPrefixLengthToBytes(t *testing.T) {
	assert.Equal(t, 0, prefixLengthToBytes(0))
	assert.Equal(t, 1, prefixLengthToBytes(1))
	assert.Equal(t, 1, prefixLengthToBytes(8))
	assert.Equal(t, 2, prefixLengthToBytes(9))
	assert.Equal(t, 8, prefixLengthToBytes(64))
	assert.Equal(t, 16, prefixLengthToBytes(128))
}

func TestContextIDAllocation(t *testing.T) {
	l, _ := newTestLeader(t)

	id, err := l.contextIDs.getUnallocatedID()
	require.NoError(t, err)
	assert.Equal(t, uint8(MinContextID), id)

	l.contextIDs.markAsInUse(MinContextID)
	id, err = l.contextIDs.getUnallocatedID()
	require.NoError(t, err)
	assert.Equal(t, uint8(MinContextID+1), id)

	for cid := uint8(MinContextID); cid <= MaxContextID; cid++ {
		l.contextIDs.markAsInUse(cid)
	}
	_, err = l.contextIDs.getUnallocatedID()
	assert.ErrorIs(t, err, ErrNotFound)

	l.contextIDs.clear()
	id, err = l.contextIDs.getUnallocatedID()
	require.NoError(t, err)
	assert.Equal(t, uint8(MinContextID), id)
}

func TestContextIDScheduleRequiresInUse(t *testing.T) {
	l, f := newTestLeader(t)

	// Scheduling an unallocated ID is a no-op.
	l.contextIDs.scheduleToRemove(3)
	assert.Equal(t, contextIDUnallocated, l.contextIDs.slot(3).state)
	assert.False(t, f.timer.armed)

	l.contextIDs.markAsInUse(3)
	l.contextIDs.scheduleToRemove(3)
	assert.Equal(t, contextIDPendingRemove, l.contextIDs.slot(3).state)
	assert.True(t, f.timer.armed)

	// Re-marking in use cancels the pending removal.
	l.contextIDs.markAsInUse(3)
	f.clock.advance(DefaultContextReuseDelay)
	l.contextIDs.handleTimer()
	assert.Equal(t, contextIDInUse, l.contextIDs.slot(3).state)
}

func TestContextIDTimerKeepsEarliestDeadline(t *testing.T) {
	l, f := newTestLeader(t)

	l.contextIDs.markAsInUse(1)
	l.contextIDs.markAsInUse(2)

	l.contextIDs.scheduleToRemove(1)
	first := f.timer.deadline

	f.clock.advance(time.Minute)
	l.contextIDs.scheduleToRemove(2)

	// The timer stays armed for the earlier deadline.
	assert.Equal(t, first, f.timer.deadline)

	// Firing at the first deadline reclaims only ID 1 and rearms for
	// ID 2's deadline.
	f.clock.advance(DefaultContextReuseDelay - time.Minute)
	l.contextIDs.handleTimer()
	assert.Equal(t, contextIDUnallocated, l.contextIDs.slot(1).state)
	assert.Equal(t, contextIDPendingRemove, l.contextIDs.slot(2).state)
	assert.Equal(t, first.Add(time.Minute), f.timer.deadline)
}
