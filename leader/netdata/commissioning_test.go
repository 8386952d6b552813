/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package netdata

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thread-mesh/tnd/leader/defn"
	"github.com/thread-mesh/tnd/leader/meshcop"
	"github.com/thread-mesh/tnd/leader/tmf"
)

type testSender struct {
	acks      int
	responses [][]byte
}

func (s *testSender) SendEmptyAck(*tmf.Message) {
	s.acks++
}

func (s *testSender) SendResponse(_ *tmf.Message, payload []byte) {
	s.responses = append(s.responses, bytes.Clone(payload))
}

func (s *testSender) lastResponse(t *testing.T) []byte {
	t.Helper()
	require.NotEmpty(t, s.responses)
	return s.responses[len(s.responses)-1]
}

func meshcopTlv(typ meshcop.Type, value ...byte) []byte {
	return append([]byte{byte(typ), byte(len(value))}, value...)
}

var steeringTlv = meshcopTlv(meshcop.TypeSteeringData, 0xff)
var borderAgentTlv = meshcopTlv(meshcop.TypeBorderAgentLocator, 0x10, 0x00)

func commissionerSet(l *Leader, tlvs ...[]byte) *tmf.Message {
	var payload []byte
	for _, t := range tlvs {
		payload = append(payload, t...)
	}
	msg := &tmf.Message{URI: tmf.URICommissionerSet, Payload: payload}
	l.HandleTmf(msg)
	return msg
}

func commissionerGet(l *Leader, types ...meshcop.Type) {
	var payload []byte
	if len(types) > 0 {
		value := make([]byte, 0, len(types))
		for _, typ := range types {
			value = append(value, byte(typ))
		}
		payload = meshcopTlv(meshcop.TypeGet, value...)
	}
	l.HandleTmf(&tmf.Message{URI: tmf.URICommissionerGet, Payload: payload})
}

func assertState(t *testing.T, response []byte, state meshcop.State) {
	t.Helper()
	assert.Equal(t, meshcop.StateTlvBytes(state), response)
}

func TestCommissionerSetFirstInstall(t *testing.T) {
	l, f := newTestLeader(t)

	commissionerSet(l, meshcop.SessionIDTlvBytes(42), steeringTlv)

	assertState(t, f.sender.lastResponse(t), meshcop.StateAccept)
	expected := append(meshcop.SessionIDTlvBytes(42), steeringTlv...)
	assert.Equal(t, expected, l.CommissioningData())
	assert.Equal(t, uint8(1), l.Version())
	assert.Equal(t, uint8(1), l.StableVersion())
}

// Scenario: a session ID mismatching the stored one is rejected and the
// stored data stays byte-identical.
func TestCommissionerSetSessionMismatch(t *testing.T) {
	l, f := newTestLeader(t)

	require.NoError(t, l.SetCommissioningData(meshcop.SessionIDTlvBytes(42)))
	before := l.CommissioningData()
	version := l.Version()

	commissionerSet(l, meshcop.SessionIDTlvBytes(43), steeringTlv)

	assertState(t, f.sender.lastResponse(t), meshcop.StateReject)
	assert.Equal(t, before, l.CommissioningData())
	assert.Equal(t, version, l.Version())
}

// Scenario: a stored Border Agent Locator survives a MGMT_COMMISSIONER_SET.
func TestCommissionerSetPreservesBorderAgentLocator(t *testing.T) {
	l, f := newTestLeader(t)

	stored := append(meshcop.SessionIDTlvBytes(7), borderAgentTlv...)
	require.NoError(t, l.SetCommissioningData(stored))
	version, stableVersion := l.Version(), l.StableVersion()

	newSteering := meshcopTlv(meshcop.TypeSteeringData, 0xaa, 0xbb)
	commissionerSet(l, meshcop.SessionIDTlvBytes(7), newSteering)

	assertState(t, f.sender.lastResponse(t), meshcop.StateAccept)

	data := l.CommissioningData()
	got, ok := meshcop.FindTlv(data, meshcop.TypeSteeringData)
	require.True(t, ok)
	assert.Equal(t, newSteering, got)
	got, ok = meshcop.FindTlv(data, meshcop.TypeBorderAgentLocator)
	require.True(t, ok)
	assert.Equal(t, borderAgentTlv, got)
	_, ok = meshcop.FindTlv(data, meshcop.TypeCommissionerSessionID)
	assert.True(t, ok)

	assert.Equal(t, version+1, l.Version())
	assert.Equal(t, stableVersion+1, l.StableVersion())
}

func TestCommissionerSetRejectsBorderAgentLocatorInRequest(t *testing.T) {
	l, f := newTestLeader(t)

	commissionerSet(l, meshcop.SessionIDTlvBytes(1), steeringTlv, borderAgentTlv)

	assertState(t, f.sender.lastResponse(t), meshcop.StateReject)
	assert.Nil(t, l.CommissioningData())
}

func TestCommissionerSetRequiresSessionID(t *testing.T) {
	l, f := newTestLeader(t)

	commissionerSet(l, steeringTlv)

	assertState(t, f.sender.lastResponse(t), meshcop.StateReject)
}

func TestCommissionerSetRequiresValidTlv(t *testing.T) {
	l, f := newTestLeader(t)

	commissionerSet(l, meshcop.SessionIDTlvBytes(1))

	assertState(t, f.sender.lastResponse(t), meshcop.StateReject)
}

func TestCommissionerSetToleratesUnknownTlvs(t *testing.T) {
	l, f := newTestLeader(t)

	unknown := meshcopTlv(meshcop.Type(99), 0x01, 0x02)
	commissionerSet(l, unknown, meshcop.SessionIDTlvBytes(5), steeringTlv)

	assertState(t, f.sender.lastResponse(t), meshcop.StateAccept)
	_, ok := meshcop.FindTlv(l.CommissioningData(), meshcop.Type(99))
	assert.True(t, ok)
}

func TestCommissionerSetRejectsExtendedTlv(t *testing.T) {
	l, f := newTestLeader(t)

	extended := []byte{byte(meshcop.TypeSteeringData), 0xff, 0x00, 0x01}
	commissionerSet(l, meshcop.SessionIDTlvBytes(1), extended)

	assertState(t, f.sender.lastResponse(t), meshcop.StateReject)
}

func TestCommissionerSetWhileWaitingForSync(t *testing.T) {
	l, f := newTestLeader(t)

	require.NoError(t, l.SetCommissioningData(meshcop.SessionIDTlvBytes(9)))
	before := l.CommissioningData()

	l.Start(defn.LeaderStartRestoringAfterReset)
	commissionerSet(l, meshcop.SessionIDTlvBytes(9), steeringTlv)

	assertState(t, f.sender.lastResponse(t), meshcop.StateReject)
	assert.Equal(t, before, l.CommissioningData())
}

func TestCommissionerSetNotLeaderNoResponse(t *testing.T) {
	l, f := newTestLeader(t)
	f.mle.leader = false

	commissionerSet(l, meshcop.SessionIDTlvBytes(1), steeringTlv)

	assert.Empty(t, f.sender.responses)
}

func TestCommissionerGetNoDataDropsResponse(t *testing.T) {
	l, f := newTestLeader(t)

	commissionerGet(l)

	assert.Empty(t, f.sender.responses)
}

func TestCommissionerGetAll(t *testing.T) {
	l, f := newTestLeader(t)

	stored := append(meshcop.SessionIDTlvBytes(7), steeringTlv...)
	require.NoError(t, l.SetCommissioningData(stored))

	commissionerGet(l)

	assert.Equal(t, stored, f.sender.lastResponse(t))
}

func TestCommissionerGetSelectedTypes(t *testing.T) {
	l, f := newTestLeader(t)

	stored := append(meshcop.SessionIDTlvBytes(7), steeringTlv...)
	require.NoError(t, l.SetCommissioningData(stored))

	// Requested order is preserved; unknown types are skipped.
	commissionerGet(l, meshcop.TypeSteeringData, meshcop.Type(99), meshcop.TypeCommissionerSessionID)

	expected := append(bytes.Clone(steeringTlv), meshcop.SessionIDTlvBytes(7)...)
	assert.Equal(t, expected, f.sender.lastResponse(t))
}

// Server data registration over TMF.

func rlocAddr(rloc16 uint16) netip.Addr {
	var b [16]byte
	b[0] = 0xfd
	b[11] = 0xff
	b[12] = 0xfe
	b[14] = byte(rloc16 >> 8)
	b[15] = byte(rloc16)
	return netip.AddrFrom16(b)
}

func threadTlv(typ tmf.ThreadType, value ...byte) []byte {
	return append([]byte{byte(typ), byte(len(value))}, value...)
}

func serverData(l *Leader, peer netip.Addr, tlvs ...[]byte) {
	var payload []byte
	for _, t := range tlvs {
		payload = append(payload, t...)
	}
	l.HandleTmf(&tmf.Message{URI: tmf.URIServerData, Payload: payload, Peer: peer})
}

func TestServerDataRegisters(t *testing.T) {
	l, f := newTestLeader(t)

	blob := makePrefixTlv(0, 64, prefix2001db8, makeBorderRouterSub(true, 0x0400, testBorderRouterFlags))
	serverData(l, rlocAddr(0x0400), threadTlv(tmf.ThreadTypeNetworkData, blob...))

	assert.Equal(t, 1, f.sender.acks)
	_, ok := l.FindPrefix(prefix2001db8, 64)
	assert.True(t, ok)
}

func TestServerDataRemovesOldRloc(t *testing.T) {
	l, f := newTestLeader(t)

	require.NoError(t, l.RegisterNetworkData(0x0401, makeNetData(
		makePrefixTlv(0, 64, prefix2001db8, makeHasRouteSub(false, 0x0401, 0)))))

	// The device re-attached under a new RLOC and names its old one.
	blob := makePrefixTlv(0, 64, prefixFd00, makeHasRouteSub(false, 0x0402, 0))
	serverData(l, rlocAddr(0x0402),
		threadTlv(tmf.ThreadTypeRloc16, 0x04, 0x01),
		threadTlv(tmf.ThreadTypeNetworkData, blob...))

	assert.Equal(t, 1, f.sender.acks)
	_, ok := l.FindPrefix(prefix2001db8, 64)
	assert.False(t, ok)
	_, ok = l.FindPrefix(prefixFd00, 64)
	assert.True(t, ok)
}

func TestServerDataIgnoresNonRlocPeer(t *testing.T) {
	l, f := newTestLeader(t)

	peer := netip.MustParseAddr("fd00::1234")
	blob := makePrefixTlv(0, 64, prefix2001db8, makeHasRouteSub(false, 0x0400, 0))
	serverData(l, peer, threadTlv(tmf.ThreadTypeNetworkData, blob...))

	assert.Zero(t, f.sender.acks)
	assert.Zero(t, l.Length())
}

func TestServerDataIgnoredWhileWaitingForSync(t *testing.T) {
	l, f := newTestLeader(t)

	l.Start(defn.LeaderStartRestoringAfterReset)

	blob := makePrefixTlv(0, 64, prefix2001db8, makeHasRouteSub(false, 0x0400, 0))
	serverData(l, rlocAddr(0x0400), threadTlv(tmf.ThreadTypeNetworkData, blob...))

	assert.Zero(t, f.sender.acks)
	assert.Zero(t, l.Length())
}

func TestServerDataMalformedPayloadNoAck(t *testing.T) {
	l, f := newTestLeader(t)

	// Extended TLV form is rejected.
	serverData(l, rlocAddr(0x0400), []byte{byte(tmf.ThreadTypeRloc16), 0xff, 0x00})

	assert.Zero(t, f.sender.acks)
}

func TestServerDataInvalidBlobStillAcks(t *testing.T) {
	l, f := newTestLeader(t)

	// A blob whose entry names a different RLOC fails validation, but
	// the request itself is still acknowledged.
	blob := makePrefixTlv(0, 64, prefix2001db8, makeBorderRouterSub(true, 0x0800, testBorderRouterFlags))
	serverData(l, rlocAddr(0x0400), threadTlv(tmf.ThreadTypeNetworkData, blob...))

	assert.Equal(t, 1, f.sender.acks)
	assert.Zero(t, l.Length())
}
