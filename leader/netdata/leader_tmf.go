/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package netdata

import (
	"bytes"

	"github.com/thread-mesh/tnd/leader/core"
	"github.com/thread-mesh/tnd/leader/defn"
	"github.com/thread-mesh/tnd/leader/meshcop"
	"github.com/thread-mesh/tnd/leader/tmf"
)

// HandleTmf dispatches an inbound TMF request to the matching handler.
func (l *Leader) HandleTmf(msg *tmf.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch msg.URI {
	case tmf.URIServerData:
		l.handleServerData(msg)
	case tmf.URICommissionerSet:
		l.handleCommissionerSet(msg)
	case tmf.URICommissionerGet:
		l.handleCommissionerGet(msg)
	default:
		core.Log.Debug(l, "Ignoring TMF request for unhandled URI", "uri", msg.URI)
	}
}

// handleServerData processes a server data registration (n/sd): an
// optional RLOC16 TLV naming entries to remove, then an optional Thread
// Network Data TLV to register under the peer's locator.
func (l *Leader) handleServerData(msg *tmf.Message) {
	if !l.mle.IsLeader() || l.waitingForNetDataSync {
		return
	}

	core.Log.Info(l, "Received n/sd")

	if !tmf.IsRoutingLocator(msg.Peer) {
		return
	}

	rloc16, err := tmf.FindRloc16Tlv(msg.Payload)
	if err != nil {
		return
	}
	if r, ok := rloc16.Get(); ok {
		l.removeBorderRouter(r, defn.MatchModeRloc16)
	}

	value, found, err := tmf.FindNetworkDataTlv(msg.Payload)
	if err != nil {
		return
	}
	if found {
		l.registerNetworkData(tmf.Rloc16FromAddr(msg.Peer), NetworkDataFromBytes(value))
	}

	l.sender.SendEmptyAck(msg)
	core.Log.Info(l, "Sent n/sd ack")
}

// handleCommissionerSet processes MGMT_COMMISSIONER_SET (c/cs) and
// replies with a State TLV.
func (l *Leader) handleCommissionerSet(msg *tmf.Message) {
	state := meshcop.StateReject

	if l.mle.IsLeader() && !l.waitingForNetDataSync {
		state = l.processCommissionerSet(msg.Payload)
	}

	if l.mle.IsLeader() {
		l.sender.SendResponse(msg, meshcop.StateTlvBytes(state))
		core.Log.Info(l, "Sent c/cs response", "state", state)
	}
}

func (l *Leader) processCommissionerSet(payload []byte) meshcop.State {
	if len(payload) > MaxSize {
		return meshcop.StateReject
	}

	scratch := make([]byte, len(payload), MaxSize)
	copy(scratch, payload)

	// Session ID must be present and Border Agent Locator must not;
	// unexpected or unknown TLVs are accepted as long as at least one
	// valid TLV is included.
	var sessionID uint16
	hasSessionID := false
	hasValidTlv := false

	for off := 0; off < len(scratch); {
		typ, value, next, err := meshcop.Next(scratch, off)
		if err != nil {
			return meshcop.StateReject
		}

		switch typ {
		case meshcop.TypeJoinerUDPPort, meshcop.TypeSteeringData:
			hasValidTlv = true
		case meshcop.TypeBorderAgentLocator:
			return meshcop.StateReject
		case meshcop.TypeCommissionerSessionID:
			id, ok := meshcop.SessionIDFromValue(value)
			if !ok {
				return meshcop.StateReject
			}
			sessionID = id
			hasSessionID = true
		}

		off = next
	}

	if !hasSessionID || !hasValidTlv {
		return meshcop.StateReject
	}

	// The provided session ID must match the stored one, and a stored
	// Border Agent Locator is carried over to the new dataset.
	stored := l.commissioningData()

	for off := 0; off < len(stored); {
		typ, value, next, err := meshcop.Next(stored, off)
		if err != nil {
			return meshcop.StateReject
		}

		switch typ {
		case meshcop.TypeCommissionerSessionID:
			id, ok := meshcop.SessionIDFromValue(value)
			if !ok || id != sessionID {
				return meshcop.StateReject
			}
		case meshcop.TypeBorderAgentLocator:
			if len(scratch)+(next-off) > MaxSize {
				return meshcop.StateReject
			}
			scratch = append(scratch, stored[off:next]...)
		}

		off = next
	}

	if l.setCommissioningData(scratch) != nil {
		return meshcop.StateReject
	}

	return meshcop.StateAccept
}

// handleCommissionerGet processes MGMT_COMMISSIONER_GET (c/cg),
// replying with the requested TLVs from the stored Commissioning Data.
func (l *Leader) handleCommissionerGet(msg *tmf.Message) {
	var types []byte

	if l.mle.IsLeader() && !l.waitingForNetDataSync {
		if value, ok := meshcop.FindTlvValue(msg.Payload, meshcop.TypeGet); ok {
			types = value
		}
	}

	if !l.mle.IsLeader() {
		return
	}

	payload, err := l.commissioningGetResponse(types)
	if err != nil {
		core.Log.Debug(l, "Dropped c/cg response", "err", err)
		return
	}

	l.sender.SendResponse(msg, payload)
	core.Log.Info(l, "Sent c/cg response")
}

// commissioningGetResponse catenates the requested TLV types (all of
// them when types is empty) from the stored Commissioning Data. It
// fails with ErrDrop when no Commissioning Data exists.
func (l *Leader) commissioningGetResponse(types []byte) ([]byte, error) {
	data := l.commissioningData()
	if len(data) == 0 {
		return nil, ErrDrop
	}

	if len(types) == 0 {
		return bytes.Clone(data), nil
	}

	payload := make([]byte, 0, len(data))
	for _, typ := range types {
		if t, ok := meshcop.FindTlv(data, meshcop.Type(typ)); ok {
			payload = append(payload, t...)
		}
	}

	return payload, nil
}
