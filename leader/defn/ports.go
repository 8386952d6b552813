/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

import "time"

// RouterTable reports which router IDs are currently allocated. It is
// owned by the MLE layer; the leader only consults it.
type RouterTable interface {
	IsAllocated(routerID uint8) bool
}

// MleRouter is the slice of the MLE layer the leader depends on.
type MleRouter interface {
	IsLeader() bool
	Rloc16() uint16
	BecomeDetached()
}

// Notifier delivers leader events to the rest of the stack.
type Notifier interface {
	SignalNetDataChanged()
	SignalNetworkDataFull()
}

// Timer is a single-shot timer whose callback re-enters the leader
// through HandleTimer.
type Timer interface {
	Start(d time.Duration)
	FireAt(t time.Time)
	// FireAtIfEarlier arms the timer at t unless it is already armed
	// for an earlier deadline.
	FireAtIfEarlier(t time.Time)
	Stop()
}

// LeaderStartMode selects how the leader role was acquired.
type LeaderStartMode int

const (
	// LeaderStartFresh indicates a newly elected leader with no prior state.
	LeaderStartFresh LeaderStartMode = iota
	// LeaderStartRestoringAfterReset indicates the device is restoring
	// its leader role after a reset and must wait for Network Data sync.
	LeaderStartRestoringAfterReset
)
