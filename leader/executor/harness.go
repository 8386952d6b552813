/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"github.com/thread-mesh/tnd/leader/core"
)

// StaticRouterTable is the standalone stand-in for the MLE router
// table: the allocated router ID set comes from configuration.
type StaticRouterTable struct {
	allocated map[uint8]bool
}

func NewStaticRouterTable(routerIDs []uint8) *StaticRouterTable {
	t := &StaticRouterTable{allocated: make(map[uint8]bool, len(routerIDs))}
	for _, id := range routerIDs {
		t.allocated[id] = true
	}
	return t
}

func (t *StaticRouterTable) IsAllocated(routerID uint8) bool {
	return t.allocated[routerID]
}

// staticMle acts as the MLE layer of a standalone leader instance.
type staticMle struct {
	rloc16   uint16
	detached bool
}

func (m *staticMle) String() string {
	return "mle"
}

func (m *staticMle) IsLeader() bool {
	return !m.detached
}

func (m *staticMle) Rloc16() uint16 {
	return m.rloc16
}

func (m *staticMle) BecomeDetached() {
	m.detached = true
	core.Log.Warn(m, "Detached from leader role")
}

// logNotifier reports leader events to the log in place of a mesh-wide
// notifier.
type logNotifier struct{}

func (n logNotifier) String() string {
	return "notifier"
}

func (n logNotifier) SignalNetDataChanged() {
	core.Log.Info(n, "Network Data changed")
}

func (n logNotifier) SignalNetworkDataFull() {
	core.Log.Warn(n, "Network Data full")
}
