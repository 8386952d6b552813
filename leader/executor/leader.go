/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package executor

import (
	"time"

	"github.com/thread-mesh/tnd/leader/core"
	"github.com/thread-mesh/tnd/leader/defn"
	"github.com/thread-mesh/tnd/leader/netdata"
)

// LeaderDaemon is the wrapper class for a standalone Thread Network
// Data leader instance. The message transport stays external; the
// daemon exists to run and observe the data plane.
// Note: only one instance of this class should be created.
type LeaderDaemon struct {
	config *core.Config
	leader *netdata.Leader
	timer  *CallbackTimer
}

// NewLeaderDaemon creates a LeaderDaemon. Don't call this function twice.
func NewLeaderDaemon(config *core.Config) *LeaderDaemon {
	// Provide global configuration.
	core.C = config

	core.OpenLogger()

	d := &LeaderDaemon{config: config}

	d.timer = NewCallbackTimer(func() {
		d.leader.HandleTimer()
	})

	d.leader = netdata.NewLeader(netdata.Deps{
		RouterTable:           NewStaticRouterTable(config.Leader.Routers),
		Mle:                   &staticMle{rloc16: config.Leader.Rloc16},
		Notifier:              logNotifier{},
		Timer:                 d.timer,
		ContextReuseDelay:     time.Duration(config.Leader.ContextReuseDelay) * time.Second,
		MaxNetDataSyncWait:    time.Duration(config.Leader.MaxNetDataSyncWait) * time.Second,
		SignalNetworkDataFull: config.Leader.SignalNetworkDataFull,
	})

	return d
}

func (d *LeaderDaemon) String() string {
	return "leaderd"
}

// Leader returns the leader instance for integration with a transport.
func (d *LeaderDaemon) Leader() *netdata.Leader {
	return d.leader
}

// Start runs the leader. This function is non-blocking.
func (d *LeaderDaemon) Start() {
	core.Log.Info(d, "Starting Network Data leader")

	mode := defn.LeaderStartFresh
	if d.config.Leader.RestoreAfterReset {
		mode = defn.LeaderStartRestoringAfterReset
	}
	d.leader.Start(mode)
}

// Stop shuts the leader down.
func (d *LeaderDaemon) Stop() {
	core.Log.Info(d, "Stopping Network Data leader")

	d.timer.Stop()
	core.CloseLogger()
}
