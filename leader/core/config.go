/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"path/filepath"
)

// Global initial configuration of the leader daemon.
// This configuration is IMMUTABLE. Do not modify it.
var C = DefaultConfig()

// Config represents the configuration of the leader daemon.
type Config struct {
	Core struct {
		// Logging level
		LogLevel string `json:"log_level"`
		// Output log to file
		LogFile string `json:"log_file"`

		// Config file base dir
		BaseDir string `json:"-"`
	} `json:"core"`

	Leader struct {
		// RLOC16 of this device
		Rloc16 uint16 `json:"rloc16"`
		// Router IDs considered allocated by the standalone router table
		Routers []uint8 `json:"routers"`
		// Restore the leader role after a reset instead of starting fresh
		RestoreAfterReset bool `json:"restore_after_reset"`

		// Delay before a released 6LoWPAN context ID may be reused (in seconds)
		ContextReuseDelay uint32 `json:"context_reuse_delay"`
		// How long to wait for Network Data after a leader reset (in seconds)
		MaxNetDataSyncWait uint32 `json:"max_netdata_sync_wait"`
		// Signal the notifier when a registration no longer fits
		SignalNetworkDataFull bool `json:"signal_network_data_full"`
	} `json:"leader"`
}

func DefaultConfig() *Config {
	c := &Config{}
	c.Core.LogLevel = "INFO"
	c.Core.LogFile = ""
	c.Core.BaseDir = ""

	c.Leader.Rloc16 = 0x0000
	c.Leader.Routers = []uint8{}
	c.Leader.RestoreAfterReset = false

	c.Leader.ContextReuseDelay = 300
	c.Leader.MaxNetDataSyncWait = 60
	c.Leader.SignalNetworkDataFull = false

	return c
}

// ResolveRelPath resolves a possibly relative path based on config file path.
func (c *Config) ResolveRelPath(target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(c.Core.BaseDir, target)
}
