/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thread-mesh/tnd/leader/core"
	"github.com/thread-mesh/tnd/leader/executor"
	"github.com/thread-mesh/tnd/std/utils"
	"github.com/thread-mesh/tnd/std/utils/toolutils"
)

var config = core.DefaultConfig()

var CmdLeader = &cobra.Command{
	Use:     "leader CONFIG-FILE",
	Short:   "Thread Network Data Leader",
	GroupID: "daemons",
	Version: utils.TndVersion,
	Args:    cobra.ExactArgs(1),
	Run:     run,
}

func run(cmd *cobra.Command, args []string) {
	configfile := args[0]
	config.Core.BaseDir = filepath.Dir(configfile)

	// read configuration file
	toolutils.ReadYaml(config, configfile)

	// create leader instance
	daemon := executor.NewLeaderDaemon(config)
	daemon.Start()

	// set up signal handler channel and wait for interrupt
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)
	receivedSig := <-sigChannel
	core.Log.Info(daemon, "Received signal - exit", "signal", receivedSig)

	daemon.Stop()
}
