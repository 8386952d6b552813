package cmd

import (
	"github.com/spf13/cobra"
	leader "github.com/thread-mesh/tnd/leader/cmd"
	"github.com/thread-mesh/tnd/std/utils"
)

const banner = `
  _____ _   _ ____
 |_   _| \ | |  _ \
   | | |  \| | | | |
   | | | |\  | |_| |
   |_| |_| \_|____/

Thread Networking Daemon
`

var CmdTnd = &cobra.Command{
	Use:     "tnd",
	Short:   "Thread Networking Daemon",
	Long:    banner[1:],
	Version: utils.TndVersion,
}

func init() {
	cobra.EnableCommandSorting = false
	CmdTnd.Root().CompletionOptions.HiddenDefaultCmd = true
	CmdTnd.PersistentFlags().BoolP("help", "h", false, "Print usage")
	CmdTnd.PersistentFlags().Lookup("help").Hidden = true

	CmdTnd.AddGroup(&cobra.Group{ID: "daemons", Title: "Thread Daemons"})
	CmdTnd.AddCommand(leader.CmdLeader)
}
