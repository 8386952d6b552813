package main

import (
	"os"

	"github.com/thread-mesh/tnd/cmd"
)

func main() {
	if err := cmd.CmdTnd.Execute(); err != nil {
		os.Exit(1)
	}
}
