package main

import (
	"os"

	"github.com/named-data/impatience/cmd"
)

func main() {
	if err := cmd.CmdImpatience.Execute(); err != nil {
		os.Exit(1)
	}
}
