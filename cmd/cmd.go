package cmd

import (
	"github.com/named-data/impatience/std/utils"
	"github.com/named-data/impatience/tools"
	"github.com/spf13/cobra"
)

const banner = `
  _                       _   _
 (_)_ __ ___  _ __   __ _| |_(_) ___ _ __   ___ ___
 | | '_ ' _ \| '_ \ / _' | __| |/ _ \ '_ \ / __/ _ \
 | | | | | | | |_) | (_| | |_| |  __/ | | | (_|  __/
 |_|_| |_| |_| .__/ \__,_|\__|_|\___|_| |_|\___\___|
             |_|

Lock-free atomic cells
`

var CmdImpatience = &cobra.Command{
	Use:     "impatience",
	Short:   "Lock-free atomic cells",
	Long:    banner[1:],
	Version: utils.Version,
}

func init() {
	cobra.EnableCommandSorting = false
	CmdImpatience.Root().CompletionOptions.HiddenDefaultCmd = true
	CmdImpatience.PersistentFlags().BoolP("help", "h", false, "Print usage")
	CmdImpatience.PersistentFlags().Lookup("help").Hidden = true

	CmdImpatience.AddGroup(&cobra.Group{ID: "tools", Title: "Verification Tools"})
	CmdImpatience.AddCommand(tools.CmdStress())
	CmdImpatience.AddCommand(tools.CmdInterleave())
}
