package cmd

import (
	"github.com/spf13/cobra"
)

var dbShow = &cobra.Command{
	Use:   "show",
	Short: "Show the local database server",
	Run: func(cmd *cobra.Command, args []string) {
		u, err := cfg.LocalServerURL()
		if err != nil {
			wrapFatalln("show", err)
			return
		}
		logStdOut("Using local server at %q\n", redactURL(u))
	},
}

func init() {
	dbCmd.AddCommand(dbShow)
}
