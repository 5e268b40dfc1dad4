package cmd

import (
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Commands to manage the local database server",
	Long: `Commands to manage the local CouchDB server of the farm.

The server must be initialized with "openag db init" before any other db command is used.
Its url is then recorded in the configuration file.
`,
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
