package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the configuration of the CLI",
	Long: `Commands to manage the configuration file of the CLI.

By default the configuration is held in $HOME/.openag/config.yaml.
Use the OPENAG_CONFIG environment variable to pick another file.

Every setting may be overridden by an environment variable, e.g. OPENAG_CLOUD_SERVER_URL.
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
