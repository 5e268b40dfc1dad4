package cmd

import (
	"github.com/spf13/cobra"
)

var dbDeinit = &cobra.Command{
	Use:   "deinit",
	Short: "Forget the local database server",
	Long: `Removes the local server from the configuration, so that "openag db init" may be run with another url.

The server itself and its databases are left untouched.
`,
	Run: func(cmd *cobra.Command, args []string) {
		u, err := cfg.LocalServerURL()
		if err != nil {
			wrapFatalln("deinit", err)
			return
		}
		cfg.ClearLocalServer()
		if err = cfgStore.Save(cfg); err != nil {
			wrapFatalln("save configuration", err)
			return
		}
		infoLogger.Printf("local server %q removed from configuration", u)
	},
}

func init() {
	dbCmd.AddCommand(dbDeinit)
}
