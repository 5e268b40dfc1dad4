package cmd

import (
	"net/url"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/openag/openag-go/pkg/config"
)

var configShow = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Long: `Shows the settings in use, after environment overrides are applied.

Credentials embedded in server urls are not displayed.
`,
	Run: func(cmd *cobra.Command, args []string) {
		table := uitable.New()
		table.MaxColWidth = 80
		table.AddRow("SETTING", "VALUE")
		table.AddRow("config file", cfgStore.File())
		table.AddRow(config.KeyLocalServerURL, redactURL(cfg.LocalServer.URL))
		table.AddRow(config.KeyCloudServerURL, redactURL(cfg.CloudServer.URL))
		table.AddRow(config.KeyFarmName, cfg.CloudServer.FarmName)
		logStdOut("%s\n", table)
	},
}

func init() {
	configCmd.AddCommand(configShow)
}

// redactURL masks the password of a url
func redactURL(s string) string {
	u, err := url.Parse(s)
	if err != nil || s == "" {
		return s
	}
	return u.Redacted()
}
