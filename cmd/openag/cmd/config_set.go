package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openag/openag-go/pkg/config"
)

var configSet = &cobra.Command{
	Use:   "set",
	Short: "Set the cloud server to replicate with",
	Long: `Records the cloud server in the configuration file, creating it if needed.

Only the settings passed as flags are changed. The replications are declared on the next "openag db init".
`,
	Example: `% openag config set --cloud-url https://cloud.example.org:6984 --farm-name my-farm
config file updated in /home/farmer/.openag/config.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		if ext := filepath.Ext(cfgStore.File()); ext != ".yaml" && ext != ".yml" {
			infoLogger.Print(warn("warning: the config file will contain a yaml document, but the file extension is %q", ext))
		}

		_, err := cfgStore.Update(func(c *config.Config) error {
			if cmd.Flags().Changed(cloudURLFlag) {
				c.CloudServer.URL = openagFlags.cloud.url
			}
			if cmd.Flags().Changed(farmNameFlag) {
				c.CloudServer.FarmName = openagFlags.cloud.farmName
			}
			return nil
		})
		if err != nil {
			wrapFatalln("update configuration", err)
			return
		}
		infoLogger.Printf("config file updated in %s", cfgStore.File())
	},
}

var (
	cloudURLFlag string
	farmNameFlag string
)

func init() {
	cloudURLFlag = addCloudURLFlag(configSet)
	farmNameFlag = addFarmNameFlag(configSet)

	configCmd.AddCommand(configSet)
}
