package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openag/openag-go/pkg/model"
	"github.com/openag/openag-go/pkg/modsync"
)

var dbUpdateModuleTypes = &cobra.Command{
	Use:     "update_module_types",
	Aliases: []string{"update-module-types"},
	Short:   "Refresh firmware module types from their repositories",
	Long: `Refreshes the firmware module types stored on the local server.

For every module type that references a git repository, the repository is cloned
and its module.json manifest is merged into the record. Records are only written when they change.

A repository that cannot be cloned is skipped, unless --abort-on-clone-error is set.
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()

		server, err := localServer()
		if err != nil {
			wrapFatalln("update module types", err)
			return
		}
		defer server.Close()

		res, err := modsync.New(newCloner(logger),
			modsync.Logger(logger),
			modsync.Metrics(counters),
			modsync.AbortOnCloneError(openagFlags.modules.abortOnCloneError),
		).SynchronizeAll(ctx, server.DB(model.DBFirmwareModuleType))
		infoLogger.Printf("module types: %v", res)
		if err != nil {
			wrapFatalln("update module types", err)
			return
		}
	},
}

func init() {
	addAbortOnCloneErrorFlag(dbUpdateModuleTypes)

	dbCmd.AddCommand(dbUpdateModuleTypes)
}
