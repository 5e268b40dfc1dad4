package cmd

import (
	"bufio"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openag/openag-go/pkg/model"
	"github.com/openag/openag-go/pkg/provision"
)

var warn = color.New(color.FgYellow, color.Bold).SprintfFunc()

var dbClear = &cobra.Command{
	Use:   "clear",
	Short: "Delete all databases of the local server",
	Long: `Deletes every database of the platform from the local server.

All records are lost. Run "openag db init" to recreate empty databases.
`,
	Example: `% openag db clear --force-yes`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()

		server, err := localServer()
		if err != nil {
			wrapFatalln("clear", err)
			return
		}
		defer server.Close()

		if !openagFlags.root.forceYes && !userConfirm("delete all databases of "+server.URL()) {
			wrapFatalln("user aborted", nil)
			return
		}

		deleted, err := provision.New(server, provision.Logger(logger), provision.Metrics(counters)).
			ClearDatabases(ctx, model.AllDatabases())
		if err != nil {
			wrapFatalln("clear databases", err)
			return
		}
		infoLogger.Printf("%d databases deleted", len(deleted))
	},
}

// userConfirm asks a yes/no question on stdin
func userConfirm(action string) bool {
	infoLogger.Print(warn("Are you sure you want to %s? This cannot be undone [y|n]", action))
	scanner := bufio.NewScanner(stdin)
	if !scanner.Scan() {
		return false
	}
	yesno := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return yesno == "y" || yesno == "yes"
}

func init() {
	addForceYesFlag(dbClear)

	dbCmd.AddCommand(dbClear)
}
