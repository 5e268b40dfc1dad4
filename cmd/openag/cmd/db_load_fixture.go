// Copyright © 2018 One Concern

package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/fixture"
	"github.com/openag/openag-go/pkg/storage/resolver"
)

var dbLoadFixture = &cobra.Command{
	Use:     "load_fixture <file>",
	Aliases: []string{"load-fixture"},
	Short:   "Load a fixture into the local server",
	Long: `Loads a fixture file into the local server.

A fixture is a JSON object mapping database names to arrays of records, each with an "_id".
Records are only written when their content differs from the stored copy, so a fixture may be loaded repeatedly.

The file may be a local path, "-" to read from stdin, s3://bucket/key or gs://bucket/key.
Loading stops at the first record that cannot be written.
`,
	Example: `% openag db load_fixture default.json
% openag db load_fixture gs://openag-fixtures/recipes.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()

		server, err := localServer()
		if err != nil {
			wrapFatalln("load fixture", err)
			return
		}
		defer server.Close()

		rdr, err := resolver.Open(ctx, args[0], resolver.Logger(logger), resolver.Stdio(stdin, os.Stdout))
		if err != nil {
			wrapFatalln("open fixture "+args[0], err)
			return
		}
		set, err := fixture.Parse(rdr)
		_ = rdr.Close()
		if err != nil {
			wrapFatalln("read fixture "+args[0], err)
			return
		}
		logger.Debug("fixture parsed", zap.String("file", args[0]), zap.Int("records", set.Len()))

		_, err = fixture.NewLoader(server,
			fixture.Logger(logger),
			fixture.Metrics(counters),
			fixture.OnProgress(func(p fixture.Progress) {
				infoLogger.Println(p)
			}),
		).Load(ctx, set)
		if err != nil {
			wrapFatalln("load fixture "+args[0], err)
			return
		}
	},
}

func init() {
	dbCmd.AddCommand(dbLoadFixture)
}
