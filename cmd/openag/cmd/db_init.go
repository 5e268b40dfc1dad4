// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/config"
	"github.com/openag/openag-go/pkg/design"
	"github.com/openag/openag-go/pkg/model"
	"github.com/openag/openag-go/pkg/provision"
	"github.com/openag/openag-go/pkg/replication"
	"github.com/openag/openag-go/pkg/serverconfig"
)

var dbInit = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local database server",
	Long: `Configures the local CouchDB server, creates the databases of the platform
and pushes their design documents.

When a cloud server is configured (see "openag config set"), replications are declared:
global databases are pulled from the cloud, and per-farm databases are pushed to it
when a farm name is known.

The command may be run again safely: only what differs is written.
It fails if the local server was initialized with another url: run "openag db deinit" first.
`,
	Example: `% openag db init --db-url http://localhost:5984 --api-url http://localhost:5000`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()

		dbURL := openagFlags.db.url
		if current := cfg.LocalServer.URL; current != "" && current != dbURL {
			wrapFatalln("cannot initialize "+dbURL, config.ErrConfigurationConflict.Wrapf("configured with %s", current))
			return
		}

		server, err := newServer(dbURL, logger)
		if err != nil {
			wrapFatalln("connect to local server", err)
			return
		}
		defer server.Close()

		logger.Info("applying server configuration", zap.String("url", dbURL))
		applied, err := serverconfig.NewApplier(server,
			serverconfig.Logger(logger),
			serverconfig.Metrics(counters),
			serverconfig.Pause(configPause),
		).Apply(ctx, serverconfig.Generate(openagFlags.db.apiURL))
		if err != nil {
			wrapFatalln("configure local server", err)
			return
		}
		infoLogger.Printf("server configuration: %d written, %d unchanged", len(applied.Written), len(applied.Unchanged))

		p := provision.New(server, provision.Logger(logger), provision.Metrics(counters))
		created, err := p.EnsureDatabases(ctx, model.AllDatabases())
		if err != nil {
			wrapFatalln("create databases", err)
			return
		}
		infoLogger.Printf("databases: %d created, %d already present", len(created), len(model.AllDatabases())-len(created))

		tree := design.Embedded()
		if openagFlags.db.designPath != "" {
			tree = afero.NewBasePathFs(afero.NewOsFs(), openagFlags.db.designPath)
		}
		pushed, err := p.PushDesignDocuments(ctx, tree)
		if err != nil {
			wrapFatalln("push design documents", err)
			return
		}
		infoLogger.Printf("design documents: %d written", pushed)

		if cfg.CloudServer.URL != "" {
			declared, err := replication.Setup(ctx, server, replication.Options{
				LocalURL: dbURL,
				CloudURL: cfg.CloudServer.URL,
				FarmName: cfg.CloudServer.FarmName,
				Logger:   logger,
				Metrics:  counters,
			})
			if err != nil {
				wrapFatalln("declare replications", err)
				return
			}
			infoLogger.Printf("replications: %d declared", len(declared))
		}

		if err = cfg.SetLocalServer(dbURL); err != nil {
			wrapFatalln("record local server", err)
			return
		}
		if err = cfgStore.Save(cfg); err != nil {
			wrapFatalln("save configuration", err)
			return
		}
		infoLogger.Printf("local server initialized at %q", dbURL)
	},
}

func init() {
	addDBURLFlag(dbInit)
	addAPIURLFlag(dbInit)
	addDesignPathFlag(dbInit)

	dbCmd.AddCommand(dbInit)
}
