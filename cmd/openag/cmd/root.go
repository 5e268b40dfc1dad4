// Copyright © 2018 One Concern

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/config"
	"github.com/openag/openag-go/pkg/couch"
	"github.com/openag/openag-go/pkg/dlogger"
	"github.com/openag/openag-go/pkg/metrics"
	"github.com/openag/openag-go/pkg/serverconfig"
	"github.com/openag/openag-go/pkg/storage/resolver"
	"github.com/openag/openag-go/pkg/vcs"
	"github.com/openag/openag-go/pkg/vcs/git"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "openag",
	Short: "openag manages the CouchDB server of an OpenAg farm",
	Long: `openag manages the CouchDB server of an OpenAg farm.

It configures the server, creates the databases used by the platform and their design documents,
declares replications with a cloud server, loads fixtures, and refreshes firmware module types
from the git repositories they are published in.
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		logger, err = dlogger.GetLogger(openagFlags.root.logLevel, openagFlags.root.logFile)
		if err != nil {
			wrapFatalln("failed to set log level", err)
			return
		}
		counters = metrics.New()
	},
	// upstream api note:  *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := flushMetrics(context.Background()); err != nil {
			wrapFatalln("failed to write metrics", err)
			return
		}
		_ = logger.Sync()
	},
}

var (
	// settings loaded at start up, and the store they come from
	cfg      *config.Config
	cfgStore *config.Store

	logger   = zap.NewNop()
	counters *metrics.Metrics

	// stdin is read by confirmation prompts and "-" fixtures. Patched in tests.
	stdin io.Reader = os.Stdin

	// used to patch over the server and git implementations during test
	newServer = func(url string, l *zap.Logger) (couch.Server, error) {
		return couch.New(url, couch.Logger(l))
	}
	newCloner = func(l *zap.Logger) vcs.Cloner {
		return git.New(git.Logger(l))
	}
	configPause = serverconfig.DefaultPause
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	addLogLevel(rootCmd)
	addLogFile(rootCmd)
	addMetricsFile(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfgStore = config.New(config.DefaultLocation())
	var err error
	cfg, err = cfgStore.Load()
	if err != nil {
		wrapFatalln("failed to load configuration", err)
		return
	}
}

// commandContext is cancelled on SIGINT or SIGTERM
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// localServer connects to the local server recorded in the configuration
func localServer() (couch.Server, error) {
	u, err := cfg.LocalServerURL()
	if err != nil {
		return nil, err
	}
	return newServer(u, logger)
}

func flushMetrics(ctx context.Context) error {
	if openagFlags.root.metricsFile == "" || counters == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := counters.WriteText(&buf); err != nil {
		return err
	}
	return resolver.Write(ctx, openagFlags.root.metricsFile, &buf, resolver.Logger(logger), resolver.Stdio(stdin, os.Stdout))
}
