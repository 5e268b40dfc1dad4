// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		logLevel    string
		logFile     string
		metricsFile string
		forceYes    bool
	}
	db struct {
		url        string
		apiURL     string
		designPath string
	}
	modules struct {
		abortOnCloneError bool
	}
	cloud struct {
		url      string
		farmName string
	}
	version struct {
		asJSON bool
	}
}

var openagFlags = flagsT{}

const defaultDBURL = "http://localhost:5984"

func addLogLevel(cmd *cobra.Command) string {
	loglevel := "loglevel"
	cmd.PersistentFlags().StringVar(&openagFlags.root.logLevel, loglevel, "info", "The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	return loglevel
}

func addLogFile(cmd *cobra.Command) string {
	logFile := "log-file"
	cmd.PersistentFlags().StringVar(&openagFlags.root.logFile, logFile, "", "Send logs to this file as JSON, rotated when it grows too large")
	return logFile
}

func addMetricsFile(cmd *cobra.Command) string {
	metricsFile := "metrics-file"
	cmd.PersistentFlags().StringVar(&openagFlags.root.metricsFile, metricsFile, "",
		"Write counters in the prometheus text format to this location when the command completes. "+
			"Accepts a local path, - for stdout, s3://bucket/key or gs://bucket/key")
	return metricsFile
}

func addForceYesFlag(cmd *cobra.Command) string {
	forceYes := "force-yes"
	cmd.Flags().BoolVar(&openagFlags.root.forceYes, forceYes, false, "Do not ask for confirmation")
	return forceYes
}

func addDBURLFlag(cmd *cobra.Command) string {
	dbURL := "db-url"
	cmd.Flags().StringVar(&openagFlags.db.url, dbURL, defaultDBURL, "The url of the local CouchDB server")
	return dbURL
}

func addAPIURLFlag(cmd *cobra.Command) string {
	apiURL := "api-url"
	cmd.Flags().StringVar(&openagFlags.db.apiURL, apiURL, "", "The url of the openag API server, proxied by CouchDB under /_openag")
	return apiURL
}

func addDesignPathFlag(cmd *cobra.Command) string {
	designPath := "design-path"
	cmd.Flags().StringVar(&openagFlags.db.designPath, designPath, "", "A folder of design documents to push instead of the bundled ones")
	return designPath
}

func addAbortOnCloneErrorFlag(cmd *cobra.Command) string {
	abort := "abort-on-clone-error"
	cmd.Flags().BoolVar(&openagFlags.modules.abortOnCloneError, abort, false, "Stop at the first repository that cannot be cloned, instead of skipping the module type")
	return abort
}

func addCloudURLFlag(cmd *cobra.Command) string {
	cloudURL := "cloud-url"
	cmd.Flags().StringVar(&openagFlags.cloud.url, cloudURL, "", "The url of the cloud server to replicate with")
	return cloudURL
}

func addFarmNameFlag(cmd *cobra.Command) string {
	farmName := "farm-name"
	cmd.Flags().StringVar(&openagFlags.cloud.farmName, farmName, "", "The name of the farm, used to namespace per-farm databases on the cloud server")
	return farmName
}

func addVersionJSONFlag(cmd *cobra.Command) string {
	asJSON := "json"
	cmd.Flags().BoolVar(&openagFlags.version.asJSON, asJSON, false, "Print the version as JSON")
	return asJSON
}
