// Package replication sets up continuous replication between a local server and the cloud server.
//
// Global databases are pulled from the cloud. Per-farm databases are pushed
// to the cloud, into databases namespaced by the farm name.
//
// Replications are declared as documents of the _replicator database with
// stable ids, so that setting them up again does not start duplicate jobs.
package replication

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/couch"
	"github.com/openag/openag-go/pkg/metrics"
	"github.com/openag/openag-go/pkg/model"
)

// ReplicatorDB holds replication documents
const ReplicatorDB = "_replicator"

const idPrefix = "openag_"

// Options for a replication setup
type Options struct {
	LocalURL string
	CloudURL string
	FarmName string // per-farm databases are replicated only when set

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Pull replication of a global database from the cloud
func Pull(localURL, cloudURL, database string) model.Record {
	return model.Record{
		model.FieldID: idPrefix + "pull_" + database,
		"source":      dbURL(cloudURL, database),
		"target":      dbURL(localURL, database),
		"continuous":  true,
	}
}

// Push replication of a per-farm database to the cloud, into <farm>/<database>
func Push(localURL, cloudURL, farmName, database string) model.Record {
	return model.Record{
		model.FieldID:   idPrefix + "push_" + farmName + "_" + database,
		"source":        dbURL(localURL, database),
		"target":        dbURL(cloudURL, farmName+"/"+database),
		"continuous":    true,
		"create_target": true,
	}
}

func dbURL(serverURL, database string) string {
	return strings.TrimRight(serverURL, "/") + "/" + url.PathEscape(database)
}

// Setup declares the replications on the server, which must be the local server
func Setup(ctx context.Context, server couch.Server, opts Options) ([]string, error) {
	if opts.CloudURL == "" {
		return nil, fmt.Errorf("replication requires a cloud server url")
	}
	if opts.LocalURL == "" {
		opts.LocalURL = server.URL()
	}
	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}

	if _, err := server.EnsureDB(ctx, ReplicatorDB); err != nil {
		return nil, fmt.Errorf("create database %s: %w", ReplicatorDB, err)
	}

	docs := make([]model.Record, 0, len(model.GlobalDatabases())+len(model.PerFarmDatabases()))
	for _, database := range model.GlobalDatabases() {
		docs = append(docs, Pull(opts.LocalURL, opts.CloudURL, database))
	}
	if opts.FarmName != "" {
		for _, database := range model.PerFarmDatabases() {
			docs = append(docs, Push(opts.LocalURL, opts.CloudURL, opts.FarmName, database))
		}
	}

	db := server.DB(ReplicatorDB)
	var written []string
	for _, doc := range docs {
		ok, err := couch.Upsert(ctx, db, doc)
		if err != nil {
			opts.Metrics.Failed(metrics.OpReplication, ReplicatorDB)
			return written, fmt.Errorf("declare replication %s: %w", doc.ID(), err)
		}
		if !ok {
			opts.Metrics.Unchanged(metrics.OpReplication, ReplicatorDB)
			continue
		}
		opts.Metrics.Written(metrics.OpReplication, ReplicatorDB)
		l.Info("replication declared",
			zap.String("id", doc.ID()),
			zap.String("source", redact(doc["source"])),
			zap.String("target", redact(doc["target"])),
		)
		written = append(written, doc.ID())
	}
	return written, nil
}

// redact strips credentials from a replication endpoint before logging it
func redact(endpoint interface{}) string {
	s, _ := endpoint.(string)
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	return u.Redacted()
}
