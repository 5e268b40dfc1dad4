// Package provision creates and removes the databases of the platform on a server.
package provision

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/couch"
	"github.com/openag/openag-go/pkg/couch/status"
	"github.com/openag/openag-go/pkg/design"
	"github.com/openag/openag-go/pkg/errors"
	"github.com/openag/openag-go/pkg/metrics"
	"github.com/openag/openag-go/pkg/model"
)

// Option is a functor to pass optional parameters to the provisioner
type Option func(*Provisioner)

// Logger specifies a logger for the provisioner
func Logger(logger *zap.Logger) Option {
	return func(p *Provisioner) {
		if logger != nil {
			p.l = logger
		}
	}
}

// Metrics collects counters about created databases and written design documents
func Metrics(m *metrics.Metrics) Option {
	return func(p *Provisioner) {
		p.m = m
	}
}

// Provisioner manages the databases of a server
type Provisioner struct {
	server couch.Server
	l      *zap.Logger
	m      *metrics.Metrics
}

// New provisioner for server
func New(server couch.Server, opts ...Option) *Provisioner {
	p := &Provisioner{
		server: server,
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(p)
	}
	return p
}

// EnsureDatabases creates the databases which do not exist yet, and returns their names
func (p *Provisioner) EnsureDatabases(ctx context.Context, names []string) ([]string, error) {
	var created []string
	for _, name := range names {
		ok, err := p.server.EnsureDB(ctx, name)
		if err != nil {
			return created, fmt.Errorf("create database %s: %w", name, err)
		}
		if ok {
			p.l.Info("database created", zap.String("database", name))
			p.m.DatabaseCreated()
			created = append(created, name)
		}
	}
	return created, nil
}

// PushDesignDocuments stores the design documents found in tree into their databases.
//
// Documents already stored with the same content are not written again.
// It returns the number of documents written.
func (p *Provisioner) PushDesignDocuments(ctx context.Context, tree afero.Fs) (int, error) {
	docs, err := design.Load(tree)
	if err != nil {
		return 0, err
	}
	var written int
	for _, name := range sortedKeys(docs) {
		db := p.server.DB(name)
		for _, doc := range docs[name] {
			ok, err := couch.Upsert(ctx, db, doc)
			if err != nil {
				p.m.Failed(metrics.OpDesign, name)
				return written, fmt.Errorf("push design document %s/%s: %w", name, doc.ID(), err)
			}
			if !ok {
				p.m.Unchanged(metrics.OpDesign, name)
				continue
			}
			written++
			p.m.Written(metrics.OpDesign, name)
			p.l.Info("design document pushed", zap.String("database", name), zap.String("id", doc.ID()))
		}
	}
	return written, nil
}

// ClearDatabases deletes the databases. Databases which do not exist are ignored.
func (p *Provisioner) ClearDatabases(ctx context.Context, names []string) ([]string, error) {
	var deleted []string
	for _, name := range names {
		err := p.server.DestroyDB(ctx, name)
		if errors.Is(err, status.ErrNotFound) {
			p.l.Debug("database already absent", zap.String("database", name))
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("delete database %s: %w", name, err)
		}
		p.l.Info("database deleted", zap.String("database", name))
		deleted = append(deleted, name)
	}
	return deleted, nil
}

func sortedKeys(m map[string][]model.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
