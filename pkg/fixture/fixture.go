// Package fixture loads sets of records into databases.
//
// A fixture is a JSON object mapping database names to arrays of records:
//
//	{
//	  "recipe": [
//	    {"_id": "basil", "name": "Basil", "operations": []}
//	  ]
//	}
//
// Loading a fixture is idempotent: records already stored with the same content are left untouched.
package fixture

import (
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/couch"
	"github.com/openag/openag-go/pkg/errors"
	"github.com/openag/openag-go/pkg/metrics"
	"github.com/openag/openag-go/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidFixture indicates a fixture document that does not map database names to arrays of records
var ErrInvalidFixture = errors.New("invalid fixture")

// Parse a fixture document. The document must hold a single JSON value.
func Parse(r io.Reader) (model.FixtureSet, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, ErrInvalidFixture.Wrap(err)
	}
	if raw == nil {
		return nil, ErrInvalidFixture.Wrapf("expected an object mapping database names to records")
	}

	set := make(model.FixtureSet, len(raw))
	for database, content := range raw {
		if database == "" {
			return nil, ErrInvalidFixture.Wrapf("empty database name")
		}
		var items []interface{}
		if err := json.Unmarshal(content, &items); err != nil {
			return nil, ErrInvalidFixture.Wrapf("%s: expected an array of records: %v", database, err)
		}
		records := make([]model.Record, 0, len(items))
		for i, item := range items {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, ErrInvalidFixture.Wrapf("%s[%d]: expected an object, got %T", database, i, item)
			}
			record := model.Record(obj)
			if _, isString := record[model.FieldID].(string); !isString || record.ID() == "" {
				return nil, ErrInvalidFixture.Wrapf("%s[%d]: missing %s", database, i, model.FieldID)
			}
			records = append(records, record)
		}
		set[database] = records
	}
	return set, nil
}

// Progress of a fixture load, for one database
type Progress struct {
	Database  string
	Processed int
	Written   int
	Unchanged int
}

func (p Progress) String() string {
	return fmt.Sprintf("%s: %d records, %d written, %d unchanged", p.Database, p.Processed, p.Written, p.Unchanged)
}

// Option is a functor to pass optional parameters to the loader
type Option func(*Loader)

// Logger specifies a logger for the loader
func Logger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.l = logger
		}
	}
}

// Metrics collects counters about the records written
func Metrics(m *metrics.Metrics) Option {
	return func(l *Loader) {
		l.m = m
	}
}

// OnProgress registers a callback invoked when a database is done
func OnProgress(fn func(Progress)) Option {
	return func(l *Loader) {
		l.progress = fn
	}
}

// Loader writes fixtures to a server
type Loader struct {
	server   couch.Server
	l        *zap.Logger
	m        *metrics.Metrics
	progress func(Progress)
}

// NewLoader for fixtures, writing to server
func NewLoader(server couch.Server, opts ...Option) *Loader {
	l := &Loader{
		server:   server,
		l:        zap.NewNop(),
		progress: func(Progress) {},
	}
	for _, apply := range opts {
		apply(l)
	}
	return l
}

// Load the fixture, database by database in name order and records in document order.
//
// Databases must exist. The first error stops the load: records stored before the error are kept.
func (l *Loader) Load(ctx context.Context, set model.FixtureSet) ([]Progress, error) {
	report := make([]Progress, 0, len(set))
	for _, database := range set.Databases() {
		db := l.server.DB(database)
		progress := Progress{Database: database}

		for _, record := range set[database] {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			written, err := couch.Upsert(ctx, db, record)
			if err != nil {
				l.m.Failed(metrics.OpFixture, database)
				return report, fmt.Errorf("load %s/%s: %w", database, record.ID(), err)
			}
			progress.Processed++
			if written {
				progress.Written++
				l.m.Written(metrics.OpFixture, database)
				l.l.Debug("record written", zap.String("database", database), zap.String("id", record.ID()))
			} else {
				progress.Unchanged++
				l.m.Unchanged(metrics.OpFixture, database)
			}
		}

		l.l.Info("fixture loaded",
			zap.String("database", database),
			zap.Int("written", progress.Written),
			zap.Int("unchanged", progress.Unchanged),
		)
		report = append(report, progress)
		l.progress(progress)
	}
	return report, nil
}
