// Package metrics collects counters about the writes issued to the database server.
//
// Counters are registered on a dedicated prometheus registry, which the CLI
// may dump in the text exposition format at exit. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "openag"

// Operations label the component that issued a write
const (
	OpFixture     = "fixture"
	OpSync        = "sync"
	OpDesign      = "design"
	OpReplication = "replication"
)

// Metrics holds the counters of a CLI run
type Metrics struct {
	registry *prometheus.Registry

	written      *prometheus.CounterVec
	unchanged    *prometheus.CounterVec
	failed       *prometheus.CounterVec
	configWrites *prometheus.CounterVec
	created      prometheus.Counter
}

// New set of counters, registered on a new registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records written to the database server.",
		}, []string{"operation", "database"}),
		unchanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_unchanged_total",
			Help:      "Records left untouched because their content did not change.",
		}, []string{"operation", "database"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_failed_total",
			Help:      "Records that could not be processed.",
		}, []string{"operation", "database"}),
		configWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_writes_total",
			Help:      "Server configuration parameters written.",
		}, []string{"section", "outcome"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "databases_created_total",
			Help:      "Databases created on the server.",
		}),
	}
	m.registry.MustRegister(m.written, m.unchanged, m.failed, m.configWrites, m.created)
	return m
}

// Registry holding the counters
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Written counts a record written by an operation
func (m *Metrics) Written(op, database string) {
	if m == nil {
		return
	}
	m.written.WithLabelValues(op, database).Inc()
}

// Unchanged counts a record skipped by an operation because its content is already stored
func (m *Metrics) Unchanged(op, database string) {
	if m == nil {
		return
	}
	m.unchanged.WithLabelValues(op, database).Inc()
}

// Failed counts a record that an operation could not process
func (m *Metrics) Failed(op, database string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(op, database).Inc()
}

// ConfigWrite counts a configuration write attempt
func (m *Metrics) ConfigWrite(section string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.configWrites.WithLabelValues(section, outcome).Inc()
}

// DatabaseCreated counts a database creation
func (m *Metrics) DatabaseCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

// WriteText dumps the counters in the prometheus text exposition format,
// e.g. for the node_exporter textfile collector
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return err
		}
	}
	return nil
}
