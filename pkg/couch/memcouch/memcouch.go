// Package memcouch implements an in-memory couch.Server.
//
// It follows the CouchDB rules that matter to the tooling: revision tokens
// are checked on every write, missing databases and documents are reported as
// not found, and configuration values are plain strings. Every write is
// counted, so tests can assert that nothing was written.
package memcouch

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/blake2b"

	"github.com/openag/openag-go/pkg/couch"
	"github.com/openag/openag-go/pkg/couch/status"
	"github.com/openag/openag-go/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// type safeguard
var _ couch.Server = &Server{}

// Server is an in-memory CouchDB server
type Server struct {
	mu        sync.Mutex
	url       string
	config    map[string]string
	dbs       map[string]map[string][]byte
	failures  map[string]error
	puts      map[string]int
	cfgWrites int
	closed    bool
}

// New in-memory server, with the given databases created
func New(databases ...string) *Server {
	s := &Server{
		url:      "http://memcouch:5984",
		config:   make(map[string]string),
		dbs:      make(map[string]map[string][]byte),
		failures: make(map[string]error),
		puts:     make(map[string]int),
	}
	for _, name := range databases {
		s.dbs[name] = make(map[string][]byte)
	}
	return s
}

// WithURL sets the URL reported by the server
func (s *Server) WithURL(u string) *Server {
	s.url = u
	return s
}

// FailPut makes every write to database/id fail with err
func (s *Server) FailPut(database, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures["put:"+database+"/"+id] = err
}

// FailConfig makes every write of section/key fail with err
func (s *Server) FailConfig(section, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures["config:"+section+"/"+key] = err
}

// Writes is the number of successful document writes on a database
func (s *Server) Writes(database string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[database]
}

// TotalWrites is the number of successful document writes on all databases
func (s *Server) TotalWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, c := range s.puts {
		n += c
	}
	return n
}

// ConfigWrites is the number of successful configuration writes
func (s *Server) ConfigWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfgWrites
}

// Databases lists existing databases, sorted
func (s *Server) Databases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.dbs))
	for name := range s.dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Closed tells if Close was called
func (s *Server) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// URL of the server
func (s *Server) URL() string {
	return s.url
}

// ConfigValue returns a configuration value
func (s *Server) ConfigValue(_ context.Context, section, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.config[section+"/"+key]
	if !ok {
		return "", status.ErrNotFound.Wrapf("config %s/%s", section, key)
	}
	return v, nil
}

// SetConfigValue sets a configuration value
func (s *Server) SetConfigValue(_ context.Context, section, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["config:"+section+"/"+key]; err != nil {
		return err
	}
	s.config[section+"/"+key] = value
	s.cfgWrites++
	return nil
}

// EnsureDB creates a database if it does not exist
func (s *Server) EnsureDB(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dbs[name]; ok {
		return false, nil
	}
	s.dbs[name] = make(map[string][]byte)
	return true, nil
}

// DestroyDB deletes a database
func (s *Server) DestroyDB(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dbs[name]; !ok {
		return status.ErrNotFound.Wrapf("database %s", name)
	}
	delete(s.dbs, name)
	return nil
}

// DB returns a handle on a database. The database does not need to exist.
func (s *Server) DB(name string) couch.Database {
	return &database{s: s, name: name}
}

// Close the server
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type database struct {
	s    *Server
	name string
}

func (d *database) Name() string {
	return d.name
}

func (d *database) docs() (map[string][]byte, error) {
	docs, ok := d.s.dbs[d.name]
	if !ok {
		return nil, status.ErrNotFound.Wrapf("database %s", d.name)
	}
	return docs, nil
}

func (d *database) Has(_ context.Context, id string) (bool, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	docs, err := d.docs()
	if err != nil {
		return false, err
	}
	_, ok := docs[id]
	return ok, nil
}

func (d *database) Get(_ context.Context, id string) (model.Record, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	docs, err := d.docs()
	if err != nil {
		return nil, err
	}
	b, ok := docs[id]
	if !ok {
		return nil, status.ErrNotFound.Wrapf("document %s/%s", d.name, id)
	}
	var record model.Record
	if err := json.Unmarshal(b, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (d *database) Put(_ context.Context, id string, record model.Record) (string, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	docs, err := d.docs()
	if err != nil {
		return "", err
	}
	if err := d.s.failures["put:"+d.name+"/"+id]; err != nil {
		return "", err
	}

	var current string
	if b, ok := docs[id]; ok {
		var stored model.Record
		if err := json.Unmarshal(b, &stored); err != nil {
			return "", err
		}
		current = stored.Rev()
	}
	if record.Rev() != current {
		return "", status.ErrConflict.Wrapf("document %s/%s: revision %q, expected %q", d.name, id, record.Rev(), current)
	}

	doc := record.Clone()
	doc[model.FieldID] = id
	delete(doc, model.FieldRev)
	body, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	rev := nextRev(current, body)
	doc[model.FieldRev] = rev
	if docs[id], err = json.Marshal(doc); err != nil {
		return "", err
	}
	d.s.puts[d.name]++
	return rev, nil
}

func (d *database) Delete(_ context.Context, id, rev string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	docs, err := d.docs()
	if err != nil {
		return err
	}
	b, ok := docs[id]
	if !ok {
		return status.ErrNotFound.Wrapf("document %s/%s", d.name, id)
	}
	var stored model.Record
	if err := json.Unmarshal(b, &stored); err != nil {
		return err
	}
	if stored.Rev() != rev {
		return status.ErrConflict.Wrapf("document %s/%s: revision %q, expected %q", d.name, id, rev, stored.Rev())
	}
	delete(docs, id)
	return nil
}

func (d *database) Keys(_ context.Context) (couch.KeyIterator, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	docs, err := d.docs()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &keys{ids: ids, pos: -1}, nil
}

type keys struct {
	ids []string
	pos int
}

func (k *keys) Next() bool {
	if k.pos+1 >= len(k.ids) {
		return false
	}
	k.pos++
	return true
}

func (k *keys) ID() string {
	if k.pos < 0 || k.pos >= len(k.ids) {
		return ""
	}
	return k.ids[k.pos]
}

func (k *keys) Err() error   { return nil }
func (k *keys) Close() error { return nil }

// nextRev mimics CouchDB revision tokens: a generation number and a digest of the content
func nextRev(current string, body []byte) string {
	var gen int
	if current != "" {
		gen, _ = strconv.Atoi(strings.SplitN(current, "-", 2)[0])
	}
	sum := blake2b.Sum256(body)
	return fmt.Sprintf("%d-%s", gen+1, hex.EncodeToString(sum[:16]))
}
