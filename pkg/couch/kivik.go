// Copyright © 2018 One Concern

package couch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // The CouchDB driver
	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/couch/status"
	"github.com/openag/openag-go/pkg/errors"
	"github.com/openag/openag-go/pkg/model"
)

const (
	driverName = "couch"

	// configNode addresses the configuration of the node serving the request
	configNode = "_local"
)

// Option is a functor to pass optional parameters to the kivik server
type Option func(*kivikServer)

// Logger specifies a logger for this server
func Logger(logger *zap.Logger) Option {
	return func(s *kivikServer) {
		if logger != nil {
			s.l = logger
		}
	}
}

type kivikServer struct {
	client *kivik.Client
	url    string
	l      *zap.Logger
}

// New returns a Server backed by a CouchDB instance reachable at serverURL.
//
// Credentials may be passed as user info in the URL.
func New(serverURL string, opts ...Option) (Server, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: expected an http or https scheme", serverURL)
	}
	client, err := kivik.New(driverName, serverURL)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	u.User = nil
	s := &kivikServer{
		client: client,
		url:    u.String(),
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s, nil
}

func (s *kivikServer) URL() string {
	return s.url
}

func (s *kivikServer) ConfigValue(ctx context.Context, section, key string) (string, error) {
	value, err := s.client.ConfigValue(ctx, configNode, section, key)
	if err != nil {
		return "", toSentinelErrors(err)
	}
	return value, nil
}

func (s *kivikServer) SetConfigValue(ctx context.Context, section, key, value string) error {
	s.l.Debug("set config value", zap.String("section", section), zap.String("key", key), zap.String("value", value))
	_, err := s.client.SetConfigValue(ctx, configNode, section, key, value)
	return toSentinelErrors(err)
}

func (s *kivikServer) EnsureDB(ctx context.Context, name string) (bool, error) {
	exists, err := s.client.DBExists(ctx, name)
	if err != nil {
		return false, toSentinelErrors(err)
	}
	if exists {
		return false, nil
	}
	err = s.client.CreateDB(ctx, name)
	if kivik.HTTPStatus(err) == http.StatusPreconditionFailed {
		// created concurrently
		return false, nil
	}
	if err != nil {
		return false, toSentinelErrors(err)
	}
	s.l.Debug("created database", zap.String("database", name))
	return true, nil
}

func (s *kivikServer) DestroyDB(ctx context.Context, name string) error {
	return toSentinelErrors(s.client.DestroyDB(ctx, name))
}

func (s *kivikServer) DB(name string) Database {
	return &kivikDB{db: s.client.DB(name), name: name}
}

func (s *kivikServer) Close() error {
	return s.client.Close()
}

type kivikDB struct {
	db   *kivik.DB
	name string
}

func (d *kivikDB) Name() string {
	return d.name
}

func (d *kivikDB) Has(ctx context.Context, id string) (bool, error) {
	_, err := d.db.GetRev(ctx, id)
	if kivik.HTTPStatus(err) == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, toSentinelErrors(err)
	}
	return true, nil
}

func (d *kivikDB) Get(ctx context.Context, id string) (model.Record, error) {
	var record model.Record
	if err := d.db.Get(ctx, id).ScanDoc(&record); err != nil {
		return nil, toSentinelErrors(err)
	}
	return record, nil
}

func (d *kivikDB) Put(ctx context.Context, id string, record model.Record) (string, error) {
	rev, err := d.db.Put(ctx, id, record)
	if err != nil {
		return "", toSentinelErrors(err)
	}
	return rev, nil
}

func (d *kivikDB) Delete(ctx context.Context, id, rev string) error {
	_, err := d.db.Delete(ctx, id, rev)
	return toSentinelErrors(err)
}

func (d *kivikDB) Keys(ctx context.Context) (KeyIterator, error) {
	rs := d.db.AllDocs(ctx)
	if err := rs.Err(); err != nil {
		return nil, toSentinelErrors(err)
	}
	return &kivikKeys{rs: rs}, nil
}

type kivikKeys struct {
	rs *kivik.ResultSet
	id string
}

func (k *kivikKeys) Next() bool {
	if !k.rs.Next() {
		return false
	}
	k.id, _ = k.rs.ID()
	return true
}

func (k *kivikKeys) ID() string {
	return k.id
}

func (k *kivikKeys) Err() error {
	return toSentinelErrors(k.rs.Err())
}

func (k *kivikKeys) Close() error {
	return k.rs.Close()
}

// toSentinelErrors maps errors returned by kivik to the sentinel errors defined by the status package
func toSentinelErrors(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return status.ErrNetwork.Wrap(err)
	}
	switch kivik.HTTPStatus(err) {
	case http.StatusNotFound:
		return status.ErrNotFound.Wrap(err)
	case http.StatusConflict:
		return status.ErrConflict.Wrap(err)
	case http.StatusUnauthorized:
		return status.ErrUnauthorized.Wrap(err)
	case http.StatusForbidden:
		return status.ErrForbidden.Wrap(err)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return status.ErrNetwork.Wrap(err)
	default:
		return status.ErrServer.Wrap(err)
	}
}
