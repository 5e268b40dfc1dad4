// Copyright © 2018 One Concern

package couch

import (
	"context"

	"github.com/openag/openag-go/pkg/model"
)

// Admin knows how to read and change the configuration of a server
type Admin interface {
	// ConfigValue returns the current value of a parameter, or status.ErrNotFound
	ConfigValue(ctx context.Context, section, key string) (string, error)
	SetConfigValue(ctx context.Context, section, key, value string) error
}

// Server is a handle to a CouchDB instance.
//
// Implementations return the sentinel errors declared in package status.
type Server interface {
	Admin

	// URL of the server, without credentials
	URL() string

	// EnsureDB creates the database if it does not exist yet, and tells if it was created
	EnsureDB(ctx context.Context, name string) (bool, error)
	DestroyDB(ctx context.Context, name string) error
	DB(name string) Database
	Close() error
}

// Database holds records keyed by their id
type Database interface {
	Name() string
	Has(ctx context.Context, id string) (bool, error)
	// Get returns the stored record, with its revision token, or status.ErrNotFound
	Get(ctx context.Context, id string) (model.Record, error)
	// Put writes the record under id and returns the new revision token.
	//
	// Updating an existing record requires the record to carry the latest revision token,
	// otherwise Put fails with status.ErrConflict.
	Put(ctx context.Context, id string, record model.Record) (string, error)
	Delete(ctx context.Context, id, rev string) error
	// Keys iterates lazily over all ids, including system entries.
	// The iteration can be restarted by calling Keys again.
	Keys(ctx context.Context) (KeyIterator, error)
}

// KeyIterator walks over the ids of a database
type KeyIterator interface {
	Next() bool
	ID() string
	Err() error
	Close() error
}
