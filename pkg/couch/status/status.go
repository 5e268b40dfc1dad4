// Copyright © 2018 One Concern

// Package status declares error constants returned by
// implementations of the couch interfaces.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/couch and one
// of its implementations.
package status

import "github.com/openag/openag-go/pkg/errors"

var (
	// Sentinel errors returned by implementations of the interfaces defined by couch

	// ErrNotFound indicates that the config key, database or document does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates that a write was rejected because the revision token is stale
	ErrConflict = errors.New("document update conflict")

	// ErrUnauthorized indicates that you don't provided correct credentials to the server
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates that the server forbids access to the target resource
	ErrForbidden = errors.New("forbidden")

	// ErrNetwork indicates that the server could not be reached
	ErrNetwork = errors.New("database server unreachable")

	// ErrServer indicates any other error returned by the server
	ErrServer = errors.New("database server error")
)
