// Copyright © 2018 One Concern

// Package status declares the errors returned by the stores of package storage.
//
// Backends map their native errors onto these values, so that callers can
// tell a missing fixture from a permission problem whatever the location.
// The backends and pkg/storage both import this package.
package status

import "github.com/openag/openag-go/pkg/errors"

var (
	// ErrNotExists indicates that the object is not present in the store
	ErrNotExists = errors.New("object doesn't exist")

	// ErrNotFound indicates that the bucket or directory holding the object is missing
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing or invalid credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates that the credentials do not grant access to the object
	ErrForbidden = errors.New("forbidden")

	// ErrNotSupported indicates a location scheme or operation the store cannot serve
	ErrNotSupported = errors.New("not supported")

	// ErrInvalidResource indicates a malformed location or bucket name
	ErrInvalidResource = errors.New("invalid storage location")

	// ErrStorageAPI wraps any other error of a cloud storage API
	ErrStorageAPI = errors.New("storage API error")
)
