package model

import "github.com/openag/openag-go/pkg/errors"

var (
	// ErrInvalidRecord indicates that a record does not have the expected shape
	ErrInvalidRecord = errors.New("invalid record")
)
