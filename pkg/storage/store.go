// Copyright © 2018 One Concern

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/openag/openag-go/pkg/storage/status"
)

// Store implementations know how to read and write objects by key.
//
// Typically this is something file system-like. Examples are S3, GCS, local FS, ...
// Implementations of this interface are assumed to be fairly simple.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader) error
}

// Schemes of the supported locations
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
	SchemeGCS  = "gs"
	SchemeStd  = "-"
)

// Location of an object
type Location struct {
	Scheme string
	Bucket string // for s3 and gs, or the directory of a local file
	Key    string
}

func (l Location) String() string {
	switch l.Scheme {
	case SchemeStd:
		return SchemeStd
	case SchemeFile:
		if l.Bucket == "" {
			return l.Key
		}
		return strings.TrimRight(l.Bucket, "/") + "/" + l.Key
	default:
		return l.Scheme + "://" + l.Bucket + "/" + l.Key
	}
}

// ParseLocation interprets a location given on the command line.
//
// Supported forms are a local path, "-" for the standard streams,
// s3://bucket/key and gs://bucket/key.
func ParseLocation(location string) (Location, error) {
	if location == "" {
		return Location{}, status.ErrInvalidResource.Wrapf("empty location")
	}
	if location == SchemeStd {
		return Location{Scheme: SchemeStd}, nil
	}

	scheme := SchemeFile
	if i := strings.Index(location, "://"); i > 0 {
		scheme = location[:i]
	}
	switch scheme {
	case SchemeS3, SchemeGCS:
		u, err := url.Parse(location)
		if err != nil {
			return Location{}, status.ErrInvalidResource.Wrap(err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, status.ErrInvalidResource.Wrapf("%s: expected %s://bucket/key", location, scheme)
		}
		return Location{Scheme: scheme, Bucket: u.Host, Key: key}, nil
	case SchemeFile:
		path := strings.TrimPrefix(location, SchemeFile+"://")
		dir, file := splitPath(path)
		if file == "" {
			return Location{}, status.ErrInvalidResource.Wrapf("%s: not a file", location)
		}
		return Location{Scheme: SchemeFile, Bucket: dir, Key: file}, nil
	default:
		return Location{}, status.ErrNotSupported.Wrap(fmt.Errorf("unsupported location scheme %q", scheme))
	}
}

func splitPath(path string) (string, string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	dir := path[:i]
	if dir == "" {
		dir = "/"
	}
	return dir, path[i+1:]
}

// NewStdio returns a store reading from in and writing to out, whatever the key
func NewStdio(in io.Reader, out io.Writer) Store {
	return &stdio{in: in, out: out}
}

type stdio struct {
	in  io.Reader
	out io.Writer
}

func (s *stdio) String() string {
	return "stdio"
}

func (s *stdio) Has(context.Context, string) (bool, error) {
	return s.in != nil, nil
}

func (s *stdio) Get(context.Context, string) (io.ReadCloser, error) {
	if s.in == nil {
		return nil, status.ErrNotSupported.Wrapf("no input stream")
	}
	return io.NopCloser(s.in), nil
}

func (s *stdio) Put(_ context.Context, _ string, rdr io.Reader) error {
	if s.out == nil {
		return status.ErrNotSupported.Wrapf("no output stream")
	}
	_, err := io.Copy(s.out, rdr)
	return err
}
