// Package resolver opens the store addressed by a location.
package resolver

import (
	"context"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/openag/openag-go/pkg/storage"
	"github.com/openag/openag-go/pkg/storage/gcs"
	"github.com/openag/openag-go/pkg/storage/localfs"
	"github.com/openag/openag-go/pkg/storage/sthree"
)

// Option is a functor to pass optional parameters to the resolver
type Option func(*resolver)

// Logger specifies a logger for the stores
func Logger(logger *zap.Logger) Option {
	return func(r *resolver) {
		if logger != nil {
			r.l = logger
		}
	}
}

// Fs sets the filesystem for local files. Defaults to the OS filesystem.
func Fs(fs afero.Fs) Option {
	return func(r *resolver) {
		if fs != nil {
			r.fs = fs
		}
	}
}

// Stdio sets the standard streams used by the "-" location
func Stdio(in io.Reader, out io.Writer) Option {
	return func(r *resolver) {
		r.in = in
		r.out = out
	}
}

// AWSConfig overrides the configuration of the s3 client
func AWSConfig(cfg *aws.Config) Option {
	return func(r *resolver) {
		r.awsConfig = cfg
	}
}

// GCSOptions are passed to the google storage client
func GCSOptions(opts ...option.ClientOption) Option {
	return func(r *resolver) {
		r.gcsOpts = append(r.gcsOpts, opts...)
	}
}

type resolver struct {
	l         *zap.Logger
	fs        afero.Fs
	in        io.Reader
	out       io.Writer
	awsConfig *aws.Config
	gcsOpts   []option.ClientOption
}

// Resolve the location into a store and the key of the object in this store
func Resolve(ctx context.Context, location string, opts ...Option) (storage.Store, string, error) {
	r := &resolver{
		l:   zap.NewNop(),
		fs:  afero.NewOsFs(),
		in:  os.Stdin,
		out: os.Stdout,
	}
	for _, apply := range opts {
		apply(r)
	}

	loc, err := storage.ParseLocation(location)
	if err != nil {
		return nil, "", err
	}
	r.l.Debug("resolved location", zap.String("location", location), zap.String("scheme", loc.Scheme))

	var store storage.Store
	switch loc.Scheme {
	case storage.SchemeStd:
		store = storage.NewStdio(r.in, r.out)
	case storage.SchemeFile:
		fs := r.fs
		if loc.Bucket != "" {
			fs = afero.NewBasePathFs(r.fs, loc.Bucket)
		}
		store = localfs.New(fs)
	case storage.SchemeS3:
		store, err = sthree.New(sthree.Bucket(loc.Bucket), sthree.AWSConfig(r.awsConfig), sthree.Logger(r.l))
	case storage.SchemeGCS:
		store, err = gcs.New(ctx, loc.Bucket, gcs.ClientOptions(r.gcsOpts...), gcs.Logger(r.l))
	}
	if err != nil {
		return nil, "", err
	}
	return store, loc.Key, nil
}

// Open the object at location for reading
func Open(ctx context.Context, location string, opts ...Option) (io.ReadCloser, error) {
	store, key, err := Resolve(ctx, location, opts...)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, key)
}

// Write the content of rdr to the object at location
func Write(ctx context.Context, location string, rdr io.Reader, opts ...Option) error {
	store, key, err := Resolve(ctx, location, opts...)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, rdr)
}
