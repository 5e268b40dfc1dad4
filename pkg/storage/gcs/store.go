// Copyright © 2018 One Concern

package gcs

import (
	"context"
	"errors"
	"io"

	gcsStorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/openag/openag-go/pkg/storage"
)

// Option is a functor to pass optional parameters to the gcs store
type Option func(*gcs)

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(g *gcs) {
		if logger != nil {
			g.l = logger
		}
	}
}

// ClientOptions are passed to the google storage client, e.g. to select credentials
func ClientOptions(opts ...option.ClientOption) Option {
	return func(g *gcs) {
		g.clientOpts = append(g.clientOpts, opts...)
	}
}

type gcs struct {
	client     *gcsStorage.Client
	bucket     string
	clientOpts []option.ClientOption
	l          *zap.Logger
}

// New gcs store, with credentials resolved from the application default credentials
func New(ctx context.Context, bucket string, opts ...Option) (storage.Store, error) {
	googleStore := &gcs{
		bucket: bucket,
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(googleStore)
	}

	clientOpts := append([]option.ClientOption{option.WithScopes(gcsStorage.ScopeReadWrite)}, googleStore.clientOpts...)
	client, err := gcsStorage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	googleStore.client = client
	return googleStore, nil
}

func (g *gcs) String() string {
	return "gcs://" + g.bucket
}

func (g *gcs) Has(ctx context.Context, objectName string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(objectName).Attrs(ctx)
	if errors.Is(err, gcsStorage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, toSentinelErrors(err)
	}
	return true, nil
}

func (g *gcs) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	g.l.Debug("get object", zap.Stringer("store", g), zap.String("key", objectName))
	objectReader, err := g.client.Bucket(g.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return objectReader, nil
}

func (g *gcs) Put(ctx context.Context, objectName string, reader io.Reader) error {
	g.l.Debug("put object", zap.Stringer("store", g), zap.String("key", objectName))
	writer := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(writer, reader); err != nil {
		_ = writer.Close()
		return toSentinelErrors(err)
	}
	return toSentinelErrors(writer.Close())
}
