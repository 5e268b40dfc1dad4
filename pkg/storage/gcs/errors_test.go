package gcs

import (
	"context"
	"fmt"
	"testing"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/openag/openag-go/pkg/storage/status"
)

func TestToSentinelErrors(t *testing.T) {
	for _, tc := range []struct {
		err      error
		expected error
	}{
		{err: gcsStorage.ErrObjectNotExist, expected: status.ErrNotExists},
		{err: fmt.Errorf("reading: %w", gcsStorage.ErrObjectNotExist), expected: status.ErrNotExists},
		{err: gcsStorage.ErrBucketNotExist, expected: status.ErrNotFound},
		{err: &googleapi.Error{Code: 400, Body: "the bucket is not valid"}, expected: status.ErrInvalidResource},
		{err: &googleapi.Error{Code: 400, Message: "bad request"}, expected: status.ErrStorageAPI},
		{err: &googleapi.Error{Code: 401}, expected: status.ErrUnauthorized},
		{err: &googleapi.Error{Code: 403}, expected: status.ErrForbidden},
		{err: &googleapi.Error{Code: 404}, expected: status.ErrNotFound},
		{err: &googleapi.Error{Code: 503}, expected: status.ErrStorageAPI},
	} {
		assert.ErrorIsf(t, toSentinelErrors(tc.err), tc.expected, "%v", tc.err)
	}
	assert.NoError(t, toSentinelErrors(nil))
}

func TestNew(t *testing.T) {
	bs, err := New(context.Background(), "openag-fixtures", ClientOptions(option.WithoutAuthentication()))
	require.NoError(t, err)
	assert.Equal(t, "gcs://openag-fixtures", bs.String())
}
