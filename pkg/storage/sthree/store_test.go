package sthree

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openag/openag-go/pkg/storage"
	"github.com/openag/openag-go/pkg/storage/status"
)

const testBucket = "openag-fixtures"

// fakeS3 serves path-style object requests for a single bucket
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := "/" + testBucket + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchBucket</Code><Message>no bucket</Message></Error>`)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, prefix)

	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.objects[key] = b
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		b, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>no key</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(b)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(b)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func setupStore(t *testing.T, bucket string) storage.Store {
	fake := &fakeS3{objects: map[string][]byte{
		"fixtures/recipes.json": []byte(`{"recipe":[]}`),
	}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	bs, err := New(Bucket(bucket), AWSConfig(&aws.Config{
		Endpoint:         aws.String(server.URL),
		Region:           aws.String("us-east-1"),
		Credentials:      credentials.NewStaticCredentials("id", "secret", ""),
		S3ForcePathStyle: aws.Bool(true),
		MaxRetries:       aws.Int(0),
	}))
	require.NoError(t, err)
	return bs
}

func TestHas(t *testing.T) {
	bs := setupStore(t, testBucket)

	has, err := bs.Has(context.Background(), "fixtures/recipes.json")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "fixtures/missing.json")
	require.NoError(t, err)
	require.False(t, has)
}

func TestGet(t *testing.T) {
	bs := setupStore(t, testBucket)

	rdr, err := bs.Get(context.Background(), "fixtures/recipes.json")
	require.NoError(t, err)
	defer rdr.Close()
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	assert.Equal(t, `{"recipe":[]}`, string(b))

	_, err = bs.Get(context.Background(), "fixtures/missing.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotExists)
}

func TestGetMissingBucket(t *testing.T) {
	bs := setupStore(t, "no-such-bucket")
	_, err := bs.Get(context.Background(), "fixtures/recipes.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotFound)
}

func TestPut(t *testing.T) {
	bs := setupStore(t, testBucket)

	require.NoError(t, bs.Put(context.Background(), "metrics/openag.prom", strings.NewReader("openag_databases_created_total 7\n")))

	rdr, err := bs.Get(context.Background(), "metrics/openag.prom")
	require.NoError(t, err)
	defer rdr.Close()
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	assert.Equal(t, "openag_databases_created_total 7\n", string(b))
}

func TestString(t *testing.T) {
	assert.Equal(t, "s3@"+testBucket, setupStore(t, testBucket).String())
}

func TestToSentinelErrors(t *testing.T) {
	for _, tc := range []struct {
		status   int
		code     string
		expected error
	}{
		{status: 400, code: "InvalidBucketName", expected: status.ErrInvalidResource},
		{status: 400, code: "BadDigest", expected: status.ErrStorageAPI},
		{status: 401, code: "Unauthorized", expected: status.ErrUnauthorized},
		{status: 403, code: "AccessDenied", expected: status.ErrForbidden},
		{status: 404, code: "NoSuchKey", expected: status.ErrNotExists},
		{status: 404, code: "NoSuchBucket", expected: status.ErrNotFound},
		{status: 500, code: "InternalError", expected: status.ErrStorageAPI},
	} {
		err := toSentinelErrors(awserr.NewRequestFailure(awserr.New(tc.code, "message", nil), tc.status, "request-id"))
		assert.ErrorIsf(t, err, tc.expected, "%d %s", tc.status, tc.code)
	}
	assert.NoError(t, toSentinelErrors(nil))
}
