// Copyright © 2018 One Concern

package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openag/openag-go/pkg/storage/status"
)

func TestParseLocation(t *testing.T) {
	for _, tc := range []struct {
		location string
		expected Location
	}{
		{location: "-", expected: Location{Scheme: SchemeStd}},
		{location: "fixture.json", expected: Location{Scheme: SchemeFile, Key: "fixture.json"}},
		{location: "data/fixture.json", expected: Location{Scheme: SchemeFile, Bucket: "data", Key: "fixture.json"}},
		{location: "/fixture.json", expected: Location{Scheme: SchemeFile, Bucket: "/", Key: "fixture.json"}},
		{location: "file:///srv/openag/fixture.json", expected: Location{Scheme: SchemeFile, Bucket: "/srv/openag", Key: "fixture.json"}},
		{location: "s3://openag/fixtures/default.json", expected: Location{Scheme: SchemeS3, Bucket: "openag", Key: "fixtures/default.json"}},
		{location: "gs://openag/default.json", expected: Location{Scheme: SchemeGCS, Bucket: "openag", Key: "default.json"}},
	} {
		loc, err := ParseLocation(tc.location)
		require.NoErrorf(t, err, "location %s", tc.location)
		assert.Equal(t, tc.expected, loc)
	}
}

func TestParseLocationErrors(t *testing.T) {
	for _, location := range []string{"", "s3://bucket", "s3://bucket/", "gs:///key", "data/"} {
		_, err := ParseLocation(location)
		assert.ErrorIsf(t, err, status.ErrInvalidResource, "location %q", location)
	}
	_, err := ParseLocation("ftp://host/file.json")
	assert.ErrorIs(t, err, status.ErrNotSupported)
}

func TestLocationString(t *testing.T) {
	for _, location := range []string{"-", "fixture.json", "data/fixture.json", "/fixture.json", "s3://openag/fixtures/default.json"} {
		loc, err := ParseLocation(location)
		require.NoError(t, err)
		assert.Equal(t, location, loc.String())
	}
}

func TestStdio(t *testing.T) {
	var out bytes.Buffer
	s := NewStdio(strings.NewReader(`{"recipe":[]}`), &out)

	has, err := s.Has(context.Background(), "ignored")
	require.NoError(t, err)
	assert.True(t, has)

	rdr, err := s.Get(context.Background(), "ignored")
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	assert.Equal(t, `{"recipe":[]}`, string(b))

	require.NoError(t, s.Put(context.Background(), "ignored", strings.NewReader("metrics")))
	assert.Equal(t, "metrics", out.String())

	empty := NewStdio(nil, nil)
	_, err = empty.Get(context.Background(), "")
	assert.ErrorIs(t, err, status.ErrNotSupported)
	assert.ErrorIs(t, empty.Put(context.Background(), "", strings.NewReader("")), status.ErrNotSupported)
}
