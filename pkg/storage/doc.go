// Copyright © 2018 One Concern

// Package storage provides interface to handle objects read or written by the CLI,
// such as fixtures and metrics dumps.
//
// This package supports the following backends:
//   - GCS (Google)
//   - S3 (AWS)
//   - local file system
//   - standard input and output
//
// Objects are addressed by a location: a local path, "-" for standard streams,
// s3://bucket/key or gs://bucket/key. See ParseLocation.
package storage
