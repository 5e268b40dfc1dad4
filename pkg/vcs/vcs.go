// Package vcs abstracts the version control operations needed to refresh
// module records from their source repositories.
//
// Only cloning is required: a repository is fetched into a scratch directory
// and its manifest is read from the working copy.
//
// # Implementations
//
//   - pkg/vcs/git: git implementation, running the git binary
package vcs

import (
	"context"

	"github.com/openag/openag-go/pkg/errors"
)

// Cloner fetches a branch of a remote repository into a local directory
type Cloner interface {
	// Clone checks out branch of the repository at url into dest.
	// dest must not exist yet.
	Clone(ctx context.Context, url, branch, dest string) error
}

// ClonerFunc adapts a function to the Cloner interface
type ClonerFunc func(ctx context.Context, url, branch, dest string) error

// Clone calls f
func (f ClonerFunc) Clone(ctx context.Context, url, branch, dest string) error {
	return f(ctx, url, branch, dest)
}

// Versioner is implemented by cloners able to report the version of the tool they run
type Versioner interface {
	Version(ctx context.Context) (string, error)
}

// Common errors returned by VCS operations.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, vcs.ErrRefNotFound) {
//	    // the branch does not exist on the remote
//	}
var (
	// ErrVCSNotAvailable is returned when the required VCS binary
	// is not installed or not in PATH.
	ErrVCSNotAvailable = errors.New("VCS binary not available")

	// ErrRefNotFound is returned when the requested branch does not exist on the remote
	ErrRefNotFound = errors.New("reference not found")

	// ErrCloneFailed is returned when the repository could not be fetched,
	// e.g. network failure, invalid URL or authentication failure
	ErrCloneFailed = errors.New("clone failed")

	// ErrDestinationExists is returned when the clone target is already populated
	ErrDestinationExists = errors.New("clone destination already exists")
)
