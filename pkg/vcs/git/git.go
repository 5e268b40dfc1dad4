// Package git provides a git implementation of the vcs.Cloner interface.
//
// This package runs the git binary found in PATH.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/errors"
	"github.com/openag/openag-go/pkg/vcs"
)

// type safeguards
var (
	_ vcs.Cloner    = &Git{}
	_ vcs.Versioner = &Git{}
)

// Option is a functor to pass optional parameters to the git cloner
type Option func(*Git)

// Logger specifies a logger for git operations
func Logger(logger *zap.Logger) Option {
	return func(g *Git) {
		if logger != nil {
			g.l = logger
		}
	}
}

// Timeout bounds the duration of each clone. Zero means no timeout.
func Timeout(timeout time.Duration) Option {
	return func(g *Git) {
		g.timeout = timeout
	}
}

// Binary sets the git executable to run
func Binary(binary string) Option {
	return func(g *Git) {
		g.binary = binary
	}
}

// Git clones repositories with the git binary
type Git struct {
	binary  string
	timeout time.Duration
	l       *zap.Logger
}

// New git cloner
func New(opts ...Option) *Git {
	g := &Git{
		binary: "git",
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(g)
	}
	return g
}

// Version returns the git version string
func (g *Git) Version(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, g.binary, "--version").Output()
	if err != nil {
		return "", toSentinelErrors(err, "")
	}

	// Output format: "git version 2.39.0"
	return strings.TrimPrefix(strings.TrimSpace(string(output)), "git version "), nil
}

// Clone a single branch of the repository at url, without history
func (g *Git) Clone(ctx context.Context, url, branch, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return vcs.ErrDestinationExists.Wrapf("%s", dest)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	args := []string{"clone", "--quiet", "--depth", "1", "--single-branch", "--branch", branch, "--", url, dest}
	cmd := exec.CommandContext(ctx, g.binary, args...)
	// never prompt for credentials: fail instead
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	g.l.Debug("git clone",
		zap.String("url", url),
		zap.String("branch", branch),
		zap.String("dest", dest),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		_ = os.RemoveAll(dest)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return vcs.ErrCloneFailed.Wrap(fmt.Errorf("%s: %w", url, ctxErr))
		}
		return toSentinelErrors(err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func toSentinelErrors(err error, output string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return vcs.ErrVCSNotAvailable.Wrap(err)
	}
	if output == "" {
		return vcs.ErrCloneFailed.Wrap(err)
	}
	detail := fmt.Errorf("%w\n%s", err, output)
	if strings.Contains(output, "Remote branch") && strings.Contains(output, "not found") {
		return vcs.ErrRefNotFound.Wrap(detail)
	}
	return vcs.ErrCloneFailed.Wrap(detail)
}
