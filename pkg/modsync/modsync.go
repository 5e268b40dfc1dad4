// Copyright © 2018 One Concern

// Package modsync refreshes module records from the repositories they declare.
//
// A record such as a firmware module type may carry a repository descriptor:
//
//	{"_id": "dht22", "repository": {"type": "git", "url": "https://github.com/OpenAgInitiative/openag_dht22.git"}}
//
// The repository is cloned into a scratch directory shared by the whole batch,
// and the fields of its module.json manifest are merged on top of the record.
// The record is written back only when its content actually changed.
package modsync

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/openag/openag-go/pkg/couch"
	"github.com/openag/openag-go/pkg/errors"
	"github.com/openag/openag-go/pkg/metrics"
	"github.com/openag/openag-go/pkg/model"
	"github.com/openag/openag-go/pkg/vcs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrClone indicates that the repository of a record could not be fetched
	ErrClone = errors.New("failed to clone module repository")

	// ErrManifest indicates that the manifest of a cloned repository is missing or invalid
	ErrManifest = errors.New("invalid module manifest")
)

const (
	scratchPrefix = "openag-modules-"
	hashLen       = 8 // bytes of digest kept in a directory name
)

// Option is a functor to pass optional parameters to the synchronizer
type Option func(*Synchronizer)

// Logger specifies a logger for the synchronizer
func Logger(logger *zap.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.l = logger
		}
	}
}

// Fs sets the filesystem holding the scratch directory. Defaults to the OS filesystem.
//
// The cloner must write to the same filesystem.
func Fs(fs afero.Fs) Option {
	return func(s *Synchronizer) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// Metrics collects counters about the records written
func Metrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) {
		s.m = m
	}
}

// AbortOnCloneError stops the batch on the first repository that cannot be cloned,
// instead of skipping the record
func AbortOnCloneError(abort bool) Option {
	return func(s *Synchronizer) {
		s.abortOnClone = abort
	}
}

// TempDir sets the parent directory for the scratch directory.
// Defaults to the system temporary directory.
func TempDir(dir string) Option {
	return func(s *Synchronizer) {
		s.tempDir = dir
	}
}

// Synchronizer merges repository manifests into records
type Synchronizer struct {
	cloner       vcs.Cloner
	fs           afero.Fs
	l            *zap.Logger
	m            *metrics.Metrics
	abortOnClone bool
	tempDir      string

	toolChecked bool
	toolErr     error
}

// New synchronizer, fetching repositories with cloner
func New(cloner vcs.Cloner, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		cloner: cloner,
		fs:     afero.NewOsFs(),
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Result sums up a synchronization batch
type Result struct {
	Checked   int // records examined, system entries excluded
	Updated   int // records written back
	Unchanged int // records already up to date, or without a git repository
	Skipped   int // records whose repository could not be cloned
	Failed    int // records that could not be processed
}

func (r Result) String() string {
	return fmt.Sprintf("%d checked, %d updated, %d unchanged, %d skipped, %d failed",
		r.Checked, r.Updated, r.Unchanged, r.Skipped, r.Failed)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DirName derives the local directory name of a repository checkout.
//
// The name is deterministic, readable, and distinct for distinct url and branch pairs.
func DirName(url, branch string) string {
	base := strings.TrimSuffix(path.Base(strings.TrimRight(url, "/")), ".git")
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "repo"
	}
	sum := blake2b.Sum256([]byte(url + "#" + branch))
	return base + "-" + hex.EncodeToString(sum[:hashLen])
}

// Synchronize merges the manifest found in the repository of the record.
//
// Records without a git repository are returned as is. Other records get
// their repository cloned under scratchDir, unless a previous call of the same
// batch already did, and every field of the manifest is set on a copy of the
// record, except identity and revision.
func (s *Synchronizer) Synchronize(ctx context.Context, record model.Record, scratchDir string) (model.Record, error) {
	repo, ok, err := record.Repository()
	if err != nil {
		return record, err
	}
	if !ok || !repo.IsGit() {
		return record, nil
	}

	dest := filepath.Join(scratchDir, DirName(repo.URL, repo.Ref()))
	exists, err := afero.DirExists(s.fs, dest)
	if err != nil {
		return record, err
	}
	if !exists {
		if err := s.checkTooling(ctx); err != nil {
			return record, err
		}
		s.l.Info("cloning module repository",
			zap.String("id", record.ID()),
			zap.String("url", repo.URL),
			zap.String("branch", repo.Ref()),
		)
		if err := s.cloner.Clone(ctx, repo.URL, repo.Ref(), dest); err != nil {
			return record, ErrClone.Wrap(fmt.Errorf("%s (%s@%s): %w", record.ID(), repo.URL, repo.Ref(), err))
		}
	}

	manifest, err := s.readManifest(filepath.Join(dest, model.ManifestFile))
	if err != nil {
		return record, ErrManifest.Wrap(fmt.Errorf("%s (%s): %w", record.ID(), repo.URL, err))
	}
	return record.Overlay(manifest), nil
}

// checkTooling asks the cloner for the version of its tool, once, before the first clone.
// Cloners which do not report a version are not checked.
func (s *Synchronizer) checkTooling(ctx context.Context) error {
	versioner, ok := s.cloner.(vcs.Versioner)
	if !ok || s.toolChecked {
		return s.toolErr
	}
	s.toolChecked = true

	version, err := versioner.Version(ctx)
	if err != nil {
		if !errors.Is(err, vcs.ErrVCSNotAvailable) {
			err = vcs.ErrVCSNotAvailable.Wrap(err)
		}
		s.toolErr = err
		return err
	}
	s.l.Info("using version control tool", zap.String("version", version))
	return nil
}

func (s *Synchronizer) readManifest(file string) (map[string]interface{}, error) {
	b, err := afero.ReadFile(s.fs, file)
	if err != nil {
		return nil, err
	}
	var manifest map[string]interface{}
	if err := json.Unmarshal(b, &manifest); err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, fmt.Errorf("%s: expected a JSON object", model.ManifestFile)
	}
	return manifest, nil
}

// SynchronizeAll refreshes every record of the database.
//
// A single scratch directory is used for the whole batch. It is removed when
// the batch completes, whatever the outcome.
//
// Records whose repository cannot be cloned are skipped, unless the
// synchronizer aborts on clone errors. A missing version control tool always
// stops the batch. Other per-record errors do not stop the batch: they are
// returned together once all records have been visited.
func (s *Synchronizer) SynchronizeAll(ctx context.Context, db couch.Database) (res Result, err error) {
	scratchDir, err := afero.TempDir(s.fs, s.tempDir, scratchPrefix)
	if err != nil {
		return res, fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if rerr := s.fs.RemoveAll(scratchDir); rerr != nil && !os.IsNotExist(rerr) {
			err = multierr.Append(err, fmt.Errorf("remove scratch directory %s: %w", scratchDir, rerr))
		}
	}()

	keys, err := db.Keys(ctx)
	if err != nil {
		return res, fmt.Errorf("list records of %s: %w", db.Name(), err)
	}
	defer keys.Close()

	var errs error
	for keys.Next() {
		if cerr := ctx.Err(); cerr != nil {
			return res, multierr.Append(errs, cerr)
		}
		id := keys.ID()
		if model.IsSystem(id) {
			continue
		}
		res.Checked++

		written, rerr := s.synchronizeOne(ctx, db, id, scratchDir)
		switch {
		case rerr == nil && written:
			res.Updated++
			s.m.Written(metrics.OpSync, db.Name())
		case rerr == nil:
			res.Unchanged++
			s.m.Unchanged(metrics.OpSync, db.Name())
		case errors.Is(rerr, vcs.ErrVCSNotAvailable):
			res.Failed++
			s.m.Failed(metrics.OpSync, db.Name())
			return res, multierr.Append(errs, rerr)
		case errors.Is(rerr, ErrClone) && !s.abortOnClone:
			res.Skipped++
			s.l.Warn("skipping record", zap.String("id", id), zap.Error(rerr))
		case errors.Is(rerr, ErrClone):
			res.Failed++
			s.m.Failed(metrics.OpSync, db.Name())
			return res, multierr.Append(errs, rerr)
		default:
			res.Failed++
			s.m.Failed(metrics.OpSync, db.Name())
			s.l.Error("failed to synchronize record", zap.String("id", id), zap.Error(rerr))
			errs = multierr.Append(errs, rerr)
		}
	}
	if kerr := keys.Err(); kerr != nil {
		return res, multierr.Append(errs, fmt.Errorf("list records of %s: %w", db.Name(), kerr))
	}
	return res, errs
}

func (s *Synchronizer) synchronizeOne(ctx context.Context, db couch.Database, id, scratchDir string) (bool, error) {
	stored, err := db.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get %s/%s: %w", db.Name(), id, err)
	}
	merged, err := s.Synchronize(ctx, stored, scratchDir)
	if err != nil {
		return false, err
	}
	written, err := couch.WriteIfChanged(ctx, db, stored, merged)
	if err != nil {
		return false, err
	}
	if written {
		s.l.Info("updated record", zap.String("database", db.Name()), zap.String("id", id))
	}
	return written, nil
}
