package logdirsync

import (
	"context"
	"io"
	"io/fs"
	"log/slog"

	"github.com/spf13/afero"
	"gocloud.dev/blob"
	"golang.org/x/sync/errgroup"

	"github.com/wandb/tblogger/internal/observability"
	"github.com/wandb/tblogger/internal/observability/wberrors"
	"github.com/wandb/tblogger/internal/paths"
)

const defaultConcurrency = 4

// Syncer copies the files of a log directory to a destination.
type Syncer struct {
	fs          afero.Fs
	localDir    paths.AbsolutePath
	rootDir     paths.AbsolutePath
	dest        *LocalOrCloudPath
	logger      *observability.CoreLogger
	concurrency int
	openBucket  func(context.Context, *LocalOrCloudPath) (*blob.Bucket, error)
}

// SyncerParams configures NewSyncer.
type SyncerParams struct {
	Fs afero.Fs

	// LocalDir is the directory to copy.
	LocalDir paths.AbsolutePath

	// RootDir is an ancestor of LocalDir. Keys in the destination are paths
	// relative to it, so that runs keep their directory names.
	RootDir paths.AbsolutePath

	Dest   *LocalOrCloudPath
	Logger *observability.CoreLogger

	// Concurrency is the maximum number of parallel uploads.
	Concurrency int

	// OpenBucket overrides how the destination bucket is opened.
	OpenBucket func(context.Context, *LocalOrCloudPath) (*blob.Bucket, error)
}

// NewSyncer returns a Syncer; nothing is read until Sync.
func NewSyncer(params SyncerParams) *Syncer {
	if params.Concurrency <= 0 {
		params.Concurrency = defaultConcurrency
	}
	if params.OpenBucket == nil {
		params.OpenBucket = func(
			ctx context.Context,
			path *LocalOrCloudPath,
		) (*blob.Bucket, error) {
			return path.Bucket(ctx)
		}
	}
	if params.Logger == nil {
		params.Logger = observability.NewNoOpLogger()
	}

	return &Syncer{
		fs:          params.Fs,
		localDir:    params.LocalDir,
		rootDir:     params.RootDir,
		dest:        params.Dest,
		logger:      params.Logger,
		concurrency: params.Concurrency,
		openBucket:  params.OpenBucket,
	}
}

// Sync uploads every regular file under the local directory, replacing
// existing objects.
//
// It returns the first error encountered; other uploads are cancelled.
func (s *Syncer) Sync(ctx context.Context) error {
	files, err := s.listFiles()
	if err != nil {
		return err
	}

	bucket, err := s.openBucket(ctx, s.dest)
	if err != nil {
		return wberrors.Enrichf(err, "logdirsync").
			Attr(slog.String("dest", s.dest.String()))
	}
	defer func() {
		if err := bucket.Close(); err != nil {
			s.logger.Warn("logdirsync: error closing bucket", "error", err)
		}
	}()

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for _, file := range files {
		group.Go(func() error {
			return s.upload(ctx, bucket, file)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	s.logger.Info(
		"logdirsync: uploaded log directory",
		"dest", s.dest,
		"files", len(files),
	)
	return nil
}

func (s *Syncer) listFiles() ([]paths.AbsolutePath, error) {
	var files []paths.AbsolutePath

	err := afero.Walk(s.fs, string(s.localDir),
		func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.Mode().IsRegular() {
				files = append(files, paths.AbsolutePath(path))
			}
			return nil
		})

	if err != nil {
		return nil, wberrors.Enrichf(err, "logdirsync: failed to list files").
			Attr(slog.String("dir", string(s.localDir)))
	}
	return files, nil
}

func (s *Syncer) upload(
	ctx context.Context,
	bucket *blob.Bucket,
	file paths.AbsolutePath,
) error {
	rel, err := file.RelativeTo(s.rootDir)
	if err != nil || !rel.IsLocal() {
		return wberrors.Newf("logdirsync: %s is not under %s", file, s.rootDir)
	}
	key := rel.ToSlash()

	src, err := s.fs.Open(string(file))
	if err != nil {
		return wberrors.Enrichf(err, "logdirsync: cannot read %s", file)
	}
	defer src.Close()

	dst, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return wberrors.Enrichf(err, "logdirsync: cannot write %s", key)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return wberrors.Enrichf(err, "logdirsync: failed to upload %s", key)
	}

	if err := dst.Close(); err != nil {
		return wberrors.Enrichf(err, "logdirsync: failed to upload %s", key)
	}

	s.logger.Debug("logdirsync: uploaded file", "key", key)
	return nil
}
