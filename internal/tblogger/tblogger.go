// Package tblogger forwards training metrics to TensorBoard.
//
// A Logger owns one writer scoped to a run directory,
// "<datapath>/tensorboard/<tag>". Each training step the caller passes a
// report of metric values to AddMetrics, which forwards the allow-listed
// ones under a setting prefix such as "train" or "valid". AddScalar and
// AddHistogram forward single values without filtering.
//
// To view the logs:
//
//	tensorboard --logdir <datapath>/tensorboard
package tblogger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/wandb/tblogger/internal/logdirsync"
	"github.com/wandb/tblogger/internal/observability"
	"github.com/wandb/tblogger/internal/observability/wberrors"
	"github.com/wandb/tblogger/internal/paths"
)

// Report maps metric names to values for one step.
type Report map[string]float64

// Logger forwards metrics to a Writer.
//
// It is not safe for concurrent use.
type Logger struct {
	writer    Writer
	logDir    paths.AbsolutePath
	runTag    string
	allowList []string
	logger    *observability.CoreLogger
	syncer    *logdirsync.Syncer

	// warnedMissing records allow-listed metrics already reported absent.
	warnedMissing map[string]struct{}

	closed bool
}

// Params are the dependencies of a Logger.
type Params struct {
	// Fs is the filesystem for the log directory; the OS filesystem if nil.
	Fs afero.Fs

	// Backends is where Options.Backend is looked up; DefaultBackends()
	// if nil.
	Backends *Backends

	Logger *observability.CoreLogger
}

// New creates the run's log directory and opens a writer in it.
//
// If the backend is not registered, New returns an error matching
// ErrBackendUnavailable without touching the filesystem.
func New(opts Options, params Params) (*Logger, error) {
	if params.Fs == nil {
		params.Fs = afero.NewOsFs()
	}
	if params.Backends == nil {
		params.Backends = DefaultBackends()
	}
	if params.Logger == nil {
		params.Logger = observability.NewNoOpLogger()
	}

	backendName := opts.Backend
	if backendName == "" {
		backendName = DefaultBackend
	}
	backend, err := params.Backends.Lookup(backendName)
	if err != nil {
		return nil, err
	}

	runTag, err := opts.RunTag()
	if err != nil {
		return nil, err
	}

	dataPath, err := paths.Absolute(opts.DataPath)
	if err != nil {
		return nil, wberrors.Bubblef(err, "tblogger: bad data path %q", opts.DataPath)
	}
	tbRoot := dataPath.Join("tensorboard")
	logDir := tbRoot
	if runTag != "" {
		logDir, err = tbRoot.Child(runTag)
		if err != nil {
			return nil, wberrors.Bubblef(err, "tblogger: bad run tag")
		}
	}

	var dest *logdirsync.LocalOrCloudPath
	if opts.UploadURL != "" {
		dest, err = logdirsync.ParsePath(opts.UploadURL)
		if err != nil {
			return nil, wberrors.Bubblef(err, "tblogger: bad upload URL %q", opts.UploadURL)
		}
	}

	if err := params.Fs.MkdirAll(string(logDir), 0o755); err != nil {
		return nil, wberrors.Bubblef(err, "tblogger: failed to create log directory").
			Attr(slog.String("logdir", string(logDir)))
	}

	logger := params.Logger.With("logdir", string(logDir))

	writer, err := backend(OpenParams{
		Fs:            params.Fs,
		LogDir:        logDir,
		Logger:        logger,
		MaxQueue:      opts.MaxQueue,
		FlushInterval: opts.FlushInterval,
		MaxBins:       opts.MaxBins,
	})
	if err != nil {
		return nil, wberrors.Bubblef(err, "tblogger: failed to open %s writer", backendName).
			Attr(slog.String("logdir", string(logDir)))
	}

	var syncer *logdirsync.Syncer
	if dest != nil {
		syncer = logdirsync.NewSyncer(logdirsync.SyncerParams{
			Fs:       params.Fs,
			LocalDir: logDir,
			RootDir:  tbRoot,
			Dest:     dest,
			Logger:   logger,
		})
	}

	allowList := opts.AllowList()
	logger.Info(
		"tblogger: logging metrics",
		"backend", backendName,
		"metrics", strings.Join(allowList, ","),
	)

	return &Logger{
		writer:        writer,
		logDir:        logDir,
		runTag:        runTag,
		allowList:     allowList,
		logger:        logger,
		syncer:        syncer,
		warnedMissing: make(map[string]struct{}),
	}, nil
}

// LogDir returns the run's log directory.
func (l *Logger) LogDir() paths.AbsolutePath {
	return l.logDir
}

// RunTag returns the name of the run's log directory.
func (l *Logger) RunTag() string {
	return l.runTag
}

// AllowList returns the metrics that AddMetrics forwards.
func (l *Logger) AllowList() []string {
	return append([]string(nil), l.allowList...)
}

// AddMetrics forwards the allow-listed metrics in the report as scalars
// tagged "<setting>/<metric>".
//
// Metrics are forwarded in allow-list order. Report keys outside the
// allow-list are ignored. Allow-listed metrics absent from the report are
// skipped; each is logged once as a warning since it usually means the
// allow-list names a metric the training loop never reports.
func (l *Logger) AddMetrics(setting string, step int64, report Report) error {
	for _, metric := range l.allowList {
		value, ok := report[metric]
		if !ok {
			l.warnMissing(setting, metric)
			continue
		}

		tag := setting + "/" + metric
		if err := l.writer.AddScalar(tag, value, step); err != nil {
			return wberrors.Bubblef(err, "tblogger: failed to log %s", tag)
		}
	}

	return nil
}

func (l *Logger) warnMissing(setting, metric string) {
	if _, warned := l.warnedMissing[metric]; warned {
		return
	}
	l.warnedMissing[metric] = struct{}{}

	l.logger.CaptureWarn(
		"tblogger: allow-listed metric missing from report",
		"metric", metric,
		"setting", setting,
	)
}

// AddScalar forwards a single value.
//
// Use "/" in the name to group charts, like "train/loss/ce".
func (l *Logger) AddScalar(name string, value float64, step int64) error {
	if err := l.writer.AddScalar(name, value, step); err != nil {
		return wberrors.Bubblef(err, "tblogger: failed to log %s", name)
	}
	return nil
}

// AddHistogram forwards the distribution of a set of values.
func (l *Logger) AddHistogram(name string, values []float64, step int64) error {
	if err := l.writer.AddHistogram(name, values, step); err != nil {
		return wberrors.Bubblef(err, "tblogger: failed to log histogram %s", name)
	}
	return nil
}

// Flush makes all forwarded values visible to readers of the log directory.
func (l *Logger) Flush() error {
	if err := l.writer.Flush(); err != nil {
		return wberrors.Bubblef(err, "tblogger: flush failed")
	}
	return nil
}

// Close closes the writer and, if an upload URL was configured, copies the
// log directory to it.
//
// Closing more than once does nothing.
func (l *Logger) Close(ctx context.Context) error {
	if l.closed {
		return nil
	}
	l.closed = true

	if err := l.writer.Close(); err != nil {
		return wberrors.Bubblef(err, "tblogger: close failed")
	}

	if l.syncer != nil {
		if err := l.syncer.Sync(ctx); err != nil {
			return wberrors.Bubblef(err, "tblogger: upload failed")
		}
	}

	return nil
}
