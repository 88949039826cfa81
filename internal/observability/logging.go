// Package observability provides the logger used throughout tblogger.
package observability

import (
	"io"
	"log/slog"

	"github.com/wandb/tblogger/internal/observability/wberrors"
	"github.com/wandb/tblogger/internal/sentry_ext"
)

// Tags are string key-value pairs attached to Sentry events.
type Tags map[string]string

// NewTags creates Tags from a mix of slog.Attr values and alternating
// key-value arguments, as accepted by slog's logging methods.
//
// Incomplete pairs and values of other types are ignored.
func NewTags(args ...any) Tags {
	tags := Tags{}

	for len(args) > 0 {
		switch x := args[0].(type) {
		case slog.Attr:
			tags[x.Key] = x.Value.String()
			args = args[1:]
		case string:
			if len(args) < 2 {
				return tags
			}
			attr := slog.Any(x, args[1])
			tags[attr.Key] = attr.Value.String()
			args = args[2:]
		default:
			args = args[1:]
		}
	}

	return tags
}

type CoreLoggerParams struct {
	// Sentry, if set, receives captured errors and warnings.
	Sentry *sentry_ext.Client

	// Tags are included in every message and Sentry event.
	Tags Tags
}

// CoreLogger is a slog.Logger that can also report to Sentry.
type CoreLogger struct {
	*slog.Logger
	baseTags Tags
	sentry   *sentry_ext.Client
}

func NewCoreLogger(logger *slog.Logger, params *CoreLoggerParams) *CoreLogger {
	if params == nil {
		params = &CoreLoggerParams{}
	}

	tags := Tags{}
	var args []any
	for key, value := range params.Tags {
		args = append(args, slog.String(key, value))
		tags[key] = value
	}

	return &CoreLogger{
		Logger:   logger.With(args...),
		sentry:   params.Sentry,
		baseTags: tags,
	}
}

// tagsFor merges the logger's base tags with the given args and any attrs
// carried by err.
//
// Base tags take precedence.
func (cl *CoreLogger) tagsFor(err error, args ...any) Tags {
	tags := NewTags(args...)
	for key, value := range wberrors.Tags(err) {
		tags[key] = value
	}
	for key, value := range cl.baseTags {
		tags[key] = value
	}
	return tags
}

// With returns a derived logger that includes the given attrs in each
// message.
func (cl *CoreLogger) With(args ...any) *CoreLogger {
	return &CoreLogger{
		Logger:   cl.Logger.With(args...),
		baseTags: cl.baseTags,
		sentry:   cl.sentry,
	}
}

// CaptureError logs an error and sends it to Sentry.
//
// Attrs attached to the error with wberrors are logged too.
func (cl *CoreLogger) CaptureError(err error, args ...any) {
	logArgs := args
	for _, attr := range wberrors.Attrs(err) {
		logArgs = append(logArgs, attr)
	}
	cl.Error(err.Error(), logArgs...)

	if cl.sentry != nil && !wberrors.SkipSentry(err) {
		cl.sentry.CaptureException(err, cl.tagsFor(err, args...))
	}
}

// CaptureWarn logs a warning and sends it to Sentry.
func (cl *CoreLogger) CaptureWarn(msg string, args ...any) {
	cl.Warn(msg, args...)

	if cl.sentry != nil {
		cl.sentry.CaptureMessage(msg, cl.tagsFor(nil, args...))
	}
}

// Reraise reports a recovered panic to Sentry and panics again.
//
// It must be called directly by a deferred statement.
func (cl *CoreLogger) Reraise(args ...any) {
	if err := recover(); err != nil {
		if cl.sentry != nil {
			cl.sentry.Reraise(err, cl.tagsFor(nil, args...))
		}
		panic(err)
	}
}

// NewNoOpLogger returns a logger that discards all messages.
func NewNoOpLogger() *CoreLogger {
	return NewCoreLogger(
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		nil,
	)
}
