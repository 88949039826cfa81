package cliutil

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"github.com/wandb/tblogger/internal/observability"
	"github.com/wandb/tblogger/internal/sentry_ext"
)

// LoggerParams configures NewLogger.
type LoggerParams struct {
	Out io.Writer

	// Level is a level name like "info" or "debug".
	Level string

	// SentryDSN enables error reporting, if set.
	SentryDSN string

	Release string
	Commit  string
}

// NewLogger returns a logger that prints human-readable lines.
func NewLogger(params LoggerParams) (*observability.CoreLogger, error) {
	level := log.InfoLevel
	if params.Level != "" {
		var err error
		level, err = log.ParseLevel(params.Level)
		if err != nil {
			return nil, err
		}
	}

	handler := log.NewWithOptions(params.Out, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	var coreParams *observability.CoreLoggerParams
	if params.SentryDSN != "" {
		coreParams = &observability.CoreLoggerParams{
			Sentry: sentry_ext.New(sentry_ext.Params{
				DSN:     params.SentryDSN,
				Release: params.Release,
				Commit:  params.Commit,
			}),
			Tags: observability.NewTags("release", params.Release),
		}
	}

	return observability.NewCoreLogger(slog.New(handler), coreParams), nil
}
