package observability_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wandb/tblogger/internal/observability"
	"github.com/wandb/tblogger/internal/observability/wberrors"
	"github.com/wandb/tblogger/internal/observabilitytest"
)

func TestNewTags(t *testing.T) {
	tags := observability.NewTags(
		slog.String("setting", "train"),
		"step", 10,
		42,
		"dangling",
	)

	assert.Equal(t,
		observability.Tags{"setting": "train", "step": "10"},
		tags)
}

func TestCaptureError_LogsErrorAttrs(t *testing.T) {
	logger, logs := observabilitytest.NewRecordingTestLogger(t)

	logger.CaptureError(
		wberrors.Enrichf(errors.New("disk full"), "tblogger: flush failed").
			Attr(slog.String("logdir", "/data/tensorboard/run")),
		"setting", "train",
	)

	records := observabilitytest.ExtractLogs(t, logs)
	assert.Equal(t, []map[string]string{{
		"level":   "ERROR",
		"msg":     "tblogger: flush failed: disk full",
		"setting": "train",
		"logdir":  "/data/tensorboard/run",
	}}, records)
}

func TestWith_AddsAttrs(t *testing.T) {
	logger, logs := observabilitytest.NewRecordingTestLogger(t)

	logger.With("run", "Oct15_14-30").Info("opened writer")

	records := observabilitytest.ExtractLogs(t, logs)
	assert.Equal(t, "Oct15_14-30", records[0]["run"])
}
