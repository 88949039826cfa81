package inspect_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/tblogger/cmd/tblogger/root/inspect"
	"github.com/wandb/tblogger/internal/observabilitytest"
	"github.com/wandb/tblogger/internal/paths"
	"github.com/wandb/tblogger/internal/tfevents"
)

const logDir = paths.AbsolutePath("/tb/run")

func writeEvents(t *testing.T, fs afero.Fs, startSec int64, hostname string, events ...*tfevents.Event) {
	t.Helper()

	require.NoError(t, fs.MkdirAll(string(logDir), 0o755))
	w, err := tfevents.NewEventFileWriter(tfevents.FileParams{
		Fs:       fs,
		Dir:      logDir,
		Now:      time.Unix(startSec, 0),
		Hostname: hostname,
		PID:      1,
	})
	require.NoError(t, err)
	for _, event := range events {
		_, err := w.Write(event)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestInspect(t *testing.T) {
	fs := afero.NewMemMapFs()
	histo, err := tfevents.NewHistogram([]float64{1, 2})
	require.NoError(t, err)
	writeEvents(t, fs, 100, "host",
		tfevents.ScalarEvent(101, 3, "train/loss", 0.5),
		tfevents.HistogramEvent(102, 4, "weights", histo),
	)

	records, err := inspect.Inspect(fs, string(logDir),
		tfevents.FileFilter{}, observabilitytest.NewTestLogger(t))

	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "events.out.tfevents.0000000100.host.1.0", records[0].File)
	assert.Equal(t, "train/loss", records[0].Tag)
	assert.EqualValues(t, 3, records[0].Step)
	assert.Equal(t, 101.0, records[0].WallTime)
	require.NotNil(t, records[0].Value)
	assert.Equal(t, float32(0.5), *records[0].Value)
	assert.Nil(t, records[0].Histogram)

	assert.Equal(t, "weights", records[1].Tag)
	assert.Nil(t, records[1].Value)
	require.NotNil(t, records[1].Histogram)
	assert.Equal(t, 2.0, records[1].Histogram.Num)
}

func TestInspect_FiltersFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeEvents(t, fs, 100, "old", tfevents.ScalarEvent(100, 0, "old", 1))
	writeEvents(t, fs, 200, "new", tfevents.ScalarEvent(200, 0, "new", 1))

	records, err := inspect.Inspect(fs, string(logDir),
		tfevents.FileFilter{StartTimeSec: 150}, observabilitytest.NewTestLogger(t))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].Tag)
}

func TestInspect_EmptyDirectory(t *testing.T) {
	records, err := inspect.Inspect(afero.NewMemMapFs(), "/missing",
		tfevents.FileFilter{}, observabilitytest.NewTestLogger(t))

	require.NoError(t, err)
	assert.Empty(t, records)
}
