package tfevents_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/tblogger/internal/observability"
	"github.com/wandb/tblogger/internal/paths"
	"github.com/wandb/tblogger/internal/tfevents"
)

const logDir = paths.AbsolutePath("/data/tensorboard/run")

func newTestFile(t *testing.T, fs afero.Fs, startSec int64, seq int) *tfevents.EventFileWriter {
	t.Helper()

	require.NoError(t, fs.MkdirAll(string(logDir), 0o755))
	w, err := tfevents.NewEventFileWriter(tfevents.FileParams{
		Fs:       fs,
		Dir:      logDir,
		Now:      time.Unix(startSec, 0),
		Hostname: "host",
		PID:      1,
		Seq:      seq,
	})
	require.NoError(t, err)
	return w
}

func TestWriter_WritesVersionHeader(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := newTestFile(t, fs, 1700000000, 0)
	require.NoError(t, w.Close())

	events, err := tfevents.ReadAll(fs, string(logDir),
		tfevents.FileFilter{}, observability.NewNoOpLogger())

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, tfevents.FileVersion, events[0].FileVersion)
	assert.Equal(t, 1700000000.0, events[0].WallTime)
	assert.Equal(t,
		"/data/tensorboard/run/events.out.tfevents.1700000000.host.1.0",
		string(w.Path()))
}

func TestWriter_BuffersUntilFlush(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := newTestFile(t, fs, 1, 0)

	_, err := w.Write(tfevents.ScalarEvent(1, 1, "loss", 1))
	require.NoError(t, err)
	info, err := fs.Stat(string(w.Path()))
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	require.NoError(t, w.Flush())
	info, err = fs.Stat(string(w.Path()))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriter_WriteAfterClose(t *testing.T) {
	w := newTestFile(t, afero.NewMemMapFs(), 1, 0)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err := w.Write(tfevents.ScalarEvent(1, 1, "loss", 1))

	assert.Error(t, err)
}

func TestWriter_RefusesExistingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	newTestFile(t, fs, 1, 0)

	_, err := tfevents.NewEventFileWriter(tfevents.FileParams{
		Fs: fs, Dir: logDir, Now: time.Unix(1, 0), Hostname: "host", PID: 1,
	})

	assert.Error(t, err)
}

func TestReader_ReadsSequenceOfFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	w1 := newTestFile(t, fs, 1, 0)
	_, _ = w1.Write(tfevents.ScalarEvent(1, 1, "loss", 1))
	_, _ = w1.Write(tfevents.ScalarEvent(1, 2, "loss", 2))
	require.NoError(t, w1.Close())
	w2 := newTestFile(t, fs, 2, 0)
	_, _ = w2.Write(tfevents.ScalarEvent(2, 3, "loss", 3))
	require.NoError(t, w2.Close())
	require.NoError(t, afero.WriteFile(fs, string(logDir)+"/notes.txt", []byte("x"), 0o644))

	var files []string
	reader := tfevents.NewReader(fs, string(logDir),
		tfevents.FileFilter{}, observability.NewNoOpLogger())
	var steps []int64
	for {
		event, err := reader.NextEvent(func(path string) { files = append(files, path) })
		require.NoError(t, err)
		if event == nil {
			break
		}
		if event.FileVersion == "" {
			steps = append(steps, event.Step)
		}
	}

	assert.Equal(t, []int64{1, 2, 3}, steps)
	assert.Equal(t, []string{string(w1.Path()), string(w2.Path())}, files)
}

func TestReader_WaitsForMoreData(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := newTestFile(t, fs, 1, 0)
	require.NoError(t, w.Flush())
	reader := tfevents.NewReader(fs, string(logDir),
		tfevents.FileFilter{}, observability.NewNoOpLogger())

	header, err := reader.NextEvent(func(string) {})
	require.NoError(t, err)
	require.NotNil(t, header)
	none, err := reader.NextEvent(func(string) {})
	require.NoError(t, err)
	assert.Nil(t, none)

	_, _ = w.Write(tfevents.ScalarEvent(1, 5, "valid/ppl", 9))
	require.NoError(t, w.Flush())
	event, err := reader.NextEvent(func(string) {})

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.EqualValues(t, 5, event.Step)
}

func TestReader_DetectsCorruption(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := newTestFile(t, fs, 1, 0)
	require.NoError(t, w.Close())
	data, err := afero.ReadFile(fs, string(w.Path()))
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, afero.WriteFile(fs, string(w.Path()), data, 0o644))

	_, err = tfevents.ReadAll(fs, string(logDir),
		tfevents.FileFilter{}, observability.NewNoOpLogger())

	assert.ErrorIs(t, err, tfevents.ErrChecksum)
}
