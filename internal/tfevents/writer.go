package tfevents

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/wandb/tblogger/internal/paths"
)

// EventFileWriter appends events to a single tfevents file.
//
// It is not safe for concurrent use.
type EventFileWriter struct {
	path   paths.AbsolutePath
	file   afero.File
	buf    *bufio.Writer
	record []byte
	closed bool
}

// FileParams configures NewEventFileWriter.
type FileParams struct {
	// Fs is the filesystem to write to.
	Fs afero.Fs

	// Dir is the log directory, which must exist.
	Dir paths.AbsolutePath

	// Now is the file's start time.
	Now time.Time

	Hostname string
	PID      int

	// Seq distinguishes files created by one process in the same second.
	Seq int

	// Suffix is appended to the file name.
	Suffix string
}

// NewEventFileWriter creates a new events file and writes its version
// header.
func NewEventFileWriter(params FileParams) (*EventFileWriter, error) {
	path, err := params.Dir.Child(FileName(
		params.Now,
		params.Hostname,
		params.PID,
		params.Seq,
		params.Suffix,
	))
	if err != nil {
		return nil, fmt.Errorf("tfevents: bad file name: %v", err)
	}

	file, err := params.Fs.OpenFile(
		string(path),
		os.O_WRONLY|os.O_CREATE|os.O_EXCL,
		0o644,
	)
	if err != nil {
		return nil, fmt.Errorf("tfevents: failed to create events file: %w", err)
	}

	w := &EventFileWriter{
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
	}

	if _, err := w.Write(&Event{
		WallTime:    WallTime(params.Now),
		FileVersion: FileVersion,
	}); err != nil {
		_ = file.Close()
		return nil, err
	}

	return w, nil
}

// WallTime converts a time to the seconds-since-epoch used in events.
func WallTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Path returns the path of the events file.
func (w *EventFileWriter) Path() paths.AbsolutePath {
	return w.path
}

// Write appends an event to the file's buffer.
//
// Returns the number of bytes the event occupies in the file.
func (w *EventFileWriter) Write(event *Event) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("tfevents: write to closed file %s", w.path)
	}

	w.record = AppendRecord(w.record[:0], event.Marshal())
	n, err := w.buf.Write(w.record)
	if err != nil {
		return n, fmt.Errorf("tfevents: failed to write event: %w", err)
	}
	return n, nil
}

// Flush writes buffered events to the file and syncs it.
func (w *EventFileWriter) Flush() error {
	if w.closed {
		return nil
	}

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("tfevents: failed to flush events: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("tfevents: failed to sync events file: %w", err)
	}
	return nil
}

// Close flushes and closes the file. Closing twice is a no-op.
func (w *EventFileWriter) Close() error {
	if w.closed {
		return nil
	}

	flushErr := w.Flush()
	w.closed = true

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("tfevents: failed to close events file: %w", err)
	}
	return flushErr
}
