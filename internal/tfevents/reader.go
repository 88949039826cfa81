package tfevents

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/wandb/tblogger/internal/observability"
)

// Reader reads events out of the tfevents files in a directory.
//
// Files are read in name order. The reader assumes a file is complete once
// a later file exists.
type Reader struct {
	fs     afero.Fs
	dir    string
	filter FileFilter
	logger *observability.CoreLogger

	buffer        []byte
	currentFile   string
	currentOffset int64
}

func NewReader(
	fs afero.Fs,
	dir string,
	filter FileFilter,
	logger *observability.CoreLogger,
) *Reader {
	return &Reader{
		fs:     fs,
		dir:    dir,
		filter: filter,
		logger: logger,
	}
}

// NextEvent reads the next event.
//
// It returns nil if there's no next event yet, and an error if the data is
// corrupt. New files are passed to onNewFile before their events are read.
func (r *Reader) NextEvent(onNewFile func(string)) (*Event, error) {
	for {
		data, n, need, err := DecodeRecord(r.buffer)
		if err != nil {
			return nil, fmt.Errorf("tfevents: %s: %w", r.currentFile, err)
		}

		if n > 0 {
			r.buffer = slices.Clone(r.buffer[n:])
			return UnmarshalEvent(data)
		}

		if !r.ensureBuffer(need, onNewFile) {
			return nil, nil
		}
	}
}

// ensureBuffer tries to read until the buffer has at least count bytes.
func (r *Reader) ensureBuffer(count int, onNewFile func(string)) bool {
	if len(r.buffer) >= count {
		return true
	}

	if r.currentFile == "" {
		r.currentFile = r.nextFile()
		if r.currentFile == "" {
			return false
		}
		onNewFile(r.currentFile)
	}

	for {
		// Look for the next file before reading the current one: once the
		// next file exists, the current one will not change, so reaching its
		// end means it is done.
		nextFile := r.nextFile()

		ok, err := r.readFromCurrent(count)
		if ok {
			return true
		}

		if err != nil && !errors.Is(err, io.EOF) {
			r.logger.CaptureError(
				fmt.Errorf("tfevents: error reading %s: %v", r.currentFile, err))
			return false
		}

		if nextFile == "" {
			return false
		}

		if len(r.buffer) > 0 {
			r.logger.Warn(
				"tfevents: dropping truncated record at end of file",
				"file", r.currentFile,
				"bytes", len(r.buffer),
			)
			r.buffer = r.buffer[:0]
		}

		r.currentFile = nextFile
		r.currentOffset = 0
		onNewFile(r.currentFile)
	}
}

// nextFile returns the path of the first matching file after the current
// one, or "" if there is none yet.
func (r *Reader) nextFile() string {
	// ReadDir returns entries sorted by name.
	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		r.logger.Warn(
			"tfevents: error listing log directory",
			"dir", r.dir,
			"error", err,
		)
		return ""
	}

	current := filepath.Base(r.currentFile)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !r.filter.Matches(name) {
			continue
		}
		if r.currentFile == "" || name > current {
			return filepath.Join(r.dir, name)
		}
	}

	return ""
}

// readFromCurrent reads the current file until the buffer has count bytes.
func (r *Reader) readFromCurrent(count int) (bool, error) {
	file, err := r.fs.Open(r.currentFile)
	if err != nil {
		return false, err
	}
	defer file.Close()

	if _, err := file.Seek(r.currentOffset, io.SeekStart); err != nil {
		return false, err
	}

	// Read at least 4KB at a time to reopen the file less often.
	chunk := make([]byte, max(count-len(r.buffer), 4096))
	for len(r.buffer) < count {
		n, err := file.Read(chunk)
		r.buffer = append(r.buffer, chunk[:n]...)
		r.currentOffset += int64(n)

		if err != nil {
			return false, err
		}
	}

	return true, nil
}

// ReadAll reads every event currently in the directory.
func ReadAll(
	fs afero.Fs,
	dir string,
	filter FileFilter,
	logger *observability.CoreLogger,
) ([]*Event, error) {
	reader := NewReader(fs, dir, filter, logger)

	var events []*Event
	for {
		event, err := reader.NextEvent(func(string) {})
		if err != nil {
			return events, err
		}
		if event == nil {
			return events, nil
		}
		events = append(events, event)
	}
}
