package tfevents

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FileName returns the name TensorBoard expects for an events file:
//
//	events.out.tfevents.<time>.<hostname>.<pid>.<seq>[<suffix>]
//
// TensorBoard reads the files of a directory in name order, so the time is
// zero-padded.
//
// Format: https://github.com/tensorflow/tensorboard/blob/f3f26b46981da5bd46a5bb93fcf02d9eb7608bc1/tensorboard/summary/writer/event_file_writer.py#L81
func FileName(
	startTime time.Time,
	hostname string,
	pid int,
	seq int,
	suffix string,
) string {
	return fmt.Sprintf(
		"events.out.tfevents.%010d.%s.%d.%d%s",
		startTime.Unix(),
		hostname,
		pid,
		seq,
		suffix,
	)
}

// FileFilter selects the tfevents files that belong to a run.
//
// The zero value accepts every tfevents file.
type FileFilter struct {
	// StartTimeSec is the minimum start time in Unix epoch seconds.
	//
	// A log directory may accumulate files from earlier runs.
	StartTimeSec int64

	// Hostname is the exact hostname to expect, if not empty.
	//
	// Log directories on shared storage may contain files written by
	// other machines.
	Hostname string
}

// Matches returns whether the tfevents file name is accepted by the filter.
func (f FileFilter) Matches(name string) bool {
	switch {
	// The TensorFlow profiler creates an empty tfevents file with this suffix.
	case strings.HasSuffix(name, ".profile-empty"):
		return false

	// Amazon SageMaker creates temporary copies with this suffix.
	case strings.HasSuffix(name, ".sagemaker-uploaded"):
		return false
	}

	pattern := `tfevents\.(\d+)\.`
	if f.Hostname != "" {
		pattern += regexp.QuoteMeta(f.Hostname) + `(\.|$)`
	}

	matches := regexp.MustCompile(pattern).FindStringSubmatch(name)
	if matches == nil {
		return false
	}

	fileTime, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return false
	}

	return fileTime >= f.StartTimeSec
}
