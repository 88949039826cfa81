// Package summarywriter is the "tensorboard" writer backend.
//
// Importing it registers the backend with tblogger. Events go to a single
// tfevents file in the run's log directory.
package summarywriter

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/wandb/tblogger/internal/observability"
	"github.com/wandb/tblogger/internal/tblogger"
	"github.com/wandb/tblogger/internal/tfevents"
)

const (
	// DefaultMaxQueue is the number of pending events that forces a flush.
	DefaultMaxQueue = 10

	// DefaultFlushInterval is how often pending events are flushed.
	DefaultFlushInterval = 2 * time.Minute

	// maxOpenAttempts bounds how many sequence numbers are tried when
	// another writer created a file in the same second.
	maxOpenAttempts = 100
)

func init() {
	tblogger.Register(tblogger.DefaultBackend, Open)
}

// DefaultMetrics are the counters used by writers opened through the
// backend registry. They are registered with prometheus.DefaultRegisterer.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// Options configures a SummaryWriter. Zero values select defaults.
type Options struct {
	MaxQueue      int
	FlushInterval time.Duration

	// MaxBins limits the number of histogram buckets, if positive.
	MaxBins int

	// Now is the clock for event wall times.
	Now func() time.Time

	Hostname string
	PID      int

	// Suffix is appended to the events file name.
	Suffix string

	Metrics *Metrics
}

// SummaryWriter writes scalars and histograms to a tfevents file.
//
// It is not safe for concurrent use.
type SummaryWriter struct {
	file    *tfevents.EventFileWriter
	logger  *observability.CoreLogger
	metrics *Metrics
	now     func() time.Time

	maxQueue  int
	maxBins   int
	pending   int
	sometimes rate.Sometimes
	closed    bool
}

// Open opens a SummaryWriter configured by the params.
//
// Unset params select defaults.
func Open(params tblogger.OpenParams) (tblogger.Writer, error) {
	return New(params, Options{
		MaxQueue:      params.MaxQueue,
		FlushInterval: params.FlushInterval,
		MaxBins:       params.MaxBins,
	})
}

// New creates an events file in the log directory.
func New(params tblogger.OpenParams, opts Options) (*SummaryWriter, error) {
	if opts.MaxQueue <= 0 {
		opts.MaxQueue = DefaultMaxQueue
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Hostname == "" {
		opts.Hostname, _ = os.Hostname()
	}
	if opts.PID == 0 {
		opts.PID = os.Getpid()
	}
	if opts.Metrics == nil {
		opts.Metrics = DefaultMetrics
	}
	logger := params.Logger
	if logger == nil {
		logger = observability.NewNoOpLogger()
	}

	file, err := openFile(params, opts)
	if err != nil {
		return nil, err
	}

	w := &SummaryWriter{
		file:      file,
		logger:    logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
		maxQueue:  opts.MaxQueue,
		maxBins:   opts.MaxBins,
		sometimes: rate.Sometimes{Interval: opts.FlushInterval},
	}

	// The first call always runs, so the version header is flushed now and
	// the interval starts from here.
	var flushErr error
	w.sometimes.Do(func() { flushErr = w.Flush() })
	if flushErr != nil {
		_ = file.Close()
		return nil, flushErr
	}

	logger.Debug("summarywriter: opened events file", "path", string(file.Path()))
	return w, nil
}

func openFile(
	params tblogger.OpenParams,
	opts Options,
) (*tfevents.EventFileWriter, error) {
	fileParams := tfevents.FileParams{
		Fs:       params.Fs,
		Dir:      params.LogDir,
		Now:      opts.Now(),
		Hostname: opts.Hostname,
		PID:      opts.PID,
		Suffix:   opts.Suffix,
	}

	for seq := range maxOpenAttempts {
		fileParams.Seq = seq

		file, err := tfevents.NewEventFileWriter(fileParams)
		switch {
		case err == nil:
			return file, nil
		case errors.Is(err, os.ErrExist):
			continue
		default:
			return nil, err
		}
	}

	return nil, fmt.Errorf(
		"summarywriter: too many events files in %s", params.LogDir)
}

// Path returns the path of the events file.
func (w *SummaryWriter) Path() string {
	return string(w.file.Path())
}

// AddScalar implements tblogger.Writer.AddScalar.
func (w *SummaryWriter) AddScalar(tag string, value float64, step int64) error {
	return w.write(kindScalar, tfevents.ScalarEvent(
		tfevents.WallTime(w.now()), step, tag, value))
}

// AddHistogram implements tblogger.Writer.AddHistogram.
func (w *SummaryWriter) AddHistogram(tag string, values []float64, step int64) error {
	histo, err := tfevents.NewHistogram(values)
	if err != nil {
		return fmt.Errorf("summarywriter: histogram %q: %v", tag, err)
	}

	if w.maxBins > 0 {
		histo, err = tfevents.Rebin(histo, w.maxBins)
		if err != nil {
			return fmt.Errorf("summarywriter: histogram %q: %v", tag, err)
		}
	}

	return w.write(kindHistogram, tfevents.HistogramEvent(
		tfevents.WallTime(w.now()), step, tag, histo))
}

func (w *SummaryWriter) write(kind string, event *tfevents.Event) error {
	if w.closed {
		return errors.New("summarywriter: writer is closed")
	}

	n, err := w.file.Write(event)
	w.metrics.Bytes().Add(float64(n))
	if err != nil {
		return err
	}
	w.metrics.Events(kind).Inc()
	w.pending++

	if w.pending >= w.maxQueue {
		return w.Flush()
	}

	var flushErr error
	w.sometimes.Do(func() { flushErr = w.Flush() })
	return flushErr
}

// Flush implements tblogger.Writer.Flush.
func (w *SummaryWriter) Flush() error {
	if w.closed {
		return nil
	}

	if err := w.file.Flush(); err != nil {
		return err
	}
	w.pending = 0
	w.metrics.Flushes().Inc()
	return nil
}

// Close implements tblogger.Writer.Close.
//
// Pending events are flushed. Closing twice does nothing.
func (w *SummaryWriter) Close() error {
	if w.closed {
		return nil
	}

	pending := w.pending
	err := w.file.Close()
	w.closed = true
	if err != nil {
		return err
	}

	if pending > 0 {
		w.metrics.Flushes().Inc()
	}
	w.logger.Debug("summarywriter: closed events file", "path", w.Path())
	return nil
}
