// Package sentry_ext reports errors from tblogger to Sentry.
package sentry_ext

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

type Params struct {
	// DSN is the Sentry project to report to.
	//
	// An empty DSN disables reporting.
	DSN string

	// Release is the version of tblogger.
	Release string

	// Commit is the git commit tblogger was built from.
	Commit string

	// Hub is the Sentry hub to use; the current hub if nil.
	Hub *sentry.Hub

	// LRUSize is the number of recent errors remembered for deduplication.
	LRUSize int
}

// Client sends events to Sentry, skipping repeats of recent errors.
type Client struct {
	hub    *sentry.Hub
	recent *cache
}

// New initializes Sentry and returns a client.
//
// Returns nil if the deduplication cache cannot be created.
func New(params Params) *Client {
	hub := params.Hub
	if hub == nil {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              params.DSN,
			AttachStacktrace: true,
			Release:          params.Release,
			Dist:             params.Commit,
		}); err != nil {
			slog.Error("sentry_ext: failed to initialize sentry", "error", err)
		}
		hub = sentry.CurrentHub()
	}

	recent, err := newCache(params.LRUSize)
	if err != nil {
		slog.Error("sentry_ext: failed to create cache", "error", err)
		return nil
	}

	return &Client{hub: hub, recent: recent}
}

// CaptureException sends an error event with the given tags.
func (s *Client) CaptureException(err error, tags map[string]string) {
	if !s.recent.shouldCapture(err.Error()) {
		return
	}

	hub := s.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
	hub.CaptureException(err)
}

// CaptureMessage sends an info event with the given tags.
func (s *Client) CaptureMessage(msg string, tags map[string]string) {
	if !s.recent.shouldCapture(msg) {
		return
	}

	hub := s.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
	hub.CaptureMessage(msg)
}

// Reraise reports a recovered panic value and flushes.
//
// The caller is responsible for panicking again.
func (s *Client) Reraise(recovered any, tags map[string]string) {
	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("%v", recovered)
	}

	// Panics are always reported.
	s.recent.forget(err.Error())
	s.CaptureException(err, tags)
	s.Flush(2 * time.Second)
}

// Flush waits up to the timeout for queued events to be sent.
func (s *Client) Flush(timeout time.Duration) bool {
	return s.hub.Flush(timeout)
}
