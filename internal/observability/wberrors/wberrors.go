// Package wberrors defines an error type that carries logging data.
//
// Construct errors with Newf, Enrichf and Bubblef instead of fmt.Errorf:
//
//   - Newf creates an error from a formatted message.
//   - Enrichf prefixes an underlying error's message and keeps its data,
//     without exposing it through errors.Unwrap (like the %v verb).
//   - Bubblef is like Enrichf but exposes the underlying error (like %w).
//
// Attr, Remedy and SkipSentryIf attach data and return the error, so they
// chain:
//
//	return wberrors.Bubblef(err, "tblogger: cannot create %s", dir).
//		Attr(slog.String("datapath", dataPath)).
//		Remedy("check that the data path is writable")
package wberrors

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
)

// Error is a Go error with extra data for logging and Sentry.
//
// Errors are not safe for concurrent mutation. Build them in one statement.
type Error struct {
	msg string // message or context
	err error  // wrapped error or nil

	// wrap is whether err is exposed through Unwrap.
	wrap bool

	noSentry bool
	remedy   string
	attrs    map[string]slog.Value
}

// Newf creates an error using Sprintf to construct the message.
func Newf(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// Enrichf adds context to an error without exposing it to errors.Is.
//
// With an empty format, the message is the same as err's.
func Enrichf(err error, format string, args ...any) *Error {
	return wrap(fmt.Sprintf(format, args...), err, false)
}

// Bubblef is like Enrichf but keeps err visible to errors.Is and errors.As.
func Bubblef(err error, format string, args ...any) *Error {
	return wrap(fmt.Sprintf(format, args...), err, true)
}

func wrap(msg string, err error, expose bool) *Error {
	wrapped := &Error{msg: msg, err: err, wrap: expose}

	var inner *Error
	if errors.As(err, &inner) {
		wrapped.noSentry = inner.noSentry
		wrapped.remedy = inner.remedy
		wrapped.attrs = maps.Clone(inner.attrs)
	}

	return wrapped
}

// Attr associates structured data to the error and returns the error.
//
// It is logged with the error and sent as a Sentry tag if captured.
func (e *Error) Attr(attr slog.Attr) *Error {
	if e.attrs == nil {
		e.attrs = make(map[string]slog.Value)
	}

	e.attrs[attr.Key] = attr.Value
	return e
}

// Remedy records an action the user can take to fix the error.
//
// The remedy is appended to the message.
func (e *Error) Remedy(hint string) *Error {
	e.remedy = hint
	return e
}

// SkipSentryIf marks the error as not worth uploading if the condition holds.
func (e *Error) SkipSentryIf(condition bool) *Error {
	e.noSentry = e.noSentry || condition
	return e
}

// Error implements error.Error.
func (e *Error) Error() string {
	var msg string
	switch {
	case e.err == nil:
		msg = e.msg
	case e.msg == "":
		msg = e.err.Error()
	default:
		msg = fmt.Sprintf("%s: %v", e.msg, e.err)
	}

	var inner *Error
	if e.remedy != "" && !(errors.As(e.err, &inner) && inner.remedy == e.remedy) {
		msg = fmt.Sprintf("%s (%s)", msg, e.remedy)
	}

	return msg
}

// Unwrap returns the inner error if it was wrapped with Bubblef.
func (e *Error) Unwrap() error {
	if !e.wrap {
		return nil
	}
	return e.err
}

// Attrs returns the slog attrs stored in the error.
func Attrs(err error) []slog.Attr {
	var wberr *Error
	if !errors.As(err, &wberr) {
		return nil
	}

	attrs := make([]slog.Attr, 0, len(wberr.attrs))
	for key, value := range wberr.attrs {
		attrs = append(attrs, slog.Attr{Key: key, Value: value})
	}
	return attrs
}

// Tags returns the error's attrs formatted as Sentry tags.
func Tags(err error) map[string]string {
	var wberr *Error
	if !errors.As(err, &wberr) {
		return nil
	}

	tags := make(map[string]string, len(wberr.attrs))
	for key, value := range wberr.attrs {
		tags[key] = value.String()
	}
	return tags
}

// Remedy returns the remediation hint stored in the error, if any.
func Remedy(err error) string {
	var wberr *Error
	if errors.As(err, &wberr) {
		return wberr.remedy
	}
	return ""
}

// SkipSentry reports whether the error was marked as not worth uploading.
func SkipSentry(err error) bool {
	var wberr *Error
	if errors.As(err, &wberr) {
		return wberr.noSentry
	}
	return false
}
