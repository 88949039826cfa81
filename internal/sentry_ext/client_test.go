package sentry_ext_test

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/tblogger/internal/sentry_ext"
)

func newTestClient(t *testing.T) (*sentry_ext.Client, *sentry.MockTransport) {
	t.Helper()

	transport := &sentry.MockTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	})
	require.NoError(t, err)

	return sentry_ext.New(sentry_ext.Params{
		Hub: sentry.NewHub(client, sentry.NewScope()),
	}), transport
}

func TestCaptureException_Deduplicates(t *testing.T) {
	client, transport := newTestClient(t)

	client.CaptureException(errors.New("write failed"), map[string]string{"k": "v"})
	client.CaptureException(errors.New("write failed"), nil)
	client.CaptureException(errors.New("other"), nil)

	events := transport.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "v", events[0].Tags["k"])
}

func TestCaptureMessage(t *testing.T) {
	client, transport := newTestClient(t)

	client.CaptureMessage("metric ppl missing from report", nil)

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "metric ppl missing from report", events[0].Message)
}
