package tfevents_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wandb/tblogger/internal/tfevents"
)

func TestFileName(t *testing.T) {
	name := tfevents.FileName(time.Unix(1700000000, 0), "gpu-node", 42, 0, "")

	assert.Equal(t, "events.out.tfevents.1700000000.gpu-node.42.0", name)
}

func TestFileName_PadsTime(t *testing.T) {
	name := tfevents.FileName(time.Unix(9000, 0), "host", 1, 2, ".v2")

	assert.Equal(t, "events.out.tfevents.0000009000.host.1.2.v2", name)
}

func Test_Matches(t *testing.T) {
	filter := tfevents.FileFilter{
		Hostname:     "hostname",
		StartTimeSec: 5000,
	}

	t.Run("true if hostname and time are good", func(t *testing.T) {
		assert.True(t,
			filter.Matches("events.out.tfevents.9000.hostname.9743.0.v2"))
	})

	t.Run("true with zero-padded time", func(t *testing.T) {
		assert.True(t,
			filter.Matches("events.out.tfevents.0000009000.hostname.1.0"))
	})

	t.Run("false if hostname is wrong", func(t *testing.T) {
		assert.False(t,
			filter.Matches("events.out.tfevents.9000.WRONG.9743.0.v2"))
	})

	t.Run("false if hostname is only a prefix", func(t *testing.T) {
		assert.False(t,
			filter.Matches("events.out.tfevents.9000.hostname2.9743.0"))
	})

	t.Run("false if time is too early", func(t *testing.T) {
		assert.False(t,
			filter.Matches("events.out.tfevents.1000.hostname.9743.0.v2"))
	})

	t.Run("false with .profile-empty suffix", func(t *testing.T) {
		assert.False(t,
			filter.Matches("events.out.tfevents.9000.hostname.9743.0.v2.profile-empty"))
	})

	t.Run("false with .sagemaker-uploaded suffix", func(t *testing.T) {
		assert.False(t,
			filter.Matches("events.out.tfevents.9000.hostname.9743.0.v2.sagemaker-uploaded"))
	})

	t.Run("false if wrong format", func(t *testing.T) {
		assert.False(t, filter.Matches("not a file name"))
	})

	t.Run("zero filter accepts any host", func(t *testing.T) {
		assert.True(t,
			tfevents.FileFilter{}.Matches("events.out.tfevents.1.anything"))
	})
}
