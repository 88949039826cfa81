package version_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/tblogger/cmd/tblogger/root/version"
)

func TestVersionCmd_Template(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := version.NewVersionCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--template={{.version}} {{.gitCommit}}"})

	require.NoError(t, cmd.Execute())

	assert.Equal(t, "dev unknown\n", out.String())
}
