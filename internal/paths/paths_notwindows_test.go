//go:build !windows

package paths_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandb/tblogger/internal/paths"
)

func TestAbsolute_RemovesTrailingSlash(t *testing.T) {
	path, err := paths.Absolute("/data/tensorboard/")

	require.NoError(t, err)
	assert.Equal(t, "/data/tensorboard", string(*path))
}

func TestAbsolute_GivenRelativePath_JoinsToCWD(t *testing.T) {
	cwd, err := paths.CWD()
	require.NoError(t, err)

	path, err := paths.Absolute(".")
	require.NoError(t, err)

	assert.Equal(t, string(*cwd), string(*path))
}

func TestRelative_GivenAbsolutePath_Fails(t *testing.T) {
	path, err := paths.Relative("/absolute/path")

	assert.Nil(t, path)
	assert.ErrorContains(t, err, `path is not relative: "/absolute/path"`)
}

func TestChild(t *testing.T) {
	base := paths.AbsolutePath("/data")

	t.Run("nested name", func(t *testing.T) {
		child, err := base.Child("tensorboard/Oct15_14-30")

		require.NoError(t, err)
		assert.Equal(t, "/data/tensorboard/Oct15_14-30", string(child))
	})

	t.Run("escaping name", func(t *testing.T) {
		_, err := base.Child("../elsewhere")

		assert.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := base.Child("")

		assert.Error(t, err)
	})

	t.Run("absolute name", func(t *testing.T) {
		_, err := base.Child("/etc")

		assert.Error(t, err)
	})
}

func TestRelativeTo(t *testing.T) {
	rel, err := paths.AbsolutePath("/data/tensorboard/run/events").
		RelativeTo("/data/tensorboard")

	require.NoError(t, err)
	assert.Equal(t, "run/events", rel.ToSlash())
	assert.True(t, rel.IsLocal())
}

func TestOrEmpty_Nil(t *testing.T) {
	var path *paths.AbsolutePath

	assert.Equal(t, "", path.OrEmpty())
}
