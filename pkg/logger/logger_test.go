package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Run("invalid level", func(t *testing.T) {
		err := Initialize(Config{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("stderr only", func(t *testing.T) {
		require.NoError(t, Initialize(Config{Level: "debug"}))
		assert.NotNil(t, Logger())
		assert.True(t, Logger().Core().Enabled(-1))
	})

	t.Run("with rotating file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "app.log")

		require.NoError(t, Initialize(Config{Level: "info", File: file}))
		Logger().Info("hello")
		assert.False(t, Logger().Core().Enabled(-1))
	})
}
