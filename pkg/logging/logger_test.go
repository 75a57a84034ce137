package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	logger, err := newLogger("warn", false, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = newLogger("warn", true, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = newLogger("", false, false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger("loud", false, false)
	assert.Error(t, err)
}

func TestInstall(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Install(zap.New(core))

	zap.S().Infow("Seeding collection", "rows", 3)
	restore()
	zap.S().Info("after restore")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Seeding collection", logs.All()[0].Message)
}
