package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfigLevels(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, Config(false).Level.Level())
	assert.Equal(t, zapcore.DebugLevel, Config(true).Level.Level())
	assert.Equal(t, "console", Config(false).Encoding)
}

func TestNew(t *testing.T) {
	l, err := New(true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New(false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}
