package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		env   string
		debug bool
		level zap.AtomicLevel
	}{
		{"production", false, zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"development", false, zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"development", true, zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"production", true, zap.NewAtomicLevelAt(zap.DebugLevel)},
	}
	for _, tt := range tests {
		l, err := New(tt.env, tt.debug)
		require.NoError(t, err)
		assert.Equal(t, tt.debug, l.Core().Enabled(zap.DebugLevel), "%s debug=%v", tt.env, tt.debug)
		assert.True(t, l.Core().Enabled(tt.level.Level()))
	}
}
