package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env   string
		level string
		want  zapcore.Level
	}{
		{"", "", zapcore.DebugLevel},
		{"dev", "warn", zapcore.WarnLevel},
		{"prod", "", zapcore.InfoLevel},
		{"prod", "error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			l, err := NewLogger(tt.env, tt.level)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			assert.False(t, l.Core().Enabled(tt.want-1))
		})
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger("staging", "")
	assert.ErrorContains(t, err, "unknown environment")

	_, err = NewLogger("dev", "loud")
	assert.ErrorContains(t, err, "invalid log level")
}
