package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	buffer, cleanup := CaptureLog(t, LogLevelInfo)
	defer cleanup()

	Debug("This should not appear")
	Info("This should appear")
	Warn("This warning should appear")
	Error("This error should appear")

	logs := buffer.String()
	assert.NotContains(t, logs, "This should not appear")
	assert.Contains(t, logs, "This should appear")
	assert.Contains(t, logs, "This warning should appear")
	assert.Contains(t, logs, "This error should appear")
	assert.Contains(t, logs, "level=WARN")
}

func TestLoggerOff(t *testing.T) {
	buffer, cleanup := CaptureLog(t, LogLevelOff)
	defer cleanup()

	Error("silenced")
	assert.Empty(t, buffer.String())

	SetLogLevel(LogLevelDebug)
	Debug("now visible %d", 42)
	assert.Contains(t, buffer.String(), "now visible 42")
}

func TestQuietTest(t *testing.T) {
	before := GetLogLevel()
	restore := QuietTest(t)
	assert.Equal(t, LogLevelOff, GetLogLevel())
	restore()
	assert.Equal(t, before, GetLogLevel())
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		hasError bool
	}{
		{"DEBUG", LogLevelDebug, false},
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{" info ", LogLevelInfo, false},
		{"WARN", LogLevelWarn, false},
		{"WARNING", LogLevelWarn, false},
		{"ERROR", LogLevelError, false},
		{"OFF", LogLevelOff, false},
		{"NONE", LogLevelOff, false},
		{"INVALID", LogLevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLogLevel(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
			if !tt.hasError {
				assert.Equal(t, tt.expected, mustParse(t, level.String()))
			}
		})
	}
}

func mustParse(t *testing.T, s string) LogLevel {
	t.Helper()
	level, err := ParseLogLevel(s)
	assert.NoError(t, err)
	return level
}
