package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		log, err := New(tt.level)
		require.NoError(t, err)
		if !log.Core().Enabled(tt.want) {
			t.Errorf("New(%q) disabled %v", tt.level, tt.want)
		}
		if tt.want > zapcore.DebugLevel && log.Core().Enabled(tt.want-1) {
			t.Errorf("New(%q) enabled %v", tt.level, tt.want-1)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud"); !core.ConfigurationError.Has(err) {
		t.Errorf("New(loud) error = %v, want configuration error", err)
	}
}
