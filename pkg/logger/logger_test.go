package logger

import (
	"testing"

	"ai-receipt/pkg/config"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LoggerConfig
		level zapcore.Level
	}{
		{"debug json", config.LoggerConfig{Level: "debug", Format: "json"}, zapcore.DebugLevel},
		{"warn console", config.LoggerConfig{Level: "warn", Format: "console"}, zapcore.WarnLevel},
		{"unknown falls back to info", config.LoggerConfig{Level: "loud"}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !l.Core().Enabled(tt.level) {
				t.Errorf("level %v should be enabled", tt.level)
			}
			if tt.level > zapcore.DebugLevel && l.Core().Enabled(tt.level-1) {
				t.Errorf("level %v should be disabled", tt.level-1)
			}
		})
	}
}

func TestComponentIsNamed(t *testing.T) {
	if Component("receipts") == nil {
		t.Fatal("Component() returned nil")
	}
}
