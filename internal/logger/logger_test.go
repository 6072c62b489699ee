package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestProperty_EntriesKeepLevelAndMessage(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("each entry decodes with its level, message and timestamp", prop.ForAll(
		func(message string, level zapcore.Level) bool {
			var buf bytes.Buffer
			log := NewJSON(&buf, zapcore.DebugLevel)
			if ce := log.Check(level, message); ce != nil {
				ce.Write()
			}

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			_, stamped := entry["timestamp"]
			return entry["level"] == level.String() && entry["message"] == message && stamped
		},
		gen.AnyString(),
		gen.OneConstOf(zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNewJSON_ErrorEntriesCarryFieldsAndStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, zapcore.InfoLevel)

	log.Error("Payment settlement failed", zap.String("order_number", "ORD-20261017-AB12CD"), zap.Int64("gross_amount", 125000))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "ORD-20261017-AB12CD", entry["order_number"])
	assert.EqualValues(t, 125000, entry["gross_amount"])
	assert.Contains(t, entry, "stacktrace")
	assert.Contains(t, entry, "caller")
}

func TestNewJSON_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, zapcore.WarnLevel)

	log.Info("Cart item added")
	assert.Zero(t, buf.Len())

	log.Warn("Stock shortage")
	assert.Equal(t, "warn", decodeLine(t, &buf)["level"])
}

func TestNew(t *testing.T) {
	tests := []struct {
		env, level string
		enabled    zapcore.Level
		disabled   zapcore.Level
	}{
		{"production", "", zapcore.InfoLevel, zapcore.DebugLevel},
		{"development", "", zapcore.DebugLevel, zapcore.InvalidLevel},
		{"production", "debug", zapcore.DebugLevel, zapcore.InvalidLevel},
		{"staging", "error", zapcore.ErrorLevel, zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			log, err := New(tt.env, tt.level)
			require.NoError(t, err)

			assert.True(t, log.Core().Enabled(tt.enabled))
			if tt.disabled != zapcore.InvalidLevel {
				assert.False(t, log.Core().Enabled(tt.disabled))
			}
		})
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	_, err := New("production", "chatty")
	assert.ErrorContains(t, err, `invalid log level "chatty"`)
}

func TestNewWithDefaults_BadLevelStillLogs(t *testing.T) {
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("LOG_LEVEL", "chatty")

	log := NewWithDefaults()
	require.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}
