package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ServiceAPI = "storefront-api"
	ServiceCLI = "storectl"
)

// New builds the API logger: JSON in production, coloured console output
// otherwise. A non-empty level overrides the environment default.
func New(env, level string) (*zap.Logger, error) {
	return build(ServiceAPI, env, level)
}

func build(service, env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig = jsonEncoderConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.InitialFields = map[string]interface{}{"service": service}

	return cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// NewJSON writes JSON entries to w. Tests use it to inspect output.
func NewJSON(w io.Writer, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoderConfig()), zapcore.AddSync(w), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// NewWithDefaults is the storectl logger. It reads SERVER_ENV and LOG_LEVEL
// straight from the environment and falls back to a plain production logger
// rather than failing a maintenance command.
func NewWithDefaults() *zap.Logger {
	env := os.Getenv("SERVER_ENV")
	if env == "" {
		env = "development"
	}

	log, err := build(ServiceCLI, env, os.Getenv("LOG_LEVEL"))
	if err != nil {
		log, _ = zap.NewProduction()
		return log.With(zap.String("service", ServiceCLI))
	}
	return log
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.SecondsDurationEncoder
	return cfg
}
