package logging

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	levelEnv  = "LOG_LEVEL"
	formatEnv = "LOG_FORMAT"
	outputEnv = "LOG_OUTPUT"
)

// NewLogger builds a zap logger named after the service. LOG_LEVEL selects the level
// (default info), LOG_FORMAT=console switches from JSON to a human readable encoder and
// LOG_OUTPUT redirects entries (default stdout).
func NewLogger(service string) (*zap.Logger, error) {
	return newLogger(service, "stdout")
}

// NewCLILogger is NewLogger for command line tools whose stdout carries data; entries
// go to stderr unless LOG_OUTPUT says otherwise.
func NewCLILogger(service string) (*zap.Logger, error) {
	return newLogger(service, "stderr")
}

func newLogger(service, defaultOutput string) (*zap.Logger, error) {
	level := parseLevel(os.Getenv(levelEnv))

	encoding := "json"
	if strings.EqualFold(strings.TrimSpace(os.Getenv(formatEnv)), "console") {
		encoding = "console"
	}

	output := strings.TrimSpace(os.Getenv(outputEnv))
	if output == "" {
		output = defaultOutput
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encoding,
		EncoderConfig:    encoderConfig(),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}

func parseLevel(raw string) zapcore.Level {
	var level zapcore.Level
	if err := level.Set(strings.ToLower(strings.TrimSpace(raw))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     func(t time.Time, enc zapcore.PrimitiveArrayEncoder) { enc.AppendString(t.UTC().Format(time.RFC3339Nano)) },
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
