// Package logging builds the service's structured zap logger.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLevel = "info"

// NewLogger returns a JSON logger on stdout at the given level. Unknown levels fall back to info.
func NewLogger(level string) (*zap.Logger, error) {
	return build(level, "stdout")
}

// NewStderrLogger is NewLogger writing to stderr, for commands whose stdout is their output.
func NewStderrLogger(level string) (*zap.Logger, error) {
	return build(level, "stderr")
}

func build(level, output string) (*zap.Logger, error) {
	atomic := zap.NewAtomicLevel()
	if err := atomic.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		_ = atomic.UnmarshalText([]byte(defaultLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		NameKey:    "logger",
		CallerKey:  "caller",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(l.String()))
		},
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	cfg := zap.Config{
		Level:             atomic,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// ExitCode logs a non-nil err at error level, flushes l and returns the
// process exit status. Callers run their own cleanup before os.Exit.
func ExitCode(l *zap.Logger, msg string, err error) int {
	code := 0
	if err != nil {
		l.Error(msg, zap.Error(err))
		code = 1
	}
	_ = l.Sync()
	return code
}
