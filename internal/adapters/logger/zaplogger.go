package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cryptoPulseBot/internal/ports"
)

// ZapLogger implements ports.Logger on top of a zap.Logger.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger builds a production zap logger. format is "json" or "console".
func NewZapLogger(level LogLevel, format string) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch format {
	case "", "json":
		cfg.Encoding = "json"
	case "console", "text":
		cfg.Encoding = "console"
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	z, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, fmt.Errorf("building zap logger: %w", err)
	}
	return &ZapLogger{logger: z}, nil
}

// NewZapLoggerFromCore wraps an existing zap core.
func NewZapLoggerFromCore(core zapcore.Core) *ZapLogger {
	return &ZapLogger{logger: zap.New(core)}
}

func toZapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) write(ctx context.Context, level zapcore.Level, msg string, err error, fields []map[string]interface{}) {
	ce := l.logger.Check(level, msg)
	if ce == nil {
		return
	}
	merged := mergeFields(fields)
	zf := make([]zap.Field, 0, len(merged)+2)
	if id := ports.RequestID(ctx); id != "" {
		zf = append(zf, zap.String("request_id", id))
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	for _, k := range sortedKeys(merged) {
		zf = append(zf, zap.Any(k, merged[k]))
	}
	ce.Write(zf...)
}

// Debug logs a message at Debug level.
func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(ctx, zapcore.DebugLevel, msg, nil, fields)
}

// Info logs a message at Info level.
func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(ctx, zapcore.InfoLevel, msg, nil, fields)
}

// Warn logs a message at Warning level.
func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.write(ctx, zapcore.WarnLevel, msg, nil, fields)
}

// Error logs an error message at Error level.
func (l *ZapLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.write(ctx, zapcore.ErrorLevel, msg, err, fields)
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
