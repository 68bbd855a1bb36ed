package logger

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kotvukai/internal/trace"
)

// global holds the process logger. It is a no-op until Init runs so that
// packages and tests can log without setup.
var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // json or console
}

// Init builds the global zap logger
func Init(cfg LogConfig) error {
	var zcfg zap.Config
	if strings.EqualFold(cfg.Format, "console") {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	global.Store(l)
	zap.ReplaceGlobals(l)
	return nil
}

// Set replaces the global logger, used by tests that assert on output
func Set(l *zap.Logger) {
	global.Store(l)
}

// L returns the global logger
func L() *zap.Logger {
	return global.Load()
}

// Sync flushes buffered entries
func Sync() {
	_ = global.Load().Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func withTrace(ctx context.Context) *zap.SugaredLogger {
	s := global.Load().Sugar()
	if ctx == nil {
		return s
	}
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		s = s.With("trace_id", traceID, "span_id", spanID)
	}
	return s
}

func Debug(ctx context.Context, msg string, kv ...any) {
	withTrace(ctx).Debugw(msg, kv...)
}

func Info(ctx context.Context, msg string, kv ...any) {
	withTrace(ctx).Infow(msg, kv...)
}

func Warn(ctx context.Context, msg string, kv ...any) {
	withTrace(ctx).Warnw(msg, kv...)
}

func Error(ctx context.Context, msg string, kv ...any) {
	withTrace(ctx).Errorw(msg, kv...)
}

// ErrorWithErr logs err and records it on the active span
func ErrorWithErr(ctx context.Context, msg string, err error, kv ...any) {
	if ctx != nil {
		trace.RecordError(ctx, err)
	}
	withTrace(ctx).Errorw(msg, append([]any{"error", err}, kv...)...)
}
