// Package rblog provides the structured logger shared by every redbike
// component (dispatcher, worker, CLI). It wraps zap the same way the
// upstream logging package does: a package-level SugaredLogger that is
// initialized once at process startup. The dispatcher and worker take a
// logger parameter and fall back to it when given nil; the CLI wiring
// and the built-in echo job body read it directly.
package rblog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names, kept consistent across dispatcher/worker/CLI logs
// so operators can filter by them regardless of which component emitted
// the line.
const (
	FieldJobID     = "job_id"
	FieldQueue     = "queue"
	FieldEvent     = "event"
	FieldSchedule  = "schedule"
	FieldComponent = "component"
	FieldPrefix    = "prefix"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
)

// Logger is the global logger instance. It is safe to read concurrently
// once Initialize has returned; callers must not call Initialize from more
// than one goroutine.
var Logger = zap.NewNop().Sugar()

// Initialize sets up the global logger. jsonOutput selects a production
// JSON core (for log aggregation) over a plain console core (for
// interactive use); both run at info level by default.
func Initialize(jsonOutput bool) error {
	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapLogger, err = cfg.Build()
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.TimeKey = "ts"
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		zapLogger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(os.Stderr),
			zap.InfoLevel,
		))
	}

	if err != nil {
		return err
	}

	Logger = zapLogger.Sugar()
	return nil
}

// WithJob returns a child logger tagged with a job id.
func WithJob(log *zap.SugaredLogger, jobid string) *zap.SugaredLogger {
	return log.With(FieldJobID, jobid)
}

// WithQueue returns a child logger tagged with a queue name.
func WithQueue(log *zap.SugaredLogger, queue string) *zap.SugaredLogger {
	return log.With(FieldQueue, queue)
}
