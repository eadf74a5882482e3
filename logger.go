package cardinal

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with aggregation-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithAggregation adds the aggregation name to the logger.
func (l *Logger) WithAggregation(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("aggregation", name),
	}
}

// LogStrategy logs the collector chosen for a segment.
func (l *Logger) LogStrategy(ctx context.Context, segment int, strategy Strategy, maxOrd int64) {
	l.DebugContext(ctx, "collector selected",
		"segment", segment,
		"strategy", strategy.String(),
		"max_ord", maxOrd,
	)
}

// LogSegmentError logs a segment that could not be collected.
func (l *Logger) LogSegmentError(ctx context.Context, segment int, err error) {
	if isCapacityError(err) {
		l.WarnContext(ctx, "segment rejected by capacity limit",
			"segment", segment,
			"error", err,
		)
		return
	}
	l.ErrorContext(ctx, "segment failed",
		"segment", segment,
		"error", err,
	)
}

// LogResult logs a result built for a bucket.
func (l *Logger) LogResult(ctx context.Context, bucket uint64, value uint64, empty bool) {
	l.DebugContext(ctx, "result built",
		"bucket", bucket,
		"value", value,
		"empty", empty,
	)
}

// LogShard logs a finished shard aggregation.
func (l *Logger) LogShard(ctx context.Context, shard, segments int, docs uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "shard aggregation failed",
			"shard", shard,
			"segments", segments,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "shard aggregation completed",
			"shard", shard,
			"segments", segments,
			"docs", docs,
		)
	}
}
