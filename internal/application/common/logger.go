package common

import (
	"context"
	"time"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger shared.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) shared.Logger {
	if logger, ok := ctx.Value(loggerKey).(shared.Logger); ok && logger != nil {
		return logger
	}
	return shared.NoOpLogger{}
}

// LoggingMiddleware logs every request at debug level and failures at error level
func LoggingMiddleware() Middleware {
	return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		logger := LoggerFromContext(ctx)
		name := RequestName(request)
		start := time.Now()

		response, err := next(ctx, request)

		metadata := map[string]interface{}{
			"request":     name,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err != nil {
			metadata["error"] = err.Error()
			logger.Log(shared.LevelError, "request failed", metadata)
			return response, err
		}
		logger.Log(shared.LevelDebug, "request handled", metadata)
		return response, nil
	}
}
