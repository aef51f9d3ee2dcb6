package middleware

import (
	"log/slog"
	"time"

	"github.com/relaykit/relay/internal/core/domain"
)

// RequestLogger returns a middleware that logs each request at start
// and completion, including method, path, status, and duration.
func RequestLogger(logger *slog.Logger) Func {
	return func(c *domain.Context, next domain.Next) error {
		start := time.Now()

		logger.Info("request started",
			slog.String("request_id", c.RequestID),
			slog.String("method", c.Method),
			slog.String("path", c.Path),
		)

		err := next()

		attrs := []slog.Attr{
			slog.String("request_id", c.RequestID),
			slog.String("method", c.Method),
			slog.String("path", c.Path),
			slog.Int("status", c.StatusCode()),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "request completed", attrs...)

		return err
	}
}
