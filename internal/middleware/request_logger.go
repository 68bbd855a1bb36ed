package middleware

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"kotvukai/internal/logger"
	"kotvukai/internal/trace"
)

// Skipper decides whether a request is logged
type Skipper func(c echo.Context) bool

// RequestLogger opens a span per request and logs its outcome through the
// process logger. Skipped requests still get a span.
func RequestLogger(skip Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			ctx, span := trace.StartSpan(req.Context(), fmt.Sprintf("%s %s", req.Method, c.Path()),
				attribute.String("http.method", req.Method),
				attribute.String("http.route", c.Path()),
			)
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
				trace.RecordError(ctx, err)
			}

			status := c.Response().Status
			span.SetAttributes(attribute.Int("http.status_code", status))

			if skip != nil && skip(c) && err == nil {
				return nil
			}

			kv := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			}
			switch {
			case status >= 500:
				logger.Error(ctx, "Request failed", kv...)
			case status >= 400:
				logger.Warn(ctx, "Request rejected", kv...)
			default:
				logger.Info(ctx, "Request handled", kv...)
			}
			return nil
		}
	}
}
