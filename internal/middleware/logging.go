package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-review/internal/logger"
)

// RequestLogger attaches a child logger carrying the request id to the
// request context and writes one line per request once it completes.  It
// must run after echo's RequestID middleware.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			l := log.GetChildLogger()
			l.UpdateContext(func(zc zerolog.Context) zerolog.Context {
				return zc.Str("request_id", rid)
			})
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is known
				c.Error(err)
			}

			status := c.Response().Status
			ev := l.Info()
			if status >= 500 {
				ev = l.Error().Err(err)
			}
			ev.Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
