package middleware

import (
	"time"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/errwatch/http/server"
	"github.com/rise-and-shine/errwatch/meta"
	"github.com/rise-and-shine/errwatch/observability/logger"
)

// NewLoggerMW creates a middleware that logs HTTP requests and responses.
//
// The logging level follows the status code: info for 2xx/3xx, warn for 4xx
// and error for 5xx. Errors are still unhandled at this point, so their status
// is derived the same way the error handler will derive it.
func NewLoggerMW(log logger.Logger) server.Middleware {
	return server.Middleware{
		Priority: 500,
		Handler: func(c *fiber.Ctx) error {
			start := time.Now()

			err := c.Next()

			l := log.Named("middleware.logger").WithContext(c.UserContext())

			statusCode := c.Response().StatusCode()
			if err != nil {
				statusCode = server.StatusCode(err)
			}

			l = l.With(
				"http_status_code", statusCode,
				"http_method", c.Method(),
				"http_path", c.Path(),
				"http_route", c.Route().Path,
				"hostname", c.Hostname(),
				"duration", time.Since(start),
				"request_size", c.Request().Header.ContentLength(),
				string(meta.ActorType), c.Locals(meta.ActorType),
				string(meta.ActorID), c.Locals(meta.ActorID),
			)

			if err != nil {
				e := errx.AsErrorX(err)
				l = l.With("error", map[string]any{
					"code":    e.Code(),
					"message": e.Error(),
					"type":    e.Type().String(),
					"trace":   e.Trace(),
					"details": e.Details(),
				})
			}

			switch {
			case statusCode >= 500:
				l.Error("request failed")
			case statusCode >= 400:
				l.Warn("request rejected")
			default:
				l.Info("request processed successfully")
			}

			return err
		},
	}
}
