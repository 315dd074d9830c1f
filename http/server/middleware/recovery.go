package middleware

import (
	"fmt"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/errwatch/alert"
	"github.com/rise-and-shine/errwatch/http/server"
	"github.com/rise-and-shine/errwatch/observability/logger"
)

const (
	// localsRaisedError holds the alert snapshot taken while a handler panicked.
	localsRaisedError = "errwatch.raised_error"

	codePanicRecovered = "PANIC_RECOVERED"
)

// NewRecoveryMW creates a middleware that recovers from panics in the request
// handling chain and converts them to structured errors.
//
// The stack is captured while the panic unwinds, so the resulting alert points at
// the panicking function rather than at this middleware. The snapshot is stored in
// the request locals for the alerting middleware.
func NewRecoveryMW(log logger.Logger) server.Middleware {
	return server.Middleware{
		Priority: 300,
		Handler: func(c *fiber.Ctx) (err error) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				err = errx.New(
					fmt.Sprintf("%v", rec),
					errx.WithCode(codePanicRecovered),
					errx.WithType(errx.T_Internal),
				)

				raised := alert.Capture(err, 0)
				c.Locals(localsRaisedError, raised)

				log.Named("middleware.recovery").
					WithContext(c.UserContext()).
					With("panic_value", rec, "stack_trace", raised.RawTrace).
					Error("recovered from panic")
			}()

			return c.Next()
		},
	}
}
