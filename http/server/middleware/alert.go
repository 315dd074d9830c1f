package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/errwatch/alert"
	"github.com/rise-and-shine/errwatch/http/server"
	"github.com/rise-and-shine/errwatch/reporter"
)

// NewAlertingMW creates a middleware that reports errors escaping the handler
// chain as in-request alerts.
//
// Panics recovered further down carry a stack snapshot in the request locals;
// returned errors are snapshotted from their errx trace. Whether an alert is
// actually sent is up to the reporter's suppression policy.
func NewAlertingMW(rep *reporter.Reporter) server.Middleware {
	return server.Middleware{
		Priority: 600,
		Handler: func(c *fiber.Ctx) error {
			err := c.Next()
			if err == nil {
				return nil
			}

			raised, ok := c.Locals(localsRaisedError).(alert.RaisedError)
			if !ok {
				raised = alert.FromError(err)
				raised.Kind = server.ErrorKind(err)
			}

			rep.Report(c.UserContext(), raised, alert.InRequest)

			return err
		},
	}
}
