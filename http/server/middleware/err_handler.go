package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/errwatch/http/server"
)

// NewErrorHandlerMW renders errors from the handler chain as JSON responses.
//
// The original error keeps propagating after the response is written, so that
// logging and alerting classify what the handler returned rather than its
// rendered form. A response that already carries an error status is left untouched.
func NewErrorHandlerMW(hideDetails bool) server.Middleware {
	return server.Middleware{
		Priority: 400,
		Handler: func(c *fiber.Ctx) error {
			err := c.Next()
			if err == nil || responded(c) {
				return err
			}

			_ = server.WriteErrorResponse(c, err, hideDetails)
			return err
		},
	}
}

func responded(c *fiber.Ctx) bool {
	return c.Response().StatusCode() >= fiber.StatusBadRequest
}
