package server

import (
	"cmp"
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// Middleware is a Fiber handler with a position in the pipeline.
// Higher Priority runs earlier; equal priorities keep their registration order.
type Middleware struct {
	Priority int
	Handler  fiber.Handler
}

// ApplyMiddlewares registers middlewares on app, highest priority first.
// Entries without a handler are skipped.
func ApplyMiddlewares(app *fiber.App, middlewares []Middleware) {
	ordered := lo.Filter(middlewares, func(mw Middleware, _ int) bool {
		return mw.Handler != nil
	})

	slices.SortStableFunc(ordered, func(a, b Middleware) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	for _, mw := range ordered {
		app.Use(mw.Handler)
	}
}
