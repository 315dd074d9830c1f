package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/errwatch/http/server"
	"github.com/rise-and-shine/errwatch/meta"
)

// HeaderRequestID is the header carrying a caller supplied trace id.
const HeaderRequestID = fiber.HeaderXRequestID

// NewMetaInjectMW creates a middleware that injects metadata into the request context.
//
// The trace id comes from the active span when one is recording, then from the
// X-Request-ID header, and is generated when both are absent. It is echoed back
// on the response.
func NewMetaInjectMW(svc meta.ServiceInfo) server.Middleware {
	return server.Middleware{
		Priority: 700,
		Handler: func(c *fiber.Ctx) error {
			traceID := getTraceID(c)
			c.Set(HeaderRequestID, traceID)

			metaData := map[meta.ContextKey]string{
				meta.TraceID:        traceID,
				meta.IPAddress:      c.IP(),
				meta.UserAgent:      c.Get(fiber.HeaderUserAgent),
				meta.Referer:        c.Get(fiber.HeaderReferer),
				meta.ServiceName:    svc.Name,
				meta.ServiceVersion: svc.Version,
			}

			ctx := meta.InjectMetaToContext(c.UserContext(), metaData)
			c.SetUserContext(ctx)

			return c.Next()
		},
	}
}

func getTraceID(c *fiber.Ctx) string {
	if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if id := c.Get(HeaderRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
