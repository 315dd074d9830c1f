// Package middleware provides the Fiber middleware used by errwatch HTTP servers.
//
// Each middleware declares a Priority; higher values run earlier in the pipeline:
//
//   - MetaInject (700): injects request metadata into the context
//   - Alerting (600): reports errors escaping the handler chain
//   - Logger (500): logs request and response details
//   - ErrorHandler (400): converts errors to standardized responses
//   - Recovery (300): turns handler panics into errors and snapshots the stack
//
// Recovery sits innermost so that a panic reaches every other middleware as a
// plain error.
//
// Usage:
//
//	srv := server.NewHTTPServer(cfg, []server.Middleware{
//		middleware.NewMetaInjectMW(meta.Service()),
//		middleware.NewAlertingMW(rep),
//		middleware.NewLoggerMW(log),
//		middleware.NewErrorHandlerMW(false),
//		middleware.NewRecoveryMW(log),
//	})
package middleware
