// Package reporter connects the alert core to a delivery sink.
//
// A Reporter decides, formats and dispatches alerts for raised errors.
// Dispatch is fire-and-forget: sink failures are logged and counted, never
// returned to the caller, and there is no retry.
//
// Two call sites are supported through alert.Severity:
//
//   - alert.InRequest, from the HTTP alerting middleware;
//   - alert.Background, from Go and Recover, the hook for background jobs.
package reporter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/code19m/errx"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cast"

	"github.com/rise-and-shine/errwatch/alert"
	"github.com/rise-and-shine/errwatch/alert/sink"
	"github.com/rise-and-shine/errwatch/observability/logger"
)

const (
	MetricReported       = "alerts.reported"
	MetricSuppressed     = "alerts.suppressed"
	MetricDeliveryFailed = "alerts.delivery_failed"
	MetricDropped        = "alerts.dropped"

	codePanicRecovered = "PANIC_RECOVERED"
)

// Config defines configuration options for the reporter.
type Config struct {
	// SendTimeout bounds a single delivery to the sink. Default is 3 seconds.
	SendTimeout time.Duration `yaml:"send_timeout" validate:"required" default:"3s"`
}

// Reporter runs raised errors through the policy and hands reportable ones to a sink.
type Reporter struct {
	formatter   *alert.Formatter
	policy      alert.SuppressionPolicy
	sink        sink.Sink
	log         logger.Logger
	sendTimeout time.Duration

	registry   metrics.Registry
	reported   metrics.Counter
	suppressed metrics.Counter
	failed     metrics.Counter
	dropped    metrics.Counter

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Option customizes a Reporter.
type Option func(*Reporter)

// WithRegistry records outcome counters in the given registry
// instead of a private one.
func WithRegistry(r metrics.Registry) Option {
	return func(rep *Reporter) {
		rep.registry = r
	}
}

// WithSendTimeout overrides the per-delivery timeout.
func WithSendTimeout(d time.Duration) Option {
	return func(rep *Reporter) {
		if d > 0 {
			rep.sendTimeout = d
		}
	}
}

// New creates a Reporter.
func New(
	formatter *alert.Formatter,
	policy alert.SuppressionPolicy,
	s sink.Sink,
	log logger.Logger,
	opts ...Option,
) *Reporter {
	rep := &Reporter{
		formatter:   formatter,
		policy:      policy,
		sink:        s,
		log:         log.Named("reporter"),
		sendTimeout: 3 * time.Second,
	}

	for _, opt := range opts {
		opt(rep)
	}

	if rep.registry == nil {
		rep.registry = metrics.NewRegistry()
	}
	rep.reported = metrics.GetOrRegisterCounter(MetricReported, rep.registry)
	rep.suppressed = metrics.GetOrRegisterCounter(MetricSuppressed, rep.registry)
	rep.failed = metrics.GetOrRegisterCounter(MetricDeliveryFailed, rep.registry)
	rep.dropped = metrics.GetOrRegisterCounter(MetricDropped, rep.registry)

	return rep
}

// Registry returns the registry holding the outcome counters.
func (r *Reporter) Registry() metrics.Registry {
	return r.registry
}

// Report decides whether e is reportable and, if so, formats it and sends
// it to the sink in the background.
func (r *Reporter) Report(ctx context.Context, e alert.RaisedError, severity alert.Severity) alert.Outcome {
	a, ok := r.formatter.Build(e, r.policy, severity)
	if !ok {
		r.suppressed.Inc(1)
		r.log.WithContext(ctx).
			With("error_kind", e.Kind, "severity", severity.String()).
			Debug("alert suppressed")
		return alert.Suppressed
	}

	r.reported.Inc(1)
	r.dispatch(ctx, a)

	return alert.Reported
}

// ReportError captures err with the caller's stack and reports it.
func (r *Reporter) ReportError(ctx context.Context, err error, severity alert.Severity) alert.Outcome {
	if err == nil {
		return alert.Suppressed
	}
	return r.Report(ctx, alert.Capture(err, 1), severity)
}

// Recover reports a panic of the current goroutine as a Background alert
// and swallows it. It must be deferred directly:
//
//	defer rep.Recover(ctx)
func (r *Reporter) Recover(ctx context.Context) {
	rec := recover()
	if rec == nil {
		return
	}

	err := panicError(rec)
	e := alert.Capture(err, 0)

	r.log.WithContext(ctx).
		With("panic_value", fmt.Sprintf("%v", rec), "stack_trace", e.RawTrace).
		Error("recovered from panic")

	r.Report(ctx, e, alert.Background)
}

// Go runs fn in a new goroutine. A panic inside fn is recovered and
// reported as a Background alert.
func (r *Reporter) Go(ctx context.Context, fn func(ctx context.Context)) {
	go func() {
		defer r.Recover(ctx)
		fn(ctx)
	}()
}

// Wait blocks until all in-flight deliveries have finished.
// Reports may still arrive afterwards; use Close on shutdown.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

// Close stops accepting deliveries and waits for the in-flight ones.
// Alerts reported after Close are dropped and counted under MetricDropped.
func (r *Reporter) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reporter) dispatch(ctx context.Context, a alert.Alert) {
	log := r.log.WithContext(ctx)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.dropped.Inc(1)
		log.Warn("reporter closed, alert dropped")
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.sendTimeout)

	go func() {
		defer r.wg.Done()
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				r.failed.Inc(1)
				log.With("panic_value", fmt.Sprintf("%v", rec)).Error("alert sink panicked")
			}
		}()

		if err := r.sink.Send(sendCtx, a.Text()); err != nil {
			r.failed.Inc(1)
			log.With("alert_send_error", err.Error()).Warn("failed to send alert")
		}
	}()
}

// panicError turns a recovered value into an error, keeping errors as they are.
func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}

	msg, err := cast.ToStringE(rec)
	if err != nil {
		msg = fmt.Sprintf("%v", rec)
	}

	return errx.New(
		msg,
		errx.WithCode(codePanicRecovered),
		errx.WithType(errx.T_Internal),
	)
}
