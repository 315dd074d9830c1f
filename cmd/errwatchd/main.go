// Command errwatchd is a small service demonstrating error alerting for
// HTTP requests and background jobs.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/errwatch/alert"
	"github.com/rise-and-shine/errwatch/alert/sink"
	"github.com/rise-and-shine/errwatch/cfgloader"
	"github.com/rise-and-shine/errwatch/http/server"
	"github.com/rise-and-shine/errwatch/http/server/middleware"
	"github.com/rise-and-shine/errwatch/meta"
	"github.com/rise-and-shine/errwatch/observability/logger"
	"github.com/rise-and-shine/errwatch/reporter"
)

const (
	serviceName    = "errwatchd"
	serviceVersion = "0.1.0"
)

// Config is the service configuration loaded from ./config/${ENVIRONMENT}.yaml.
type Config struct {
	Logger   logger.Config   `yaml:"logger"`
	Alert    alert.Config    `yaml:"alert"`
	Sink     sink.Config     `yaml:"sink"`
	Reporter reporter.Config `yaml:"reporter"`
	HTTP     server.Config   `yaml:"http"`

	// JobInterval is how often the demo background job runs.
	JobInterval time.Duration `yaml:"job_interval" default:"1m"`
}

func main() {
	cfg := cfgloader.MustLoad[Config]()
	meta.SetServiceInfo(serviceName, serviceVersion)

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err = run(cfg, log); err != nil {
		log.Errorx(err)
		os.Exit(1)
	}
}

func run(cfg Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter, err := alert.NewFormatter(cfg.Alert)
	if err != nil {
		return errx.Wrap(err)
	}

	s, err := sink.New(cfg.Sink, log)
	if err != nil {
		return errx.Wrap(err)
	}
	if c, ok := s.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	rep := reporter.New(
		formatter,
		alert.PolicyFromConfig(cfg.Alert.Suppress),
		s,
		log,
		reporter.WithSendTimeout(cfg.Reporter.SendTimeout),
	)

	srv := server.NewHTTPServer(cfg.HTTP, []server.Middleware{
		middleware.NewMetaInjectMW(meta.Service()),
		middleware.NewAlertingMW(rep),
		middleware.NewLoggerMW(log),
		middleware.NewErrorHandlerMW(cfg.HTTP.HideErrorDetails),
		middleware.NewRecoveryMW(log),
	})
	srv.RegisterRouter(registerRoutes)

	startJob(ctx, rep, cfg.JobInterval, log)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.HTTP.Address())
		errCh <- srv.Start()
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return errx.Wrap(err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	if err = srv.Stop(); err != nil {
		log.Warnx(errx.Wrap(err))
	}
	rep.Close()

	return nil
}

func registerRoutes(r fiber.Router) {
	r.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	r.Get("/boom", func(c *fiber.Ctx) error {
		divisor := c.QueryInt("divisor")
		return c.JSON(fiber.Map{"result": 42 / divisor})
	})

	r.Get("/fail", func(*fiber.Ctx) error {
		return errx.New("upstream dependency unavailable", errx.WithCode("UPSTREAM_UNAVAILABLE"))
	})

	r.Get("/forbidden", func(*fiber.Ctx) error {
		return errx.New("access denied", errx.WithCode("ACCESS_DENIED"), errx.WithType(errx.T_Forbidden))
	})
}

// startJob runs a periodic demo job through the reporter.
func startJob(ctx context.Context, rep *reporter.Reporter, interval time.Duration, log logger.Logger) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		var run int

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run++
				n := run
				// every third run divides by zero and is reported as a background alert
				rep.Go(ctx, func(context.Context) {
					log.Infof("job run %d: %d", n, 100/(n%3))
				})
			}
		}
	}()
}
