package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/vshulcz/metrics-statsd/internal/adapters/collector/runtime"
	"github.com/vshulcz/metrics-statsd/internal/adapters/http/ginserver"
	"github.com/vshulcz/metrics-statsd/internal/adapters/http/ginserver/middlewares"
	"github.com/vshulcz/metrics-statsd/internal/adapters/publisher/statsd"
	"github.com/vshulcz/metrics-statsd/internal/adapters/registry/gometrics"
	"github.com/vshulcz/metrics-statsd/internal/config"
	"github.com/vshulcz/metrics-statsd/internal/logger"
	"github.com/vshulcz/metrics-statsd/internal/services/reporter"
	"github.com/vshulcz/metrics-statsd/pkg/util"
)

// Self-instrumentation gauges.
const (
	failuresGauge = "statsd.reporter.failures"
	cyclesGauge   = "statsd.reporter.cycles"
)

type app struct {
	cfg       config.ReporterConfig
	log       *zap.Logger
	source    *gometrics.Source
	collector *runtime.Collector
	transport *statsd.Transport
	reporter  *reporter.Reporter
	health    *ginserver.Server
}

func run(ctx context.Context, args []string, out io.Writer) error {
	util.PrintBuildInfo(out, buildVersion, buildDate, buildCommit)

	cfg, err := config.LoadReporterConfig(args, out)
	if err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	log, err := logger.New(logger.WithLevel(cfg.LogLevel), logger.WithFormat(cfg.LogFormat))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	return a.run(ctx)
}

func newApp(cfg config.ReporterConfig, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	a.source = gometrics.New(nil, log.Named("registry"))
	a.transport = statsd.NewTransport(cfg.Address,
		statsd.WithSendTimeout(cfg.SendTimeout),
		statsd.WithLogger(log),
	)
	a.reporter = reporter.New(reporter.Config{
		Prefix:       cfg.Prefix,
		Filter:       cfg.MetricFilter(),
		RateUnit:     cfg.RateUnit,
		DurationUnit: cfg.DurationUnit,
	}, a.source, a.transport, nil, log)

	reg := a.source.Registry()
	if err := gometrics.RegisterFuncGauge(reg, failuresGauge, func() any { return a.transport.FailureCount() }); err != nil {
		return nil, fmt.Errorf("register %s: %w", failuresGauge, err)
	}
	if err := gometrics.RegisterFuncGauge(reg, cyclesGauge, func() any { return a.reporter.Stats().Cycles }); err != nil {
		return nil, fmt.Errorf("register %s: %w", cyclesGauge, err)
	}

	if cfg.RuntimeMetrics {
		a.collector = runtime.New(reg, log.Named("runtime"))
	}

	if cfg.HealthAddress != "" {
		router := ginserver.NewRouter(
			ginserver.NewHandler(a.reporter, cfg.HealthThreshold),
			middlewares.ZapLogger(log.Named("http")),
			middlewares.GzipResponse(),
		)
		a.health = ginserver.NewServer(cfg.HealthAddress, router, log)
	}
	return a, nil
}

func (a *app) run(ctx context.Context) error {
	a.log.Info("reporter started",
		append(util.BuildFields(buildVersion, buildDate, buildCommit),
			zap.String("collector", a.cfg.Address),
			zap.String("prefix", a.cfg.Prefix),
			zap.Duration("report", a.cfg.ReportInterval),
			zap.Bool("runtime", a.cfg.RuntimeMetrics),
		)...)

	if a.collector != nil {
		a.collector.PollRuntime()
		if err := a.collector.Start(ctx, a.cfg.PollInterval); err != nil {
			return err
		}
		defer a.collector.Stop()
	}

	healthDone := make(chan error, 1)
	if a.health != nil {
		go func() {
			err := a.health.ListenAndServe(ctx)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("health server failed", zap.Error(err))
			}
			healthDone <- err
		}()
	} else {
		healthDone <- nil
	}

	runErr := a.reporter.Run(ctx, a.cfg.ReportInterval)

	<-healthDone

	st := a.reporter.Stats()
	a.log.Info("reporter stopped",
		zap.Int64("cycles", st.Cycles),
		zap.Int("failures", st.Failures),
	)
	return runErr
}
