// Package config resolves reporter settings from ENV, CLI flags and defaults, in that order.
package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/vshulcz/metrics-statsd/internal/domain"
	"github.com/vshulcz/metrics-statsd/internal/logger"
)

const (
	defaultStatsdAddr      = "localhost:8125"
	defaultReportInterval  = 10 * time.Second
	defaultPollInterval    = 2 * time.Second
	defaultRateUnit        = time.Second
	defaultDurationUnit    = time.Millisecond
	defaultSendTimeout     = 2 * time.Second
	defaultHealthThreshold = 3
	defaultLogLevel        = "info"
	defaultLogFormat       = logger.FormatJSON
)

type ReporterConfig struct {
	Address         string
	Prefix          string
	Filter          *regexp.Regexp
	ReportInterval  time.Duration
	PollInterval    time.Duration
	RateUnit        time.Duration
	DurationUnit    time.Duration
	SendTimeout     time.Duration
	RuntimeMetrics  bool
	HealthAddress   string
	HealthThreshold int
	LogLevel        zapcore.Level
	LogFormat       string
}

// MetricFilter accepts metrics whose dotted name matches Filter. A nil
// Filter accepts everything.
func (c ReporterConfig) MetricFilter() domain.Filter {
	if c.Filter == nil {
		return nil
	}
	re := c.Filter
	return func(name domain.MetricName, _ domain.Metric) bool {
		return re.MatchString(name.String())
	}
}

type reporterFlags struct {
	envFile         string
	addr            string
	prefix          string
	filter          string
	report          string
	poll            string
	rateUnit        string
	durationUnit    string
	sendTimeout     string
	runtime         string
	health          string
	healthThreshold string
	logLevel        string
	logFormat       string
}

// LoadReporterConfig resolves ENV > CLI > defaults. Variables from an env
// file fill in only what the real environment leaves unset.
func LoadReporterConfig(args []string, out io.Writer) (ReporterConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("reporter", flag.ContinueOnError)
	fs.SetOutput(out)

	var f reporterFlags
	fs.StringVar(&f.envFile, "env-file", "", "dotenv file to load before resolving settings")
	fs.StringVar(&f.addr, "a", "", fmt.Sprintf("statsd collector host:port, default: %s", defaultStatsdAddr))
	fs.StringVar(&f.prefix, "prefix", "", "prefix prepended to every metric name")
	fs.StringVar(&f.filter, "filter", "", "regexp; only matching metric names are reported")
	fs.StringVar(&f.report, "r", "", fmt.Sprintf("report interval (seconds or duration), default: %v", defaultReportInterval))
	fs.StringVar(&f.poll, "p", "", fmt.Sprintf("runtime poll interval (seconds or duration), default: %v", defaultPollInterval))
	fs.StringVar(&f.rateUnit, "rate-unit", "", fmt.Sprintf("unit meter rates are expressed per, default: %v", defaultRateUnit))
	fs.StringVar(&f.durationUnit, "duration-unit", "", fmt.Sprintf("unit timer durations are expressed in, default: %v", defaultDurationUnit))
	fs.StringVar(&f.sendTimeout, "send-timeout", "", fmt.Sprintf("write deadline per datagram, default: %v", defaultSendTimeout))
	fs.StringVar(&f.runtime, "runtime", "", "collect Go runtime and host metrics, default: true")
	fs.StringVar(&f.health, "health", "", "address of the health endpoint, disabled when empty")
	fs.StringVar(&f.healthThreshold, "health-threshold", "", fmt.Sprintf("consecutive send failures before /health reports 503 (0 disables), default: %d", defaultHealthThreshold))
	fs.StringVar(&f.logLevel, "log-level", "", fmt.Sprintf("log level, default: %s", defaultLogLevel))
	fs.StringVar(&f.logFormat, "log-format", "", fmt.Sprintf("log format (json, console, ecs), default: %s", defaultLogFormat))

	if err := fs.Parse(args); err != nil {
		return ReporterConfig{}, err
	}

	if path := FromEnvOrFlag("ENV_FILE", f.envFile, ""); path != "" {
		if err := godotenv.Load(path); err != nil {
			return ReporterConfig{}, fmt.Errorf("load env file: %w", err)
		}
	}

	return resolve(f)
}

func resolve(f reporterFlags) (ReporterConfig, error) {
	var (
		cfg  ReporterConfig
		err  error
		errs error
	)
	collect := func(e error) { errs = multierr.Append(errs, e) }

	cfg.Address = FromEnvOrFlag("STATSD_ADDRESS", f.addr, defaultStatsdAddr)
	if _, _, e := net.SplitHostPort(cfg.Address); e != nil {
		collect(fmt.Errorf("invalid statsd address %q: %w", cfg.Address, e))
	}

	cfg.Prefix = FromEnvOrFlag("METRIC_PREFIX", f.prefix, "")

	if expr := FromEnvOrFlag("METRIC_FILTER", f.filter, ""); expr != "" {
		cfg.Filter, err = regexp.Compile(expr)
		if err != nil {
			collect(fmt.Errorf("invalid metric filter: %w", err))
		}
	}

	cfg.ReportInterval, err = FromEnvOrFlagDuration("REPORT_INTERVAL", f.report, defaultReportInterval)
	collect(err)
	cfg.PollInterval, err = FromEnvOrFlagDuration("POLL_INTERVAL", f.poll, defaultPollInterval)
	collect(err)
	cfg.RateUnit, err = FromEnvOrFlagDuration("RATE_UNIT", f.rateUnit, defaultRateUnit)
	collect(err)
	cfg.DurationUnit, err = FromEnvOrFlagDuration("DURATION_UNIT", f.durationUnit, defaultDurationUnit)
	collect(err)
	cfg.SendTimeout, err = FromEnvOrFlagDuration("SEND_TIMEOUT", f.sendTimeout, defaultSendTimeout)
	collect(err)

	cfg.RuntimeMetrics, err = FromEnvOrFlagBool("RUNTIME_METRICS", f.runtime, true)
	collect(err)

	cfg.HealthAddress = FromEnvOrFlag("HEALTH_ADDRESS", f.health, "")
	cfg.HealthThreshold, err = FromEnvOrFlagInt("HEALTH_FAILURE_THRESHOLD", f.healthThreshold, defaultHealthThreshold, 0)
	collect(err)

	cfg.LogLevel, err = logger.ParseLevel(FromEnvOrFlag("LOG_LEVEL", f.logLevel, defaultLogLevel))
	collect(err)

	cfg.LogFormat = strings.ToLower(FromEnvOrFlag("LOG_FORMAT", f.logFormat, defaultLogFormat))
	switch cfg.LogFormat {
	case logger.FormatJSON, logger.FormatConsole, logger.FormatECS:
	default:
		collect(fmt.Errorf("invalid log format %q", cfg.LogFormat))
	}

	if errs != nil {
		return ReporterConfig{}, errs
	}
	return cfg, nil
}
