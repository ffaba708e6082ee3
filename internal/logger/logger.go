// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"
	"strings"

	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats accepted by WithFormat.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatECS     = "ecs"
)

type settings struct {
	conf zap.Config
	ecs  bool
	err  error
}

// Option tweaks the production config before the logger is built.
type Option func(*settings)

// WithLevel sets the minimum enabled level.
func WithLevel(l zapcore.Level) Option {
	return func(s *settings) { s.conf.Level = zap.NewAtomicLevelAt(l) }
}

// WithFormat selects json, console or ecs output.
func WithFormat(format string) Option {
	return func(s *settings) {
		switch strings.ToLower(format) {
		case "", FormatJSON:
		case FormatConsole:
			s.conf.Encoding = "console"
			s.conf.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		case FormatECS:
			s.ecs = true
			s.conf.EncoderConfig = ecszap.NewDefaultEncoderConfig().ToZapCoreEncoderConfig()
		default:
			s.err = fmt.Errorf("invalid log format %q", format)
		}
	}
}

// WithOutputPaths replaces the default stderr sink.
func WithOutputPaths(paths ...string) Option {
	return func(s *settings) { s.conf.OutputPaths = paths }
}

// New returns a logger.
func New(opts ...Option) (*zap.Logger, error) {
	s := settings{conf: zap.NewProductionConfig()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.err != nil {
		return nil, s.err
	}

	buildOpts := []zap.Option{zap.AddCaller()}
	if s.ecs {
		buildOpts = append(buildOpts, ecszap.WrapCoreOption())
	}
	return s.conf.Build(buildOpts...)
}

// ParseLevel parses s case-insensitively. "off" maps past Fatal so nothing is logged.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "critical":
		return zapcore.FatalLevel, nil
	case "off":
		return zapcore.FatalLevel + 1, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", s)
}
