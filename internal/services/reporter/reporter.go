// Package reporter drains a metrics registry into a StatsD collector on every tick.
package reporter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/metrics-statsd/internal/adapters/publisher/statsd"
	"github.com/vshulcz/metrics-statsd/internal/domain"
	"github.com/vshulcz/metrics-statsd/internal/ports"
)

// Config holds the reporter settings that shape the payload.
type Config struct {
	Prefix       string
	Filter       domain.Filter
	RateUnit     time.Duration
	DurationUnit time.Duration
}

// Stats describes the reporter state for health checks.
type Stats struct {
	LastCycle time.Time
	Cycles    int64
	LastLines int
	Failures  int
}

// Reporter runs connect, serialize, send and close once per cycle.
type Reporter struct {
	registry  ports.Registry
	transport ports.Transport
	clock     ports.Clock
	log       *zap.Logger
	filter    domain.Filter
	ser       *statsd.Serializer
	visitor   *Visitor

	cycles    atomic.Int64
	lastCycle atomic.Int64
	lastLines atomic.Int64
}

// New wires a registry and a transport together.
func New(cfg Config, reg ports.Registry, tr ports.Transport, clock ports.Clock, log *zap.Logger) *Reporter {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{
		registry:  reg,
		transport: tr,
		clock:     clock,
		log:       log,
		filter:    cfg.Filter,
		ser:       statsd.NewSerializer(cfg.Prefix, log),
		visitor:   NewVisitor(cfg.RateUnit, cfg.DurationUnit, log),
	}
}

// Run reports every interval until ctx is done, then reports one last time.
func (r *Reporter) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("report interval must be > 0, got %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.RunCycle()
			return nil
		case <-ticker.C:
			r.RunCycle()
		}
	}
}

// RunCycle performs one reporting cycle. It never panics and never returns
// an error: failures are logged and the next cycle starts from scratch.
func (r *Reporter) RunCycle() {
	start := r.clock.Now()
	lines := 0
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("reporter: cycle aborted", zap.Any("panic", rec), zap.Stack("stack"))
		}
		r.cycles.Add(1)
		r.lastCycle.Store(start.UnixNano())
		r.lastLines.Store(int64(lines))
	}()

	r.ser.Reset()
	// Close runs even when Connect fails.
	defer func() {
		if err := r.transport.Close(); err != nil {
			r.log.Debug("reporter: error closing transport", zap.Error(err))
		}
	}()
	if err := r.transport.Connect(); err != nil {
		r.log.Warn("reporter: unable to connect, skipping cycle", zap.Error(err))
		return
	}

	snap, err := r.registry.Snapshot(r.filter)
	if err != nil {
		r.log.Warn("reporter: unable to read registry", zap.Error(err))
		return
	}

	rep := r.visitor.Visit(snap, r.ser)
	lines = r.ser.Lines()
	if lines == 0 {
		r.log.Debug("reporter: nothing to report", zap.Int("skipped", len(rep.Skipped)))
		return
	}

	// the transport logs and counts its own failures
	if err := r.transport.Send(r.ser.Bytes()); err != nil {
		return
	}

	r.log.Debug("reporter: cycle complete",
		zap.Int("metrics", rep.Metrics),
		zap.Int("lines", lines),
		zap.Int("bytes", r.ser.Len()),
		zap.Int("skipped", len(rep.Skipped)),
		zap.Duration("duration", r.clock.Now().Sub(start)),
	)
}

// Stats returns a snapshot of the reporter state. Safe for concurrent use.
func (r *Reporter) Stats() Stats {
	s := Stats{
		Cycles:    r.cycles.Load(),
		LastLines: int(r.lastLines.Load()),
		Failures:  r.transport.FailureCount(),
	}
	if ns := r.lastCycle.Load(); ns != 0 {
		s.LastCycle = time.Unix(0, ns)
	}
	return s
}
