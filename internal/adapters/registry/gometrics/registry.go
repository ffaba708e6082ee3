// Package gometrics exposes a github.com/rcrowley/go-metrics registry as a snapshot source.
package gometrics

import (
	"fmt"

	metrics "github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/vshulcz/metrics-statsd/internal/domain"
	"github.com/vshulcz/metrics-statsd/internal/ports"
)

var percentiles = []float64{0.5, 0.75, 0.95, 0.98, 0.99, 0.999}

// Source reads snapshots out of a go-metrics registry.
type Source struct {
	reg metrics.Registry
	log *zap.Logger
}

var _ ports.Registry = (*Source)(nil)

// New wraps reg. A nil reg gets a fresh registry.
func New(reg metrics.Registry, log *zap.Logger) *Source {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{reg: reg, log: log}
}

// Registry returns the underlying registry for instrumentation.
func (s *Source) Registry() metrics.Registry { return s.reg }

// Snapshot converts every registered metric accepted by filter. Gauges are
// read lazily by the caller; everything else is read here. A metric whose
// accessors panic is skipped and logged.
func (s *Source) Snapshot(filter domain.Filter) (domain.Snapshot, error) {
	var snap domain.Snapshot
	s.reg.Each(func(name string, i interface{}) {
		if e, ok := s.entry(name, i, filter); ok {
			snap = append(snap, e)
		}
	})
	return snap, nil
}

func (s *Source) entry(name string, i interface{}, filter domain.Filter) (e domain.Entry, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("gometrics: skipping metric",
				zap.String("metric", name),
				zap.String("type", fmt.Sprintf("%T", i)),
				zap.Any("panic", r))
			e, ok = domain.Entry{}, false
		}
	}()

	m, ok := convert(i)
	if !ok {
		if _, hc := i.(metrics.Healthcheck); !hc {
			s.log.Debug("gometrics: ignoring metric of unsupported type",
				zap.String("metric", name),
				zap.String("type", fmt.Sprintf("%T", i)))
		}
		return domain.Entry{}, false
	}
	e = domain.Entry{Name: domain.FlatName(name), Metric: m}
	return e, filter.Accept(e)
}

func convert(i interface{}) (domain.Metric, bool) {
	switch m := i.(type) {
	case *FuncGauge:
		return domain.GaugeMetric{Read: m.Object}, true
	case metrics.Gauge:
		return domain.GaugeMetric{Read: func() any { return m.Value() }}, true
	case metrics.GaugeFloat64:
		return domain.GaugeMetric{Read: func() any { return m.Value() }}, true
	case metrics.Counter:
		return domain.CounterMetric{Count: m.Count()}, true
	case metrics.Histogram:
		h := m.Snapshot()
		return domain.HistogramMetric{Sample: sampleOf(h, h.Count(), h.Sample().Size())}, true
	case metrics.Meter:
		return domain.MeterMetric{Rates: ratesOf(m.Snapshot())}, true
	case metrics.Timer:
		t := m.Snapshot()
		// timers do not expose their reservoir, the event count stands in for its size
		return domain.TimerMetric{Rates: ratesOf(t), Sample: sampleOf(t, t.Count(), int(t.Count()))}, true
	default:
		return nil, false
	}
}

type distribution interface {
	Min() int64
	Max() int64
	Mean() float64
	StdDev() float64
	Percentiles([]float64) []float64
}

func sampleOf(d distribution, count int64, size int) domain.Sample {
	ps := d.Percentiles(percentiles)
	return domain.Sample{
		Count:  count,
		Size:   size,
		Min:    float64(d.Min()),
		Max:    float64(d.Max()),
		Mean:   d.Mean(),
		StdDev: d.StdDev(),
		Median: ps[0],
		P75:    ps[1],
		P95:    ps[2],
		P98:    ps[3],
		P99:    ps[4],
		P999:   ps[5],
	}
}

type metered interface {
	Count() int64
	Rate1() float64
	Rate5() float64
	Rate15() float64
	RateMean() float64
}

func ratesOf(m metered) domain.Rates {
	return domain.Rates{
		Count: m.Count(),
		Mean:  m.RateMean(),
		M1:    m.Rate1(),
		M5:    m.Rate5(),
		M15:   m.Rate15(),
	}
}
