package domain

import "strings"

// StatType is the StatsD type code carried at the end of every line.
type StatType string

const (
	// Counter is the StatsD counter code.
	Counter StatType = "c"
	// Timer is the StatsD timing code.
	Timer StatType = "ms"
	// Gauge is the StatsD gauge code.
	Gauge StatType = "g"
)

// MetricName is a hierarchical metric name: group.type.scope.name.
type MetricName struct {
	Group string
	Type  string
	Scope string
	Name  string
}

// FlatName wraps an already joined registry name.
func FlatName(name string) MetricName {
	return MetricName{Name: name}
}

// String joins the non-empty parts with '.'.
func (n MetricName) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{n.Group, n.Type, n.Scope, n.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// Kind names a metric variant, mostly for logs.
type Kind string

const (
	KindGauge     Kind = "gauge"
	KindCounter   Kind = "counter"
	KindHistogram Kind = "histogram"
	KindMeter     Kind = "meter"
	KindTimer     Kind = "timer"
)

// Metric is one of GaugeMetric, CounterMetric, HistogramMetric, MeterMetric or TimerMetric.
type Metric interface {
	Kind() Kind
	metric()
}

// GaugeMetric reads its value lazily; Read may return any type or panic.
type GaugeMetric struct {
	Read func() any
}

// CounterMetric is a running total.
type CounterMetric struct {
	Count int64
}

// Sample holds the statistics of a sampled distribution.
type Sample struct {
	Count  int64
	Size   int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
	P75    float64
	P95    float64
	P98    float64
	P99    float64
	P999   float64
}

// Rates holds a total plus moving-average rates in events per second.
type Rates struct {
	Count int64
	Mean  float64
	M1    float64
	M5    float64
	M15   float64
}

// HistogramMetric is a distribution of unitless values.
type HistogramMetric struct {
	Sample
}

// MeterMetric tracks event rates.
type MeterMetric struct {
	Rates
}

// TimerMetric is a meter plus a distribution of durations in nanoseconds.
type TimerMetric struct {
	Rates
	Sample
}

func (GaugeMetric) Kind() Kind     { return KindGauge }
func (CounterMetric) Kind() Kind   { return KindCounter }
func (HistogramMetric) Kind() Kind { return KindHistogram }
func (MeterMetric) Kind() Kind     { return KindMeter }
func (TimerMetric) Kind() Kind     { return KindTimer }

func (GaugeMetric) metric()     {}
func (CounterMetric) metric()   {}
func (HistogramMetric) metric() {}
func (MeterMetric) metric()     {}
func (TimerMetric) metric()     {}

// Entry is one named metric of a registry snapshot.
type Entry struct {
	Name   MetricName
	Metric Metric
}

// Snapshot is a point-in-time read of a registry.
type Snapshot []Entry

// Filter selects the metrics to report. A nil Filter accepts everything.
type Filter func(name MetricName, m Metric) bool

// Accept reports whether the entry passes the filter.
func (f Filter) Accept(e Entry) bool {
	return f == nil || f(e.Name, e.Metric)
}
