package gometrics

import (
	"math"

	metrics "github.com/rcrowley/go-metrics"
)

// FuncGauge is a gauge whose reading may be of any type, including
// non-numeric values that are reported as text.
//
// It satisfies metrics.Gauge so a go-metrics registry accepts it.
type FuncGauge struct {
	read func() any
}

var _ metrics.Gauge = (*FuncGauge)(nil)

// NewFuncGauge returns a gauge backed by read.
func NewFuncGauge(read func() any) *FuncGauge {
	return &FuncGauge{read: read}
}

// RegisterFuncGauge registers read under name in reg.
func RegisterFuncGauge(reg metrics.Registry, name string, read func() any) error {
	return reg.Register(name, NewFuncGauge(read))
}

// Object returns the raw reading.
func (g *FuncGauge) Object() any { return g.read() }

// Value returns the reading as an int64 for go-metrics consumers, or 0 when
// it is not numeric.
func (g *FuncGauge) Value() int64 {
	switch v := g.read().(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float32:
		return int64(v)
	case float64:
		if math.IsNaN(v) {
			return 0
		}
		return int64(v)
	default:
		return 0
	}
}

// Snapshot returns a read-only copy of the current value.
func (g *FuncGauge) Snapshot() metrics.Gauge { return metrics.GaugeSnapshot(g.Value()) }

// Update panics.
func (g *FuncGauge) Update(int64) {
	panic("Update called on a FuncGauge")
}
