package reporter

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vshulcz/metrics-statsd/internal/domain"
)

// LineWriter receives the lines derived from a snapshot.
type LineWriter interface {
	WriteGauge(name string, v domain.Value)
	WriteTimer(name string, v domain.Value)
	WriteCounter(name string, v domain.Value)
}

// Skip records a metric that produced no lines.
type Skip struct {
	Name string
	Kind domain.Kind
	Err  error
}

// Report summarizes one visit.
type Report struct {
	Metrics int
	Lines   int
	Skipped []Skip
}

// Err combines the errors of every skipped metric.
func (r Report) Err() error {
	var err error
	for _, s := range r.Skipped {
		err = multierr.Append(err, fmt.Errorf("%s %s: %w", s.Kind, s.Name, s.Err))
	}
	return err
}

type line struct {
	name  string
	value domain.Value
	typ   domain.StatType
}

// Visitor turns registry snapshots into StatsD lines.
type Visitor struct {
	log            *zap.Logger
	rateFactor     float64
	durationFactor float64
	lines          []line
}

// NewVisitor converts meter rates to events per rateUnit and timer durations
// to durationUnit. Non-positive units fall back to seconds and milliseconds.
func NewVisitor(rateUnit, durationUnit time.Duration, log *zap.Logger) *Visitor {
	if rateUnit <= 0 {
		rateUnit = time.Second
	}
	if durationUnit <= 0 {
		durationUnit = time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Visitor{
		log:            log,
		rateFactor:     rateUnit.Seconds(),
		durationFactor: 1 / float64(durationUnit),
	}
}

var errNoMetric = fmt.Errorf("%w: entry without metric", domain.ErrUnsupportedValue)

var kindOrder = map[domain.Kind]int{
	domain.KindGauge:     0,
	domain.KindCounter:   1,
	domain.KindHistogram: 2,
	domain.KindMeter:     3,
	domain.KindTimer:     4,
}

// Visit writes every metric of snap into w. Gauges come first, then counters,
// histograms, meters and timers, each kind sorted by name. A metric that
// fails to read is skipped as a whole and the rest are still written.
func (v *Visitor) Visit(snap domain.Snapshot, w LineWriter) Report {
	entries := make([]keyed, 0, len(snap))
	var rep Report
	for _, e := range snap {
		if e.Metric == nil {
			name := e.Name.String()
			v.log.Warn("reporter: skipping metric", zap.String("metric", name), zap.Error(errNoMetric))
			rep.Skipped = append(rep.Skipped, Skip{Name: name, Err: errNoMetric})
			continue
		}
		entries = append(entries, keyed{name: e.Name.String(), entry: e})
	}
	slices.SortStableFunc(entries, func(a, b keyed) int {
		if c := cmp.Compare(kindOrder[a.entry.Metric.Kind()], kindOrder[b.entry.Metric.Kind()]); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})

	for _, k := range entries {
		lines, err := v.collect(k.name, k.entry.Metric)
		if err != nil {
			v.log.Warn("reporter: skipping metric",
				zap.String("metric", k.name),
				zap.String("kind", string(k.entry.Metric.Kind())),
				zap.Error(err))
			rep.Skipped = append(rep.Skipped, Skip{Name: k.name, Kind: k.entry.Metric.Kind(), Err: err})
			continue
		}
		for _, l := range lines {
			switch l.typ {
			case domain.Timer:
				w.WriteTimer(l.name, l.value)
			case domain.Counter:
				w.WriteCounter(l.name, l.value)
			default:
				w.WriteGauge(l.name, l.value)
			}
		}
		rep.Metrics++
		rep.Lines += len(lines)
	}
	return rep
}

type keyed struct {
	name  string
	entry domain.Entry
}

// collect reads a metric into lines without writing anything, so a metric
// that panics halfway contributes nothing.
func (v *Visitor) collect(name string, m domain.Metric) (lines []line, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("read panicked: %v", r)
		}
	}()

	v.lines = v.lines[:0]
	switch m := m.(type) {
	case domain.GaugeMetric:
		err = v.gauge(name, m)
	case domain.CounterMetric:
		v.add(name+".count", domain.Int(m.Count), domain.Gauge)
	case domain.HistogramMetric:
		v.sample(name, m.Sample, 1)
	case domain.MeterMetric:
		v.rates(name, m.Rates)
	case domain.TimerMetric:
		v.rates(name, m.Rates)
		v.sample(name, m.Sample, v.durationFactor)
	default:
		err = fmt.Errorf("%w: %T", domain.ErrUnsupportedValue, m)
	}
	if err != nil {
		return nil, err
	}
	return v.lines, nil
}

func (v *Visitor) add(name string, val domain.Value, typ domain.StatType) {
	v.lines = append(v.lines, line{name: name, value: val, typ: typ})
}

func (v *Visitor) gauge(name string, m domain.GaugeMetric) error {
	if m.Read == nil {
		return fmt.Errorf("%w: gauge without reader", domain.ErrUnsupportedValue)
	}
	raw := m.Read()
	val, numeric, err := gaugeValue(raw)
	if err != nil {
		return err
	}
	if !numeric {
		v.log.Warn("reporter: non-numeric gauge sent as text",
			zap.String("metric", name),
			zap.String("type", fmt.Sprintf("%T", raw)))
	}
	v.add(name+".count", val, domain.Gauge)
	return nil
}

func (v *Visitor) rates(name string, r domain.Rates) {
	v.add(name+".count", domain.Int(r.Count), domain.Gauge)
	v.add(name+".meanRate", domain.Float(r.Mean*v.rateFactor), domain.Timer)
	v.add(name+".1MinuteRate", domain.Float(r.M1*v.rateFactor), domain.Timer)
	v.add(name+".5MinuteRate", domain.Float(r.M5*v.rateFactor), domain.Timer)
	v.add(name+".15MinuteRate", domain.Float(r.M15*v.rateFactor), domain.Timer)
}

func (v *Visitor) sample(name string, s domain.Sample, factor float64) {
	v.add(name+".min", domain.Float(s.Min*factor), domain.Timer)
	v.add(name+".max", domain.Float(s.Max*factor), domain.Timer)
	v.add(name+".mean", domain.Float(s.Mean*factor), domain.Timer)
	v.add(name+".stddev", domain.Float(s.StdDev*factor), domain.Timer)
	v.add(name+".median", domain.Float(s.Median*factor), domain.Timer)
	v.add(name+".75percentile", domain.Float(s.P75*factor), domain.Timer)
	v.add(name+".95percentile", domain.Float(s.P95*factor), domain.Timer)
	v.add(name+".98percentile", domain.Float(s.P98*factor), domain.Timer)
	v.add(name+".99percentile", domain.Float(s.P99*factor), domain.Timer)
	v.add(name+".999percentile", domain.Float(s.P999*factor), domain.Timer)
	v.add(name+".sampleCount", domain.Int(int64(s.Size)), domain.Gauge)
}

// gaugeValue maps a gauge reading onto a wire value. The boolean is false
// when the value had to go through its default string form.
func gaugeValue(x any) (domain.Value, bool, error) {
	switch n := x.(type) {
	case nil:
		return domain.Value{}, false, fmt.Errorf("%w: nil", domain.ErrUnsupportedValue)
	case *big.Int:
		if n.IsInt64() {
			return domain.Int(n.Int64()), true, nil
		}
		return domain.Text(n.String()), true, nil
	case *big.Float:
		f, _ := n.Float64()
		return domain.Float(f), true, nil
	case *big.Rat:
		f, _ := n.Float64()
		return domain.Float(f), true, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return domain.Int(rv.Int()), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return domain.Text(strconv.FormatUint(u, 10)), true, nil
		}
		return domain.Int(int64(u)), true, nil
	case reflect.Float32, reflect.Float64:
		return domain.Float(rv.Float()), true, nil
	default:
		return domain.Text(fmt.Sprint(x)), false, nil
	}
}
