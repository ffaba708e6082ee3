// Package runtime samples Go runtime stats and host CPU/RAM usage into a go-metrics registry.
package runtime

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

type memStats = runtime.MemStats

// Collector periodically samples Go runtime stats plus host CPU/RAM metrics.
type Collector struct {
	reg   metrics.Registry
	log   *zap.Logger
	mem   []metrics.GaugeFloat64
	goros metrics.Gauge
	polls metrics.Counter

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New registers the runtime gauges in reg.
func New(reg metrics.Registry, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Collector{
		reg:   reg,
		log:   log,
		mem:   make([]metrics.GaugeFloat64, len(memStatTable)),
		goros: metrics.GetOrRegisterGauge(Goroutines, reg),
		polls: metrics.GetOrRegisterCounter(PollCount, reg),
		stop:  make(chan struct{}),
	}
	for i, s := range memStatTable {
		c.mem[i] = metrics.GetOrRegisterGaugeFloat64(s.name, reg)
	}
	return c
}

// Start launches background goroutines that sample runtime and host metrics at the given interval.
func (c *Collector) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be > 0, got %v", interval)
	}
	c.wg.Add(2)
	go c.loop(ctx, interval, c.PollRuntime)
	go c.loop(ctx, interval, c.PollHost)
	return nil
}

func (c *Collector) loop(ctx context.Context, interval time.Duration, poll func()) {
	defer c.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-t.C:
			poll()
		}
	}
}

// PollRuntime reads runtime.MemStats once.
func (c *Collector) PollRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	for i, s := range memStatTable {
		c.mem[i].Update(s.read(&ms))
	}
	c.goros.Update(int64(runtime.NumGoroutine()))
	c.polls.Inc(1)
}

// PollHost reads host memory and per-CPU utilization once.
func (c *Collector) PollHost() {
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		metrics.GetOrRegisterGaugeFloat64(TotalMemory, c.reg).Update(float64(vm.Total))
		metrics.GetOrRegisterGaugeFloat64(FreeMemory, c.reg).Update(float64(vm.Free))
	} else if err != nil {
		c.log.Debug("runtime: unable to read host memory", zap.Error(err))
	}
	pct, err := cpu.Percent(0, true)
	if err != nil {
		c.log.Debug("runtime: unable to read cpu utilization", zap.Error(err))
		return
	}
	for i, p := range pct {
		name := fmt.Sprintf("%s.%d", CPUUtilization, i+1)
		metrics.GetOrRegisterGaugeFloat64(name, c.reg).Update(p)
	}
}

// Stop signals every collector goroutine to halt and waits for them to finish.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}
