package runtime

// Metric names published by the collector.
const (
	PollCount  = "runtime.poll.count"
	Goroutines = "runtime.goroutines"

	TotalMemory    = "host.memory.total"
	FreeMemory     = "host.memory.free"
	CPUUtilization = "host.cpu.utilization"
)

type memStat struct {
	name string
	read func(*memStats) float64
}

var memStatTable = []memStat{
	{"runtime.memory.alloc", func(m *memStats) float64 { return float64(m.Alloc) }},
	{"runtime.memory.buck_hash_sys", func(m *memStats) float64 { return float64(m.BuckHashSys) }},
	{"runtime.memory.frees", func(m *memStats) float64 { return float64(m.Frees) }},
	{"runtime.gc.cpu_fraction", func(m *memStats) float64 { return m.GCCPUFraction }},
	{"runtime.gc.sys", func(m *memStats) float64 { return float64(m.GCSys) }},
	{"runtime.heap.alloc", func(m *memStats) float64 { return float64(m.HeapAlloc) }},
	{"runtime.heap.idle", func(m *memStats) float64 { return float64(m.HeapIdle) }},
	{"runtime.heap.inuse", func(m *memStats) float64 { return float64(m.HeapInuse) }},
	{"runtime.heap.objects", func(m *memStats) float64 { return float64(m.HeapObjects) }},
	{"runtime.heap.released", func(m *memStats) float64 { return float64(m.HeapReleased) }},
	{"runtime.heap.sys", func(m *memStats) float64 { return float64(m.HeapSys) }},
	{"runtime.gc.last", func(m *memStats) float64 { return float64(m.LastGC) }},
	{"runtime.memory.lookups", func(m *memStats) float64 { return float64(m.Lookups) }},
	{"runtime.mcache.inuse", func(m *memStats) float64 { return float64(m.MCacheInuse) }},
	{"runtime.mcache.sys", func(m *memStats) float64 { return float64(m.MCacheSys) }},
	{"runtime.mspan.inuse", func(m *memStats) float64 { return float64(m.MSpanInuse) }},
	{"runtime.mspan.sys", func(m *memStats) float64 { return float64(m.MSpanSys) }},
	{"runtime.memory.mallocs", func(m *memStats) float64 { return float64(m.Mallocs) }},
	{"runtime.gc.next", func(m *memStats) float64 { return float64(m.NextGC) }},
	{"runtime.gc.forced", func(m *memStats) float64 { return float64(m.NumForcedGC) }},
	{"runtime.gc.count", func(m *memStats) float64 { return float64(m.NumGC) }},
	{"runtime.memory.other_sys", func(m *memStats) float64 { return float64(m.OtherSys) }},
	{"runtime.gc.pause_total_ns", func(m *memStats) float64 { return float64(m.PauseTotalNs) }},
	{"runtime.stack.inuse", func(m *memStats) float64 { return float64(m.StackInuse) }},
	{"runtime.stack.sys", func(m *memStats) float64 { return float64(m.StackSys) }},
	{"runtime.memory.sys", func(m *memStats) float64 { return float64(m.Sys) }},
	{"runtime.memory.total_alloc", func(m *memStats) float64 { return float64(m.TotalAlloc) }},
}
