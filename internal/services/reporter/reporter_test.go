package reporter

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vshulcz/metrics-statsd/internal/adapters/publisher/statsd"
	"github.com/vshulcz/metrics-statsd/internal/adapters/registry/gometrics"
	"github.com/vshulcz/metrics-statsd/internal/domain"
)

type stubRegistry struct {
	snap  domain.Snapshot
	err   error
	panic bool
}

func (r *stubRegistry) Snapshot(f domain.Filter) (domain.Snapshot, error) {
	if r.panic {
		panic("registry exploded")
	}
	var out domain.Snapshot
	for _, e := range r.snap {
		if f.Accept(e) {
			out = append(out, e)
		}
	}
	return out, r.err
}

type recordingTransport struct {
	connectErr error
	sendErr    error
	connects   int
	closes     int
	sent       []string
	failures   int
}

func (t *recordingTransport) Connect() error {
	t.connects++
	return t.connectErr
}

func (t *recordingTransport) Send(p []byte) error {
	if t.sendErr != nil {
		t.failures++
		return t.sendErr
	}
	t.sent = append(t.sent, string(p))
	return nil
}

func (t *recordingTransport) Close() error {
	t.closes++
	return nil
}

func (t *recordingTransport) FailureCount() int { return t.failures }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func simpleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		entry("g1", gaugeOf(42)),
		entry("c1", domain.CounterMetric{Count: 7}),
	}
}

func TestRunCycle(t *testing.T) {
	tests := []struct {
		name       string
		reg        *stubRegistry
		tr         *recordingTransport
		wantSent   []string
		wantCloses int
		wantLines  int
		wantLog    string
	}{
		{
			name:       "sends one datagram",
			reg:        &stubRegistry{snap: simpleSnapshot()},
			tr:         &recordingTransport{},
			wantSent:   []string{"g1.count:42|g\nc1.count:7|g"},
			wantCloses: 1,
			wantLines:  2,
		},
		{
			name:       "connect failure skips the cycle",
			reg:        &stubRegistry{snap: simpleSnapshot()},
			tr:         &recordingTransport{connectErr: errors.New("no sockets")},
			wantCloses: 1,
			wantLog:    "reporter: unable to connect, skipping cycle",
		},
		{
			name:       "send failure still closes",
			reg:        &stubRegistry{snap: simpleSnapshot()},
			tr:         &recordingTransport{sendErr: errors.New("boom")},
			wantCloses: 1,
			wantLines:  2,
		},
		{
			name:       "registry error",
			reg:        &stubRegistry{err: errors.New("locked")},
			tr:         &recordingTransport{},
			wantCloses: 1,
			wantLog:    "reporter: unable to read registry",
		},
		{
			name:       "registry panic is contained",
			reg:        &stubRegistry{panic: true},
			tr:         &recordingTransport{},
			wantCloses: 1,
			wantLog:    "reporter: cycle aborted",
		},
		{
			name:       "empty registry sends nothing",
			reg:        &stubRegistry{},
			tr:         &recordingTransport{},
			wantCloses: 1,
			wantLog:    "reporter: nothing to report",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			r := New(Config{}, tt.reg, tt.tr, fixedClock{epoch}, zap.New(core))

			require.NotPanics(t, r.RunCycle)

			assert.Equal(t, 1, tt.tr.connects)
			assert.Equal(t, tt.wantCloses, tt.tr.closes)
			assert.Equal(t, tt.wantSent, tt.tr.sent)
			if tt.wantLog != "" {
				assert.Equal(t, 1, logs.FilterMessage(tt.wantLog).Len())
			}

			st := r.Stats()
			assert.Equal(t, int64(1), st.Cycles)
			assert.Equal(t, tt.wantLines, st.LastLines)
			assert.True(t, st.LastCycle.Equal(epoch))
		})
	}
}

func TestRunCycle_PrefixAndFilter(t *testing.T) {
	tr := &recordingTransport{}
	onlyCounters := func(_ domain.MetricName, m domain.Metric) bool {
		return m.Kind() == domain.KindCounter
	}
	r := New(Config{Prefix: "app", Filter: onlyCounters},
		&stubRegistry{snap: simpleSnapshot()}, tr, nil, nil)

	r.RunCycle()
	assert.Equal(t, []string{"app.c1.count:7|g"}, tr.sent)
}

// unreachableSockets opens real sockets but never resolves the collector.
type unreachableSockets struct{}

func (unreachableSockets) Open() (net.PacketConn, error) {
	return net.ListenPacket("udp", "127.0.0.1:0")
}

func (unreachableSockets) Resolve(string) (net.Addr, error) {
	return nil, errors.New("no such host")
}

func TestRunCycle_RepeatedSendFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	tr := statsd.NewTransport("collector.invalid:8125",
		statsd.WithSocketFactory(unreachableSockets{}), statsd.WithLogger(log))
	r := New(Config{}, &stubRegistry{snap: simpleSnapshot()}, tr, nil, log)

	for i := 0; i < 3; i++ {
		r.RunCycle()
	}

	assert.Equal(t, 3, r.Stats().Failures)
	assert.False(t, tr.Connected())

	sendLogs := logs.FilterMessage("statsd: unable to send packet").All()
	require.Len(t, sendLogs, 3)
	assert.Equal(t, zapcore.WarnLevel, sendLogs[0].Level)
	assert.Equal(t, zapcore.DebugLevel, sendLogs[1].Level)
	assert.Equal(t, zapcore.DebugLevel, sendLogs[2].Level)
}

func TestRunCycle_EndToEndUDP(t *testing.T) {
	ln, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer ln.Close()

	src := gometrics.New(nil, nil)
	metrics.GetOrRegisterGauge("g1", src.Registry()).Update(42)
	metrics.GetOrRegisterCounter("c1", src.Registry()).Inc(7)

	tr := statsd.NewTransport(ln.LocalAddr().String())
	r := New(Config{}, src, tr, nil, nil)
	r.RunCycle()

	buf := make([]byte, 1500)
	require.NoError(t, ln.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := ln.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "g1.count:42|g\nc1.count:7|g", string(buf[:n]))
	assert.Equal(t, 0, r.Stats().Failures)
	assert.False(t, tr.Connected())
}

func TestRunCycle_RecoversFromStaleConnection(t *testing.T) {
	ln, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer ln.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	tr := statsd.NewTransport(ln.LocalAddr().String())
	require.NoError(t, tr.Connect())

	r := New(Config{}, &stubRegistry{snap: simpleSnapshot()}, tr, nil, zap.New(core))

	r.RunCycle()
	assert.False(t, tr.Connected(), "failed connect must still release the socket")
	assert.Equal(t, 1, logs.FilterMessage("reporter: unable to connect, skipping cycle").Len())

	r.RunCycle()
	assert.False(t, tr.Connected())

	buf := make([]byte, 1500)
	require.NoError(t, ln.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := ln.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "g1.count:42|g\nc1.count:7|g", string(buf[:n]))
	assert.Equal(t, int64(2), r.Stats().Cycles)
}

func TestRun(t *testing.T) {
	t.Run("rejects non-positive interval", func(t *testing.T) {
		r := New(Config{}, &stubRegistry{}, &recordingTransport{}, nil, nil)
		require.Error(t, r.Run(context.Background(), 0))
	})

	t.Run("reports once more on shutdown", func(t *testing.T) {
		tr := &recordingTransport{}
		r := New(Config{}, &stubRegistry{snap: simpleSnapshot()}, tr, nil, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, r.Run(ctx, time.Hour))

		assert.Equal(t, int64(1), r.Stats().Cycles)
		assert.Len(t, tr.sent, 1)
	})

	t.Run("reports on every tick", func(t *testing.T) {
		tr := &recordingTransport{}
		r := New(Config{}, &stubRegistry{snap: simpleSnapshot()}, tr, nil, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Run(ctx, 5*time.Millisecond) }()

		require.Eventually(t, func() bool { return r.Stats().Cycles >= 2 }, time.Second, time.Millisecond)
		cancel()
		require.NoError(t, <-done)
	})
}
