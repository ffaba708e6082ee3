package statsd

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/metrics-statsd/internal/domain"
	"github.com/vshulcz/metrics-statsd/internal/ports"
)

// DefaultSendTimeout bounds a single datagram write.
const DefaultSendTimeout = 2 * time.Second

// SocketFactory opens sockets and resolves the collector address.
type SocketFactory interface {
	Open() (net.PacketConn, error)
	Resolve(addr string) (net.Addr, error)
}

// UDPSockets opens unconnected local UDP sockets.
type UDPSockets struct{}

func (UDPSockets) Open() (net.PacketConn, error) {
	return net.ListenPacket("udp", ":0")
}

func (UDPSockets) Resolve(addr string) (net.Addr, error) {
	return net.ResolveUDPAddr("udp", addr)
}

// Transport sends one datagram per cycle to a StatsD collector.
//
// It is meant to be used as Connect, Send, Close on every cycle. Send never
// retries: a failed datagram is counted and logged, the first failure of a
// streak at warn level and the following ones at debug level.
type Transport struct {
	addr     string
	sockets  SocketFactory
	clock    ports.Clock
	timeout  time.Duration
	log      *zap.Logger
	conn     net.PacketConn
	failures atomic.Int64
}

var _ ports.Transport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*Transport)

// WithSocketFactory replaces the UDP socket factory.
func WithSocketFactory(f SocketFactory) Option {
	return func(t *Transport) { t.sockets = f }
}

// WithClock sets the clock used for write deadlines.
func WithClock(c ports.Clock) Option {
	return func(t *Transport) { t.clock = c }
}

// WithSendTimeout bounds each write. Zero disables the deadline.
func WithSendTimeout(d time.Duration) Option {
	return func(t *Transport) { t.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transport) { t.log = l }
}

// NewTransport returns a disconnected transport for addr ("host:port").
func NewTransport(addr string, opts ...Option) *Transport {
	t := &Transport{
		addr:    addr,
		sockets: UDPSockets{},
		clock:   ports.SystemClock{},
		timeout: DefaultSendTimeout,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Connected reports whether a socket is open.
func (t *Transport) Connected() bool { return t.conn != nil }

// Connect opens a local UDP socket. No packet leaves the host.
func (t *Transport) Connect() error {
	if t.conn != nil {
		return domain.ErrAlreadyConnected
	}
	conn, err := t.sockets.Open()
	if err != nil {
		return fmt.Errorf("open udp socket: %w", err)
	}
	t.conn = conn
	return nil
}

// Send writes payload as a single datagram.
func (t *Transport) Send(payload []byte) error {
	if t.conn == nil {
		return t.fail(domain.ErrNotConnected)
	}
	dst, err := t.sockets.Resolve(t.addr)
	if err != nil {
		return t.fail(fmt.Errorf("resolve %s: %w", t.addr, err))
	}
	if t.timeout > 0 {
		if err := t.conn.SetWriteDeadline(t.clock.Now().Add(t.timeout)); err != nil {
			return t.fail(fmt.Errorf("set write deadline: %w", err))
		}
	}
	if _, err := t.conn.WriteTo(payload, dst); err != nil {
		return t.fail(fmt.Errorf("write to %s: %w", t.addr, err))
	}
	t.failures.Store(0)
	return nil
}

func (t *Transport) fail(err error) error {
	n := t.failures.Add(1)
	fields := []zap.Field{
		zap.String("addr", t.addr),
		zap.Int64("failures", n),
		zap.Error(err),
	}
	if n == 1 {
		t.log.Warn("statsd: unable to send packet", fields...)
	} else {
		t.log.Debug("statsd: unable to send packet", fields...)
	}
	return err
}

// Close releases the socket. Closing a disconnected transport is a no-op.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// FailureCount returns the number of consecutive failed sends.
func (t *Transport) FailureCount() int {
	return int(t.failures.Load())
}
