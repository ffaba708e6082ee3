package ports

import (
	"time"

	"github.com/vshulcz/metrics-statsd/internal/domain"
)

type Registry interface {
	Snapshot(filter domain.Filter) (domain.Snapshot, error)
}

type Transport interface {
	Connect() error
	Send(payload []byte) error
	Close() error
	FailureCount() int
}

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
