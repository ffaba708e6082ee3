// Package ginserver exposes reporter health over HTTP.
package ginserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/metrics-statsd/internal/services/reporter"
)

// StatsSource reports the current reporter state.
type StatsSource interface {
	Stats() reporter.Stats
}

// Health is the body of `GET /health`.
type Health struct {
	Status    string     `json:"status"`
	Failures  int        `json:"failures"`
	Cycles    int64      `json:"cycles"`
	LastCycle *time.Time `json:"last_cycle,omitempty"`
	LastLines int        `json:"last_lines"`
}

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Handler serves liveness and health probes.
type Handler struct {
	src       StatsSource
	threshold int
}

// NewHandler reports unhealthy once the consecutive send failures reach
// threshold. A threshold <= 0 never reports unhealthy.
func NewHandler(src StatsSource, threshold int) *Handler {
	return &Handler{src: src, threshold: threshold}
}

// Ping handles `GET /ping`.
func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// Health handles `GET /health`.
func (h *Handler) Health(c *gin.Context) {
	st := h.src.Stats()
	body := Health{
		Status:    StatusOK,
		Failures:  st.Failures,
		Cycles:    st.Cycles,
		LastLines: st.LastLines,
	}
	if !st.LastCycle.IsZero() {
		t := st.LastCycle.UTC()
		body.LastCycle = &t
	}

	code := http.StatusOK
	if h.threshold > 0 && st.Failures >= h.threshold {
		body.Status = StatusDegraded
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, body)
}
