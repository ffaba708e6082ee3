package statsd

import (
	"bytes"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/vshulcz/metrics-statsd/internal/domain"
)

// Sink receives rendered lines. *bytes.Buffer is the usual implementation.
type Sink interface {
	io.Writer
	Bytes() []byte
	Len() int
	Reset()
}

// Serializer accumulates StatsD lines for one reporting cycle.
//
// Lines are separated by '\n' with no trailing separator, so the buffer can be
// sent as a datagram as is.
type Serializer struct {
	sink    Sink
	prefix  string
	log     *zap.Logger
	scratch []byte
	value   []byte
	newline bool
	lines   int
}

// NewSerializer returns a Serializer backed by an in-memory buffer.
func NewSerializer(prefix string, log *zap.Logger) *Serializer {
	return NewSerializerTo(new(bytes.Buffer), prefix, log)
}

// NewSerializerTo returns a Serializer writing into sink.
func NewSerializerTo(sink Sink, prefix string, log *zap.Logger) *Serializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Serializer{sink: sink, prefix: NormalizePrefix(prefix), log: log}
}

// NormalizePrefix sanitizes prefix and terminates a non-empty one with '.'.
func NormalizePrefix(prefix string) string {
	prefix = Sanitize(strings.TrimSpace(prefix))
	if prefix == "" || strings.HasSuffix(prefix, ".") {
		return prefix
	}
	return prefix + "."
}

// Reset clears the buffer. Call it once before every cycle.
func (s *Serializer) Reset() {
	s.sink.Reset()
	s.newline = false
	s.lines = 0
}

// Bytes returns the payload written since the last Reset.
func (s *Serializer) Bytes() []byte { return s.sink.Bytes() }

// Len returns the payload size in bytes.
func (s *Serializer) Len() int { return s.sink.Len() }

// Lines returns the number of lines written since the last Reset.
func (s *Serializer) Lines() int { return s.lines }

// WriteGauge appends a "|g" line.
func (s *Serializer) WriteGauge(name string, v domain.Value) {
	s.writeLine(name, v, domain.Gauge)
}

// WriteTimer appends a "|ms" line.
func (s *Serializer) WriteTimer(name string, v domain.Value) {
	s.writeLine(name, v, domain.Timer)
}

// WriteCounter appends a "|c" line.
func (s *Serializer) WriteCounter(name string, v domain.Value) {
	s.writeLine(name, v, domain.Counter)
}

func (s *Serializer) writeLine(name string, v domain.Value, typ domain.StatType) {
	var err error
	s.value, err = v.AppendTo(s.value[:0])
	if err != nil {
		s.log.Warn("statsd: dropping line", zap.String("metric", name), zap.Error(err))
		return
	}

	line := s.scratch[:0]
	if s.newline {
		line = append(line, '\n')
	}
	line = append(line, s.prefix...)
	line = appendSanitized(line, name)
	line = append(line, ':')
	line = appendSanitized(line, string(s.value))
	line = append(line, '|')
	line = append(line, typ...)
	s.scratch = line

	if _, err := s.sink.Write(line); err != nil {
		s.log.Error("statsd: error serializing metric", zap.String("metric", name), zap.Error(err))
		return
	}
	s.newline = true
	s.lines++
}
