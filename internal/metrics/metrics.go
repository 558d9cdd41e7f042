// Package metrics collects counters, gauges and histograms from the booth
// runtime. A Collection fans every call out to its backends; LogMetrics keeps
// running totals and reports them through slog.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
)

// Metrics is one metrics backend.
type Metrics interface {
	// Flush reports anything the backend buffers.
	Flush(ctx context.Context) error

	UpdateGauge(ctx context.Context, name string, value float64) error
	IncrementCounter(ctx context.Context, name string, value uint64) error
	RecordHistogram(ctx context.Context, name string, value float64) error
}

// Collection delegates to every backend it holds. A failing backend does
// not stop the others; their errors are joined.
type Collection struct {
	mu       sync.RWMutex
	backends []Metrics
}

// NewCollection returns a Collection over backends. With none it discards everything.
func NewCollection(backends ...Metrics) *Collection {
	return &Collection{backends: backends}
}

// Add registers another backend.
func (c *Collection) Add(m Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backends = append(c.backends, m)
}

// Len returns the number of backends.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.backends)
}

func (c *Collection) each(fn func(Metrics) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	for _, m := range c.backends {
		if err := fn(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Collection) Flush(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Flush(ctx) })
}

func (c *Collection) UpdateGauge(ctx context.Context, name string, value float64) error {
	return c.each(func(m Metrics) error { return m.UpdateGauge(ctx, name, value) })
}

func (c *Collection) IncrementCounter(ctx context.Context, name string, value uint64) error {
	return c.each(func(m Metrics) error { return m.IncrementCounter(ctx, name, value) })
}

func (c *Collection) RecordHistogram(ctx context.Context, name string, value float64) error {
	return c.each(func(m Metrics) error { return m.RecordHistogram(ctx, name, value) })
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics { return &NoopMetrics{} }

func (NoopMetrics) Flush(context.Context) error                            { return nil }
func (NoopMetrics) UpdateGauge(context.Context, string, float64) error     { return nil }
func (NoopMetrics) IncrementCounter(context.Context, string, uint64) error { return nil }
func (NoopMetrics) RecordHistogram(context.Context, string, float64) error { return nil }

// Summary aggregates the values recorded into one histogram.
type Summary struct {
	Count uint64  `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Mean is Sum/Count, or 0 for an empty summary.
func (s Summary) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

func (s *Summary) observe(v float64) {
	if s.Count == 0 {
		s.Min, s.Max = v, v
	} else {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Count++
	s.Sum += v
}

// LogMetrics keeps every metric in memory and logs a snapshot on Flush.
// Individual updates are logged at Debug.
type LogMetrics struct {
	logger *slog.Logger

	mu         sync.RWMutex
	gauges     map[string]float64
	counters   map[string]uint64
	histograms map[string]*Summary
}

// NewLogMetrics returns a LogMetrics logging to logger, or to slog.Default when nil.
func NewLogMetrics(logger *slog.Logger) *LogMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMetrics{
		logger:     logger,
		gauges:     make(map[string]float64),
		counters:   make(map[string]uint64),
		histograms: make(map[string]*Summary),
	}
}

func (l *LogMetrics) Flush(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	histograms := make(map[string]Summary, len(l.histograms))
	for name, s := range l.histograms {
		histograms[name] = *s
	}
	l.logger.InfoContext(ctx, "metrics",
		"counters", l.counters,
		"gauges", l.gauges,
		"histograms", histograms,
	)
	return nil
}

func (l *LogMetrics) UpdateGauge(ctx context.Context, name string, value float64) error {
	l.mu.Lock()
	l.gauges[name] = value
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "gauge", "name", name, "value", value)
	return nil
}

func (l *LogMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	l.mu.Lock()
	l.counters[name] += value
	total := l.counters[name]
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "counter", "name", name, "delta", value, "total", total)
	return nil
}

func (l *LogMetrics) RecordHistogram(ctx context.Context, name string, value float64) error {
	l.mu.Lock()
	s, ok := l.histograms[name]
	if !ok {
		s = &Summary{}
		l.histograms[name] = s
	}
	s.observe(value)
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "histogram", "name", name, "value", value)
	return nil
}

// Counter returns the running total of a counter.
func (l *LogMetrics) Counter(name string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counters[name]
}

// Gauge returns the last value of a gauge.
func (l *LogMetrics) Gauge(name string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.gauges[name]
	return v, ok
}

// Histogram returns the summary of a histogram.
func (l *LogMetrics) Histogram(name string) (Summary, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.histograms[name]
	if !ok {
		return Summary{}, false
	}
	return *s, true
}

// Metric names reported by the booth runtime.
const (
	MetricInstructionsProcessed = "booth.instructions.processed"
	MetricInstructionsFailed    = "booth.instructions.failed"
	MetricInstructionDurationMs = "booth.instruction.duration_ms"
	MetricLedgerAccounts        = "booth.ledger.accounts"
	MetricExchangeVolumeIn      = "booth.exchange.amount_in"
	MetricExchangeVolumeOut     = "booth.exchange.amount_out"
)

// InstructionCounter returns the per-kind counter name, e.g. booth.instructions.exchange.
func InstructionCounter(kind string) string {
	return "booth.instructions." + kind
}
