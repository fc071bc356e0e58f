// Package metrics records parse job activity as Prometheus metrics.
//
// # Basic Usage
//
//	c := metrics.NewCollector("delimited", true)
//	timer := metrics.NewTimer("scan")
//	scanChunks()
//	c.ObservePhase(timer)
//	c.Chunk(len(data))
//	c.Recovered(metrics.KindMalformedNumeric, 3)
//
// All collectors share the package level vectors; a disabled collector
// records nothing.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recovered cell kinds
const (
	KindMalformedNumeric  = "malformed_numeric"
	KindRowWidth          = "row_width"
	KindUnterminatedQuote = "unterminated_quote"
	KindUnknownLevel      = "unknown_level"
	KindMalformedPair     = "malformed_pair"
)

var (
	// ChunksProcessed counts chunks read and scanned.
	// Labels: format (delimited/sparse/unknown)
	ChunksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunkframe_chunks_processed_total",
			Help: "Total number of chunks read and scanned",
		},
		[]string{"format"},
	)

	// BytesRead counts raw input bytes.
	BytesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunkframe_bytes_read_total",
			Help: "Total number of input bytes read",
		},
		[]string{"format"},
	)

	// RowsParsed counts rows materialized into frames.
	RowsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunkframe_rows_parsed_total",
			Help: "Total number of rows materialized",
		},
		[]string{"format"},
	)

	// RecoveredCells counts cells or rows that parsed with a local recovery.
	// Labels: kind (malformed_numeric, row_width, unterminated_quote, unknown_level, malformed_pair)
	//
	// Example:
	//	metrics.RecoveredCells.WithLabelValues(metrics.KindRowWidth).Add(2)
	RecoveredCells = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunkframe_recovered_cells_total",
			Help: "Total number of cells recovered as missing values",
		},
		[]string{"kind"},
	)

	// PhaseLatency tracks the wall time of each job phase in seconds.
	// Labels: phase (scan, reconcile, setup, vote, merge, materialize, assemble)
	PhaseLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chunkframe_phase_latency_seconds",
			Help: "Parse phase latency in seconds",
			Buckets: []float64{
				0.0001, // 100μs - tiny inputs
				0.001,  // 1ms
				0.01,   // 10ms
				0.1,    // 100ms - one chunk of a large file
				1,      // 1s
				10,     // 10s - multi-GB inputs
				60,
			},
		},
		[]string{"phase"},
	)

	// JobsTotal counts finished jobs.
	// Labels: status (success/error/canceled)
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunkframe_jobs_total",
			Help: "Total number of parse jobs by outcome",
		},
		[]string{"status"},
	)

	// CategoricalLevels tracks the domain size of each categorical column of the last job.
	CategoricalLevels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chunkframe_categorical_levels",
			Help: "Number of levels in a categorical column domain",
		},
		[]string{"column"},
	)
)

// Collector records the metrics of one parse job.
// Safe for concurrent use by chunk workers.
type Collector struct {
	mu      sync.RWMutex
	format  string
	enabled bool
	phases  map[string]time.Duration
}

// NewCollector creates a collector. A disabled collector still tracks phase
// durations for Phases but does not touch Prometheus.
func NewCollector(format string, enabled bool) *Collector {
	if format == "" {
		format = "unknown"
	}
	return &Collector{
		format:  format,
		enabled: enabled,
		phases:  make(map[string]time.Duration),
	}
}

// SetFormat relabels the collector once the input format is known
func (c *Collector) SetFormat(format string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = format
}

func (c *Collector) label() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.format
}

// Chunk records one chunk of n bytes
func (c *Collector) Chunk(n int) {
	if !c.enabled {
		return
	}
	f := c.label()
	ChunksProcessed.WithLabelValues(f).Inc()
	BytesRead.WithLabelValues(f).Add(float64(n))
}

// Rows records n materialized rows
func (c *Collector) Rows(n int) {
	if !c.enabled || n == 0 {
		return
	}
	RowsParsed.WithLabelValues(c.label()).Add(float64(n))
}

// Recovered records n locally recovered cells of the given kind
func (c *Collector) Recovered(kind string, n int64) {
	if !c.enabled || n == 0 {
		return
	}
	RecoveredCells.WithLabelValues(kind).Add(float64(n))
}

// Levels records the domain size of a categorical column
func (c *Collector) Levels(column string, n int) {
	if !c.enabled {
		return
	}
	CategoricalLevels.WithLabelValues(column).Set(float64(n))
}

// ObservePhase stops t and records its duration under the timer's name
func (c *Collector) ObservePhase(t *Timer) time.Duration {
	d := t.Stop()
	c.mu.Lock()
	c.phases[t.name] += d
	c.mu.Unlock()
	if c.enabled {
		PhaseLatency.WithLabelValues(t.name).Observe(d.Seconds())
	}
	return d
}

// Finish records the job outcome
func (c *Collector) Finish(status string) {
	if !c.enabled {
		return
	}
	JobsTotal.WithLabelValues(status).Inc()
}

// Phases returns a copy of the recorded phase durations
func (c *Collector) Phases() map[string]time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]time.Duration, len(c.phases))
	for k, v := range c.phases {
		out[k] = v
	}
	return out
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
//
// Example:
//
//	timer := metrics.NewTimer("vote")
//	voteChunks()
//	logger.Debug("phase done", zap.Duration("duration", timer.Stop()))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer's name
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation.
// The timer can be stopped multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker measures bytes per second over a job.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu    sync.Mutex
	count int64
	start time.Time
}

// NewThroughputTracker starts a tracker
func NewThroughputTracker() *ThroughputTracker {
	return &ThroughputTracker{start: time.Now()}
}

// Increment adds n to the byte count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// Rate returns the bytes per second since the tracker started
func (t *ThroughputTracker) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.start).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(t.count) / elapsed
}
