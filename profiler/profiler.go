// Package profiler - Stage timing and heap tracking for evaluation runs.
package profiler

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// OperationStats summarises the recorded durations of one operation.
type OperationStats struct {
	Name   string        `json:"name"`
	Count  int           `json:"count"`
	Total  time.Duration `json:"total"`
	Mean   time.Duration `json:"mean"`
	Median time.Duration `json:"median"`
	P95    time.Duration `json:"p95"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
}

// Profiler records how long named operations take and the peak heap size
// seen between them. It is safe for concurrent use.
type Profiler struct {
	mu        sync.Mutex
	startTime time.Time
	order     []string
	durations map[string][]time.Duration
	peakHeap  uint64
	memStats  runtime.MemStats
}

// New creates a profiler whose clock starts now.
func New() *Profiler {
	return &Profiler{
		startTime: time.Now(),
		durations: make(map[string][]time.Duration),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - A function to call when the operation completes.
//
// @example
// done := p.StartOperation("predict")
// dets, err := engine.Predict(ctx, img)
// done()
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Record adds one duration to an operation.
func (p *Profiler) Record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.durations[name]; !ok {
		p.order = append(p.order, name)
	}
	p.durations[name] = append(p.durations[name], d)
}

// SampleMemory reads the runtime heap size and keeps the peak.
func (p *Profiler) SampleMemory() {
	p.mu.Lock()
	defer p.mu.Unlock()

	runtime.ReadMemStats(&p.memStats)
	if p.memStats.HeapAlloc > p.peakHeap {
		p.peakHeap = p.memStats.HeapAlloc
	}
}

// PeakHeapBytes returns the largest heap size seen by SampleMemory.
func (p *Profiler) PeakHeapBytes() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peakHeap
}

// Elapsed returns the time since New.
func (p *Profiler) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

// Total returns the summed duration of an operation.
func (p *Profiler) Total(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	var total time.Duration
	for _, d := range p.durations[name] {
		total += d
	}
	return total
}

// Operations returns the statistics of every operation in the order the
// operations were first recorded.
func (p *Profiler) Operations() []OperationStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]OperationStats, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, summarize(name, p.durations[name]))
	}
	return out
}

func summarize(name string, durations []time.Duration) OperationStats {
	s := OperationStats{Name: name, Count: len(durations)}
	if len(durations) == 0 {
		return s
	}

	data := make(stats.Float64Data, len(durations))
	s.Min, s.Max = durations[0], durations[0]
	for i, d := range durations {
		data[i] = float64(d)
		s.Total += d
		s.Min = min(s.Min, d)
		s.Max = max(s.Max, d)
	}

	if mean, err := data.Mean(); err == nil {
		s.Mean = time.Duration(mean)
	}
	if median, err := data.Median(); err == nil {
		s.Median = time.Duration(median)
	}
	if p95, err := data.Percentile(95); err == nil {
		s.P95 = time.Duration(p95)
	}
	return s
}

// FormatBytes renders a byte count with a binary unit, e.g. "1.5 MiB".
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
