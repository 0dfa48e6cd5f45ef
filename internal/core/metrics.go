package core

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRecorder observes mutation outcomes. Operation names look like
// "product_owner.status_transition"; outcome is "ok" or an error kind.
type MetricsRecorder interface {
	ObserveMutation(op string, d time.Duration, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveMutation(string, time.Duration, string) {}

var expvarSeq uint64

// ExpvarMetricsRecorder publishes aggregate timing and outcome counters via
// expvar for deployments that prefer process-local metrics without external
// dependencies. Durations accumulate in milliseconds per operation.
type ExpvarMetricsRecorder struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	outcomes  map[string]map[string]int64
}

// ExpvarMetricsSnapshot captures a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Outcomes    map[string]map[string]int64 `json:"outcomes_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder published
// under the supplied name. When name is empty a unique one is generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("mutation_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: make(map[string]float64),
		outcomes:  make(map[string]map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// ObserveMutation records one mutation resolution.
func (r *ExpvarMetricsRecorder) ObserveMutation(op string, d time.Duration, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[op] += float64(d.Milliseconds())
	byOutcome, ok := r.outcomes[op]
	if !ok {
		byOutcome = make(map[string]int64)
		r.outcomes[op] = byOutcome
	}
	byOutcome[outcome]++
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64, len(r.durations)),
		Outcomes:    make(map[string]map[string]int64, len(r.outcomes)),
		RecordedAt:  time.Now().UTC(),
	}
	for op, total := range r.durations {
		snap.DurationsMS[op] = total
	}
	for op, byOutcome := range r.outcomes {
		cp := make(map[string]int64, len(byOutcome))
		for outcome, n := range byOutcome {
			cp[outcome] = n
		}
		snap.Outcomes[op] = cp
	}
	return snap
}
