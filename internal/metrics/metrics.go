// Package metrics records operational metrics for variant generation runs.
//
// Callers use the package-level helpers (RecordStep, RecordVariants,
// RecordRow); a pluggable Backend receives them. The default backend is a
// no-op so instrumentation is always safe to call.
package metrics

import (
	"sync"
	"time"
)

// Metric names understood by backends.
const (
	StepTotal     = "variantgen_step_total"
	StepDuration  = "variantgen_step_duration_seconds"
	VariantsTotal = "variantgen_variants_total"
	RecordsTotal  = "variantgen_records_total"
	statusSuccess = "success"
	statusFailure = "failure"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. nil keeps the current backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error { return current().Flush() }

// RecordStep counts one execution of a pipeline step and observes its
// duration, labeled by job, step and success/failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordVariants adds n generated variants for job.
func RecordVariants(job string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(VariantsTotal, float64(n), Labels{"job": job})
}

// RecordRow counts rows by kind: "exported_json", "exported_csv", "stored".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}
