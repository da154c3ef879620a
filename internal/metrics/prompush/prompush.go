// Package prompush is the Prometheus backend for the metrics package. It
// either pushes to a Pushgateway on Flush (batch CLI runs) or exposes the
// registry for scraping (long-running server).
package prompush

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"variantgen/internal/metrics"
)

// Backend adapts metrics.Backend to client_golang collectors.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter   *prometheus.CounterVec // step, status
	stepDuration  *prometheus.SummaryVec // step, status
	variants      prometheus.Counter
	recordCounter *prometheus.CounterVec // kind
}

// NewBackend builds a Pushgateway backend. jobName is the grouping key and
// defaults to "variantgen".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	b, err := newBackend(jobName)
	if err != nil {
		return nil, err
	}
	b.gatewayURL = gatewayURL
	return b, nil
}

// NewScrapeBackend builds a backend whose Flush is a no-op; serve its
// Handler on /metrics.
func NewScrapeBackend(jobName string) (*Backend, error) {
	return newBackend(jobName)
}

func newBackend(jobName string) (*Backend, error) {
	if jobName == "" {
		jobName = "variantgen"
	}
	b := &Backend{
		jobName: jobName,
		reg:     prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Pipeline step duration in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		variants: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.VariantsTotal,
			Help: "Variants generated.",
		}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Catalog rows written, by kind (exported_json, exported_csv, stored).",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{b.stepCounter, b.stepDuration, b.variants, b.recordCounter} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register: %w", err)
		}
	}
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.VariantsTotal:
		b.variants.Add(delta)
	case metrics.RecordsTotal:
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway; scrape backends do nothing.
func (b *Backend) Flush() error {
	if b.gatewayURL == "" {
		return nil
	}
	return push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push()
}

// Handler serves the registry in the Prometheus exposition format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{})
}
