package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"variantgen/internal/metrics"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("bikes", "")
	assert.ErrorContains(t, err, "gateway URL is required")

	b, err := NewBackend("", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, "variantgen", b.jobName)

	b, err = NewBackend("bikes", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, "bikes", b.jobName)
}

func TestRouting(t *testing.T) {
	t.Parallel()

	b, err := NewScrapeBackend("bikes")
	require.NoError(t, err)

	lbls := metrics.Labels{"step": "generate", "status": "success"}
	b.IncCounter(metrics.StepTotal, 2, lbls)
	b.ObserveHistogram(metrics.StepDuration, 0.25, lbls)
	b.IncCounter(metrics.VariantsTotal, 12, nil)
	b.IncCounter(metrics.RecordsTotal, 12, metrics.Labels{"kind": "stored"})
	b.IncCounter("unknown_total", 1, nil)
	b.ObserveHistogram("unknown_seconds", 1, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(b.stepCounter.WithLabelValues("generate", "success")))
	assert.Equal(t, 12.0, testutil.ToFloat64(b.variants))
	assert.Equal(t, 12.0, testutil.ToFloat64(b.recordCounter.WithLabelValues("stored")))
	assert.Equal(t, 1, testutil.CollectAndCount(b.stepDuration))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	b, err := NewScrapeBackend("")
	require.NoError(t, err)
	b.IncCounter(metrics.VariantsTotal, 3, nil)
	require.NoError(t, b.Flush())

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "variantgen_variants_total 3")
}

func TestFlush_Pushes(t *testing.T) {
	t.Parallel()

	var pushes int32
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&pushes, 1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/metrics/job/bikes"), r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("bikes", srv.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.VariantsTotal, 1, nil)

	require.NoError(t, b.Flush())
	assert.EqualValues(t, 1, atomic.LoadInt32(&pushes))
	assert.NotEmpty(t, body)
}
