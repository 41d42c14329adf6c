package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecorder(t *testing.T) {
	r := New()

	r.RecordTickerProcessed()
	r.RecordTickerProcessed()
	r.RecordTickerSkipped("empty_series")
	r.RecordRows(42)
	r.RecordSimulation(1.0125, 3)
	r.ObserveStage("features", time.Now())

	body := scrape(t, r)
	assert.Contains(t, body, "sentitrade_tickers_processed_total 2")
	assert.Contains(t, body, `sentitrade_tickers_skipped_total{reason="empty_series"} 1`)
	assert.Contains(t, body, "sentitrade_daily_rows_total 42")
	assert.Contains(t, body, "sentitrade_equity_multiple 1.0125")
	assert.Contains(t, body, "sentitrade_noop_contributions_total 3")
	assert.Contains(t, body, `sentitrade_stage_duration_seconds_count{stage="features"} 1`)
}

func TestRecorder_Independent(t *testing.T) {
	// 레지스트리가 분리되어 있으므로 중복 등록 패닉이 없어야 함
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordTickerProcessed()
		r.RecordTickerSkipped("x")
		r.RecordRows(1)
		r.RecordSimulation(1, 0)
		r.ObserveStage("x", time.Now())
	})
}

func TestRecorder_Gather(t *testing.T) {
	r := New()
	r.RecordRows(5)

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "sentitrade_daily_rows_total")
}
