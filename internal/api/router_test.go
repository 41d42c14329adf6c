package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentitrade/internal/api/handlers"
	"github.com/wonny/sentitrade/internal/backtest"
	"github.com/wonny/sentitrade/internal/brain"
	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/experiment"
	"github.com/wonny/sentitrade/internal/features"
	"github.com/wonny/sentitrade/internal/scheduler"
	"github.com/wonny/sentitrade/pkg/database"
	"github.com/wonny/sentitrade/pkg/metrics"
)

const testExperiment = `
meta:
  experiment_id: api_test
universe:
  size: 2
  tickers: [AAPL, MSFT]
splits:
  test_cutoff: "2022-01-25"
  boundaries: ["2022-01-08", "2022-01-15", "2022-01-22"]
`

type staticObservations []contracts.Observation

func (s staticObservations) ListObservations(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	return s, nil
}

type failingDB struct{}

func (failingDB) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	return &database.HealthStatus{Error: "connection refused"}, errors.New("connection refused")
}

func observations() staticObservations {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	var rows staticObservations
	for i := 0; i < 30; i++ {
		date := start.AddDate(0, 0, i)
		rows = append(rows,
			contracts.Observation{
				Date: date, Ticker: "AAPL",
				Sentiment: contracts.SentimentScores{Compound: contracts.Float(0.2)},
				Open:      contracts.Float(100 + float64(i)),
				Volume:    contracts.Float(1000),
			},
			contracts.Observation{
				Date: date, Ticker: "MSFT",
				Sentiment: contracts.SentimentScores{Compound: contracts.Float(-0.2)},
				Open:      contracts.Float(300 - float64(i)),
				Volume:    contracts.Float(1000),
			},
		)
	}
	return rows
}

type fixture struct {
	router http.Handler
	data   *handlers.DataHandler
	result *brain.RunResult
}

func newFixture(t *testing.T, db HealthChecker) *fixture {
	t.Helper()

	cfg, err := experiment.Parse([]byte(testExperiment))
	require.NoError(t, err)

	rec := metrics.New()
	orch, err := brain.NewOrchestrator(cfg, observations(), nil, nil, rec)
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), brain.RunConfig{RunID: "test"})
	require.NoError(t, err)

	simConfig, err := cfg.SimulationConfig()
	require.NoError(t, err)

	data := handlers.NewDataHandler(features.PriceOpen, nil)
	data.SetResult(result)

	router := NewRouter(Routes{
		Data:     data,
		Simulate: handlers.NewSimulationHandler(backtest.NewEngine(nil, rec), simConfig, nil),
		DB:       db,
		Metrics:  rec,
	}, nil)

	return &fixture{router: router, data: data, result: result}
}

type staticJobs map[string]scheduler.JobStats

func (s staticJobs) GetJobStats() map[string]scheduler.JobStats {
	return s
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	degraded := newFixture(t, failingDB{})
	w = degraded.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestGetTickers(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/tickers", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.TickersResponse
	decode(t, w, &resp)
	assert.Equal(t, "test", resp.RunID)
	require.Len(t, resp.Tickers, 2)
	assert.Equal(t, "AAPL", resp.Tickers[0].Ticker)
	assert.Equal(t, 30, resp.Tickers[0].Rows)
	assert.Equal(t, "MSFT", resp.Tickers[1].Ticker)
	assert.Empty(t, resp.Skipped)
}

func TestGetTickers_NotReady(t *testing.T) {
	f := newFixture(t, nil)
	f.data.SetResult(nil)

	w := f.do(http.MethodGet, "/api/tickers", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetFeatures(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/features/AAPL", "")
	require.Equal(t, http.StatusOK, w.Code)

	var series contracts.TickerSeries
	decode(t, w, &series)
	require.Len(t, series.Rows, 30)
	assert.Nil(t, series.Rows[0].Features.PriceChangePct)
	require.NotNil(t, series.Rows[1].Features.PriceChangePct)
	assert.InDelta(t, 1.0, *series.Rows[1].Features.PriceChangePct, 1e-9)
	assert.Nil(t, series.Rows[29].Features.NextReturn)

	w = f.do(http.MethodGet, "/api/features/TSLA", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFolds(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/folds/MSFT", "")
	require.Equal(t, http.StatusOK, w.Code)

	var plan contracts.SplitPlan
	decode(t, w, &plan)
	assert.Equal(t, "MSFT", plan.Ticker)
	require.Len(t, plan.Folds, 2)
	assert.Equal(t, 7, plan.Folds[0].TrainSize())
	assert.Equal(t, 7, plan.Folds[0].ValidationSize())
	assert.Equal(t, 24, plan.Test.TrainEnd)
	assert.Equal(t, 6, plan.Test.TestSize())

	w = f.do(http.MethodGet, "/api/folds/TSLA", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDiagnostics(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/diagnostics/AAPL", "")
	require.Equal(t, http.StatusOK, w.Code)

	var diag features.Diagnostics
	decode(t, w, &diag)
	assert.Equal(t, 30, diag.Rows)
	assert.Len(t, diag.Columns, len(features.ColumnNames()))
}

func TestGetQuality(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/quality", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"passed":true`)
}

const oneDay = `"days": [{
  "date": "2022-06-01T00:00:00Z",
  "entries": [
    {"ticker": "AAPL", "direction": "long", "return": 0.1},
    {"ticker": "MSFT", "direction": "short", "return": -0.1}
  ]
}]`

func TestSimulate(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFinal  string
	}{
		{
			name:       "experiment defaults",
			body:       `{` + oneDay + `}`,
			wantStatus: http.StatusOK,
			wantFinal:  "1.05",
		},
		{
			name:       "initial capital override",
			body:       `{"initial_capital": "2",` + oneDay + `}`,
			wantStatus: http.StatusOK,
			wantFinal:  "2.1",
		},
		{
			name:       "strict policy with missing ticker",
			body:       `{"missing_policy": "strict", "days": [{"date": "2022-06-01T00:00:00Z", "entries": [{"ticker": "AAPL", "direction": "long", "return": 0.1}]}]}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown policy",
			body:       `{"missing_policy": "zero",` + oneDay + `}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ticker outside universe",
			body:       `{"days": [{"date": "2022-06-01T00:00:00Z", "entries": [{"ticker": "TSLA", "direction": "long", "return": 0.1}]}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-positive capital",
			body:       `{"initial_capital": "0",` + oneDay + `}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"capital": 1}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/simulate", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantFinal == "" {
				assert.Contains(t, w.Body.String(), `"error"`)
				return
			}

			var result backtest.Result
			decode(t, w, &result)
			assert.Equal(t, tt.wantFinal, result.FinalCapital.String())
			require.Len(t, result.EquityCurve, 1)
			assert.Equal(t, 2, result.Stats.WinningContributions)
		})
	}
}

func TestSimulate_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/simulate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sentitrade_tickers_processed_total 2")
}

func TestJobs(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/api/jobs", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "not mounted without a scheduler")

	router := NewRouter(Routes{
		Data:     f.data,
		Simulate: handlers.NewSimulationHandler(backtest.NewEngine(nil, nil), backtest.Config{}, nil),
		Jobs: staticJobs{"pipeline_refresh": {
			JobName:   "pipeline_refresh",
			Schedule:  "@daily",
			TotalRuns: 2,
		}},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]scheduler.JobStats
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats["pipeline_refresh"].TotalRuns)
}
