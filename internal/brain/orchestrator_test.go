package brain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/experiment"
)

const testExperiment = `
meta:
  experiment_id: orchestrator_test
universe:
  size: 2
  tickers: [AAPL, MSFT]
splits:
  test_cutoff: "2022-03-01"
  boundaries: ["2022-01-15", "2022-02-01", "2022-02-15"]
`

type fakeObservations struct {
	rows []contracts.Observation
	err  error
}

func (f *fakeObservations) ListObservations(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	return f.rows, f.err
}

type fakeRecommendations struct {
	recs []contracts.Recommendation
}

func (f *fakeRecommendations) ListRecommendations(ctx context.Context, from, to time.Time) ([]contracts.Recommendation, error) {
	return f.recs, nil
}

func start() time.Time {
	return time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
}

// 70일: AAPL 상승, MSFT 하락
func observations() []contracts.Observation {
	var rows []contracts.Observation
	for i := 0; i < 70; i++ {
		date := start().AddDate(0, 0, i)
		rows = append(rows,
			contracts.Observation{
				Date: date, Ticker: "AAPL",
				Sentiment: contracts.SentimentScores{Compound: contracts.Float(0.3)},
				Open:      contracts.Float(100 + float64(i)),
				Volume:    contracts.Float(1000),
			},
			contracts.Observation{
				Date: date, Ticker: "MSFT",
				Sentiment: contracts.SentimentScores{Compound: contracts.Float(-0.3)},
				Open:      contracts.Float(200 - float64(i)),
				Volume:    contracts.Float(2000),
			},
		)
	}
	return rows
}

// 테스트 구간(3/1~3/11) 추천: AAPL long, MSFT short
func recommendations() []contracts.Recommendation {
	var recs []contracts.Recommendation
	for i := 59; i < 70; i++ {
		date := start().AddDate(0, 0, i)
		recs = append(recs,
			contracts.Recommendation{Date: date, Ticker: "AAPL", Direction: contracts.DirectionLong},
			contracts.Recommendation{Date: date, Ticker: "MSFT", Direction: contracts.DirectionShort},
		)
	}
	return recs
}

func testConfig(t *testing.T) *experiment.Config {
	t.Helper()
	cfg, err := experiment.Parse([]byte(testExperiment))
	require.NoError(t, err)
	return cfg
}

func TestOrchestrator_Run(t *testing.T) {
	o, err := NewOrchestrator(testConfig(t),
		&fakeObservations{rows: observations()},
		&fakeRecommendations{recs: recommendations()},
		nil, nil)
	require.NoError(t, err)

	result, err := o.Run(context.Background(), RunConfig{RunID: "test", Simulate: true})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{StageQuality, StageFeatures, StageSplits, StageSimulate}, result.CompletedStages)
	assert.True(t, result.Quality.Passed, result.Quality.Failures)

	require.Len(t, result.Features.Series, 2)
	require.Len(t, result.Plans, 2)
	for _, plan := range result.Plans {
		assert.Len(t, plan.Folds, 2)
		assert.Equal(t, 59, plan.Test.TrainEnd)
		assert.Equal(t, 11, plan.Test.TestSize())
	}

	sim := result.Simulation
	require.NotNil(t, sim)
	assert.Equal(t, 11, sim.Stats.Days)
	assert.Equal(t, 2, sim.Stats.NoOpContributions, "last day has no forward return")
	assert.Equal(t, 20, sim.Stats.WinningContributions)
	assert.True(t, sim.Multiple.GreaterThan(sim.InitialCapital))
}

func TestOrchestrator_RunWithoutSimulation(t *testing.T) {
	o, err := NewOrchestrator(testConfig(t), &fakeObservations{rows: observations()}, nil, nil, nil)
	require.NoError(t, err)

	result, err := o.Run(context.Background(), RunConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Nil(t, result.Simulation)
	assert.Len(t, result.CompletedStages, 3)

	_, err = o.Run(context.Background(), RunConfig{Simulate: true})
	assert.ErrorIs(t, err, ErrNoRecommendationSource)
}

func TestOrchestrator_SourceError(t *testing.T) {
	boom := errors.New("connection refused")
	o, err := NewOrchestrator(testConfig(t), &fakeObservations{err: boom}, nil, nil, nil)
	require.NoError(t, err)

	result, err := o.Run(context.Background(), RunConfig{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, result.Success)
	assert.Empty(t, result.CompletedStages)
}

func TestOrchestrator_MissingHistoryIsConfigurationError(t *testing.T) {
	var late []contracts.Observation
	for _, o := range observations() {
		if !o.Date.Before(start().AddDate(0, 0, 20)) {
			late = append(late, o)
		}
	}

	o, err := NewOrchestrator(testConfig(t), &fakeObservations{rows: late}, nil, nil, nil)
	require.NoError(t, err)

	result, err := o.Run(context.Background(), RunConfig{})
	require.Error(t, err)
	assert.True(t, contracts.IsConfigurationError(err))
	assert.Equal(t, []string{StageQuality, StageFeatures}, result.CompletedStages)
}
