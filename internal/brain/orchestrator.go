package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/sentitrade/internal/backtest"
	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/experiment"
	"github.com/wonny/sentitrade/internal/features"
	"github.com/wonny/sentitrade/internal/s0_data/quality"
	"github.com/wonny/sentitrade/internal/walkforward"
	"github.com/wonny/sentitrade/pkg/logger"
	"github.com/wonny/sentitrade/pkg/metrics"
)

// Stage names reported in RunResult.CompletedStages
const (
	StageQuality  = "S0:Quality"
	StageFeatures = "S1:Features"
	StageSplits   = "S2:Splits"
	StageSimulate = "S3:Simulate"
)

// ErrNoRecommendationSource is returned when simulation is requested without a source
var ErrNoRecommendationSource = errors.New("no recommendation source configured")

// Orchestrator coordinates the pipeline
// S0 품질 → S1 피처 → S2 폴드 → S3 시뮬레이션
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	observations    contracts.ObservationSource
	recommendations contracts.RecommendationSource

	qualityGate *quality.Gate
	pipeline    *features.Pipeline
	splitter    *walkforward.Splitter
	engine      *backtest.Engine
	simConfig   backtest.Config

	from, to time.Time

	logger *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID      string
	ConfigHash string
	Simulate   bool // run S3 (requires a recommendation source)
}

// RunResult holds the results of a pipeline run
type RunResult struct {
	RunID           string                `json:"run_id"`
	ConfigHash      string                `json:"config_hash"`
	Success         bool                  `json:"success"`
	CompletedStages []string              `json:"completed_stages"`
	Quality         *quality.Snapshot     `json:"quality"`
	Features        *features.Result      `json:"features"`
	Plans           []contracts.SplitPlan `json:"plans"`
	Simulation      *backtest.Result      `json:"simulation,omitempty"`
	Duration        time.Duration         `json:"duration"`
}

// NewOrchestrator wires the stages from an experiment config.
// recs may be nil when only features and splits are needed.
func NewOrchestrator(
	cfg *experiment.Config,
	obs contracts.ObservationSource,
	recs contracts.RecommendationSource,
	log *logger.Logger,
	rec *metrics.Recorder,
) (*Orchestrator, error) {
	if log == nil {
		log = logger.NewNop()
	}

	pipeline, err := features.NewPipeline(cfg.FeatureOptions(), log, rec)
	if err != nil {
		return nil, err
	}
	splitter, err := cfg.Splitter()
	if err != nil {
		return nil, err
	}
	simConfig, err := cfg.SimulationConfig()
	if err != nil {
		return nil, err
	}
	from, to, err := cfg.DataRange()
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		observations:    obs,
		recommendations: recs,
		qualityGate:     quality.NewGate(quality.DefaultConfig()),
		pipeline:        pipeline,
		splitter:        splitter,
		engine:          backtest.NewEngine(log, rec),
		simConfig:       simConfig,
		from:            from,
		to:              to,
		logger:          log,
	}, nil
}

// Run executes the pipeline. On failure the partial result is returned with
// the error.
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()
	if config.RunID == "" {
		config.RunID = GenerateRunID()
	}

	result := &RunResult{
		RunID:           config.RunID,
		ConfigHash:      config.ConfigHash,
		CompletedStages: make([]string, 0, 4),
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      config.RunID,
		"config_hash": config.ConfigHash,
		"from":        formatDate(o.from),
		"to":          formatDate(o.to),
		"simulate":    config.Simulate,
	}).Info("Starting pipeline run")

	// S0: 원천 데이터 로드 + 품질 검증
	observations, snapshot, err := o.runS0(ctx)
	if err != nil {
		return result, fmt.Errorf("S0 failed: %w", err)
	}
	result.Quality = snapshot
	result.CompletedStages = append(result.CompletedStages, StageQuality)

	// S1: 피처 엔지니어링
	featureResult, err := o.pipeline.Run(ctx, observations)
	if err != nil {
		return result, fmt.Errorf("S1 failed: %w", err)
	}
	result.Features = featureResult
	result.CompletedStages = append(result.CompletedStages, StageFeatures)

	// S2: walk-forward 폴드
	plans, err := o.splitter.SplitAll(featureResult.Series)
	if err != nil {
		return result, fmt.Errorf("S2 failed: %w", err)
	}
	result.Plans = plans
	result.CompletedStages = append(result.CompletedStages, StageSplits)

	// S3: 시뮬레이션
	if config.Simulate {
		sim, err := o.runS3(ctx, featureResult.Series)
		if err != nil {
			result.Simulation = sim
			return result, fmt.Errorf("S3 failed: %w", err)
		}
		result.Simulation = sim
		result.CompletedStages = append(result.CompletedStages, StageSimulate)
	}

	result.Success = true
	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"run_id":   config.RunID,
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
		"tickers":  len(featureResult.Series),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// runS0 loads observations and checks coverage. A failing gate is logged;
// affected rows are dropped by the feature stage.
func (o *Orchestrator) runS0(ctx context.Context) ([]contracts.Observation, *quality.Snapshot, error) {
	o.logger.Info("Running S0: Data Quality Gate")

	observations, err := o.observations.ListObservations(ctx, o.from, o.to)
	if err != nil {
		return nil, nil, fmt.Errorf("list observations: %w", err)
	}

	snapshot := o.qualityGate.Check(observations)
	log := o.logger.WithFields(map[string]interface{}{
		"rows":          snapshot.TotalRows,
		"tickers":       snapshot.Tickers,
		"quality_score": snapshot.QualityScore,
		"passed":        snapshot.Passed,
	})
	if !snapshot.Passed {
		log.WithField("failures", snapshot.Failures).Warn("S0 quality gate below threshold")
	} else {
		log.Info("S0 completed")
	}

	return observations, snapshot, nil
}

// runS3 joins recommendations with realized returns and simulates
func (o *Orchestrator) runS3(ctx context.Context, series map[string]*contracts.TickerSeries) (*backtest.Result, error) {
	o.logger.Info("Running S3: Portfolio Simulation")

	if o.recommendations == nil {
		return nil, ErrNoRecommendationSource
	}

	recs, err := o.recommendations.ListRecommendations(ctx, o.from, o.to)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}

	days := backtest.BuildTradingDays(recs, series)
	return o.engine.Run(ctx, o.simConfig, days)
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
