package commands

import (
	"context"
	"fmt"

	"github.com/wonny/sentitrade/internal/brain"
	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/experiment"
	"github.com/wonny/sentitrade/internal/s0_data"
	"github.com/wonny/sentitrade/pkg/config"
	"github.com/wonny/sentitrade/pkg/database"
	"github.com/wonny/sentitrade/pkg/httputil"
	"github.com/wonny/sentitrade/pkg/logger"
	"github.com/wonny/sentitrade/pkg/metrics"
)

// app bundles what every command needs: env config, logger, experiment
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	exp     *experiment.Config
	hash    string
	metrics *metrics.Recorder
}

// setup loads env config and the experiment YAML
func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	path := experimentPath
	if path == "" {
		path = cfg.ExperimentPath
	}
	exp, _, err := experiment.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load experiment %s: %w", path, err)
	}
	hash, err := experiment.Hash(exp)
	if err != nil {
		return nil, fmt.Errorf("hash experiment: %w", err)
	}

	for _, w := range experiment.Warn(exp) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	var rec *metrics.Recorder
	if cfg.MetricsEnabled {
		rec = metrics.New()
	}

	return &app{cfg: cfg, log: log, exp: exp, hash: hash, metrics: rec}, nil
}

// connect opens the source database
func (a *app) connect(ctx context.Context) (*database.DB, error) {
	db, err := database.New(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.log.Info("Connected to database")
	return db, nil
}

// orchestrator wires repositories on db into a pipeline.
// modelID is only used when withRecommendations is set.
func (a *app) orchestrator(db *database.DB, withRecommendations bool, modelID string) (*brain.Orchestrator, error) {
	var recs contracts.RecommendationSource
	if withRecommendations {
		recs = a.recommendationSource(db, modelID)
	}
	return brain.NewOrchestrator(a.exp, s0_data.NewObservationRepository(db.Pool), recs, a.log, a.metrics)
}

// recommendationSource prefers the model service when MODEL_API_URL is set
func (a *app) recommendationSource(db *database.DB, modelID string) contracts.RecommendationSource {
	if modelID == "" {
		modelID = a.cfg.ModelAPI.ModelID
	}
	if a.cfg.ModelAPI.URL != "" {
		a.log.WithField("url", a.cfg.ModelAPI.URL).Info("Using model service for recommendations")
		client := httputil.New(a.cfg.ModelAPI, a.log)
		return s0_data.NewRecommendationClient(client, a.cfg.ModelAPI.URL, modelID)
	}
	return s0_data.NewRecommendationRepository(db.Pool, modelID)
}

// runPipeline connects, runs S0-S2 (and S3 when simulate) and closes the pool
func (a *app) runPipeline(ctx context.Context, simulate bool, modelID string) (*brain.RunResult, error) {
	db, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	orch, err := a.orchestrator(db, simulate, modelID)
	if err != nil {
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	return orch.Run(ctx, brain.RunConfig{
		RunID:      brain.GenerateRunID(),
		ConfigHash: a.hash,
		Simulate:   simulate,
	})
}
