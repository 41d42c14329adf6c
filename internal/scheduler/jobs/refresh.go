package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/sentitrade/internal/brain"
	"github.com/wonny/sentitrade/pkg/logger"
)

// PipelineRunner runs the pipeline once
type PipelineRunner func(ctx context.Context) (*brain.RunResult, error)

// ResultSink receives each successful run (the API data handler)
type ResultSink interface {
	SetResult(result *brain.RunResult)
}

// RefreshJob re-runs the feature pipeline so the API serves fresh series.
// A failed run keeps the previous result in place.
type RefreshJob struct {
	schedule string
	run      PipelineRunner
	sink     ResultSink
	logger   *logger.Logger
}

// NewRefreshJob creates a refresh job
func NewRefreshJob(schedule string, run PipelineRunner, sink ResultSink, log *logger.Logger) *RefreshJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &RefreshJob{
		schedule: schedule,
		run:      run,
		sink:     sink,
		logger:   log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "pipeline_refresh"
}

// Schedule returns the cron expression
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline and publishes the result
func (j *RefreshJob) Run(ctx context.Context) error {
	result, err := j.run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline refresh: %w", err)
	}

	j.sink.SetResult(result)
	j.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"tickers": len(result.Features.Series),
	}).Info("Pipeline result refreshed")

	return nil
}
