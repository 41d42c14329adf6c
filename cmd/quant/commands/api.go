package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sentitrade/internal/api"
	"github.com/wonny/sentitrade/internal/api/handlers"
	"github.com/wonny/sentitrade/internal/backtest"
	"github.com/wonny/sentitrade/internal/brain"
	"github.com/wonny/sentitrade/internal/scheduler"
	"github.com/wonny/sentitrade/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 시작 시 피처 파이프라인 1회 실행 (DATABASE_URL 설정 시)
- 피처/폴드 조회 엔드포인트 제공
- 시뮬레이션 엔드포인트 제공

Endpoints:
  GET  /health                    - Health check
  GET  /metrics                   - Prometheus metrics
  GET  /api/tickers               - 종목 목록 + 제외 종목
  GET  /api/features/{ticker}     - 종목 피처 시계열
  GET  /api/folds/{ticker}        - walk-forward 폴드 + 테스트 구간
  GET  /api/diagnostics/{ticker}  - 컬럼 통계 + 상관계수
  GET  /api/quality               - 품질 스냅샷
  GET  /api/jobs                  - 재실행 job 통계 (REFRESH_SCHEDULE 설정 시)
  POST /api/simulate              - 포트폴리오 시뮬레이션

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	PrintHeader("API Server", a.exp.Meta.ExperimentID, a.hash)

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	simConfig, err := a.exp.SimulationConfig()
	if err != nil {
		return err
	}

	routes := api.Routes{
		Data:     handlers.NewDataHandler(a.exp.FeatureOptions().PriceField, a.log),
		Simulate: handlers.NewSimulationHandler(backtest.NewEngine(a.log, a.metrics), simConfig, a.log),
		Metrics:  a.metrics,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if a.cfg.Database.URL == "" {
		PrintWarning("DATABASE_URL not set: feature endpoints return 503, /api/simulate is available")
	} else {
		db, err := a.connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		routes.DB = db

		orch, err := a.orchestrator(db, false, "")
		if err != nil {
			return fmt.Errorf("init orchestrator: %w", err)
		}
		runPipeline := func(ctx context.Context) (*brain.RunResult, error) {
			return orch.Run(ctx, brain.RunConfig{
				RunID:      brain.GenerateRunID(),
				ConfigHash: a.hash,
			})
		}

		result, err := runPipeline(ctx)
		if err != nil {
			return fmt.Errorf("pipeline run failed: %w", err)
		}
		routes.Data.SetResult(result)
		PrintSuccess(fmt.Sprintf("Pipeline ready: %d tickers", len(result.Features.Series)))

		// 주기적 재실행 (REFRESH_SCHEDULE)
		if a.cfg.RefreshSchedule != "" {
			sched := scheduler.New(a.log)
			job := jobs.NewRefreshJob(a.cfg.RefreshSchedule, runPipeline, routes.Data, a.log)
			if err := sched.AddJob(job); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			routes.Jobs = sched
			PrintInfo("Pipeline refresh scheduled: " + a.cfg.RefreshSchedule)
		}
	}

	router := api.NewRouter(routes, a.log)
	server := api.New(a.cfg, a.log, router)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
