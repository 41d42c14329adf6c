package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	experimentPath string
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "sentitrade - 뉴스 감성 피처 파이프라인 + 포트폴리오 시뮬레이션",
	Long: `sentitrade Unified CLI

기사 감성 점수와 일별 주가를 (날짜, 종목) 단위로 집계하고
파생 피처, walk-forward 폴드, 추천 기반 포트폴리오 시뮬레이션을 실행합니다.

S0 품질 → S1 피처 → S2 폴드 → S3 시뮬레이션

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant config check
  go run ./cmd/quant features
  go run ./cmd/quant folds --ticker AAPL
  go run ./cmd/quant simulate --days days.json
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&experimentPath, "experiment", "", "experiment YAML (default: EXPERIMENT_PATH or config/experiment.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
