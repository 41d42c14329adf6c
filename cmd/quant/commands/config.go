package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/sentitrade/internal/experiment"
)

// configCmd groups experiment config commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "실험 설정 관리",
}

var configCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "실험 YAML 검증 + 해시 출력",
	Long: `실험 YAML을 로드하여 검증하고 설정 해시를 출력합니다.
DB 연결은 필요하지 않습니다.

Example:
  go run ./cmd/quant config check
  go run ./cmd/quant config check config/experiment.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigCheck,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	path := experimentPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		path = "config/experiment.yaml"
	}

	cfg, _, err := experiment.Load(path)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	hash, err := experiment.Hash(cfg)
	if err != nil {
		return fmt.Errorf("hash experiment: %w", err)
	}
	splitter, err := cfg.Splitter()
	if err != nil {
		return err
	}

	PrintHeader("Experiment Config", cfg.Meta.ExperimentID, hash)
	PrintKeyValue("Path", path, 12)
	PrintKeyValue("Version", cfg.Meta.Version, 12)
	PrintKeyValue("Universe", fmt.Sprintf("K=%d %s", cfg.Universe.Size, strings.Join(cfg.Universe.Tickers, ",")), 12)
	PrintKeyValue("Window", fmt.Sprintf("%d (%s)", cfg.Features.Window, cfg.Features.PriceField), 12)
	PrintKeyValue("Threshold", fmt.Sprintf("%.3f", cfg.Features.SentimentThreshold), 12)
	PrintKeyValue("Cutoff", cfg.Splits.TestCutoff, 12)
	PrintKeyValue("Folds", fmt.Sprintf("%d", splitter.NumFolds()), 12)
	PrintKeyValue("x0", fmt.Sprintf("%g", cfg.Simulation.InitialCapital), 12)
	PrintKeyValue("Missing", cfg.Simulation.MissingPolicy, 12)
	PrintKeyValue("Hash", hash, 12)

	if warnings := experiment.Warn(cfg); len(warnings) > 0 {
		fmt.Println()
		for _, w := range warnings {
			PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
		}
	}

	fmt.Println()
	PrintSuccess("Experiment config is valid")
	return nil
}
