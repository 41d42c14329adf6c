package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/sentitrade/internal/contracts"
)

// foldsCmd represents the folds command
var foldsCmd = &cobra.Command{
	Use:   "folds",
	Short: "walk-forward 폴드 테이블 출력",
	Long: `피처 파이프라인을 실행한 뒤 종목별 expanding-window 폴드와
hold-out 테스트 구간을 출력합니다.

Example:
  go run ./cmd/quant folds
  go run ./cmd/quant folds --ticker AAPL`,
	RunE: runFolds,
}

var foldsTicker string

func init() {
	rootCmd.AddCommand(foldsCmd)

	foldsCmd.Flags().StringVar(&foldsTicker, "ticker", "", "특정 종목만 출력")
}

func runFolds(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	PrintHeader("Walk-forward Folds", a.exp.Meta.ExperimentID, a.hash)

	result, err := a.runPipeline(cmd.Context(), false, "")
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	printed := 0
	for _, plan := range result.Plans {
		if foldsTicker != "" && plan.Ticker != foldsTicker {
			continue
		}
		printPlan(plan, result.Features.Series[plan.Ticker])
		printed++
	}

	if printed == 0 {
		PrintWarning("no split plans matched")
	}
	return nil
}

func printPlan(plan contracts.SplitPlan, series *contracts.TickerSeries) {
	fmt.Println()
	fmt.Printf("📈 %s\n", plan.Ticker)

	widths := []int{6, 8, 8, 10, 10}
	PrintTableHeader([]string{"Fold", "Train", "Valid", "From", "To"}, widths)
	for _, f := range plan.Folds {
		PrintTableRow([]string{
			strconv.Itoa(f.Number),
			strconv.Itoa(f.TrainSize()),
			strconv.Itoa(f.ValidationSize()),
			formatDate(f.From),
			formatDate(f.To),
		}, widths)
	}

	testFrom := "-"
	if series != nil && plan.Test.TrainEnd < series.Len() {
		testFrom = formatDate(series.Rows[plan.Test.TrainEnd].Date)
	}
	PrintTableRow([]string{
		"test",
		strconv.Itoa(plan.Test.TrainEnd),
		strconv.Itoa(plan.Test.TestSize()),
		testFrom,
		"-",
	}, widths)
}
