package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/sentitrade/internal/brain"
	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/features"
)

// featuresCmd represents the features command
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "피처 파이프라인 실행 (S0 → S1 → S2)",
	Long: `원천 관측치를 DB에서 읽어 (날짜, 종목) 단위로 집계하고
파생 피처와 walk-forward 폴드를 계산합니다.

이 명령어는:
- data.article_observations 조회 (experiment data.from ~ data.to)
- 품질 게이트 (커버리지) 검사
- 종목별 일별 집계 + 파생 피처 계산
- 종목별 요약 테이블 출력

Example:
  go run ./cmd/quant features
  go run ./cmd/quant features --out features.json
  go run ./cmd/quant features --diagnostics AAPL`,
	RunE: runFeatures,
}

var (
	featuresOut         string
	featuresDiagnostics string
)

func init() {
	rootCmd.AddCommand(featuresCmd)

	featuresCmd.Flags().StringVar(&featuresOut, "out", "", "전체 피처 결과를 JSON으로 저장할 경로")
	featuresCmd.Flags().StringVar(&featuresDiagnostics, "diagnostics", "", "해당 종목의 컬럼 통계/상관계수 출력")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	PrintHeader("Feature Pipeline", a.exp.Meta.ExperimentID, a.hash)

	result, err := a.runPipeline(cmd.Context(), false, "")
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	printQuality(result)
	printTickerSummary(result)

	if featuresDiagnostics != "" {
		s, ok := result.Features.Series[featuresDiagnostics]
		if !ok {
			return fmt.Errorf("unknown ticker %s", featuresDiagnostics)
		}
		printDiagnostics(features.Diagnose(s, a.exp.FeatureOptions().PriceField))
	}

	if featuresOut != "" {
		if err := writeJSON(featuresOut, result.Features); err != nil {
			return err
		}
		PrintSuccess("Features written to " + featuresOut)
	}
	return nil
}

func printQuality(result *brain.RunResult) {
	q := result.Quality
	if q == nil {
		return
	}
	fmt.Println()
	fmt.Println("📊 Data Quality:")
	PrintKeyValue("Rows", strconv.Itoa(q.TotalRows), 12)
	PrintKeyValue("Tickers", strconv.Itoa(q.Tickers), 12)
	PrintKeyValue("Score", fmt.Sprintf("%.3f", q.QualityScore), 12)
	if q.Passed {
		PrintSuccess("Quality gate passed")
	} else {
		PrintWarning("Quality gate failed")
		PrintList(q.Failures)
	}
}

func printTickerSummary(result *brain.RunResult) {
	fmt.Println()
	widths := []int{8, 6, 10, 10, 14, 14}
	PrintTableHeader([]string{"Ticker", "Rows", "From", "To", "Last Price%", "Last Sent.%"}, widths)

	series := result.Features.Series
	for _, ticker := range contracts.SortedTickers(series) {
		s := series[ticker]
		from, to := "-", "-"
		var lastPrice, lastSent *float64
		if s.Len() > 0 {
			first, last := s.Rows[0], s.Rows[s.Len()-1]
			from, to = formatDate(first.Date), formatDate(last.Date)
			lastPrice = last.Features.PriceVsRollingPct
			lastSent = last.Features.SentimentVsRollingPct
		}
		PrintTableRow([]string{
			ticker,
			strconv.Itoa(s.Len()),
			from,
			to,
			formatOptFloat(lastPrice, 2),
			formatOptFloat(lastSent, 2),
		}, widths)
	}

	if len(result.Features.Skipped) > 0 {
		fmt.Println()
		PrintWarning(fmt.Sprintf("%d tickers skipped", len(result.Features.Skipped)))
		items := make([]string, len(result.Features.Skipped))
		for i, s := range result.Features.Skipped {
			items[i] = fmt.Sprintf("%s (%s) %s", s.Ticker, s.Reason, s.Error)
		}
		PrintList(items)
	}
}

func printDiagnostics(d *features.Diagnostics) {
	fmt.Println()
	fmt.Printf("🔎 Diagnostics: %s (%d rows)\n", d.Ticker, d.Rows)

	widths := []int{26, 6, 8, 12, 12, 12, 12}
	PrintTableHeader([]string{"Column", "N", "Missing", "Mean", "StdDev", "Trim Low", "Trim High"}, widths)
	for _, c := range d.Columns {
		PrintTableRow([]string{
			c.Name,
			strconv.Itoa(c.Count),
			strconv.Itoa(c.Missing),
			formatOptFloat(c.Mean, 4),
			formatOptFloat(c.StdDev, 4),
			formatOptFloat(c.TrimLower, 4),
			formatOptFloat(c.TrimUpper, 4),
		}, widths)
	}
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
