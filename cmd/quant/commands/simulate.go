package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wonny/sentitrade/internal/backtest"
	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/internal/experiment"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "추천 기반 포트폴리오 시뮬레이션 (S3)",
	Long: `모델 추천(long/short)과 실현 수익률로 포트폴리오 가치를 계산합니다.

매일: 현금 절반 보유, 나머지 절반을 K개 종목에 균등 배분
      x_{t+1} = x_t/2 + Σ (x_t/2K)(1 + s_i·r_i)

입력:
- --days 지정 시: JSON 파일의 거래일 목록 (DB 불필요)
- 미지정 시: DB의 관측치로 피처를 계산하고 model.recommendations 조회

Example:
  go run ./cmd/quant simulate --days days.json
  go run ./cmd/quant simulate --model-id lstm_v2 --curve
  go run ./cmd/quant simulate --capital 100 --policy strict`,
	RunE: runSimulate,
}

var (
	simDaysFile string
	simModelID  string
	simCapital  string
	simPolicy   string
	simCurve    bool
	simOut      string
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simDaysFile, "days", "", "거래일 JSON 파일 ([]TradingDay)")
	simulateCmd.Flags().StringVar(&simModelID, "model-id", "", "추천 모델 ID (기본: MODEL_ID, 비어있으면 전체)")
	simulateCmd.Flags().StringVar(&simCapital, "capital", "", "초기 자본 x0 (기본: experiment)")
	simulateCmd.Flags().StringVar(&simPolicy, "policy", "", "결측 처리 정책 flat|strict (기본: experiment)")
	simulateCmd.Flags().BoolVar(&simCurve, "curve", false, "일별 equity curve 출력")
	simulateCmd.Flags().StringVar(&simOut, "out", "", "시뮬레이션 결과를 JSON으로 저장할 경로")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	if err := applySimulationFlags(a); err != nil {
		return err
	}
	PrintHeader("Portfolio Simulation", a.exp.Meta.ExperimentID, a.hash)

	var result *backtest.Result
	if simDaysFile != "" {
		days, err := readTradingDays(simDaysFile)
		if err != nil {
			return err
		}
		cfg, err := a.exp.SimulationConfig()
		if err != nil {
			return err
		}
		result, err = backtest.NewEngine(a.log, a.metrics).Run(cmd.Context(), cfg, days)
		if err != nil {
			return fmt.Errorf("simulation failed: %w", err)
		}
	} else {
		run, err := a.runPipeline(cmd.Context(), true, simModelID)
		if err != nil {
			return fmt.Errorf("pipeline run failed: %w", err)
		}
		result = run.Simulation
	}

	printSimulation(result)
	if simCurve {
		printEquityCurve(result)
	}

	if simOut != "" {
		if err := writeJSON(simOut, result); err != nil {
			return err
		}
		PrintSuccess("Result written to " + simOut)
	}
	return nil
}

// applySimulationFlags overrides experiment simulation settings from flags.
// The experiment is re-validated and re-hashed after an override.
func applySimulationFlags(a *app) error {
	if simCapital == "" && simPolicy == "" {
		return nil
	}
	if simCapital != "" {
		x0, err := decimal.NewFromString(simCapital)
		if err != nil {
			return contracts.NewConfigurationError("simulation.initial_capital", "invalid decimal %q", simCapital)
		}
		a.exp.Simulation.InitialCapital = x0.InexactFloat64()
	}
	if simPolicy != "" {
		policy, err := backtest.ParseMissingPolicy(simPolicy)
		if err != nil {
			return err
		}
		a.exp.Simulation.MissingPolicy = string(policy)
	}

	if err := experiment.Validate(a.exp); err != nil {
		return err
	}
	hash, err := experiment.Hash(a.exp)
	if err != nil {
		return fmt.Errorf("hash experiment: %w", err)
	}
	a.hash = hash
	return nil
}

func readTradingDays(path string) ([]contracts.TradingDay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var days []contracts.TradingDay
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return days, nil
}

func printSimulation(r *backtest.Result) {
	if r == nil {
		PrintWarning("no simulation result")
		return
	}

	fmt.Println()
	fmt.Println("💰 Simulation Result:")
	PrintKeyValue("Period", formatDate(r.StartDate)+" ~ "+formatDate(r.EndDate), 14)
	PrintKeyValue("Days", strconv.Itoa(r.Stats.Days), 14)
	PrintKeyValue("Initial (x0)", r.InitialCapital.String(), 14)
	PrintKeyValue("Final (xT)", r.FinalCapital.StringFixed(6), 14)
	PrintKeyValue("Multiple", r.Multiple.StringFixed(6), 14)
	PrintKeyValue("Total Return", formatPercent(r.TotalReturn), 14)
	PrintKeyValue("Volatility", formatPercent(r.Volatility), 14)
	PrintKeyValue("Max Drawdown", formatPercent(r.MaxDrawdown), 14)
	PrintKeyValue("VaR 95 (1d)", formatPercent(r.VaR95), 14)
	PrintKeyValue("CVaR 95 (1d)", formatPercent(r.CVaR95), 14)
	PrintKeyValue("Win Rate", formatPercent(r.WinRate), 14)
	PrintKeyValue("No-ops", strconv.Itoa(r.Stats.NoOpContributions), 14)

	if r.Stats.NoOpContributions > 0 {
		PrintInfo("missing recommendations/returns contributed their stake unchanged")
	}
}

func printEquityCurve(r *backtest.Result) {
	if r == nil {
		return
	}
	fmt.Println()
	widths := []int{10, 12, 12, 10, 6}
	PrintTableHeader([]string{"Date", "Start", "Equity", "Return", "NoOp"}, widths)
	for _, p := range r.EquityCurve {
		noOps := 0
		for _, c := range p.Contributions {
			if c.NoOp {
				noOps++
			}
		}
		PrintTableRow([]string{
			formatDate(p.Date),
			p.Start.StringFixed(6),
			p.Equity.StringFixed(6),
			formatPercent(p.Return),
			strconv.Itoa(noOps),
		}, widths)
	}
}
