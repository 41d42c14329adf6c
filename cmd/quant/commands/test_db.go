package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sentitrade/internal/s0_data"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "PostgreSQL 연결 + 원천 데이터 점검",
	Long: `데이터베이스 연결을 테스트하고 실험 기간의 종목별 관측치 수를 표시합니다.

이 명령어는:
- config에서 DATABASE_URL 로드
- 데이터베이스 연결 생성 + Health Check
- Connection Pool 통계 표시
- data.article_observations 종목별 행 수 (experiment 유니버스 기준)

Example:
  go run ./cmd/quant test-db`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	PrintHeader("Database Check", a.exp.Meta.ExperimentID, a.hash)
	PrintKeyValue("Database URL", maskPassword(a.cfg.Database.URL), 14)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := a.connect(ctx)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Println()
	PrintSuccess("Health Check Results:")
	PrintKeyValue("Healthy", strconv.FormatBool(status.Healthy), 14)
	PrintKeyValue("Response Time", status.ResponseTime.String(), 14)
	PrintKeyValue("Max Conns", strconv.Itoa(int(status.Stats.MaxConns)), 14)
	PrintKeyValue("Total Conns", strconv.Itoa(int(status.Stats.TotalConns)), 14)
	PrintKeyValue("Idle Conns", strconv.Itoa(int(status.Stats.IdleConns)), 14)

	from, to, err := a.exp.DataRange()
	if err != nil {
		return err
	}
	counts, err := s0_data.NewObservationRepository(db.Pool).CountByTicker(ctx, from, to)
	if err != nil {
		return fmt.Errorf("count observations: %w", err)
	}

	fmt.Println()
	fmt.Printf("📊 Observations %s ~ %s:\n", formatDate(from), formatDate(to))
	widths := []int{8, 10}
	PrintTableHeader([]string{"Ticker", "Rows"}, widths)

	missing := 0
	for _, ticker := range a.exp.Universe.Tickers {
		n := counts[ticker]
		if n == 0 {
			missing++
		}
		PrintTableRow([]string{ticker, strconv.Itoa(n)}, widths)
	}

	fmt.Println()
	if missing > 0 {
		PrintWarning(fmt.Sprintf("%d universe tickers have no observations", missing))
		return nil
	}
	PrintSuccess("All universe tickers have observations")
	return nil
}
