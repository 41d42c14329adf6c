package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/sentitrade/internal/contracts"
)

// ObservationRepository implements contracts.ObservationSource
// ⭐ SSOT: 기사 감성 + 가격 원천 데이터 조회는 여기서만
type ObservationRepository struct {
	pool *pgxpool.Pool
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(pool *pgxpool.Pool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

// ListObservations returns article-level rows with market_date in [from, to].
// A zero from or to leaves that side unbounded.
func (r *ObservationRepository) ListObservations(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	query := `
		SELECT market_date, ticker,
		       finvader_neg, finvader_neu, finvader_pos, finvader_tot,
		       open_price, high_price, low_price, close_price, volume, dividends, stock_splits
		FROM data.article_observations
		WHERE ($1::date IS NULL OR market_date >= $1)
		  AND ($2::date IS NULL OR market_date <= $2)
		ORDER BY ticker, market_date
	`

	rows, err := r.pool.Query(ctx, query, dateArg(from), dateArg(to))
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var observations []contracts.Observation
	for rows.Next() {
		var o contracts.Observation
		if err := rows.Scan(
			&o.Date, &o.Ticker,
			&o.Sentiment.Neg, &o.Sentiment.Neu, &o.Sentiment.Pos, &o.Sentiment.Compound,
			&o.Open, &o.High, &o.Low, &o.Close, &o.Volume, &o.Dividends, &o.Splits,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

// CountByTicker returns the number of raw rows per ticker in [from, to]
func (r *ObservationRepository) CountByTicker(ctx context.Context, from, to time.Time) (map[string]int, error) {
	query := `
		SELECT ticker, COUNT(*)
		FROM data.article_observations
		WHERE ($1::date IS NULL OR market_date >= $1)
		  AND ($2::date IS NULL OR market_date <= $2)
		GROUP BY ticker
	`

	rows, err := r.pool.Query(ctx, query, dateArg(from), dateArg(to))
	if err != nil {
		return nil, fmt.Errorf("query observation counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ticker string
		var n int
		if err := rows.Scan(&ticker, &n); err != nil {
			return nil, fmt.Errorf("scan observation count: %w", err)
		}
		counts[ticker] = n
	}
	return counts, rows.Err()
}

// dateArg maps a zero time to SQL NULL
func dateArg(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
