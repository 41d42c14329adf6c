package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/sentitrade/internal/contracts"
)

// RecommendationRepository implements contracts.RecommendationSource
// ⭐ SSOT: 외부 모델 추천 조회는 여기서만
type RecommendationRepository struct {
	pool    *pgxpool.Pool
	modelID string
}

// NewRecommendationRepository creates a repository scoped to one model.
// An empty modelID reads every model's rows.
func NewRecommendationRepository(pool *pgxpool.Pool, modelID string) *RecommendationRepository {
	return &RecommendationRepository{pool: pool, modelID: modelID}
}

// ListRecommendations returns recommendations with rec_date in [from, to]
func (r *RecommendationRepository) ListRecommendations(ctx context.Context, from, to time.Time) ([]contracts.Recommendation, error) {
	query := `
		SELECT rec_date, ticker, direction
		FROM model.recommendations
		WHERE ($1::date IS NULL OR rec_date >= $1)
		  AND ($2::date IS NULL OR rec_date <= $2)
		  AND ($3::text = '' OR model_id = $3)
		ORDER BY rec_date, ticker
	`

	rows, err := r.pool.Query(ctx, query, dateArg(from), dateArg(to), r.modelID)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []contracts.Recommendation
	for rows.Next() {
		var rec contracts.Recommendation
		var direction string
		if err := rows.Scan(&rec.Date, &rec.Ticker, &direction); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}

		rec.Direction, err = contracts.ParseDirection(direction)
		if err != nil {
			return nil, &contracts.DataQualityError{Ticker: rec.Ticker, Date: rec.Date, Message: err.Error()}
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
