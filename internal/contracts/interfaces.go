package contracts

import (
	"context"
	"time"
)

// ObservationSource provides raw article/price rows (ingestion)
// ⭐ SSOT: 원천 데이터 수집 인터페이스
type ObservationSource interface {
	ListObservations(ctx context.Context, from, to time.Time) ([]Observation, error)
}

// RecommendationSource provides model recommendations (external model)
// ⭐ SSOT: 모델 추천 조회 인터페이스
type RecommendationSource interface {
	ListRecommendations(ctx context.Context, from, to time.Time) ([]Recommendation, error)
}
