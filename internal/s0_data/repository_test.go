package s0_data

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err, "database connection failed")
	t.Cleanup(pool.Close)
	return pool
}

func TestDateArg(t *testing.T) {
	assert.Nil(t, dateArg(time.Time{}))

	d := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, d, dateArg(d))
}

func TestObservationRepository_ListObservations(t *testing.T) {
	repo := NewObservationRepository(testPool(t))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	from := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	observations, err := repo.ListObservations(ctx, from, to)
	require.NoError(t, err)

	for _, o := range observations {
		assert.False(t, o.Date.Before(from))
		assert.False(t, o.Date.After(to))
	}
	assert.True(t, sort.SliceIsSorted(observations, func(i, j int) bool {
		if observations[i].Ticker != observations[j].Ticker {
			return observations[i].Ticker < observations[j].Ticker
		}
		return observations[i].Date.Before(observations[j].Date)
	}))

	counts, err := repo.CountByTicker(ctx, from, to)
	require.NoError(t, err)
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, len(observations), total)
}

func TestRecommendationRepository_ListRecommendations(t *testing.T) {
	repo := NewRecommendationRepository(testPool(t), "")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recs, err := repo.ListRecommendations(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	for _, r := range recs {
		assert.True(t, r.Direction.Valid())
	}
}
