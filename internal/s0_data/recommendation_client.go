package s0_data

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/sentitrade/internal/contracts"
	"github.com/wonny/sentitrade/pkg/httputil"
)

// RecommendationClient implements contracts.RecommendationSource over the
// model service REST API:
//
//	GET {base}/recommendations?from=2023-03-01&to=2023-06-30&model_id=lstm
//	→ [{"date":"2023-03-01","ticker":"AAPL","direction":"long"}, ...]
type RecommendationClient struct {
	client  *httputil.Client
	baseURL string
	modelID string
}

// recommendationDTO is the wire format of one recommendation
type recommendationDTO struct {
	Date      string `json:"date"`
	Ticker    string `json:"ticker"`
	Direction string `json:"direction"`
}

// NewRecommendationClient creates a client for the model service at baseURL
func NewRecommendationClient(client *httputil.Client, baseURL, modelID string) *RecommendationClient {
	return &RecommendationClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		modelID: modelID,
	}
}

// ListRecommendations fetches recommendations dated in [from, to]
func (c *RecommendationClient) ListRecommendations(ctx context.Context, from, to time.Time) ([]contracts.Recommendation, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		q.Set("to", to.Format("2006-01-02"))
	}
	if c.modelID != "" {
		q.Set("model_id", c.modelID)
	}

	endpoint := c.baseURL + "/recommendations"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var dtos []recommendationDTO
	if err := c.client.GetJSON(ctx, endpoint, &dtos); err != nil {
		return nil, fmt.Errorf("fetch recommendations: %w", err)
	}

	recs := make([]contracts.Recommendation, 0, len(dtos))
	for _, d := range dtos {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return nil, &contracts.DataQualityError{Ticker: d.Ticker, Message: fmt.Sprintf("invalid date %q", d.Date)}
		}
		direction, err := contracts.ParseDirection(d.Direction)
		if err != nil {
			return nil, &contracts.DataQualityError{Ticker: d.Ticker, Date: date, Message: err.Error()}
		}
		recs = append(recs, contracts.Recommendation{Date: date, Ticker: d.Ticker, Direction: direction})
	}
	return recs, nil
}
