// Package sentiment scores text through an external language analysis service.
package sentiment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/yigit/feedsphere/internal/config"
	"github.com/yigit/feedsphere/internal/pkg/resilience"
)

// Scorer returns a sentiment score, conventionally in [-1.0, 1.0], for a text blob.
// There is no fallback score: callers must treat an error as a failed operation.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

type document struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type analyzeSentimentRequest struct {
	Document     document `json:"document"`
	EncodingType string   `json:"encodingType"`
}

type analyzeSentimentResponse struct {
	DocumentSentiment *struct {
		Magnitude float64 `json:"magnitude"`
		Score     float64 `json:"score"`
	} `json:"documentSentiment"`
	Language string `json:"language"`
}

// Client is a Scorer backed by the Cloud Natural Language analyzeSentiment REST method
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	policy     *resilience.Policy
}

var _ Scorer = (*Client)(nil)

// NewClient creates a sentiment client from its collaborator configuration
func NewClient(cfg config.CollaboratorConfig, logger zerolog.Logger) *Client {
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
		policy:     resilience.NewPolicy("sentiment", cfg, logger),
	}
}

// Score analyzes text as an HTML document and returns its document-level score
func (c *Client) Score(ctx context.Context, text string) (float64, error) {
	payload := analyzeSentimentRequest{
		Document:     document{Type: "HTML", Content: text},
		EncodingType: "UTF8",
	}

	body, err := c.policy.Do(ctx, func(ctx context.Context) ([]byte, error) {
		return resilience.PostJSON(ctx, c.httpClient, c.endpoint, c.apiKey, payload)
	})
	if err != nil {
		return 0, fmt.Errorf("sentiment analysis failed: %w", err)
	}

	var resp analyzeSentimentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("failed to decode sentiment response: %w", err)
	}
	if resp.DocumentSentiment == nil {
		return 0, fmt.Errorf("sentiment response has no document sentiment")
	}

	return resp.DocumentSentiment.Score, nil
}
