// Package advisor provides the HTTP client for the external recommendation generator.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/planning"
)

// Client calls the advisor microservice that drafts rebalancing plans.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new advisor client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "advisor").Logger(),
	}
}

// Generate asks the advisor service for a draft plan. All transport,
// status and payload failures surface as ErrGeneratorUnavailable so
// callers can map them uniformly.
func (c *Client) Generate(ctx context.Context, req *planning.GeneratorRequest) (*planning.DraftPlan, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generator request: %w", err)
	}

	url := c.baseURL + "/v1/recommendations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generator request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("url", url).Int("holdings", len(req.Holdings)).Msg("Requesting draft plan")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", domain.ErrGeneratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(snippet)).
			Msg("Advisor returned non-OK status")
		return nil, fmt.Errorf("%w: advisor returned status %d", domain.ErrGeneratorUnavailable, resp.StatusCode)
	}

	var draft planning.DraftPlan
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		return nil, fmt.Errorf("%w: failed to parse advisor response: %v", domain.ErrGeneratorUnavailable, err)
	}

	c.log.Info().
		Int("actions", len(draft.Actions)).
		Msg("Received draft plan")

	return &draft, nil
}
