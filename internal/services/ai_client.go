// internal/services/ai_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/javajoker/listing-studio/internal/config"
	"github.com/javajoker/listing-studio/internal/generation"
)

const maxAIResponseSize = 10 << 20

// AIError is a failed call to one of the generation endpoints.
type AIError struct {
	Endpoint string
	Status   int
	Message  string
	Details  string
}

func (e *AIError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg = e.Details
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, msg)
}

// AIClient posts JSON to the generation endpoints. All calls share one
// outbound rate limiter.
type AIClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	cfg     config.AIConfig
}

func NewAIClient(cfg config.AIConfig, httpClient *http.Client) *AIClient {
	if httpClient == nil {
		// per-call deadlines come from the run context
		httpClient = &http.Client{}
	}
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	return &AIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		cfg:     cfg,
	}
}

// Clients wires the four generation endpoints onto this client.
func (c *AIClient) Clients() generation.Clients {
	return generation.Clients{
		Research: &ResearchClient{ai: c},
		Copy:     &CopywritingClient{ai: c},
		Image:    &ImageClient{ai: c, model: c.cfg.ImageModel},
		Video:    &VideoClient{ai: c, model: c.cfg.VideoModel},
	}
}

// errorPayload is the body shape the endpoints use to report failures, even with status 200.
type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (c *AIClient) post(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", endpoint, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request failed: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAIResponseSize))
	if err != nil {
		return fmt.Errorf("%s: read response failed: %w", endpoint, err)
	}

	// best effort: bodies that are not an error payload leave failure empty
	var failure errorPayload
	_ = json.Unmarshal(raw, &failure)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := failure.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
			if len(msg) > 300 {
				msg = msg[:300]
			}
		}
		return &AIError{Endpoint: endpoint, Status: resp.StatusCode, Message: msg, Details: failure.Details}
	}
	if failure.Error != "" {
		return &AIError{Endpoint: endpoint, Message: failure.Error, Details: failure.Details}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response failed: %w", endpoint, err)
	}
	return nil
}
