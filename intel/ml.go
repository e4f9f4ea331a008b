package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"qrsentry/verdict"
)

// MLClient queries the hosted URL classifier. Unlike the reputation client
// it returns errors: the orchestrator owns the degradation policy for the
// classifier signal and applies the same fail-toward-Suspicious rule there.
type MLClient struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

type classifyRequest struct {
	URL string `json:"url"`
}

// NewMLClient builds a classifier client for the scoring endpoint.
func NewMLClient(endpoint string, timeout time.Duration, maxPerSecond int) *MLClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	var limiter *rate.Limiter
	if maxPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(maxPerSecond), maxPerSecond)
	}
	return &MLClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  limiter,
	}
}

// Classify submits the URL for scoring and validates the response shape at
// the boundary: the score must be a finite number in [0,1] and the
// prediction one of the two known labels. Anything else is an error rather
// than a value the aggregator has to guess about.
func (c *MLClient) Classify(ctx context.Context, rawURL string) (verdict.MLResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return verdict.MLResult{}, fmt.Errorf("classifier rate limit: %w", err)
		}
	}

	body, err := json.Marshal(classifyRequest{URL: rawURL})
	if err != nil {
		return verdict.MLResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return verdict.MLResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return verdict.MLResult{}, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return verdict.MLResult{}, fmt.Errorf("classifier returned %s", resp.Status)
	}

	var result verdict.MLResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return verdict.MLResult{}, fmt.Errorf("classifier response decode: %w", err)
	}
	if math.IsNaN(result.Score) || result.Score < 0 || result.Score > 1 {
		return verdict.MLResult{}, fmt.Errorf("classifier score %v out of range", result.Score)
	}
	if result.Prediction != verdict.StatusSafe && result.Prediction != verdict.StatusMalicious {
		return verdict.MLResult{}, fmt.Errorf("classifier prediction %q unknown", result.Prediction)
	}
	return result, nil
}
