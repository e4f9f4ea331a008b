// Package intel holds the remote threat-intelligence clients and the verdict
// cache that shields them from repeat lookups.
package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"qrsentry/logger"
	"qrsentry/verdict"
)

const defaultRequestTimeout = 8 * time.Second

// ReputationClient queries a threat-list lookup service (Safe Browsing v4
// wire format) for a URL.
type ReputationClient struct {
	endpoint      string
	apiKey        string
	clientID      string
	clientVersion string
	client        *http.Client
	limiter       *rate.Limiter
}

type threatRequest struct {
	Client     threatClientInfo `json:"client"`
	ThreatInfo threatInfo       `json:"threatInfo"`
}

type threatClientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

type threatResponse struct {
	Matches []json.RawMessage `json:"matches"`
}

// NewReputationClient builds a client for the given lookup endpoint. A
// non-positive timeout falls back to the default; maxPerSecond <= 0 disables
// rate limiting.
func NewReputationClient(endpoint, apiKey, clientID, clientVersion string, timeout time.Duration, maxPerSecond int) *ReputationClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	var limiter *rate.Limiter
	if maxPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(maxPerSecond), maxPerSecond)
	}
	return &ReputationClient{
		endpoint:      endpoint,
		apiKey:        apiKey,
		clientID:      clientID,
		clientVersion: clientVersion,
		client:        &http.Client{Timeout: timeout},
		limiter:       limiter,
	}
}

// Check looks up the URL against malware, social-engineering, and unwanted-
// software threat lists. Any match means Malicious and none means Safe.
// Every failure mode (transport error, bad status, undecodable body, limiter
// or context cancellation) degrades to Suspicious: inconclusive must never
// read as Safe, and this client never returns an error.
func (c *ReputationClient) Check(ctx context.Context, rawURL string) verdict.Status {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			logger.Warnf("Reputation lookup rate limit wait failed: %v", err)
			return verdict.StatusSuspicious
		}
	}

	body, err := json.Marshal(threatRequest{
		Client: threatClientInfo{ClientID: c.clientID, ClientVersion: c.clientVersion},
		ThreatInfo: threatInfo{
			ThreatTypes:      []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: rawURL}},
		},
	})
	if err != nil {
		logger.Errorf("Reputation request encode failed: %v", err)
		return verdict.StatusSuspicious
	}

	endpoint := c.endpoint
	if c.apiKey != "" {
		endpoint = fmt.Sprintf("%s?key=%s", c.endpoint, c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Errorf("Reputation request build failed: %v", err)
		return verdict.StatusSuspicious
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warnf("Reputation lookup failed: %v", err)
		return verdict.StatusSuspicious
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warnf("Reputation lookup returned %s", resp.Status)
		return verdict.StatusSuspicious
	}

	var decoded threatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		logger.Warnf("Reputation response decode failed: %v", err)
		return verdict.StatusSuspicious
	}

	if len(decoded.Matches) > 0 {
		return verdict.StatusMalicious
	}
	return verdict.StatusSafe
}
