// Package neynar resolves Farcaster fids to usernames through the Neynar
// bulk user endpoint.
package neynar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nukewar/internal/ports"
)

// DefaultBaseURL is the public Neynar API host.
const DefaultBaseURL = "https://api.neynar.com"

const maxBodyBytes = 1 << 20

// Config holds configuration for the Neynar client.
type Config struct {
	// APIKey is sent in the api_key header. An empty key disables lookups.
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient defaults to a client with a 5s timeout.
	HTTPClient *http.Client
}

// HTTPError is returned for a non-200 response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("neynar: status %d: %s", e.StatusCode, e.Body)
}

// Client looks up Farcaster users by fid.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{apiKey: strings.TrimSpace(cfg.APIKey), baseURL: base, http: httpClient}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type bulkUsersResponse struct {
	Users []struct {
		Fid         int64  `json:"fid"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	} `json:"users"`
}

// ResolveUsername returns the Farcaster username of playerID. Ids that are not
// fids, unknown fids and a missing API key all yield an empty name.
func (c *Client) ResolveUsername(ctx context.Context, playerID string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	fid, err := strconv.ParseUint(strings.TrimSpace(playerID), 10, 64)
	if err != nil || fid == 0 {
		return "", nil
	}

	q := url.Values{"fids": {strconv.FormatUint(fid, 10)}}
	target := c.baseURL + "/v2/farcaster/user/bulk?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("neynar: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api_key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("neynar: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("neynar: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out bulkUsersResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("neynar: decode response: %w", err)
	}
	if len(out.Users) == 0 {
		return "", nil
	}
	u := out.Users[0]
	if u.Username != "" {
		return u.Username, nil
	}
	return u.DisplayName, nil
}

var _ ports.UsernameResolver = (*Client)(nil)
