// Package deezer looks up track durations through the keyless Deezer search
// API. It is used as fallback when no Last.fm key is configured.
package deezer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	apiURL    = "https://api.deezer.com"
	userAgent = "spy-spotify/1.0"
)

// Deezer allows 50 requests per 5 seconds.
const requestInterval = 100 * time.Millisecond

// ErrNoMatch is returned when a search has no usable result.
var ErrNoMatch = errors.New("no matching track")

// Result is a single search hit.
type Result struct {
	Title    string
	Artist   string
	Duration time.Duration
}

// Client is a rate limited Deezer search client.
type Client struct {
	httpClient *http.Client
	apiURL     string
	limiter    *rate.Limiter
}

// New creates a new Deezer client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
	}
}

// Search queries tracks by artist and title, best match first.
func (c *Client) Search(ctx context.Context, artist, title string) ([]Result, error) {
	q := buildQuery(artist, title)
	if q == "" {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&limit=5", c.apiURL, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, body)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	if searchResp.Error != nil {
		return nil, fmt.Errorf("API error %d: %s", searchResp.Error.Code, searchResp.Error.Message)
	}

	results := make([]Result, 0, len(searchResp.Data))
	for _, item := range searchResp.Data {
		results = append(results, Result{
			Title:    item.Title,
			Artist:   item.Artist.Name,
			Duration: time.Duration(item.Duration) * time.Second,
		})
	}
	return results, nil
}

// buildQuery builds an advanced search query; quotes in values are dropped.
func buildQuery(artist, title string) string {
	escape := func(s string) string {
		return strings.ReplaceAll(s, "\"", "")
	}
	var parts []string
	if artist != "" {
		parts = append(parts, "artist:\""+escape(artist)+"\"")
	}
	if title != "" {
		parts = append(parts, "track:\""+escape(title)+"\"")
	}
	return strings.Join(parts, " ")
}

type searchResponse struct {
	Data  []trackItem `json:"data"`
	Error *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type trackItem struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	Artist   struct {
		Name string `json:"name"`
	} `json:"artist"`
}
