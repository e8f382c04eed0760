// Package scrape turns a URL into markdown content ready for analysis.
// Two scrapers implement the same interface: RemoteScraper calls a hosted
// scraping API, LocalScraper fetches and distills the page itself. A TTL
// file cache can wrap either one.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Metadata is the page-level detail a scrape yields alongside content.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	SourceURL   string `json:"source_url"`
	StatusCode  int    `json:"status_code"`
}

// Result is one scraped page.
type Result struct {
	Markdown string   `json:"markdown"`
	HTML     string   `json:"html"`
	Metadata Metadata `json:"metadata"`
}

// Scraper fetches one URL's content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
}

const defaultRemoteBaseURL = "https://api.firecrawl.dev"

// RemoteScraper calls a hosted scraping API. It speaks the v2 request shape
// first and falls back to v1 when the server rejects a v2-only key, so one
// binary works against both API generations.
type RemoteScraper struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewRemoteScraper builds a remote scraper. baseURL may be empty for the
// hosted default; tests point it at a fake.
func NewRemoteScraper(apiKey, baseURL string) *RemoteScraper {
	if baseURL == "" {
		baseURL = defaultRemoteBaseURL
	}
	return &RemoteScraper{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type remoteRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type remoteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
		Metadata struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Language    string `json:"language"`
			SourceURL   string `json:"sourceURL"`
			StatusCode  int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

func (s *RemoteScraper) Scrape(ctx context.Context, url string) (*Result, error) {
	res, status, body, err := s.scrapeVersion(ctx, "v2", url)
	if err == nil {
		return res, nil
	}
	// Older servers reject v2-only request keys with a 400.
	if status == http.StatusBadRequest && strings.Contains(body, "Unrecognized key") {
		res, _, _, err = s.scrapeVersion(ctx, "v1", url)
		if err == nil {
			return res, nil
		}
	}
	return nil, err
}

func (s *RemoteScraper) scrapeVersion(ctx context.Context, version, url string) (*Result, int, string, error) {
	payload, err := json.Marshal(remoteRequest{
		URL:             url,
		Formats:         []string{"markdown", "html"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to encode scrape request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/scrape", s.baseURL, version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, resp.StatusCode, "", fmt.Errorf("failed to read scrape response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, string(raw),
			fmt.Errorf("scrape API %s returned %d: %s", version, resp.StatusCode, truncateBody(raw))
	}

	var rr remoteResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, resp.StatusCode, string(raw), fmt.Errorf("failed to decode scrape response: %w", err)
	}
	if !rr.Success {
		return nil, resp.StatusCode, string(raw), fmt.Errorf("scrape API %s reported failure: %s", version, rr.Error)
	}
	if rr.Data.Markdown == "" && rr.Data.HTML == "" {
		return nil, resp.StatusCode, string(raw), fmt.Errorf("scrape API %s returned no content", version)
	}

	return &Result{
		Markdown: rr.Data.Markdown,
		HTML:     rr.Data.HTML,
		Metadata: Metadata{
			Title:       rr.Data.Metadata.Title,
			Description: rr.Data.Metadata.Description,
			Language:    rr.Data.Metadata.Language,
			SourceURL:   rr.Data.Metadata.SourceURL,
			StatusCode:  rr.Data.Metadata.StatusCode,
		},
	}, resp.StatusCode, string(raw), nil
}

func truncateBody(raw []byte) string {
	const limit = 512
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
