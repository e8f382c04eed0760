package scrape

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CachedScraper wraps another Scraper with a file-based TTL cache keyed by
// URL, so repeated analyses of the same page within the TTL skip the fetch.
type CachedScraper struct {
	inner  Scraper
	dir    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedScraper creates the cache directory if needed.
func NewCachedScraper(inner Scraper, dir string, ttl time.Duration, logger *slog.Logger) (*CachedScraper, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &CachedScraper{inner: inner, dir: dir, ttl: ttl, logger: logger}, nil
}

func (c *CachedScraper) Scrape(ctx context.Context, url string) (*Result, error) {
	if res, ok := c.get(url); ok {
		c.logger.Debug("scrape cache hit", "url", url)
		return res, nil
	}

	res, err := c.inner.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}

	// Cache write failure is not a scrape failure.
	if err := c.set(url, res); err != nil {
		c.logger.Warn("failed to write scrape cache", "url", url, "error", err)
	}
	return res, nil
}

func (c *CachedScraper) path(url string) string {
	hash := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, fmt.Sprintf("%x.json", hash))
}

func (c *CachedScraper) get(url string) (*Result, bool) {
	p := c.path(url)

	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}

func (c *CachedScraper) set(url string, res *Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(url), data, 0644)
}
