package analyze

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dtnitsch/sitebrief/internal/common"
	"github.com/dtnitsch/sitebrief/models"
	"github.com/dtnitsch/sitebrief/pkg/analyzer"
	"github.com/dtnitsch/sitebrief/pkg/completion"
	"github.com/dtnitsch/sitebrief/pkg/scrape"
	"github.com/dtnitsch/sitebrief/pkg/store"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
)

// Environment configuration for credentials and provider selection.
const (
	EnvLLMAPIKey     = "SITEBRIEF_LLM_API_KEY"
	EnvLLMModel      = "SITEBRIEF_LLM_MODEL"
	EnvLLMProvider   = "SITEBRIEF_LLM_PROVIDER"
	EnvScraperAPIKey = "SITEBRIEF_SCRAPER_API_KEY"
)

func AnalyzeAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	url, err := common.SanitizeAndValidateURL(c.String("url"))
	if err != nil {
		return fmt.Errorf("invalid --url: %w", err)
	}

	mode, err := models.ParseAnalysisMode(c.String("mode"))
	if err != nil {
		return err
	}

	config := &models.AnalyzeConfig{
		URL:     url,
		Mode:    mode,
		Save:    c.Bool("save"),
		OwnerID: c.String("owner"),
	}

	scraper, err := buildScraper(c, logger)
	if err != nil {
		logger.Error("failed to initialize scraper", "error", err)
		os.Exit(2)
	}

	providerName := c.String("provider")
	if providerName == "" {
		providerName = os.Getenv(EnvLLMProvider)
	}
	provider, err := completion.NewProvider(completion.Config{
		Provider: providerName,
		APIKey:   os.Getenv(EnvLLMAPIKey),
		Model:    os.Getenv(EnvLLMModel),
	})
	if err != nil {
		logger.Error("failed to initialize completion provider", "error", err)
		os.Exit(2)
	}

	limiter, err := buildLimiter(c.Float64("rate"))
	if err != nil {
		return err
	}
	client := completion.NewClient(provider, limiter)

	logger.Info("scraping page", "url", config.URL, "mode", string(config.Mode))
	page, err := scraper.Scrape(c.Context, config.URL)
	if err != nil {
		logger.Error("scrape failed", "url", config.URL, "error", err)
		os.Exit(2)
	}

	rawText := scrape.ExtractText(page.Markdown)
	if page.Metadata.Language == "" {
		lang, confidence := scrape.DetectLanguage(rawText)
		page.Metadata.Language = lang
		logger.Debug("detected page language", "language", lang, "confidence", confidence)
	}
	logger.Info("scraped page",
		"url", config.URL,
		"title", page.Metadata.Title,
		"language", page.Metadata.Language,
		"markdown_bytes", len(page.Markdown))

	a := analyzer.New(client, logger)
	result, err := a.Analyze(c.Context, models.AnalysisRequest{
		Mode:     config.Mode,
		URL:      config.URL,
		Markdown: page.Markdown,
		RawText:  rawText,
	})
	if err != nil {
		logger.Error("analysis failed", "url", config.URL, "error", err)
		os.Exit(2)
	}

	if config.Save {
		db, err := store.Open(c.String("db"))
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(2)
		}
		defer db.Close()

		id, err := db.CreateRecord(config.OwnerID, config.Mode, config.URL, result)
		if err != nil {
			logger.Error("failed to save record", "error", err)
			os.Exit(2)
		}
		logger.Info("saved analysis record", "record_id", id, "db", db.Path())
	}

	outputData, err := common.MarshalOutput(result, c.String("format"))
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(outputData))
	return nil
}

// buildLimiter validates the requested completion rate. A zero-rate limiter
// never refills, so a second completion in the same run would wait forever;
// non-positive rates are rejected up front instead.
func buildLimiter(requestsPerSecond float64) (*rate.Limiter, error) {
	if requestsPerSecond <= 0 {
		return nil, fmt.Errorf("invalid --rate %v: must be greater than 0", requestsPerSecond)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1), nil
}

// buildScraper picks the remote scraper when a scraping API credential is
// configured, otherwise the local one, and wraps it with the file cache
// unless caching is disabled.
func buildScraper(c *cli.Context, logger *slog.Logger) (scrape.Scraper, error) {
	var inner scrape.Scraper
	if key := os.Getenv(EnvScraperAPIKey); key != "" && !c.Bool("local") {
		inner = scrape.NewRemoteScraper(key, "")
		logger.Debug("using remote scraper")
	} else {
		inner = scrape.NewLocalScraper()
		logger.Debug("using local scraper")
	}

	if c.Bool("force-fetch") {
		return inner, nil
	}

	maxAge, err := time.ParseDuration(c.String("max-age"))
	if err != nil {
		return nil, fmt.Errorf("invalid max-age duration: %w", err)
	}

	return scrape.NewCachedScraper(inner, c.String("cache-dir"), maxAge, logger)
}
