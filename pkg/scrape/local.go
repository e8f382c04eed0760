package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// LocalScraper fetches a page directly and distills it with readability,
// for use when no scraping API credential is configured. The distilled
// content is rendered to markdown so both scrapers feed the same pipeline.
type LocalScraper struct {
	client *http.Client
}

func NewLocalScraper() *LocalScraper {
	return &LocalScraper{client: &http.Client{Timeout: 30 * time.Second}}
}

func (s *LocalScraper) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "sitebrief/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch page, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}
	html := string(body)

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to distill page content: %w", err)
	}

	markdown, err := renderMarkdown(article.Content)
	if err != nil {
		return nil, err
	}
	language, _ := DetectLanguage(markdown)

	return &Result{
		Markdown: markdown,
		HTML:     html,
		Metadata: Metadata{
			Title:       normalizeText(article.Title),
			Description: normalizeText(article.Excerpt),
			Language:    language,
			SourceURL:   rawURL,
			StatusCode:  resp.StatusCode,
		},
	}, nil
}

// renderMarkdown walks the distilled content and emits a flat markdown
// document: headings, paragraphs, list items, and fenced code blocks.
func renderMarkdown(distilledHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(distilledHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse distilled content: %w", err)
	}

	var b strings.Builder
	doc.Find("h1,h2,h3,h4,p,li,blockquote,pre").Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		switch tag {
		case "pre":
			code := strings.TrimSpace(s.Text())
			if code != "" {
				b.WriteString("```\n" + code + "\n```\n\n")
			}
		case "li":
			text := normalizeText(s.Text())
			if text != "" {
				b.WriteString("- " + text + "\n")
			}
		case "blockquote":
			text := normalizeText(s.Text())
			if text != "" {
				b.WriteString("> " + text + "\n\n")
			}
		case "h1", "h2", "h3", "h4":
			text := normalizeText(s.Text())
			if text != "" {
				b.WriteString(strings.Repeat("#", int(tag[1]-'0')) + " " + text + "\n\n")
			}
		default:
			text := normalizeText(s.Text())
			if text != "" {
				b.WriteString(text + "\n\n")
			}
		}
	})
	return strings.TrimSpace(b.String()), nil
}

// normalizeText collapses a multi-line string into single-spaced text.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
