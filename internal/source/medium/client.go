package medium

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"medium_syncer/internal/domain"
)

const SourceName = "Medium"

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Medium article URLs end with a hex slug, e.g. ".../some-title-3f2a9c81d4e5".
var articleIDPattern = regexp.MustCompile(`([0-9a-f]{8,})/?$`)

// Config holds Medium source configuration.
type Config struct {
	BaseURL        string // overrides the api_host derived URL, used in tests
	APIKey         string
	APIHost        string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client fetches article candidates from the Medium API (RapidAPI medium2).
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	apiHost        string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a Medium source client.
func New(cfg Config, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.APIHost
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		apiHost:        cfg.APIHost,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", "medium"),
	}
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return SourceName
}

// Search collects candidates for the given keywords, capped at limit and
// ordered most-recent-first. Any request failure fails the whole search:
// callers rely on the result being complete for the requested constraints.
func (c *Client) Search(ctx context.Context, keywords []string, limit int) ([]domain.ArticleCandidate, error) {
	if limit <= 0 || len(keywords) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var ids []string

	for _, keyword := range keywords {
		var resp SearchResponse
		endpoint := fmt.Sprintf("%s/search/articles?query=%s", c.baseURL, url.QueryEscape(keyword))
		if err := c.get(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("search %q: %w: %w", keyword, domain.ErrSourceUnavailable, err)
		}

		c.logger.Debug("search results", "keyword", keyword, "ids", len(resp.Articles))

		for _, id := range resp.Articles {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}

		if len(ids) >= limit {
			break
		}
	}

	candidates := make([]domain.ArticleCandidate, 0, len(ids))
	for _, id := range ids {
		candidate, err := c.fetchCandidate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("article %s: %w: %w", id, domain.ErrSourceUnavailable, err)
		}
		if candidate == nil {
			continue
		}
		candidates = append(candidates, *candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Lookup resolves a single article by its Medium URL.
func (c *Client) Lookup(ctx context.Context, articleURL string) (*domain.ArticleCandidate, error) {
	id := extractArticleID(articleURL)
	if id == "" {
		return nil, fmt.Errorf("no article id in %q: %w", articleURL, domain.ErrInvalidCandidate)
	}

	candidate, err := c.fetchCandidate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("article %s: %w: %w", id, domain.ErrSourceUnavailable, err)
	}
	if candidate == nil {
		return nil, fmt.Errorf("article %s has no usable metadata: %w", id, domain.ErrInvalidCandidate)
	}
	return candidate, nil
}

func (c *Client) fetchCandidate(ctx context.Context, id string) (*domain.ArticleCandidate, error) {
	var info ArticleInfo
	if err := c.get(ctx, fmt.Sprintf("%s/article/%s", c.baseURL, id), &info); err != nil {
		return nil, err
	}

	publishedAt, ok := parseDate(info.PublishedAt)
	if !ok {
		c.logger.Warn("unparseable publish date, skipping article",
			"article_id", id,
			"published_at", info.PublishedAt,
		)
		return nil, nil
	}

	body, format, err := c.fetchContent(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.ArticleCandidate{
		SourceURL:   info.URL,
		ExternalID:  id,
		Title:       info.Title,
		Subtitle:    info.Subtitle,
		Author:      info.Author,
		Body:        body,
		BodyFormat:  format,
		Language:    info.Lang,
		Tags:        info.Tags,
		ImageURL:    info.ImageURL,
		PublishedAt: publishedAt,
	}, nil
}

// fetchContent prefers markdown and falls back to HTML.
func (c *Client) fetchContent(ctx context.Context, id string) (string, string, error) {
	var md ContentResponse
	mdErr := c.get(ctx, fmt.Sprintf("%s/article/%s/markdown", c.baseURL, id), &md)
	if mdErr == nil && md.Markdown != "" {
		return md.Markdown, "markdown", nil
	}

	var html ContentResponse
	if err := c.get(ctx, fmt.Sprintf("%s/article/%s/html", c.baseURL, id), &html); err != nil {
		if mdErr != nil {
			return "", "", fmt.Errorf("markdown: %w, html: %w", mdErr, err)
		}
		return "", "", err
	}
	return html.HTML, "html", nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.doRequest(ctx, url, out)
		if err == nil {
			return nil
		}

		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"url", url,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
}

func (c *Client) doRequest(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func extractArticleID(articleURL string) string {
	trimmed := strings.TrimSuffix(articleURL, "/")
	if m := articleIDPattern.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return ""
}
