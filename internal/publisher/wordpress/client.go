package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medium_syncer/internal/domain"
)

const maxTagsPerPost = 5

// Config holds WordPress REST connection details. The password is an
// application password paired with the username for Basic auth.
type Config struct {
	URL         string
	Username    string
	AppPassword string
	AuthorName  string
	Timeout     time.Duration
}

// Client creates posts through the WordPress REST API.
type Client struct {
	apiURL     string
	authHeader string
	authorName string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a WordPress publish client.
func New(cfg Config, logger *slog.Logger) *Client {
	credentials := cfg.Username + ":" + cfg.AppPassword
	return &Client{
		apiURL:     strings.TrimRight(cfg.URL, "/") + "/wp-json/wp/v2",
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		authorName: cfg.AuthorName,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With("publisher", "wordpress"),
	}
}

// Ping verifies the connection and credentials with a cheap read.
func (c *Client) Ping(ctx context.Context) error {
	var posts []postResponse
	return c.do(ctx, http.MethodGet, c.apiURL+"/posts?per_page=1", nil, &posts)
}

// Publish creates a post for the candidate and returns the remote post.
// The candidate body is expected to be already transformed; Publish only
// appends the author credit and source link footer.
func (c *Client) Publish(ctx context.Context, article *domain.ArticleCandidate, status, category string) (*domain.PublishedPost, error) {
	categoryID, err := c.getOrCreateTerm(ctx, "categories", category)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", category, err)
	}

	tagIDs, err := c.prepareTags(ctx, article.Tags)
	if err != nil {
		return nil, err
	}

	payload := postRequest{
		Title:      article.Title,
		Content:    c.buildContent(article),
		Excerpt:    buildExcerpt(article),
		Status:     status,
		Categories: []int64{categoryID},
		Tags:       tagIDs,
		Format:     "standard",
		Meta: postMeta{
			SourceURL:    article.SourceURL,
			SourceAuthor: article.Author,
		},
	}

	var post postResponse
	if err := c.do(ctx, http.MethodPost, c.apiURL+"/posts", payload, &post); err != nil {
		return nil, err
	}

	c.logger.Info("post created",
		"remote_id", post.ID,
		"link", post.Link,
		"status", post.Status,
	)

	return &domain.PublishedPost{
		ID:     post.ID,
		Link:   post.Link,
		Status: post.Status,
	}, nil
}

func (c *Client) buildContent(article *domain.ArticleCandidate) string {
	var sb strings.Builder

	if article.ImageURL != "" {
		fmt.Fprintf(&sb, "<figure><img src=%q alt=%q></figure>\n\n",
			article.ImageURL, article.Title)
	}

	sb.WriteString(article.Body)

	sb.WriteString("\n\n<hr>\n<p>")
	fmt.Fprintf(&sb, "Adapted by %s from an article by %s. ",
		c.authorName, article.Author)
	fmt.Fprintf(&sb, `<a href=%q target="_blank" rel="noopener">Read the original article</a>.`,
		article.SourceURL)
	sb.WriteString("</p>")

	return sb.String()
}

func buildExcerpt(article *domain.ArticleCandidate) string {
	if article.Subtitle != "" {
		return article.Subtitle
	}
	body := article.Body
	if len(body) > 150 {
		return body[:150] + "..."
	}
	return body
}

func (c *Client) prepareTags(ctx context.Context, names []string) ([]int64, error) {
	if len(names) > maxTagsPerPost {
		names = names[:maxTagsPerPost]
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := c.getOrCreateTerm(ctx, "tags", name)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Client) getOrCreateTerm(ctx context.Context, taxonomy, name string) (int64, error) {
	searchURL := fmt.Sprintf("%s/%s?search=%s&per_page=1",
		c.apiURL, taxonomy, url.QueryEscape(name))

	var found []term
	if err := c.do(ctx, http.MethodGet, searchURL, nil, &found); err != nil {
		return 0, err
	}
	if len(found) > 0 {
		return found[0].ID, nil
	}

	var created term
	createURL := fmt.Sprintf("%s/%s", c.apiURL, taxonomy)
	if err := c.do(ctx, http.MethodPost, createURL, map[string]string{"name": name}, &created); err != nil {
		return 0, err
	}

	c.logger.Debug("term created", "taxonomy", taxonomy, "name", name, "id", created.ID)
	return created.ID, nil
}

// do performs one request and classifies failures: network errors and
// 5xx map to ErrPublishUnavailable, other non-2xx to ErrPublishRejected.
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPublishUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", domain.ErrPublishUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s",
			domain.ErrPublishRejected, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
