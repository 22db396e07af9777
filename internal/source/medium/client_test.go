package medium

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medium_syncer/internal/domain"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(Config{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		APIHost:        "medium2.p.rapidapi.com",
		Timeout:        5 * time.Second,
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, logger)
}

func articleRoutes(mux *http.ServeMux, id string, info ArticleInfo, markdown string) {
	mux.HandleFunc("/article/"+id, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(info)
	})
	mux.HandleFunc("/article/"+id+"/markdown", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ContentResponse{ID: id, Markdown: markdown})
	})
}

func TestSearch_ReturnsCandidates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/articles", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "medium2.p.rapidapi.com", r.Header.Get("X-RapidAPI-Host"))
		assert.Equal(t, "golang", r.URL.Query().Get("query"))
		json.NewEncoder(w).Encode(SearchResponse{Query: "golang", Articles: []string{"aaa11111"}})
	})
	articleRoutes(mux, "aaa11111", ArticleInfo{
		ID:          "aaa11111",
		Title:       "Go Concurrency",
		Subtitle:    "Channels in anger",
		Author:      "Jane Dev",
		PublishedAt: "2026-08-01 10:30:00",
		URL:         "https://medium.com/p/go-concurrency-aaa11111",
		Tags:        []string{"golang", "concurrency"},
		Lang:        "en",
	}, "# Go Concurrency\n\nBody.")

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidates, err := client.Search(context.Background(), []string{"golang"}, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "https://medium.com/p/go-concurrency-aaa11111", c.SourceURL)
	assert.Equal(t, "aaa11111", c.ExternalID)
	assert.Equal(t, "Go Concurrency", c.Title)
	assert.Equal(t, "Jane Dev", c.Author)
	assert.Equal(t, "markdown", c.BodyFormat)
	assert.Equal(t, "# Go Concurrency\n\nBody.", c.Body)
	assert.Equal(t, "en", c.Language)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC), c.PublishedAt)
}

func TestSearch_DeduplicatesAcrossKeywords(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/articles", func(w http.ResponseWriter, r *http.Request) {
		// Both keywords return the same article.
		json.NewEncoder(w).Encode(SearchResponse{Articles: []string{"bbb22222"}})
	})
	articleRoutes(mux, "bbb22222", ArticleInfo{
		ID:          "bbb22222",
		Title:       "Shared Hit",
		PublishedAt: "2026-08-02 09:00:00",
		URL:         "https://medium.com/p/shared-bbb22222",
	}, "body")

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidates, err := client.Search(context.Background(), []string{"golang", "go"}, 5)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestSearch_OrderedMostRecentFirstAndCapped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/articles", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{Articles: []string{"ccc33333", "ddd44444", "eee55555"}})
	})
	articleRoutes(mux, "ccc33333", ArticleInfo{
		ID: "ccc33333", Title: "Oldest", PublishedAt: "2026-07-01 00:00:00",
		URL: "https://medium.com/p/ccc33333",
	}, "body")
	articleRoutes(mux, "ddd44444", ArticleInfo{
		ID: "ddd44444", Title: "Newest", PublishedAt: "2026-08-20 00:00:00",
		URL: "https://medium.com/p/ddd44444",
	}, "body")
	articleRoutes(mux, "eee55555", ArticleInfo{
		ID: "eee55555", Title: "Middle", PublishedAt: "2026-08-10 00:00:00",
		URL: "https://medium.com/p/eee55555",
	}, "body")

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidates, err := client.Search(context.Background(), []string{"golang"}, 2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Newest", candidates[0].Title)
	assert.Equal(t, "Middle", candidates[1].Title)
}

func TestSearch_FailureAbortsWholeSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/articles", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{Articles: []string{"fff66666", "0a0a0a0a"}})
	})
	articleRoutes(mux, "fff66666", ArticleInfo{
		ID: "fff66666", Title: "Fine", PublishedAt: "2026-08-01 00:00:00",
		URL: "https://medium.com/p/fff66666",
	}, "body")
	mux.HandleFunc("/article/0a0a0a0a", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidates, err := client.Search(context.Background(), []string{"golang"}, 5)
	assert.Nil(t, candidates)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestSearch_RetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/search/articles", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(SearchResponse{Articles: []string{}})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Search(context.Background(), []string{"golang"}, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestSearch_UnparseableDateSkipsArticle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/articles", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{Articles: []string{"1b1b1b1b"}})
	})
	mux.HandleFunc("/article/1b1b1b1b", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ArticleInfo{
			ID: "1b1b1b1b", Title: "Bad Date", PublishedAt: "not-a-date",
			URL: "https://medium.com/p/1b1b1b1b",
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidates, err := client.Search(context.Background(), []string{"golang"}, 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSearch_FallsBackToHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/articles", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{Articles: []string{"2c2c2c2c"}})
	})
	mux.HandleFunc("/article/2c2c2c2c", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ArticleInfo{
			ID: "2c2c2c2c", Title: "HTML Only", PublishedAt: "2026-08-01 00:00:00",
			URL: "https://medium.com/p/2c2c2c2c",
		})
	})
	mux.HandleFunc("/article/2c2c2c2c/markdown", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/article/2c2c2c2c/html", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ContentResponse{ID: "2c2c2c2c", HTML: "<p>hello</p>"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidates, err := client.Search(context.Background(), []string{"golang"}, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "html", candidates[0].BodyFormat)
	assert.Equal(t, "<p>hello</p>", candidates[0].Body)
}

func TestSearch_EmptyInputs(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")

	candidates, err := client.Search(context.Background(), nil, 5)
	assert.NoError(t, err)
	assert.Nil(t, candidates)

	candidates, err = client.Search(context.Background(), []string{"golang"}, 0)
	assert.NoError(t, err)
	assert.Nil(t, candidates)
}

func TestLookup_ResolvesByURL(t *testing.T) {
	mux := http.NewServeMux()
	articleRoutes(mux, "3f2a9c81d4e5", ArticleInfo{
		ID: "3f2a9c81d4e5", Title: "Looked Up", PublishedAt: "2026-08-01 00:00:00",
		URL: "https://medium.com/p/looked-up-3f2a9c81d4e5",
	}, "body")

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidate, err := client.Lookup(context.Background(), "https://medium.com/@jane/looked-up-3f2a9c81d4e5")
	require.NoError(t, err)
	assert.Equal(t, "Looked Up", candidate.Title)
	assert.Equal(t, "3f2a9c81d4e5", candidate.ExternalID)
}

func TestLookup_BadURL(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")

	_, err := client.Lookup(context.Background(), "https://medium.com/@jane/no-slug-here")
	assert.ErrorIs(t, err, domain.ErrInvalidCandidate)
}

func TestExtractArticleID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://medium.com/@jane/title-3f2a9c81d4e5", "3f2a9c81d4e5"},
		{"https://medium.com/p/3f2a9c81d4e5", "3f2a9c81d4e5"},
		{"https://medium.com/p/3f2a9c81d4e5/", "3f2a9c81d4e5"},
		{"https://medium.com/@jane/plain-words", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractArticleID(tt.url), tt.url)
	}
}
