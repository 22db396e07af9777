package wordpress

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
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
		URL:         baseURL,
		Username:    "editor",
		AppPassword: "app-pass-1234",
		AuthorName:  "Tech Blog",
		Timeout:     5 * time.Second,
	}, logger)
}

func testCandidate() *domain.ArticleCandidate {
	return &domain.ArticleCandidate{
		SourceURL:  "https://medium.com/p/abc123",
		Title:      "Go Patterns",
		Subtitle:   "A short tour",
		Author:     "Jane Dev",
		Body:       "# Go Patterns\n\nBody text.",
		BodyFormat: "markdown",
		Tags:       []string{"golang", "patterns"},
		ImageURL:   "https://cdn.example.com/img.png",
	}
}

// termHandler answers search-then-create for a taxonomy.
func termHandler(existing map[string]int64, nextID *int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			name := r.URL.Query().Get("search")
			if id, ok := existing[name]; ok {
				json.NewEncoder(w).Encode([]term{{ID: id, Name: name}})
				return
			}
			json.NewEncoder(w).Encode([]term{})
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		*nextID++
		existing[req["name"]] = *nextID
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(term{ID: *nextID, Name: req["name"]})
	}
}

func TestPublish_CreatesPost(t *testing.T) {
	var captured postRequest
	nextID := int64(100)

	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/categories", termHandler(map[string]int64{"Technology": 7}, &nextID))
	mux.HandleFunc("/wp-json/wp/v2/tags", termHandler(map[string]int64{}, &nextID))
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("editor:app-pass-1234"))
		assert.Equal(t, expectedAuth, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(postResponse{ID: 42, Link: "https://blog.example.com/?p=42", Status: "draft"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	post, err := client.Publish(context.Background(), testCandidate(), "draft", "Technology")
	require.NoError(t, err)
	assert.Equal(t, int64(42), post.ID)
	assert.Equal(t, "https://blog.example.com/?p=42", post.Link)
	assert.Equal(t, "draft", post.Status)

	assert.Equal(t, "Go Patterns", captured.Title)
	assert.Equal(t, "draft", captured.Status)
	assert.Equal(t, []int64{7}, captured.Categories)
	assert.Len(t, captured.Tags, 2)
	assert.Equal(t, "https://medium.com/p/abc123", captured.Meta.SourceURL)
	assert.Equal(t, "Jane Dev", captured.Meta.SourceAuthor)

	assert.Contains(t, captured.Content, `<img src="https://cdn.example.com/img.png"`)
	assert.Contains(t, captured.Content, "Body text.")
	assert.Contains(t, captured.Content, "Adapted by Tech Blog from an article by Jane Dev")
	assert.Contains(t, captured.Content, `href="https://medium.com/p/abc123"`)
	assert.Equal(t, "A short tour", captured.Excerpt)
}

func TestPublish_TagsCapped(t *testing.T) {
	var captured postRequest
	nextID := int64(0)

	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/categories", termHandler(map[string]int64{"Technology": 7}, &nextID))
	mux.HandleFunc("/wp-json/wp/v2/tags", termHandler(map[string]int64{}, &nextID))
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(postResponse{ID: 1})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidate := testCandidate()
	candidate.Tags = []string{"a", "b", "c", "d", "e", "f", "g"}

	_, err := client.Publish(context.Background(), candidate, "draft", "Technology")
	require.NoError(t, err)
	assert.Len(t, captured.Tags, maxTagsPerPost)
}

func TestPublish_ExcerptFallsBackToBody(t *testing.T) {
	var captured postRequest
	nextID := int64(0)

	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/categories", termHandler(map[string]int64{"Technology": 7}, &nextID))
	mux.HandleFunc("/wp-json/wp/v2/tags", termHandler(map[string]int64{}, &nextID))
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(postResponse{ID: 1})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidate := testCandidate()
	candidate.Subtitle = ""
	candidate.Tags = nil
	candidate.Body = strings.Repeat("x", 200)

	_, err := client.Publish(context.Background(), candidate, "draft", "Technology")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 150)+"...", captured.Excerpt)
}

func TestPublish_RejectedOn4xx(t *testing.T) {
	nextID := int64(0)

	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/categories", termHandler(map[string]int64{"Technology": 7}, &nextID))
	mux.HandleFunc("/wp-json/wp/v2/tags", termHandler(map[string]int64{}, &nextID))
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"rest_invalid_param"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	candidate := testCandidate()
	candidate.Tags = nil

	_, err := client.Publish(context.Background(), candidate, "draft", "Technology")
	assert.ErrorIs(t, err, domain.ErrPublishRejected)
}

func TestPublish_UnavailableOn5xx(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Publish(context.Background(), testCandidate(), "draft", "Technology")
	assert.ErrorIs(t, err, domain.ErrPublishUnavailable)
}

func TestPublish_UnavailableOnNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // refuse connections

	client := newTestClient(t, server.URL)

	_, err := client.Publish(context.Background(), testCandidate(), "draft", "Technology")
	assert.ErrorIs(t, err, domain.ErrPublishUnavailable)
}

func TestPing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		json.NewEncoder(w).Encode([]postResponse{})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	assert.NoError(t, client.Ping(context.Background()))
}

func TestPing_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	assert.ErrorIs(t, client.Ping(context.Background()), domain.ErrPublishRejected)
}
