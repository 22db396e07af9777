package transform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medium_syncer/internal/domain"
)

func chatCompletion(content string) chatResponse {
	var resp chatResponse
	resp.Choices = []struct {
		Message chatMessage `json:"message"`
	}{
		{Message: chatMessage{Role: "assistant", Content: content}},
	}
	return resp
}

func TestTransform_Translates(t *testing.T) {
	var captured chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(chatCompletion("Olá mundo"))
	}))
	defer server.Close()

	tr := NewTranslator(Config{
		Endpoint: server.URL,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
		Timeout:  5 * time.Second,
	})

	out, err := tr.Transform(context.Background(), "Hello world", "pt")
	require.NoError(t, err)
	assert.Equal(t, "Olá mundo", out)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Contains(t, captured.Messages[1].Content, "Brazilian Portuguese")
	assert.Contains(t, captured.Messages[1].Content, "Hello world")
}

func TestTransform_EmptyTextPassesThrough(t *testing.T) {
	tr := NewTranslator(Config{Endpoint: "http://unused.invalid", Model: "m", APIKey: "k"})

	out, err := tr.Transform(context.Background(), "   ", "pt")
	assert.NoError(t, err)
	assert.Equal(t, "   ", out)
}

func TestTransform_Misconfigured(t *testing.T) {
	tr := NewTranslator(Config{})

	_, err := tr.Transform(context.Background(), "Hello", "pt")
	assert.ErrorIs(t, err, domain.ErrTransformFailed)
}

func TestTransform_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	}))
	defer server.Close()

	tr := NewTranslator(Config{Endpoint: server.URL, Model: "m", APIKey: "k", Timeout: time.Second})

	_, err := tr.Transform(context.Background(), "Hello", "pt")
	assert.ErrorIs(t, err, domain.ErrTransformFailed)
}

func TestTransform_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	tr := NewTranslator(Config{Endpoint: server.URL, Model: "m", APIKey: "k", Timeout: time.Second})

	_, err := tr.Transform(context.Background(), "Hello", "pt")
	assert.ErrorIs(t, err, domain.ErrTransformFailed)
}

func TestNoop(t *testing.T) {
	out, err := Noop{}.Transform(context.Background(), "unchanged", "pt")
	assert.NoError(t, err)
	assert.Equal(t, "unchanged", out)
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Brazilian Portuguese", languageName("pt"))
	assert.Equal(t, "Spanish", languageName("es"))
	assert.Equal(t, "de", languageName("de"))
}
