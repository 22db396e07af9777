package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medium_syncer/internal/domain"
)

const systemPrompt = "You are a professional translator of technical articles. " +
	"Translate the user's text to the requested language. Preserve markdown " +
	"structure, code blocks, inline code, URLs, and the names of languages, " +
	"frameworks and tools exactly as written. Reply with the translated text only."

// Translator rewrites article text into a target language through an
// OpenAI-compatible chat-completions endpoint. It keeps no state between
// calls, so a retry with the same inputs is safe.
type Translator struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Config holds translator settings.
type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// NewTranslator builds a client from configuration.
func NewTranslator(cfg Config) *Translator {
	return &Translator{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Transform translates text into targetLanguage. Short inputs pass
// through untouched, matching how titles of one or two characters and
// empty bodies are handled upstream.
func (t *Translator) Transform(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if t.apiKey == "" || t.endpoint == "" || t.model == "" {
		return "", fmt.Errorf("translator misconfigured: %w", domain.ErrTransformFailed)
	}

	body, err := json.Marshal(chatRequest{
		Model: t.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Translate to %s:\n\n%s", languageName(targetLanguage), text)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTransformFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: %s: %s", domain.ErrTransformFailed, resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", domain.ErrTransformFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrTransformFailed)
	}

	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translated == "" {
		return "", fmt.Errorf("%w: blank completion", domain.ErrTransformFailed)
	}
	return translated, nil
}

func languageName(code string) string {
	switch code {
	case "pt":
		return "Brazilian Portuguese"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	case "en":
		return "English"
	default:
		return code
	}
}
