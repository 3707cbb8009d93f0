// Package llm wraps the Gemini API client used for syllabus extraction.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/noah-isme/studyhub-api/pkg/config"
)

// ErrMissingAPIKey is returned by NewGemini when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini api key is not configured")

// Gemini sends documents with an instruction to a Gemini model and returns JSON text.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini builds a client from cfg. It fails when the API key or model is empty.
func NewGemini(ctx context.Context, cfg config.AIConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Gemini{client: client, model: cfg.Model, timeout: timeout}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.model
}

// GenerateJSON sends the instruction and the attached document and returns the model's
// JSON reply with any markdown fence removed.
func (g *Gemini) GenerateJSON(ctx context.Context, instruction string, document []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(instruction)}
	if len(document) > 0 {
		parts = append(parts, genai.NewPartFromBytes(document, mimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := StripFence(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

// StripFence removes a surrounding ```json fence some models add despite the JSON MIME type.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
