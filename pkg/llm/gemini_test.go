package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyhub-api/pkg/config"
)

func TestNewGeminiFailsWithoutKey(t *testing.T) {
	_, err := NewGemini(context.Background(), config.AIConfig{Model: "gemini-2.0-flash"})
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewGemini(context.Background(), config.AIConfig{APIKey: "   ", Model: "gemini-2.0-flash"})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewGeminiRequiresModel(t *testing.T) {
	_, err := NewGemini(context.Background(), config.AIConfig{APIKey: "key"})
	assert.Error(t, err)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"1":{}}`, StripFence("```json\n{\"1\":{}}\n```"))
	assert.Equal(t, `{"1":{}}`, StripFence("  {\"1\":{}}  "))
	assert.Equal(t, `[]`, StripFence("```\n[]\n```"))
}
