package test

import (
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
)

// NewGeminiClient connects to Vertex AI with TEST_GEMINI_PROJECT_ID and
// TEST_GEMINI_LOCATION, or skips t.
func NewGeminiClient(t testing.TB, opts ...gemini.Option) gollem.LLMClient {
	t.Helper()
	vars := NewEnvVars(t, "TEST_GEMINI_PROJECT_ID", "TEST_GEMINI_LOCATION")

	client, err := gemini.New(t.Context(), vars.Get("TEST_GEMINI_PROJECT_ID"), vars.Get("TEST_GEMINI_LOCATION"), opts...)
	if err != nil {
		t.Fatalf("failed to create gemini client: %v", err)
	}
	return client
}
