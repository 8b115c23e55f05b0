package brain_test

import (
	"baldsphere-backend/internal/brain"
	"baldsphere-backend/internal/config"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeLLM struct {
	safety   string
	answer   string
	err      error
	prompts  []string
	failOnly string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	prompt := messages[0].Parts[0].(llms.TextContent).Text
	f.prompts = append(f.prompts, prompt)

	isSafety := strings.Contains(prompt, "content safety filter")
	if f.err != nil && (f.failOnly == "" || (f.failOnly == "safety") == isSafety) {
		return nil, f.err
	}

	content := f.answer
	if isSafety {
		content = f.safety
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}, nil
}

func TestSemanticMatcherWithoutLLM(t *testing.T) {
	catalog := defaultCatalog(t)
	matcher := brain.NewSemanticMatcher(catalog, nil)

	res, err := matcher.Match(context.Background(), "jog")
	require.NoError(t, err)
	assert.Equal(t, catalog.Match("jog"), res)
	assert.False(t, matcher.Enabled())
}

func TestSemanticMatcherResolvesKeyword(t *testing.T) {
	llm := &fakeLLM{safety: "OK", answer: "The closest word is: Sprint... I mean Run"}
	matcher := brain.NewSemanticMatcher(defaultCatalog(t), llm)

	res, err := matcher.Match(context.Background(), "dash to the finish line")
	require.NoError(t, err)
	assert.Equal(t, "run", res.Normalized)
	assert.Equal(t, brain.ConfidenceHigh, res.Confidence)
	assert.Equal(t, []string{"Frontal", "Parietal"}, res.BrainRegions)
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "dash to the finish line")
}

func TestSemanticMatcherCensored(t *testing.T) {
	llm := &fakeLLM{safety: "CENSORED", answer: "run"}
	matcher := brain.NewSemanticMatcher(defaultCatalog(t), llm)

	_, err := matcher.Match(context.Background(), "something rude")
	assert.ErrorIs(t, err, brain.ErrInappropriate)
}

func TestSemanticMatcherNoMatchFallsBackToTiers(t *testing.T) {
	llm := &fakeLLM{safety: "OK", answer: "NO_MATCH"}
	matcher := brain.NewSemanticMatcher(defaultCatalog(t), llm)

	res, err := matcher.Match(context.Background(), "jog")
	require.NoError(t, err)
	assert.Equal(t, "run", res.Normalized)
	assert.Equal(t, brain.ConfidenceMedium, res.Confidence)

	res, err = matcher.Match(context.Background(), "qqqq")
	require.NoError(t, err)
	assert.False(t, res.Matched())
	assert.Equal(t, brain.ConfidenceNone, res.Confidence)
}

func TestSemanticMatcherLLMFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	matcher := brain.NewSemanticMatcher(defaultCatalog(t), llm)

	res, err := matcher.Match(context.Background(), "think")
	require.NoError(t, err)
	assert.Equal(t, "think", res.Normalized)
	assert.Equal(t, brain.ConfidenceFallback, res.Confidence)

	res, err = matcher.Match(context.Background(), "qqqq")
	require.NoError(t, err)
	assert.Equal(t, brain.ConfidenceNone, res.Confidence)
}

func TestSemanticMatcherSafetyFailureIsSkipped(t *testing.T) {
	llm := &fakeLLM{err: errors.New("timeout"), failOnly: "safety", answer: "sing"}
	matcher := brain.NewSemanticMatcher(defaultCatalog(t), llm)

	res, err := matcher.Match(context.Background(), "belt out a tune")
	require.NoError(t, err)
	assert.Equal(t, "sing", res.Normalized)
	assert.Equal(t, brain.ConfidenceHigh, res.Confidence)
}

func TestOllamaMatcherHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running")) //nolint:errcheck
	}))
	defer server.Close()

	matcher, err := brain.NewOllamaMatcher(defaultCatalog(t), config.OllamaConfig{URL: server.URL, Model: "llama3.2", Timeout: time.Second})
	require.NoError(t, err)

	health := matcher.Health(context.Background())
	assert.True(t, health.Enabled)
	assert.True(t, health.Available)
	assert.Positive(t, health.WordCount)

	disabled, err := brain.NewOllamaMatcher(defaultCatalog(t), config.OllamaConfig{})
	require.NoError(t, err)
	assert.False(t, disabled.Health(context.Background()).Enabled)
}
