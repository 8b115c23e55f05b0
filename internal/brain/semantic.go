package brain

import (
	"baldsphere-backend/internal/config"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

var ErrInappropriate = errors.New("content flagged as inappropriate")

// Generator is the slice of langchaingo's llms.Model used for normalization.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

type Matcher interface {
	Match(ctx context.Context, input string) (MatchResult, error)
}

type SemanticMatcher struct {
	catalog  *Catalog
	llm      Generator
	keywords []keywordPattern

	timeout   time.Duration
	healthURL string
	client    *resty.Client
}

// NewSemanticMatcher returns a matcher that asks llm to map phrases onto
// catalog keywords. With a nil llm it behaves exactly like the catalog.
func NewSemanticMatcher(catalog *Catalog, llm Generator) *SemanticMatcher {
	words := catalog.Keywords()
	keywords := make([]keywordPattern, 0, len(words))
	for _, word := range words {
		keywords = append(keywords, keywordPattern{word: word, re: regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)})
	}
	return &SemanticMatcher{catalog: catalog, llm: llm, keywords: keywords}
}

func NewOllamaMatcher(catalog *Catalog, cfg config.OllamaConfig) (*SemanticMatcher, error) {
	if !cfg.Enabled() {
		return NewSemanticMatcher(catalog, nil), nil
	}

	llm, err := ollama.New(ollama.WithServerURL(cfg.URL), ollama.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("error creating ollama client: %w", err)
	}

	m := NewSemanticMatcher(catalog, llm)
	m.timeout = cfg.Timeout
	m.healthURL = cfg.URL
	m.client = resty.New().SetTimeout(cfg.Timeout)
	return m, nil
}

func (m *SemanticMatcher) Catalog() *Catalog {
	return m.catalog
}

func (m *SemanticMatcher) Enabled() bool {
	return m.llm != nil
}

type Health struct {
	Enabled   bool   `json:"enabled"`
	Available bool   `json:"available"`
	WordCount int    `json:"words_loaded"`
	URL       string `json:"url,omitempty"`
}

func (m *SemanticMatcher) Health(ctx context.Context) Health {
	h := Health{Enabled: m.Enabled(), WordCount: len(m.catalog.entries), URL: m.healthURL}
	if !h.Enabled || m.client == nil {
		return h
	}

	res, err := m.client.R().SetContext(ctx).Get(m.healthURL)
	if err != nil {
		slog.Warn("ollama health check failed", "error", err)
		return h
	}
	h.Available = res.IsSuccess()
	return h
}

const safetyPrompt = `You are a content safety filter. Analyze this phrase: "%s"

If the phrase is offensive, profane, inappropriate, or contains harmful content in any context (cultural, sexual, racial, violent, etc.), respond with exactly: "CENSORED"

If the phrase is safe and appropriate, respond with exactly: "OK"

Response:`

const normalizationPrompt = `You are a semantic matching system. Your task is to find the closest word from the provided list that matches the meaning of the input phrase.

Input phrase: "%s"

Available words: %s

Instructions:
1. Analyze the meaning of the input phrase
2. Find the word from the list that is most semantically similar
3. Respond with ONLY that word, nothing else
4. If no good match exists, respond with "NO_MATCH"

Response:`

func (m *SemanticMatcher) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, llms.WithTemperature(0))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return strings.ToLower(strings.TrimSpace(resp.Choices[0].Content)), nil
}

func (m *SemanticMatcher) Match(ctx context.Context, input string) (MatchResult, error) {
	if m.llm == nil {
		return m.catalog.Match(input), nil
	}

	input = strings.TrimSpace(input)

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	verdict, err := m.generate(ctx, fmt.Sprintf(safetyPrompt, input))
	if err != nil {
		slog.Warn("safety check failed, continuing without it", "error", err)
	} else if strings.Contains(verdict, "censored") {
		return MatchResult{}, ErrInappropriate
	}

	reply, err := m.generate(ctx, fmt.Sprintf(normalizationPrompt, input, strings.Join(m.catalog.Keywords(), ", ")))
	if err != nil {
		slog.Warn("semantic normalization failed, using keyword matcher", "error", err)
		res := m.catalog.Match(input)
		if res.Matched() {
			res.Confidence = ConfidenceFallback
		}
		return res, nil
	}

	if keyword, ok := m.lastKeywordIn(reply); ok {
		if e, ok := m.catalog.findExact(keyword); ok {
			return hit(e, ConfidenceHigh), nil
		}
	}

	return m.catalog.Match(input), nil
}

type keywordPattern struct {
	word string
	re   *regexp.Regexp
}

// lastKeywordIn finds the last catalog keyword appearing as a whole word in
// the model reply; models tend to restate the question before answering.
func (m *SemanticMatcher) lastKeywordIn(reply string) (string, bool) {
	best, bestPos := "", -1
	for _, k := range m.keywords {
		locs := k.re.FindAllStringIndex(reply, -1)
		if len(locs) == 0 {
			continue
		}
		if pos := locs[len(locs)-1][0]; pos > bestPos {
			best, bestPos = k.word, pos
		}
	}
	return best, bestPos >= 0
}
