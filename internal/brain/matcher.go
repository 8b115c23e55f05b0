package brain

import (
	"fmt"
	"strings"
)

type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
	ConfidenceNone     Confidence = "none"
	ConfidenceFallback Confidence = "fallback"
)

type MatchResult struct {
	Found        *Entry     `json:"found"`
	Normalized   string     `json:"normalized"`
	Confidence   Confidence `json:"confidence"`
	BrainRegions []string   `json:"brainRegions"`
}

func (r MatchResult) Matched() bool {
	return r.Found != nil
}

func hit(e Entry, confidence Confidence) MatchResult {
	return MatchResult{
		Found:        &e,
		Normalized:   e.clean,
		Confidence:   confidence,
		BrainRegions: append([]string(nil), e.Regions...),
	}
}

func miss() MatchResult {
	return MatchResult{Confidence: ConfidenceNone, BrainRegions: []string{}}
}

// Match resolves free text against the catalog. Tiers are tried in order and
// the first catalog entry matching within a tier wins:
//
//	exact keyword, synonym, input contains keyword, keyword contains input.
func (c *Catalog) Match(input string) MatchResult {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return miss()
	}

	if e, ok := c.findExact(input); ok {
		return hit(e, ConfidenceHigh)
	}

	if canonical, ok := c.synonyms[input]; ok {
		if e, ok := c.findExact(canonical); ok {
			return hit(e, ConfidenceMedium)
		}
	}

	for _, e := range c.entries {
		if len(e.clean) > 2 && strings.Contains(input, e.clean) {
			return hit(e, ConfidenceLow)
		}
	}

	if len(input) > 2 {
		for _, e := range c.entries {
			if strings.Contains(e.clean, input) {
				return hit(e, ConfidenceLow)
			}
		}
	}

	return miss()
}

// AssistantReply renders the chat response shown for a lookup.
func AssistantReply(input string, result MatchResult) string {
	if !result.Matched() {
		return fmt.Sprintf(`Sorry, I don't have data for "%s". Try typing "help" to see examples, or try words like 'think', 'run', 'sing', 'dance', 'read', 'write', or 'listen'.`, strings.TrimSpace(input))
	}

	regions := result.Found.Regions
	suffix := ""
	if len(regions) > 1 {
		suffix = "s"
	}
	return fmt.Sprintf(`The %s lobe%s are responsible for "%s".`, strings.Join(regions, " & "), suffix, result.Found.clean)
}

const HelpText = `Here are some actions you can try:

Thinking: think, solve, remember, focus, decide
Movement: run, walk, jump, dance, swim, climb
Sound: sing, talk, whisper, shout, listen
Vision: see, watch, read, look, stare
Daily: eat, cook, sleep, shower, brush
Creative: paint, write, draw, play, create
Sports: exercise, lift, throw, kick, catch

Type any action to see which brain regions are involved!`

func IsHelpRequest(input string) bool {
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "help" || input == "examples"
}
