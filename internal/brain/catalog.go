package brain

import (
	"baldsphere-backend/internal/database"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

//go:embed catalog.yaml
var defaultCatalogData []byte

var annotationRe = regexp.MustCompile(`\([^)]*\)`)

// Clean lowercases a keyword and drops any parenthetical annotation, so
// "Play (an instrument)" becomes "play".
func Clean(keyword string) string {
	return strings.TrimSpace(annotationRe.ReplaceAllString(strings.ToLower(keyword), ""))
}

type Entry struct {
	Keyword string   `yaml:"keyword" json:"keyword"`
	Regions []string `yaml:"regions" json:"region"`

	lower string
	clean string
}

func (e Entry) CleanKeyword() string {
	return e.clean
}

type catalogFile struct {
	Entries  []Entry           `yaml:"entries"`
	Synonyms map[string]string `yaml:"synonyms"`
}

type Catalog struct {
	entries  []Entry
	synonyms map[string]string
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing catalog: %w", err)
	}

	if len(file.Entries) == 0 {
		return nil, fmt.Errorf("catalog has no entries")
	}

	exact := make(map[string]bool, len(file.Entries)*2)
	entries := make([]Entry, 0, len(file.Entries))
	for i, e := range file.Entries {
		e.lower = strings.ToLower(strings.TrimSpace(e.Keyword))
		e.clean = Clean(e.Keyword)
		if e.clean == "" {
			return nil, fmt.Errorf("catalog entry %d has an empty keyword", i)
		}
		if len(e.Regions) == 0 {
			return nil, fmt.Errorf("catalog entry '%s' has no regions", e.Keyword)
		}
		for _, r := range e.Regions {
			if !database.IsRegion(r) {
				return nil, fmt.Errorf("catalog entry '%s' has invalid region '%s'", e.Keyword, r)
			}
		}
		exact[e.lower] = true
		exact[e.clean] = true
		entries = append(entries, e)
	}

	synonyms := make(map[string]string, len(file.Synonyms))
	for alt, canonical := range file.Synonyms {
		alt, canonical = strings.ToLower(strings.TrimSpace(alt)), strings.ToLower(strings.TrimSpace(canonical))
		if exact[alt] {
			return nil, fmt.Errorf("synonym '%s' shadows a catalog keyword", alt)
		}
		if !exact[canonical] {
			return nil, fmt.Errorf("synonym '%s' refers to unknown keyword '%s'", alt, canonical)
		}
		synonyms[alt] = canonical
	}

	return &Catalog{entries: entries, synonyms: synonyms}, nil
}

var DefaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return LoadCatalog(defaultCatalogData)
})

func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Keywords lists the cleaned keywords in catalog order.
func (c *Catalog) Keywords() []string {
	words := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		words = append(words, e.clean)
	}
	return words
}

func (c *Catalog) Synonyms() map[string]string {
	out := make(map[string]string, len(c.synonyms))
	for k, v := range c.synonyms {
		out[k] = v
	}
	return out
}

func (c *Catalog) Lookup(keyword string) (Entry, bool) {
	return c.findExact(strings.ToLower(strings.TrimSpace(keyword)))
}

func (c *Catalog) findExact(input string) (Entry, bool) {
	for _, e := range c.entries {
		if input == e.clean || input == e.lower {
			return e, true
		}
	}
	return Entry{}, false
}
