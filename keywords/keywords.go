// Package keywords derives bounded keyword sets from video text fields.
// Extraction is deterministic per video, so results are memoized in a
// ristretto cache keyed by video ID.
package keywords

import (
	"regexp"
	"strings"

	"github.com/dgraph-io/ristretto/v2"

	"tubefeed/models"
)

// MaxKeywords bounds the extracted set per video.
const MaxKeywords = 30

const minTokenLen = 3

var wordPattern = regexp.MustCompile(`\b\w{3,}\b`)

// Common English function words excluded from keyword sets.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "up": {}, "about": {}, "into": {}, "through": {}, "during": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "this": {}, "that": {}, "these": {}, "those": {}, "i": {},
	"you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
}

// Extract produces the deduplicated, lowercase keyword sequence for a video:
// word tokens of the title and description joined with the video's own tags,
// stop words removed, first-seen order preserved, truncated to MaxKeywords.
// Missing fields are treated as empty; Extract never fails.
func Extract(v *models.Video) []string {
	if v == nil {
		return nil
	}

	text := strings.ToLower(v.Title + " " + v.Description)
	words := wordPattern.FindAllString(text, -1)

	keywords := make([]string, 0, MaxKeywords)
	seen := make(map[string]struct{}, len(words)+len(v.Tags))

	appendKeyword := func(word string) {
		if len(keywords) >= MaxKeywords {
			return
		}
		if len(word) < minTokenLen {
			return
		}
		if _, stop := stopWords[word]; stop {
			return
		}
		if _, dup := seen[word]; dup {
			return
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	for _, word := range words {
		appendKeyword(word)
	}
	for _, tag := range v.Tags {
		appendKeyword(strings.ToLower(strings.TrimSpace(tag)))
	}

	return keywords
}

// Extractor memoizes Extract results per video ID.
type Extractor struct {
	cache *ristretto.Cache[string, []string]
}

// NewExtractor builds an extractor with a bounded memo cache. If the cache
// cannot be constructed the extractor degrades to uncached extraction.
func NewExtractor() *Extractor {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []string]{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return &Extractor{}
	}
	return &Extractor{cache: cache}
}

// Extract returns the keyword set for v, serving repeat lookups for the same
// video ID from cache. Videos without an ID are never cached.
func (e *Extractor) Extract(v *models.Video) []string {
	if v == nil {
		return nil
	}
	if e.cache == nil || v.ID == "" {
		return Extract(v)
	}

	if cached, ok := e.cache.Get(v.ID); ok {
		return cached
	}

	keywords := Extract(v)
	cost := int64(len(keywords))
	if cost == 0 {
		cost = 1
	}
	e.cache.Set(v.ID, keywords, cost)
	return keywords
}

// Close releases the memo cache.
func (e *Extractor) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}
