package moderation

import (
	"context"
	"strings"
)

// Result is the classifier verdict for one piece of text. Score is 0..100.
type Result struct {
	Toxic        bool     `json:"toxic"`
	Score        int      `json:"score"`
	MatchedTerms []string `json:"matchedTerms"`
	Category     string   `json:"category"`
}

// Classifier scores text for toxicity. Implementations must be deterministic
// for a given input and classifier state.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

const (
	CategoryClean  = "clean"
	CategorySpam   = "spam"
	CategoryInsult = "insult"
	CategoryHate   = "hate"
)

// TermIncrement is the score added for every banned term present.
const TermIncrement = 30

const maxScore = 100

// DefaultBannedTerms is the keyword list used when none is configured.
var DefaultBannedTerms = []string{"insult", "hate", "spam", "toxic"}

// KeywordClassifier scores text by case-insensitive substring matches against
// a fixed banned-term list.
type KeywordClassifier struct {
	terms []string
}

func NewKeywordClassifier(terms ...string) *KeywordClassifier {
	if len(terms) == 0 {
		terms = DefaultBannedTerms
	}
	normalized := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		normalized = append(normalized, term)
	}
	return &KeywordClassifier{terms: normalized}
}

func (c *KeywordClassifier) Terms() []string {
	return append([]string(nil), c.terms...)
}

func (c *KeywordClassifier) Classify(_ context.Context, text string) (Result, error) {
	lower := strings.ToLower(text)
	matched := make([]string, 0)
	score := 0
	for _, term := range c.terms {
		if strings.Contains(lower, term) {
			score += TermIncrement
			matched = append(matched, term)
		}
	}
	if score > maxScore {
		score = maxScore
	}
	return Result{
		Toxic:        len(matched) > 0,
		Score:        score,
		MatchedTerms: matched,
		Category:     categoryFor(score),
	}, nil
}

func categoryFor(score int) string {
	switch {
	case score > 80:
		return CategoryHate
	case score > 50:
		return CategoryInsult
	case score > 20:
		return CategorySpam
	default:
		return CategoryClean
	}
}
