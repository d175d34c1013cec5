package complexity

import (
	"strings"
	"unicode"
)

// Analysis is the outcome of scoring one goal's text.
type Analysis struct {
	Score                 int  `json:"complexity_score"`
	IsLikelyComplex       bool `json:"is_likely_complex"`
	IsLikelySimple        bool `json:"is_likely_simple"`
	HasMultipleObjectives bool `json:"has_multiple_objectives"`
	IsVague               bool `json:"is_vague"`
	IsSpecific            bool `json:"is_specific"`
	WordCount             int  `json:"word_count"`
}

// Scorer applies a Vocabulary to goal text.
type Scorer struct {
	vocab Vocabulary
}

// NewScorer creates a Scorer over the given vocabulary.
func NewScorer(vocab Vocabulary) *Scorer {
	return &Scorer{vocab: vocab}
}

// Default returns a Scorer using the built-in vocabulary.
func Default() *Scorer {
	return NewScorer(DefaultVocabulary())
}

// Analyze scores a title and optional description.
//
//	+2 / -2  complex vs simple keywords, by majority
//	+1       multi-objective connectives
//	+1 / -1  titles over 8 words / of 3 words or fewer
//	+1       vague adjectives in the title
//	-1       specific verbs in the title
//	-1       digits or deadline words
//	+2       project-scale nouns
func (s *Scorer) Analyze(title, description string) Analysis {
	titleLower := strings.ToLower(title)
	combined := titleLower + " " + strings.ToLower(description)

	score := 0

	complexCount := countContained(combined, s.vocab.ComplexKeywords)
	simpleCount := countContained(combined, s.vocab.SimpleKeywords)
	switch {
	case complexCount > simpleCount:
		score += 2
	case simpleCount > complexCount:
		score -= 2
	}

	multi := containsAny(combined, s.vocab.MultiObjective)
	if multi {
		score++
	}

	words := len(strings.Fields(title))
	if words > 8 {
		score++
	} else if words <= 3 {
		score--
	}

	vague := containsAny(titleLower, s.vocab.VagueAdjectives)
	if vague {
		score++
	}
	if containsAny(titleLower, s.vocab.SpecificVerbs) {
		score--
	}

	specific := strings.ContainsFunc(combined, unicode.IsDigit) || containsAny(combined, s.vocab.DeadlineWords)
	if specific {
		score--
	}

	if containsAny(combined, s.vocab.ProjectIndicators) {
		score += 2
	}

	return Analysis{
		Score:                 score,
		IsLikelyComplex:       score >= 2,
		IsLikelySimple:        score <= -1,
		HasMultipleObjectives: multi,
		IsVague:               vague,
		IsSpecific:            specific,
		WordCount:             words,
	}
}

// SignificantWords returns the lowercase words of a title longer than four
// characters.
func SignificantWords(title string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if len([]rune(w)) > 4 {
			out = append(out, w)
		}
	}
	return out
}

func countContained(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
