// Package complexity scores how hard a goal is likely to be from its title and
// description. The analyzer, the predictor and the best-practices report all
// share this one scorer.
package complexity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the keyword lists the scorer matches against. Matching is by
// lowercase substring.
type Vocabulary struct {
	ComplexKeywords   []string `yaml:"complex_keywords"`
	SimpleKeywords    []string `yaml:"simple_keywords"`
	SpecificVerbs     []string `yaml:"specific_verbs"`
	MultiObjective    []string `yaml:"multi_objective"`
	VagueAdjectives   []string `yaml:"vague"`
	DeadlineWords     []string `yaml:"deadline_words"`
	ProjectIndicators []string `yaml:"project_indicators"`
}

// DefaultVocabulary returns the built-in keyword lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ComplexKeywords: []string{
			"build", "create", "develop", "launch", "establish", "implement",
			"complete", "finish", "achieve", "master", "learn", "study",
			"organize", "plan", "design", "write", "prepare", "multiple",
		},
		SimpleKeywords: []string{
			"buy", "purchase", "call", "email", "book", "schedule",
			"register", "sign up", "attend", "visit", "watch", "read",
			"pay", "cancel", "renew", "update", "fix", "replace",
		},
		SpecificVerbs: []string{
			"run", "complete", "finish", "attend", "visit", "travel",
			"celebrate", "experience", "try", "taste", "see", "meet",
		},
		MultiObjective:    []string{"and", " & ", " + ", ",", "then", "followed by", "after"},
		VagueAdjectives:   []string{"improve", "better", "more", "less", "increase", "decrease", "enhance"},
		DeadlineWords:     []string{"by", "until", "before", "within"},
		ProjectIndicators: []string{"project", "program", "initiative", "campaign", "series", "course"},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Lists missing from the file
// fall back to the defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary %s: %w", path, err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}

	def := DefaultVocabulary()
	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fill(&v.ComplexKeywords, def.ComplexKeywords)
	fill(&v.SimpleKeywords, def.SimpleKeywords)
	fill(&v.SpecificVerbs, def.SpecificVerbs)
	fill(&v.MultiObjective, def.MultiObjective)
	fill(&v.VagueAdjectives, def.VagueAdjectives)
	fill(&v.DeadlineWords, def.DeadlineWords)
	fill(&v.ProjectIndicators, def.ProjectIndicators)
	return v, nil
}
