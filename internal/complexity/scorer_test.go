package complexity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	s := Default()

	tests := []struct {
		name        string
		title       string
		description string
		want        Analysis
	}{
		{
			name:  "short errand",
			title: "Buy milk",
			want:  Analysis{Score: -3, IsLikelySimple: true, WordCount: 2},
		},
		{
			name:  "multi-part project",
			title: "Launch a marketing campaign and build an online course",
			want: Analysis{
				Score:                 6,
				IsLikelyComplex:       true,
				HasMultipleObjectives: true,
				WordCount:             9,
			},
		},
		{
			name:  "vague improvement",
			title: "Improve my fitness",
			want:  Analysis{Score: 0, IsVague: true, WordCount: 3},
		},
		{
			name:  "measurable with deadline",
			title: "Run 5k by June",
			want:  Analysis{Score: -2, IsLikelySimple: true, IsSpecific: true, WordCount: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Analyze(tt.title, tt.description))
		})
	}
}

func TestAnalyzeReadsDescription(t *testing.T) {
	s := Default()

	bare := s.Analyze("Spanish", "")
	withDesc := s.Analyze("Spanish", "an evening course")

	assert.Less(t, bare.Score, withDesc.Score)
	assert.Equal(t, 1, withDesc.WordCount, "word count only looks at the title")
}

func TestCustomVocabulary(t *testing.T) {
	s := NewScorer(Vocabulary{ComplexKeywords: []string{"quantum"}})

	got := s.Analyze("quantum stuff here now", "")
	assert.Equal(t, 2, got.Score)
	assert.True(t, got.IsLikelyComplex)
	assert.False(t, got.HasMultipleObjectives)
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	content := `complex_keywords:
  - quantum
  - orbit
vague:
  - nicer
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"quantum", "orbit"}, v.ComplexKeywords)
	assert.Equal(t, []string{"nicer"}, v.VagueAdjectives)
	assert.Equal(t, DefaultVocabulary().SimpleKeywords, v.SimpleKeywords)
	assert.Equal(t, DefaultVocabulary().ProjectIndicators, v.ProjectIndicators)
}

func TestLoadVocabularyErrors(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("complex_keywords: [unclosed"), 0644))
	_, err = LoadVocabulary(bad)
	assert.Error(t, err)
}

func TestSignificantWords(t *testing.T) {
	assert.Equal(t, []string{"learn", "spanish", "learn"}, SignificantWords("Learn Spanish and learn to cook"))
	assert.Empty(t, SignificantWords("go to gym"))
}
