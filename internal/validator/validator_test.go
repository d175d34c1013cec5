package validator

import (
	"strings"
	"testing"

	"github.com/sbenjam1n/goaltrack/internal/goal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalValidation(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		goal   goal.Goal
		fields []string
	}{
		{"valid", goal.Goal{Title: "Read 12 books", Year: 2025}, nil},
		{"blank title", goal.Goal{Title: "   ", Year: 2025}, []string{"title"}},
		{"long title", goal.Goal{Title: strings.Repeat("a", 256), Year: 2025}, []string{"title"}},
		{"multibyte title at limit", goal.Goal{Title: strings.Repeat("é", 255), Year: 2025}, nil},
		{"year too low", goal.Goal{Title: "x", Year: 1899}, []string{"year"}},
		{"year too high", goal.Goal{Title: "x", Year: 10000}, []string{"year"}},
		{"long description", goal.Goal{Title: "x", Year: 2025, Description: strings.Repeat("d", 5001)}, []string{"description"}},
		{
			"bad subtask",
			goal.Goal{Title: "x", Year: 2025, Subtasks: []goal.Subtask{{Title: "ok"}, {Title: ""}}},
			[]string{"subtasks[1].title"},
		},
		{"several", goal.Goal{}, []string{"title", "year"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Goal(tt.goal)
			if tt.fields == nil {
				assert.True(t, res.Passed, res.Message)
				assert.NoError(t, res.Err())
				return
			}
			require.False(t, res.Passed)
			var got []string
			for _, d := range res.Details {
				got = append(got, d.Field)
				assert.NotEmpty(t, d.Fix, "every failed check carries a fix")
			}
			assert.Equal(t, tt.fields, got)
			assert.True(t, IsValidation(res.Err()))
		})
	}
}

func TestDetailText(t *testing.T) {
	res := New().Goal(goal.Goal{Title: strings.Repeat("a", 300), Year: 1800})
	require.Len(t, res.Details, 2)

	assert.Equal(t, Detail{
		Field:    "title",
		Expected: "at most 255 characters",
		Got:      "300 characters",
		Fix:      "Shorten title to 255 characters or fewer.",
	}, res.Details[0])
	assert.Equal(t, Detail{
		Field:    "year",
		Expected: "year at least 1900",
		Got:      "1800",
		Fix:      "Use a year of 1900 or later.",
	}, res.Details[1])
	assert.Equal(t, "invalid goal: title, year", res.Message)
	assert.EqualError(t, res.Err(), "invalid goal: title, year")

	res = New().Goal(goal.Goal{Title: "Far future", Description: strings.Repeat("d", 5001), Year: 10000})
	require.Len(t, res.Details, 2)
	assert.Equal(t, "at most 5000 characters", res.Details[0].Expected)
	assert.Equal(t, Detail{
		Field:    "year",
		Expected: "year at most 9999",
		Got:      "10000",
		Fix:      "Use a year of 9999 or earlier.",
	}, res.Details[1])
}

func TestSubtaskValidation(t *testing.T) {
	v := New()
	assert.True(t, v.Subtask(goal.Subtask{Title: "Buy shoes"}).Passed)

	res := v.Subtask(goal.Subtask{Title: " "})
	require.False(t, res.Passed)
	assert.Equal(t, "title", res.Details[0].Field)
	assert.Equal(t, "Provide a title.", res.Details[0].Fix)
}
