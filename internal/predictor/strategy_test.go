package predictor

import (
	"fmt"
	"testing"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/goal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func complexDone(id string, completed time.Time, days int, withSubtasks bool) goal.Goal {
	g := finished(id, completed.Add(-time.Duration(days)*day), days)
	g.Title = "Build a garden shed this summer"
	if withSubtasks {
		g.Subtasks = []goal.Subtask{{ID: id + "-s", Completed: true}}
	}
	return g
}

func TestBestPracticesNeedsFiveFinishedGoals(t *testing.T) {
	var goals []goal.Goal
	for i := range 4 {
		goals = append(goals, complexDone(fmt.Sprint(i), asOf, 10, true))
	}
	goals = append(goals, goal.Goal{ID: "open", Title: "Open", CreatedAt: asOf})

	bp := AnalyzeBestPractices(goals, nil)

	assert.Equal(t, "Need more completed goals for pattern analysis", bp.Message)
	assert.Equal(t, "Complete at least 5 goals to unlock best practices analysis", bp.SubtaskEffectiveness.Recommendation)
	assert.Nil(t, bp.BestQuarter)
	assert.Empty(t, bp.QuarterlyAvgCompletion)
}

func TestBestPracticesSubtasksHelp(t *testing.T) {
	winter := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	summer := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	var goals []goal.Goal
	for i := range 3 {
		goals = append(goals, complexDone(fmt.Sprint("with", i), winter, 10, true))
		goals = append(goals, complexDone(fmt.Sprint("without", i), summer, 30, false))
	}

	bp := AnalyzeBestPractices(goals, nil)

	assert.Empty(t, bp.Message)
	assert.Equal(t, SubtaskEffectiveness{
		WithSubtasksAvgDays:    10,
		WithoutSubtasksAvgDays: 30,
		Recommendation:         "Subtasks significantly improve your completion speed for complex goals",
		SampleSizeWith:         3,
		SampleSizeWithout:      3,
	}, bp.SubtaskEffectiveness)
	require.NotNil(t, bp.BestQuarter)
	assert.Equal(t, 1, *bp.BestQuarter)
	assert.Equal(t, map[string]float64{"Q1": 10, "Q3": 30}, bp.QuarterlyAvgCompletion)
}

func TestSubtaskAdvice(t *testing.T) {
	tests := []struct {
		nWith, nWithout     int
		avgWith, avgWithout float64
		want                string
	}{
		{2, 2, 0, 0, "Not enough data yet - keep completing goals to unlock insights"},
		{1, 5, 0, 10, "You complete goals well without subtasks - keep it simple"},
		{5, 1, 10, 0, "Subtasks are working well for you - continue using them for complex goals"},
		{3, 3, 7, 10, "Subtasks significantly improve your completion speed for complex goals"},
		{3, 3, 14, 10, "You complete goals faster without subtasks - keep goals simple and direct"},
		{3, 3, 10, 10, "Subtasks show marginal benefit - use them only for truly complex goals"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, subtaskAdvice(tt.nWith, tt.nWithout, tt.avgWith, tt.avgWithout))
	}
}
