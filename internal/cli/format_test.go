package cli

import (
	"testing"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/analyzer"
	"github.com/sbenjam1n/goaltrack/internal/goal"
	"github.com/sbenjam1n/goaltrack/internal/predictor"
	"github.com/sbenjam1n/goaltrack/internal/service"
	"github.com/stretchr/testify/assert"
)

var created = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFormatGoalLine(t *testing.T) {
	g := goal.Goal{
		ID:        "g1",
		Title:     "Run a 10k",
		Year:      2025,
		CreatedAt: created,
		Subtasks:  []goal.Subtask{{Title: "Shoes", Completed: true}, {Title: "Train"}},
	}
	assert.Equal(t, "[ ] Run a 10k (2025)  g1  1/2 subtasks", formatGoalLine(g))

	g.Subtasks = nil
	g.Completed = true
	assert.Equal(t, "[x] Run a 10k (2025)  g1", formatGoalLine(g))
}

func TestFormatGoal(t *testing.T) {
	done := created.Add(48 * time.Hour)
	g := goal.Goal{
		ID:          "g1",
		Title:       "Run a 10k",
		Description: "Spring race",
		Year:        2025,
		Completed:   true,
		CreatedAt:   created,
		CompletedAt: &done,
		Subtasks:    []goal.Subtask{{ID: "s1", Title: "Shoes", Completed: true}},
	}
	want := "Goal: Run a 10k\n" +
		"ID: g1\n" +
		"Year: 2025\n" +
		"Description: Spring race\n" +
		"Status: completed\n" +
		"Created: 2025-03-01T09:00:00Z\n" +
		"Completed: 2025-03-03T09:00:00Z\n" +
		"\nSubtasks (1/1):\n" +
		"  [x] Shoes  s1\n"
	assert.Equal(t, want, formatGoal(g))
}

func TestFormatReport(t *testing.T) {
	empty := formatReport(analyzer.Report{Metrics: analyzer.Metrics{TotalGoals: 2, ActiveGoals: 2}})
	assert.Contains(t, empty, "Goals: 2 total, 2 active, 0 completed (0.0%)")
	assert.Contains(t, empty, "No recommendations right now.")

	out := formatReport(analyzer.Report{
		Recommendations: []goal.Recommendation{{
			Title:         "Cognitive Overload",
			Priority:      goal.PriorityHigh,
			Message:       "m",
			Insight:       "i",
			Action:        "a",
			Confidence:    0.85,
			DataPoint:     "12 active goals",
			AffectedGoals: []goal.AffectedGoal{{ID: "g", Title: "Learn piano"}},
		}},
		FailedPasses: []string{"temporal"},
	})
	assert.Contains(t, out, "1. [high] Cognitive Overload")
	assert.Contains(t, out, "(12 active goals, confidence 85%)")
	assert.Contains(t, out, "     - Learn piano")
	assert.Contains(t, out, "Skipped checks: temporal")
}

func TestFormatPredictionAndInsights(t *testing.T) {
	days := 12
	p := predictor.Prediction{
		GoalTitle:               "Learn piano",
		CompletionProbability:   0.25,
		EstimatedDaysToComplete: &days,
		ConfidenceLevel:         "medium",
		Recommendations:         []string{"Break it down"},
		RiskFactors:             []goal.RiskFactor{{Factor: "Stalled", Severity: "high", Description: "No progress"}},
	}
	out := formatPrediction(p)
	assert.Contains(t, out, "Completion probability: 25% (medium confidence)")
	assert.Contains(t, out, "Estimated days to complete: 12")
	assert.Contains(t, out, "  * Break it down")
	assert.Contains(t, out, "  ! Stalled (high): No progress")

	q := 2
	ins := formatInsights(service.Insights{
		Predictions: []predictor.Prediction{p},
		BestPractices: predictor.BestPractices{
			SubtaskEffectiveness: predictor.SubtaskEffectiveness{Recommendation: "Keep using subtasks"},
			BestQuarter:          &q,
		},
		Summary: service.Summary{TotalActiveGoals: 1, HighRiskGoals: 1},
	})
	assert.Contains(t, ins, "Active goals: 1  high risk: 1  on track: 0")
	assert.Contains(t, ins, "You finish goals fastest in Q2")
}
