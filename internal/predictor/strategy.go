package predictor

import (
	"fmt"
	"math"

	"github.com/sbenjam1n/goaltrack/internal/complexity"
	"github.com/sbenjam1n/goaltrack/internal/goal"
)

// MinBestPracticeGoals is the number of finished goals needed before best
// practices are reported.
const MinBestPracticeGoals = 5

// SubtaskEffectiveness compares completion speed of complex goals with and
// without subtasks.
type SubtaskEffectiveness struct {
	WithSubtasksAvgDays    float64 `json:"with_subtasks_avg_days"`
	WithoutSubtasksAvgDays float64 `json:"without_subtasks_avg_days"`
	Recommendation         string  `json:"recommendation"`
	SampleSizeWith         int     `json:"sample_size_with"`
	SampleSizeWithout      int     `json:"sample_size_without"`
}

// BestPractices summarizes what has worked for a user so far.
type BestPractices struct {
	Message                string               `json:"message,omitempty"`
	SubtaskEffectiveness   SubtaskEffectiveness `json:"subtask_effectiveness"`
	BestQuarter            *int                 `json:"best_quarter"`
	QuarterlyAvgCompletion map[string]float64   `json:"quarterly_avg_completion"`
}

// AnalyzeBestPractices inspects finished goals for subtask effectiveness and
// the quarter in which goals get done fastest.
func AnalyzeBestPractices(goals []goal.Goal, scorer *complexity.Scorer) BestPractices {
	if scorer == nil {
		scorer = complexity.Default()
	}

	var finished []goal.Goal
	for _, g := range goals {
		if g.IsFinished() {
			finished = append(finished, g)
		}
	}
	if len(finished) < MinBestPracticeGoals {
		return BestPractices{
			Message: "Need more completed goals for pattern analysis",
			SubtaskEffectiveness: SubtaskEffectiveness{
				Recommendation: fmt.Sprintf("Complete at least %d goals to unlock best practices analysis", MinBestPracticeGoals),
			},
			QuarterlyAvgCompletion: map[string]float64{},
		}
	}

	var with, without []float64
	var byQuarter [5][]float64
	for i := range finished {
		g := &finished[i]
		days, _ := g.CompletionWholeDays()
		q := goal.Quarter(*g.CompletedAt)
		byQuarter[q] = append(byQuarter[q], float64(days))

		if !scorer.Analyze(g.Title, g.Description).IsLikelyComplex {
			continue
		}
		if g.HasSubtasks() {
			with = append(with, float64(days))
		} else {
			without = append(without, float64(days))
		}
	}

	avgWith, avgWithout := mean(with), mean(without)
	bp := BestPractices{
		SubtaskEffectiveness: SubtaskEffectiveness{
			WithSubtasksAvgDays:    round1(avgWith),
			WithoutSubtasksAvgDays: round1(avgWithout),
			Recommendation:         subtaskAdvice(len(with), len(without), avgWith, avgWithout),
			SampleSizeWith:         len(with),
			SampleSizeWithout:      len(without),
		},
		QuarterlyAvgCompletion: map[string]float64{},
	}

	best, bestMean := 0, math.Inf(1)
	for q := 1; q <= 4; q++ {
		if len(byQuarter[q]) == 0 {
			continue
		}
		m := mean(byQuarter[q])
		bp.QuarterlyAvgCompletion[fmt.Sprintf("Q%d", q)] = round1(m)
		if m < bestMean {
			best, bestMean = q, m
		}
	}
	if best > 0 {
		bp.BestQuarter = &best
	}
	return bp
}

func subtaskAdvice(nWith, nWithout int, avgWith, avgWithout float64) string {
	switch {
	case nWith < 3 && nWithout < 3:
		return "Not enough data yet - keep completing goals to unlock insights"
	case nWith < 3:
		return "You complete goals well without subtasks - keep it simple"
	case nWithout < 3:
		return "Subtasks are working well for you - continue using them for complex goals"
	case avgWith < avgWithout*0.8:
		return "Subtasks significantly improve your completion speed for complex goals"
	case avgWith > avgWithout*1.3:
		return "You complete goals faster without subtasks - keep goals simple and direct"
	default:
		return "Subtasks show marginal benefit - use them only for truly complex goals"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
