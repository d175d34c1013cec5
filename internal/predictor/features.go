// Package predictor estimates how likely an active goal is to be completed and
// how long it will take, and turns those estimates into advice.
package predictor

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sbenjam1n/goaltrack/internal/complexity"
	"github.com/sbenjam1n/goaltrack/internal/goal"
	"go.uber.org/zap"
)

// Feature positions within a Vector. The order is part of the persisted model
// format.
const (
	featDaysActive = iota
	featMonthCreated
	featQuarterCreated
	featDayOfWeekCreated
	featTitleLength
	featTitleWordCount
	featHasDescription
	featDescriptionLength
	featComplexityScore
	featIsLikelyComplex
	featIsLikelySimple
	featHasMultipleObjectives
	featIsVague
	featIsSpecific
	featSubtaskCount
	featHasSubtasks
	featCompletedSubtasks
	featSubtaskCompletionRate
	featUserTotalGoals
	featUserCompletedGoals
	featUserCompletionRate
	featUserAvgCompletionDays
	featUserMedianCompletionDays
	featIsCurrentYear
	featYearsOld

	NumFeatures
)

// FeatureNames lists the feature columns in vector order.
var FeatureNames = [NumFeatures]string{
	"days_active",
	"month_created",
	"quarter_created",
	"day_of_week_created",
	"title_length",
	"title_word_count",
	"has_description",
	"description_length",
	"complexity_score",
	"is_likely_complex",
	"is_likely_simple",
	"has_multiple_objectives",
	"is_vague",
	"is_specific",
	"subtask_count",
	"has_subtasks",
	"completed_subtasks",
	"subtask_completion_rate",
	"user_total_goals",
	"user_completed_goals",
	"user_completion_rate",
	"user_avg_completion_days",
	"user_median_completion_days",
	"is_current_year",
	"years_old",
}

// Vector is the feature row of one goal plus its training targets.
type Vector struct {
	GoalID      string
	Title       string
	Description string
	Features    [NumFeatures]float64

	Completed      bool
	CompletionDays *float64 // whole days, set only for finished goals
}

// Extractor builds feature vectors.
type Extractor struct {
	log    *zap.Logger
	scorer *complexity.Scorer
}

// NewExtractor creates an Extractor.
func NewExtractor(log *zap.Logger, scorer *complexity.Scorer) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	if scorer == nil {
		scorer = complexity.Default()
	}
	return &Extractor{log: log.Named("features"), scorer: scorer}
}

// Extract builds the vector of g. History is the owner's goal set; g itself is
// excluded from the user-history features.
func (e *Extractor) Extract(g goal.Goal, history []goal.Goal, asOf time.Time) (Vector, error) {
	if g.Title == "" {
		return Vector{}, errors.New("goal has no title")
	}
	if g.CreatedAt.IsZero() {
		return Vector{}, errors.New("goal has no creation time")
	}

	v := Vector{GoalID: g.ID, Title: g.Title, Description: g.Description, Completed: g.Completed}
	f := &v.Features

	created := g.CreatedAt
	f[featDaysActive] = float64(g.AgeDays(asOf))
	f[featMonthCreated] = float64(created.Month())
	f[featQuarterCreated] = float64(goal.Quarter(created))
	f[featDayOfWeekCreated] = float64((int(created.Weekday()) + 6) % 7)

	a := e.scorer.Analyze(g.Title, g.Description)
	f[featTitleLength] = float64(utf8.RuneCountInString(g.Title))
	f[featTitleWordCount] = float64(a.WordCount)
	f[featHasDescription] = boolFeature(g.Description != "")
	f[featDescriptionLength] = float64(utf8.RuneCountInString(g.Description))
	f[featComplexityScore] = float64(a.Score)
	f[featIsLikelyComplex] = boolFeature(a.IsLikelyComplex)
	f[featIsLikelySimple] = boolFeature(a.IsLikelySimple)
	f[featHasMultipleObjectives] = boolFeature(a.HasMultipleObjectives)
	f[featIsVague] = boolFeature(a.IsVague)
	f[featIsSpecific] = boolFeature(a.IsSpecific)

	f[featSubtaskCount] = float64(len(g.Subtasks))
	f[featHasSubtasks] = boolFeature(g.HasSubtasks())
	f[featCompletedSubtasks] = float64(g.CompletedSubtasks())
	f[featSubtaskCompletionRate] = g.SubtaskCompletionRate()

	var total, done int
	var durations []float64
	for i := range history {
		other := &history[i]
		if other.ID == g.ID {
			continue
		}
		total++
		if other.Completed {
			done++
		}
		if d, ok := other.CompletionWholeDays(); ok {
			durations = append(durations, float64(d))
		}
	}
	f[featUserTotalGoals] = float64(total)
	f[featUserCompletedGoals] = float64(done)
	if total > 0 {
		f[featUserCompletionRate] = float64(done) / float64(total)
	}
	f[featUserAvgCompletionDays] = mean(durations)
	f[featUserMedianCompletionDays] = median(durations)

	f[featIsCurrentYear] = boolFeature(g.Year == asOf.Year())
	f[featYearsOld] = float64(asOf.Year() - g.Year)

	if d, ok := g.CompletionWholeDays(); ok {
		days := float64(d)
		v.CompletionDays = &days
	}
	return v, nil
}

// ExtractAll extracts every goal against the rest of the set. Goals that cannot
// be extracted are logged and skipped.
func (e *Extractor) ExtractAll(goals []goal.Goal, asOf time.Time) []Vector {
	out := make([]Vector, 0, len(goals))
	for _, g := range goals {
		v, err := e.Extract(g, goals, asOf)
		if err != nil {
			e.log.Warn("skipping goal", zap.String("goal_id", g.ID), zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out
}

// Feature returns a named feature value.
func (v *Vector) Feature(name string) (float64, error) {
	for i, n := range FeatureNames {
		if n == name {
			return v.Features[i], nil
		}
	}
	return 0, fmt.Errorf("unknown feature %q", name)
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
