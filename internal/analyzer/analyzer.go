// Package analyzer turns a user's goal history into ranked behavioral
// recommendations and summary metrics.
package analyzer

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/complexity"
	"github.com/sbenjam1n/goaltrack/internal/goal"
	"go.uber.org/zap"
)

// MaxRecommendations caps the merged recommendation list.
const MaxRecommendations = 8

// Report is the result of one analysis run.
type Report struct {
	Recommendations   []goal.Recommendation `json:"recommendations"`
	Metrics           Metrics               `json:"metrics"`
	AnalysisTimestamp time.Time             `json:"analysis_timestamp"`
	FailedPasses      []string              `json:"failed_passes,omitempty"`
}

// Metrics summarizes a goal set independently of the passes.
type Metrics struct {
	TotalGoals        int     `json:"total_goals"`
	ActiveGoals       int     `json:"active_goals"`
	CompletedGoals    int     `json:"completed_goals"`
	CompletionRate    float64 `json:"completion_rate"`
	AvgCompletionDays float64 `json:"avg_completion_days"`
	GoalsWithSubtasks int     `json:"goals_with_subtasks"`
	CurrentYearGoals  int     `json:"current_year_goals"`
}

// Snapshot is the read-only view every pass works from.
type Snapshot struct {
	AsOf      time.Time
	Goals     []goal.Goal
	Completed []goal.Goal // complete with a known completion time
	Active    []goal.Goal
	Scorer    *complexity.Scorer
}

// CompletionDays returns fractional completion durations of finished goals.
func (s *Snapshot) CompletionDays() []float64 {
	days := make([]float64, 0, len(s.Completed))
	for i := range s.Completed {
		if d, ok := s.Completed[i].CompletionDays(); ok {
			days = append(days, d)
		}
	}
	return days
}

// Pass is one independent analysis over a snapshot.
type Pass struct {
	Name string
	Run  func(s *Snapshot) ([]goal.Recommendation, error)
}

// PassResult is the outcome of running a single pass.
type PassResult struct {
	Name            string
	Recommendations []goal.Recommendation
	Err             error
}

// Analyzer runs a fixed set of passes and merges their output.
type Analyzer struct {
	log    *zap.Logger
	scorer *complexity.Scorer
	passes []Pass
}

// New creates an Analyzer with the standard passes.
func New(log *zap.Logger, scorer *complexity.Scorer) *Analyzer {
	return NewWithPasses(log, scorer, DefaultPasses()...)
}

// NewWithPasses creates an Analyzer running the given passes in order.
func NewWithPasses(log *zap.Logger, scorer *complexity.Scorer, passes ...Pass) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if scorer == nil {
		scorer = complexity.Default()
	}
	return &Analyzer{log: log.Named("analyzer"), scorer: scorer, passes: passes}
}

// Analyze computes metrics and up to MaxRecommendations recommendations for
// goals as of the given time. A failing pass is logged and contributes nothing.
func (a *Analyzer) Analyze(goals []goal.Goal, asOf time.Time) Report {
	snap := newSnapshot(goals, asOf, a.scorer)

	var (
		recs   []goal.Recommendation
		failed []string
	)
	for _, p := range a.passes {
		res := runPass(p, snap)
		if res.Err != nil {
			a.log.Warn("analysis pass failed", zap.String("pass", res.Name), zap.Error(res.Err))
			failed = append(failed, res.Name)
			continue
		}
		recs = append(recs, res.Recommendations...)
	}

	slices.SortStableFunc(recs, func(x, y goal.Recommendation) int {
		return x.Priority.Rank() - y.Priority.Rank()
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	if recs == nil {
		recs = []goal.Recommendation{}
	}

	return Report{
		Recommendations:   recs,
		Metrics:           computeMetrics(snap),
		AnalysisTimestamp: asOf,
		FailedPasses:      failed,
	}
}

func runPass(p Pass, s *Snapshot) (res PassResult) {
	res.Name = p.Name
	defer func() {
		if r := recover(); r != nil {
			res.Recommendations = nil
			res.Err = fmt.Errorf("pass %s panicked: %v", p.Name, r)
		}
	}()
	res.Recommendations, res.Err = p.Run(s)
	return res
}

func newSnapshot(goals []goal.Goal, asOf time.Time, scorer *complexity.Scorer) *Snapshot {
	s := &Snapshot{AsOf: asOf, Goals: goals, Scorer: scorer}
	for _, g := range goals {
		if g.IsFinished() {
			s.Completed = append(s.Completed, g)
		}
		if !g.Completed {
			s.Active = append(s.Active, g)
		}
	}
	return s
}

func computeMetrics(s *Snapshot) Metrics {
	m := Metrics{
		TotalGoals:     len(s.Goals),
		ActiveGoals:    len(s.Active),
		CompletedGoals: len(s.Completed),
	}
	if m.TotalGoals > 0 {
		m.CompletionRate = round1(float64(m.CompletedGoals) / float64(m.TotalGoals) * 100)
	}
	m.AvgCompletionDays = round1(mean(s.CompletionDays()))
	for i := range s.Goals {
		if s.Goals[i].HasSubtasks() {
			m.GoalsWithSubtasks++
		}
		if s.Goals[i].Year == s.AsOf.Year() {
			m.CurrentYearGoals++
		}
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
