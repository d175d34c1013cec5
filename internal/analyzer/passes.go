package analyzer

import (
	"fmt"
	"slices"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/complexity"
	"github.com/sbenjam1n/goaltrack/internal/goal"
	"gonum.org/v1/gonum/stat"
)

const day = 24 * time.Hour

var quarterNames = map[int]string{
	1: "Q1 (Jan-Mar)",
	2: "Q2 (Apr-Jun)",
	3: "Q3 (Jul-Sep)",
	4: "Q4 (Oct-Dec)",
}

// DefaultPasses returns the seven standard passes in evaluation order.
func DefaultPasses() []Pass {
	return []Pass{
		{Name: "velocity", Run: velocityPass},
		{Name: "pattern", Run: patternPass},
		{Name: "time_allocation", Run: timeAllocationPass},
		{Name: "burnout_risk", Run: burnoutPass},
		{Name: "complexity", Run: complexityPass},
		{Name: "temporal", Run: temporalPass},
		{Name: "strategic", Run: strategicPass},
	}
}

func velocityPass(s *Snapshot) ([]goal.Recommendation, error) {
	if len(s.Goals) < 3 {
		return nil, nil
	}

	cutoff := s.AsOf.Add(-90 * day)
	recent := 0
	for i := range s.Completed {
		if !s.Completed[i].CompletedAt.Before(cutoff) {
			recent++
		}
	}
	velocity := float64(recent) / 3
	active := len(s.Active)

	switch {
	case velocity < 0.5 && active > 5:
		return []goal.Recommendation{{
			Type:       "velocity",
			Title:      "Declining Goal Momentum",
			Message:    fmt.Sprintf("You're completing %.1f goals per month. With %d active goals, this pace may lead to overwhelm.", velocity, active),
			Insight:    "High performers focus on fewer goals simultaneously. Quality over quantity leads to better outcomes.",
			Action:     "Consider archiving goals that are no longer aligned with your priorities",
			Priority:   goal.PriorityHigh,
			Confidence: 0.85,
			DataPoint:  fmt.Sprintf("%.1f goals/month", velocity),
		}}, nil
	case velocity > 2 && active < 3:
		return []goal.Recommendation{{
			Type:       "velocity",
			Title:      "Strong Momentum Detected",
			Message:    fmt.Sprintf("You're completing %.1f goals per month with excellent focus.", velocity),
			Insight:    "Your completion rate is exceptional. You have capacity for more ambitious challenges.",
			Action:     "Consider adding 1-2 stretch goals that push your boundaries",
			Priority:   goal.PriorityLow,
			Confidence: 0.9,
			DataPoint:  fmt.Sprintf("%.1f goals/month", velocity),
		}}, nil
	}
	return nil, nil
}

func patternPass(s *Snapshot) ([]goal.Recommendation, error) {
	var recs []goal.Recommendation

	cutoff := s.AsOf.Add(-30 * day)
	created := 0
	for i := range s.Goals {
		if !s.Goals[i].CreatedAt.Before(cutoff) {
			created++
		}
	}
	if created > 5 && float64(len(s.Completed)) < float64(created)*0.3 {
		recs = append(recs, goal.Recommendation{
			Type:       "pattern",
			Title:      "Goal Creation Outpacing Completion",
			Message:    fmt.Sprintf("You've created %d goals in the last month but completion rate is low.", created),
			Insight:    "Creating goals feels productive, but completion is what drives real progress. This pattern often indicates scattered focus.",
			Action:     "Pause new goal creation for 2 weeks. Focus solely on completing existing goals",
			Priority:   goal.PriorityHigh,
			Confidence: 0.88,
			DataPoint:  fmt.Sprintf("%d new goals in 30 days", created),
		})
	}

	old := 0
	for i := range s.Active {
		if s.Active[i].Year < s.AsOf.Year() {
			old++
		}
	}
	if old > 3 {
		recs = append(recs, goal.Recommendation{
			Type:       "pattern",
			Title:      "Carrying Forward Old Goals",
			Message:    fmt.Sprintf("%d active goals are from previous years.", old),
			Insight:    "Goals from past years may no longer align with your current priorities. Unfinished goals create mental clutter.",
			Action:     "Review each old goal: Update the year if still relevant, or archive if priorities have changed",
			Priority:   goal.PriorityMedium,
			Confidence: 0.82,
			DataPoint:  fmt.Sprintf("%d goals from past years", old),
		})
	}
	return recs, nil
}

func timeAllocationPass(s *Snapshot) ([]goal.Recommendation, error) {
	times := s.CompletionDays()
	if len(times) < 3 {
		return nil, nil
	}
	var recs []goal.Recommendation

	avg := mean(times)
	med := median(times)

	if med > 0 && avg > med*2 {
		var long []goal.AffectedGoal
		for i := range s.Completed {
			days, _ := s.Completed[i].CompletionWholeDays()
			if float64(days) > med*2 && len(long) < 3 {
				long = append(long, goal.AffectedGoal{ID: s.Completed[i].ID, Title: s.Completed[i].Title, Days: &days})
			}
		}
		recs = append(recs, goal.Recommendation{
			Type:          "time_allocation",
			Title:         "Time Estimation Inconsistency",
			Message:       fmt.Sprintf("Some goals take %.1fx longer than your median completion time.", avg/med),
			Insight:       "Large variance suggests difficulty in estimating goal complexity. This is common but improvable.",
			Action:        "For new goals, estimate completion time and set monthly checkpoints",
			Priority:      goal.PriorityMedium,
			Confidence:    0.76,
			DataPoint:     fmt.Sprintf("Median: %.0f days, Avg: %.0f days", med, avg),
			AffectedGoals: long,
		})
	}

	expected := avg
	if expected <= 0 {
		expected = 90
	}
	var stagnant []goal.AffectedGoal
	count := 0
	for i := range s.Active {
		age := s.Active[i].AgeDays(s.AsOf)
		if float64(age) <= expected*1.5 {
			continue
		}
		count++
		if len(stagnant) < 3 {
			stagnant = append(stagnant, goal.AffectedGoal{ID: s.Active[i].ID, Title: s.Active[i].Title, DaysActive: &age})
		}
	}
	if count > 2 {
		recs = append(recs, goal.Recommendation{
			Type:          "time_allocation",
			Title:         "Multiple Stagnant Goals Detected",
			Message:       fmt.Sprintf("%d goals are taking significantly longer than your average.", count),
			Insight:       "Stagnant goals often indicate unclear next steps or misalignment with current priorities.",
			Action:        "For each stagnant goal, define one concrete action you can take this week",
			Priority:      goal.PriorityHigh,
			Confidence:    0.84,
			DataPoint:     fmt.Sprintf("%d goals overdue", count),
			AffectedGoals: stagnant,
		})
	}
	return recs, nil
}

func burnoutPass(s *Snapshot) ([]goal.Recommendation, error) {
	if len(s.Goals) < 5 {
		return nil, nil
	}
	var recs []goal.Recommendation

	cutoff := s.AsOf.Add(-180 * day)
	var recentTotal, recentDone, oldTotal, oldDone int
	for i := range s.Goals {
		g := &s.Goals[i]
		if g.CreatedAt.Before(cutoff) {
			oldTotal++
			if g.Completed {
				oldDone++
			}
		} else {
			recentTotal++
			if g.Completed {
				recentDone++
			}
		}
	}

	if recentTotal > 0 && oldTotal > 0 {
		recentRate := float64(recentDone) / float64(recentTotal)
		oldRate := float64(oldDone) / float64(oldTotal)
		if oldRate > 0 && recentRate < oldRate*0.6 {
			recs = append(recs, goal.Recommendation{
				Type:       "burnout_risk",
				Title:      "Declining Completion Rate Detected",
				Message:    fmt.Sprintf("Your completion rate has dropped %.0f%% in recent months.", (oldRate-recentRate)/oldRate*100),
				Insight:    "This pattern often precedes burnout. Early intervention is key to maintaining long-term productivity.",
				Action:     "Take a strategic pause: Review your energy levels, simplify active goals, and prioritize rest",
				Priority:   goal.PriorityCritical,
				Confidence: 0.79,
				DataPoint:  fmt.Sprintf("Recent: %.0f%%, Previous: %.0f%%", recentRate*100, oldRate*100),
			})
		}
	}

	if active := len(s.Active); active >= 12 {
		recs = append(recs, goal.Recommendation{
			Type:       "burnout_risk",
			Title:      "Cognitive Overload Warning",
			Message:    fmt.Sprintf("You have %d active goals. Research shows optimal range is 5-7 goals.", active),
			Insight:    "Each active goal consumes mental bandwidth even when not actively worked on. This leads to decision fatigue.",
			Action:     "Use the Eisenhower Matrix: Categorize goals by urgent/important and archive the bottom 50%",
			Priority:   goal.PriorityHigh,
			Confidence: 0.91,
			DataPoint:  fmt.Sprintf("%d active goals", active),
		})
	}
	return recs, nil
}

func complexityPass(s *Snapshot) ([]goal.Recommendation, error) {
	var (
		recs         []goal.Recommendation
		stuck        []goal.AffectedGoal
		stuckCount   int
		unstructured []goal.AffectedGoal
		longCount    int
	)

	for i := range s.Active {
		g := &s.Active[i]
		age := g.AgeDays(s.AsOf)
		if g.HasSubtasks() {
			ratio := g.SubtaskCompletionRate()
			if ratio < 0.3 && age > 60 {
				stuckCount++
				if len(stuck) < 3 {
					stuck = append(stuck, goal.AffectedGoal{
						ID:         g.ID,
						Title:      g.Title,
						Completion: fmt.Sprintf("%.0f%%", ratio*100),
					})
				}
			}
			continue
		}
		if age > 90 {
			longCount++
			if len(unstructured) < 3 {
				score := s.Scorer.Analyze(g.Title, g.Description).Score
				unstructured = append(unstructured, goal.AffectedGoal{ID: g.ID, Title: g.Title, ComplexityScore: &score})
			}
		}
	}

	if stuckCount > 0 {
		recs = append(recs, goal.Recommendation{
			Type:          "complexity",
			Title:         "Goals with Stalled Progress",
			Message:       fmt.Sprintf("%d goals have subtasks but little progress after 60+ days.", stuckCount),
			Insight:       "Subtasks aren't inherently motivating. They need to be actionable, time-bound, and regularly reviewed.",
			Action:        "For each stalled goal, identify one subtask to complete this week. Momentum builds momentum",
			Priority:      goal.PriorityHigh,
			Confidence:    0.83,
			DataPoint:     fmt.Sprintf("%d stalled goals", stuckCount),
			AffectedGoals: stuck,
		})
	}
	if longCount > 2 {
		recs = append(recs, goal.Recommendation{
			Type:          "complexity",
			Title:         "Long-Running Goals Need Structure",
			Message:       fmt.Sprintf("%d goals without subtasks have been active for 90+ days.", longCount),
			Insight:       "Goals without clear steps become abstract over time. Breaking them down creates psychological momentum.",
			Action:        "Add 3-5 concrete subtasks to each long-running goal. Make them specific and actionable",
			Priority:      goal.PriorityMedium,
			Confidence:    0.77,
			DataPoint:     fmt.Sprintf("%d goals need structure", longCount),
			AffectedGoals: unstructured,
		})
	}
	return recs, nil
}

func temporalPass(s *Snapshot) ([]goal.Recommendation, error) {
	if len(s.Completed) < 5 {
		return nil, nil
	}

	var counts [5]int
	for i := range s.Completed {
		counts[goal.Quarter(*s.Completed[i].CompletedAt)]++
	}
	best, worst := 1, 1
	for q := 2; q <= 4; q++ {
		if counts[q] > counts[best] {
			best = q
		}
		if counts[q] < counts[worst] {
			worst = q
		}
	}
	if counts[best] <= counts[worst]*2 {
		return nil, nil
	}

	var message string
	if counts[worst] > 0 {
		message = fmt.Sprintf("You complete %.1fx more goals in %s than %s.",
			float64(counts[best])/float64(counts[worst]), quarterNames[best], quarterNames[worst])
	} else {
		message = fmt.Sprintf("You complete most of your goals in %s and none in %s.", quarterNames[best], quarterNames[worst])
	}
	lead := best - 1
	if lead < 1 {
		lead = 4
	}

	return []goal.Recommendation{{
		Type:       "temporal",
		Title:      "Seasonal Productivity Pattern Identified",
		Message:    message,
		Insight:    "Everyone has natural productivity cycles. Smart goal-setters align important goals with high-energy periods.",
		Action:     fmt.Sprintf("Schedule challenging goals to start in %s to capitalize on your productivity peak", quarterNames[lead]),
		Priority:   goal.PriorityLow,
		Confidence: 0.74,
		DataPoint:  fmt.Sprintf("Best: Q%d (%d goals)", best, counts[best]),
	}}, nil
}

func strategicPass(s *Snapshot) ([]goal.Recommendation, error) {
	if len(s.Goals) < 10 {
		return nil, nil
	}
	var recs []goal.Recommendation

	var words []string
	for i := range s.Goals {
		words = append(words, complexity.SignificantWords(s.Goals[i].Title)...)
	}
	ratio := 0.0
	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		ratio = float64(len(unique)) / float64(len(words))
	}
	if ratio < 0.4 {
		recs = append(recs, goal.Recommendation{
			Type:       "strategic",
			Title:      "Limited Goal Diversity Detected",
			Message:    "Your goals show significant overlap in themes and areas.",
			Insight:    "While focus is good, balanced growth across life areas prevents blind spots and increases satisfaction.",
			Action:     "Consider goals in underrepresented areas: health, relationships, learning, or creativity",
			Priority:   goal.PriorityLow,
			Confidence: 0.68,
			DataPoint:  fmt.Sprintf("%.0f%% unique terms", ratio*100),
		})
	}

	if len(s.Completed) == 0 || len(s.Active) == 0 {
		return recs, nil
	}
	completedAges := make([]float64, 0, len(s.Completed))
	for i := range s.Completed {
		d, _ := s.Completed[i].CompletionWholeDays()
		completedAges = append(completedAges, float64(d))
	}
	activeAges := make([]float64, 0, len(s.Active))
	for i := range s.Active {
		activeAges = append(activeAges, float64(s.Active[i].AgeDays(s.AsOf)))
	}
	completedMean, activeMean := mean(completedAges), mean(activeAges)

	if completedMean > 0 && activeMean > completedMean*1.8 {
		recs = append(recs, goal.Recommendation{
			Type:       "strategic",
			Title:      "Active Goals Aging Beyond Norm",
			Message:    fmt.Sprintf("Your active goals are %.1fx older than goals you typically complete.", activeMean/completedMean),
			Insight:    "This suggests your current goals may be more ambitious or less aligned with current capacity.",
			Action:     "Re-evaluate if active goals still serve your current life phase and priorities",
			Priority:   goal.PriorityMedium,
			Confidence: 0.71,
			DataPoint:  fmt.Sprintf("Active avg: %.0f days, Completed avg: %.0f days", activeMean, completedMean),
		})
	}
	return recs, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// median averages the two middle values for even-length input.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
