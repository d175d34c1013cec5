package predictor

import (
	"fmt"

	"github.com/sbenjam1n/goaltrack/internal/complexity"
	"github.com/sbenjam1n/goaltrack/internal/goal"
)

// advise applies the recommendation rules in order. Each rule appends
// independently.
func advise(v *Vector, a complexity.Analysis, prob float64, estimate *int) []string {
	f := &v.Features
	recs := []string{}
	noSubtasks := f[featSubtaskCount] == 0

	switch {
	case prob < 0.4:
		recs = append(recs, "Low completion probability detected. This goal needs attention.")

		if noSubtasks && a.IsLikelyComplex && !a.IsLikelySimple {
			recs = append(recs, fmt.Sprintf(
				"'%s...' appears to be a complex goal. Breaking it into 3-5 concrete steps could increase success rate by 40%%.",
				truncateRunes(v.Title, 50)))
		} else if noSubtasks && a.IsLikelySimple {
			recs = append(recs, "This appears to be a straightforward goal. Set a specific date/time to complete it rather than adding subtasks.")
		}

		if a.IsVague {
			recs = append(recs, "Make this goal more specific: Add measurable criteria or a clear success definition.")
		}
		if days := int(f[featDaysActive]); days > 60 {
			recs = append(recs, fmt.Sprintf(
				"Active for %d days. Schedule 30 minutes this week to make progress or re-evaluate its priority.", days))
		}

	case prob > 0.75:
		recs = append(recs, "High completion likelihood! You're on track.")
		if estimate != nil && *estimate > 0 && *estimate < 30 {
			recs = append(recs, fmt.Sprintf("Estimated completion in ~%d days. Maintain momentum!", *estimate))
		}
	}

	if f[featHasSubtasks] == 1 && f[featSubtaskCompletionRate] < 0.3 && f[featDaysActive] > 30 && a.IsLikelyComplex {
		recs = append(recs, "Low subtask progress. Pick ONE subtask to complete this week. Small wins create momentum.")
	}

	if a.HasMultipleObjectives && noSubtasks {
		recs = append(recs, "This goal contains multiple objectives. Consider splitting it into separate goals or adding subtasks for each part.")
	}

	if estimate != nil && *estimate > 0 {
		if *estimate > 90 && !a.IsLikelyComplex {
			recs = append(recs, fmt.Sprintf(
				"Estimated %d days seems long for this goal. Consider if scope can be reduced or timeline shortened.", *estimate))
		} else if float64(*estimate) > f[featUserAvgCompletionDays]*1.5 {
			recs = append(recs, "This will take longer than your average. Block dedicated time in your calendar to stay on track.")
		}
	}

	if f[featUserCompletionRate] < 0.4 && f[featUserTotalGoals] > 5 {
		recs = append(recs, "Focus Mode: You have many goals with low completion rate. Choose your top 3 priorities and archive the rest temporarily.")
	}

	return recs
}

// riskFactors lists the independent reasons a goal may stall.
func riskFactors(v *Vector, a complexity.Analysis) []goal.RiskFactor {
	f := &v.Features
	risks := []goal.RiskFactor{}
	days := int(f[featDaysActive])

	if days > 90 {
		risks = append(risks, goal.RiskFactor{
			Factor:      "Prolonged Duration",
			Severity:    "high",
			Description: fmt.Sprintf("Goal active for %d days with no completion", days),
		})
	}
	if f[featSubtaskCount] == 0 && days > 30 && a.IsLikelyComplex && !a.IsLikelySimple {
		risks = append(risks, goal.RiskFactor{
			Factor:      "Lacks Structure",
			Severity:    "medium",
			Description: "Complex goal without defined action steps",
		})
	}
	if f[featHasSubtasks] == 1 && f[featSubtaskCompletionRate] < 0.2 {
		risks = append(risks, goal.RiskFactor{
			Factor:      "Stalled Progress",
			Severity:    "high",
			Description: fmt.Sprintf("Only %.0f%% of subtasks completed", f[featSubtaskCompletionRate]*100),
		})
	}
	if a.IsVague {
		risks = append(risks, goal.RiskFactor{
			Factor:      "Vague Goal",
			Severity:    "medium",
			Description: "Goal lacks specific, measurable criteria",
		})
	}
	if years := int(f[featYearsOld]); years > 0 {
		risks = append(risks, goal.RiskFactor{
			Factor:      "Outdated Goal",
			Severity:    "medium",
			Description: fmt.Sprintf("Goal from %d year(s) ago may need re-evaluation", years),
		})
	}
	return risks
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
