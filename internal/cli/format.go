package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/analyzer"
	"github.com/sbenjam1n/goaltrack/internal/goal"
	"github.com/sbenjam1n/goaltrack/internal/predictor"
	"github.com/sbenjam1n/goaltrack/internal/service"
)

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// formatGoalLine renders a goal as one list line.
func formatGoalLine(g goal.Goal) string {
	line := fmt.Sprintf("%s %s (%d)  %s", checkbox(g.Completed), g.Title, g.Year, g.ID)
	if g.HasSubtasks() {
		line += fmt.Sprintf("  %d/%d subtasks", g.CompletedSubtasks(), len(g.Subtasks))
	}
	return line
}

// formatGoal renders a goal with its subtasks.
func formatGoal(g goal.Goal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", g.Title)
	fmt.Fprintf(&b, "ID: %s\n", g.ID)
	fmt.Fprintf(&b, "Year: %d\n", g.Year)
	if g.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", g.Description)
	}
	status := "active"
	if g.Completed {
		status = "completed"
	}
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Created: %s\n", g.CreatedAt.Format(time.RFC3339))
	if g.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed: %s\n", g.CompletedAt.Format(time.RFC3339))
	}
	if g.HasSubtasks() {
		fmt.Fprintf(&b, "\nSubtasks (%d/%d):\n", g.CompletedSubtasks(), len(g.Subtasks))
		for _, st := range g.Subtasks {
			fmt.Fprintf(&b, "  %s %s  %s\n", checkbox(st.Completed), st.Title, st.ID)
		}
	}
	return b.String()
}

func formatReport(r analyzer.Report) string {
	var b strings.Builder
	m := r.Metrics
	fmt.Fprintf(&b, "Goals: %d total, %d active, %d completed (%.1f%%)\n",
		m.TotalGoals, m.ActiveGoals, m.CompletedGoals, m.CompletionRate)
	if m.AvgCompletionDays > 0 {
		fmt.Fprintf(&b, "Average completion: %.1f days\n", m.AvgCompletionDays)
	}
	if len(r.Recommendations) == 0 {
		b.WriteString("\nNo recommendations right now.\n")
		return b.String()
	}
	for i, rec := range r.Recommendations {
		fmt.Fprintf(&b, "\n%d. [%s] %s\n", i+1, rec.Priority, rec.Title)
		fmt.Fprintf(&b, "   %s\n", rec.Message)
		fmt.Fprintf(&b, "   Why: %s\n", rec.Insight)
		fmt.Fprintf(&b, "   Do:  %s\n", rec.Action)
		fmt.Fprintf(&b, "   (%s, confidence %.0f%%)\n", rec.DataPoint, rec.Confidence*100)
		for _, ag := range rec.AffectedGoals {
			fmt.Fprintf(&b, "     - %s\n", ag.Title)
		}
	}
	if len(r.FailedPasses) > 0 {
		fmt.Fprintf(&b, "\nSkipped checks: %s\n", strings.Join(r.FailedPasses, ", "))
	}
	return b.String()
}

func formatPrediction(p predictor.Prediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.GoalTitle)
	fmt.Fprintf(&b, "  Completion probability: %.0f%% (%s confidence)\n", p.CompletionProbability*100, p.ConfidenceLevel)
	if p.EstimatedDaysToComplete != nil {
		fmt.Fprintf(&b, "  Estimated days to complete: %d\n", *p.EstimatedDaysToComplete)
	}
	if p.Error != "" {
		fmt.Fprintf(&b, "  Note: %s\n", p.Error)
	}
	for _, rec := range p.Recommendations {
		fmt.Fprintf(&b, "  * %s\n", rec)
	}
	for _, rf := range p.RiskFactors {
		fmt.Fprintf(&b, "  ! %s (%s): %s\n", rf.Factor, rf.Severity, rf.Description)
	}
	return b.String()
}

func formatInsights(ins service.Insights) string {
	var b strings.Builder
	s := ins.Summary
	fmt.Fprintf(&b, "Active goals: %d  high risk: %d  on track: %d\n\n", s.TotalActiveGoals, s.HighRiskGoals, s.OnTrackGoals)
	for _, p := range ins.Predictions {
		b.WriteString(formatPrediction(p))
	}

	bp := ins.BestPractices
	b.WriteString("\nBest practices:\n")
	if bp.Message != "" {
		fmt.Fprintf(&b, "  %s\n", bp.Message)
	}
	fmt.Fprintf(&b, "  %s\n", bp.SubtaskEffectiveness.Recommendation)
	if bp.BestQuarter != nil {
		fmt.Fprintf(&b, "  You finish goals fastest in Q%d\n", *bp.BestQuarter)
	}
	return b.String()
}
