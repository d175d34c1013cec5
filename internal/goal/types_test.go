package goal

import (
	"encoding/json"
	"testing"
	"time"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func subtasks(done ...bool) []Subtask {
	out := make([]Subtask, len(done))
	for i, d := range done {
		out[i] = Subtask{ID: string(rune('a' + i)), Title: "step", Completed: d}
	}
	return out
}

func TestReconcile(t *testing.T) {
	earlier := now.Add(-48 * time.Hour)

	tests := []struct {
		name          string
		completed     bool
		completedAt   *time.Time
		subtasks      []Subtask
		wantCompleted bool
		wantAt        *time.Time
	}{
		{"no subtasks stays incomplete", false, nil, nil, false, nil},
		{"no subtasks clears explicit completion", true, &earlier, nil, false, nil},
		{"partial progress", false, nil, subtasks(true, true, false), false, nil},
		{"partial progress un-completes", true, &earlier, subtasks(true, false), false, nil},
		{"all done stamps now", false, nil, subtasks(true, true, true), true, &now},
		{"already done keeps timestamp", true, &earlier, subtasks(true, true), true, &earlier},
		{"flag without timestamp gets stamped", true, nil, subtasks(true), true, &now},
	}

	for _, tt := range tests {
		gotCompleted, gotAt := Reconcile(tt.completed, tt.completedAt, tt.subtasks, now)
		if gotCompleted != tt.wantCompleted {
			t.Errorf("%s: completed = %v, want %v", tt.name, gotCompleted, tt.wantCompleted)
		}
		switch {
		case tt.wantAt == nil && gotAt != nil:
			t.Errorf("%s: completed_at = %v, want nil", tt.name, *gotAt)
		case tt.wantAt != nil && gotAt == nil:
			t.Errorf("%s: completed_at = nil, want %v", tt.name, *tt.wantAt)
		case tt.wantAt != nil && !gotAt.Equal(*tt.wantAt):
			t.Errorf("%s: completed_at = %v, want %v", tt.name, *gotAt, *tt.wantAt)
		}
	}
}

func TestReconcileThirdSubtaskCompletesGoal(t *testing.T) {
	g := &Goal{ID: "g1", Title: "Run a marathon", Subtasks: subtasks(true, true, false)}

	if g.Reconcile(now) {
		t.Error("two of three subtasks should not change state")
	}
	if g.Completed || g.CompletedAt != nil {
		t.Fatal("goal should be incomplete with a pending subtask")
	}

	g.Subtasks[2].Completed = true
	if !g.Reconcile(now) {
		t.Error("completing the last subtask should change state")
	}
	if !g.Completed {
		t.Fatal("goal should be complete")
	}
	if g.CompletedAt == nil || !g.CompletedAt.Equal(now) {
		t.Errorf("completed_at = %v, want %v", g.CompletedAt, now)
	}

	later := now.Add(time.Hour)
	if g.Reconcile(later) {
		t.Error("reconciling an already complete goal should be a no-op")
	}
	if !g.CompletedAt.Equal(now) {
		t.Errorf("completed_at moved to %v", g.CompletedAt)
	}
}

func TestToggleCascadesOnUncomplete(t *testing.T) {
	g := &Goal{Title: "Learn Go", Subtasks: subtasks(true, true)}
	g.Reconcile(now)

	if cascaded := g.Toggle(now); !cascaded {
		t.Error("un-completing should cascade to subtasks")
	}
	if g.Completed || g.CompletedAt != nil {
		t.Error("goal should be incomplete after toggle")
	}
	for _, st := range g.Subtasks {
		if st.Completed {
			t.Errorf("subtask %s still completed", st.ID)
		}
	}

	if cascaded := g.Toggle(now); cascaded {
		t.Error("completing should not cascade")
	}
	if !g.Completed || g.CompletedAt == nil {
		t.Error("goal should be complete after second toggle")
	}
	if g.CompletedSubtasks() != 0 {
		t.Error("explicit completion must not touch subtasks")
	}
}

func TestToggleWithoutSubtasks(t *testing.T) {
	g := &Goal{Title: "Buy a bike"}
	g.Toggle(now)
	if !g.Completed || g.CompletedAt == nil {
		t.Error("toggle should complete a goal with no subtasks")
	}
}

func TestPriorityRank(t *testing.T) {
	tests := []struct {
		p    Priority
		want int
	}{
		{PriorityCritical, 0},
		{PriorityHigh, 1},
		{PriorityMedium, 2},
		{PriorityLow, 3},
		{Priority("whatever"), 3},
	}
	for _, tt := range tests {
		if got := tt.p.Rank(); got != tt.want {
			t.Errorf("Rank(%q) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestCompletionDays(t *testing.T) {
	created := now.Add(-36 * time.Hour)
	g := &Goal{CreatedAt: created}
	if _, ok := g.CompletionDays(); ok {
		t.Error("incomplete goal has no completion time")
	}

	g.SetCompleted(true, now)
	days, ok := g.CompletionDays()
	if !ok || days != 1.5 {
		t.Errorf("CompletionDays = %v, %v; want 1.5, true", days, ok)
	}
	whole, _ := g.CompletionWholeDays()
	if whole != 1 {
		t.Errorf("CompletionWholeDays = %d, want 1", whole)
	}
	if got := g.AgeDays(now.Add(24 * time.Hour)); got != 2 {
		t.Errorf("AgeDays = %d, want 2", got)
	}
}

func TestQuarter(t *testing.T) {
	for month, want := range map[time.Month]int{
		time.January: 1, time.March: 1, time.April: 2, time.June: 2,
		time.July: 3, time.September: 3, time.October: 4, time.December: 4,
	} {
		if got := Quarter(time.Date(2025, month, 1, 0, 0, 0, 0, time.UTC)); got != want {
			t.Errorf("Quarter(%s) = %d, want %d", month, got, want)
		}
	}
}

func TestRecommendationOmitsEmptyAffectedGoals(t *testing.T) {
	data, err := json.Marshal(Recommendation{Type: "velocity", Priority: PriorityHigh})
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if _, ok := raw["affected_goals"]; ok {
		t.Error("affected_goals should be omitted when empty")
	}
	if raw["priority"] != "high" {
		t.Errorf("priority = %v, want high", raw["priority"])
	}
}
