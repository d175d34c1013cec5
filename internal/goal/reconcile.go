package goal

import "time"

// Reconcile derives a goal's completion state from its subtasks.
//
// A goal with no subtasks is never marked complete here; that takes an explicit
// toggle. Otherwise the goal is complete exactly when every subtask is. A goal
// that was already complete and stays complete keeps its original timestamp.
func Reconcile(completed bool, completedAt *time.Time, subtasks []Subtask, now time.Time) (bool, *time.Time) {
	if len(subtasks) == 0 {
		return false, nil
	}
	for _, st := range subtasks {
		if !st.Completed {
			return false, nil
		}
	}
	if completed && completedAt != nil {
		return true, completedAt
	}
	stamp := now
	return true, &stamp
}

// Reconcile applies the subtask rule to g in place and reports whether the
// completion state changed.
func (g *Goal) Reconcile(now time.Time) bool {
	wasCompleted := g.Completed
	wasAt := g.CompletedAt
	g.Completed, g.CompletedAt = Reconcile(g.Completed, g.CompletedAt, g.Subtasks, now)
	return wasCompleted != g.Completed || wasAt != g.CompletedAt
}

// SetCompleted explicitly sets the completion flag, stamping or clearing the
// completion time. It does not consult subtasks.
func (g *Goal) SetCompleted(completed bool, now time.Time) {
	if completed == g.Completed && (completed == (g.CompletedAt != nil)) {
		return
	}
	g.Completed = completed
	if completed {
		stamp := now
		g.CompletedAt = &stamp
		return
	}
	g.CompletedAt = nil
}

// Toggle flips the completion flag. Un-completing a goal resets every subtask,
// and the returned value reports whether that cascade happened.
func (g *Goal) Toggle(now time.Time) (cascaded bool) {
	g.SetCompleted(!g.Completed, now)
	if g.Completed {
		return false
	}
	for i := range g.Subtasks {
		g.Subtasks[i].Completed = false
	}
	return true
}
