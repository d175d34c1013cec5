package goal

import (
	"math"
	"time"
)

// Goal is a trackable objective owned by a user, optionally broken into subtasks.
type Goal struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Year        int        `json:"year" db:"year"`
	Completed   bool       `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	Subtasks    []Subtask  `json:"subtasks"`
}

// Subtask is an atomic, binary-completion step of a goal.
type Subtask struct {
	ID        string `json:"id" db:"id"`
	GoalID    string `json:"goal_id" db:"goal_id"`
	Title     string `json:"title" db:"title"`
	Completed bool   `json:"is_completed" db:"is_completed"`
}

// Priority orders recommendations. Lower rank sorts first.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the sort position of a priority. Unknown values rank with low.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Recommendation is a transient piece of behavioral advice derived from a goal set.
type Recommendation struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Message       string         `json:"message"`
	Insight       string         `json:"insight"`
	Action        string         `json:"action"`
	Priority      Priority       `json:"priority"`
	Confidence    float64        `json:"confidence"`
	DataPoint     string         `json:"data_point"`
	AffectedGoals []AffectedGoal `json:"affected_goals,omitempty"`
}

// AffectedGoal references a goal that triggered a recommendation, with the
// metric the triggering pass measured.
type AffectedGoal struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Days            *int   `json:"days,omitempty"`
	DaysActive      *int   `json:"days_active,omitempty"`
	Completion      string `json:"completion,omitempty"`
	ComplexityScore *int   `json:"complexity_score,omitempty"`
}

// RiskFactor is one reason a goal may not get completed.
type RiskFactor struct {
	Factor      string `json:"factor"`
	Severity    string `json:"severity"` // high, medium
	Description string `json:"description"`
}

// HasSubtasks reports whether the goal has at least one subtask.
func (g *Goal) HasSubtasks() bool {
	return len(g.Subtasks) > 0
}

// CompletedSubtasks counts subtasks marked done.
func (g *Goal) CompletedSubtasks() int {
	n := 0
	for _, st := range g.Subtasks {
		if st.Completed {
			n++
		}
	}
	return n
}

// SubtaskCompletionRate is the fraction of done subtasks, 0 when there are none.
func (g *Goal) SubtaskCompletionRate() float64 {
	if len(g.Subtasks) == 0 {
		return 0
	}
	return float64(g.CompletedSubtasks()) / float64(len(g.Subtasks))
}

// IsFinished reports whether the goal is complete with a known completion time.
func (g *Goal) IsFinished() bool {
	return g.Completed && g.CompletedAt != nil
}

// CompletionDays returns the fractional days between creation and completion.
func (g *Goal) CompletionDays() (float64, bool) {
	if !g.IsFinished() {
		return 0, false
	}
	return g.CompletedAt.Sub(g.CreatedAt).Hours() / 24, true
}

// CompletionWholeDays is CompletionDays truncated to whole days.
func (g *Goal) CompletionWholeDays() (int, bool) {
	if !g.IsFinished() {
		return 0, false
	}
	return WholeDays(g.CompletedAt.Sub(g.CreatedAt)), true
}

// AgeDays returns the whole days elapsed since creation, as of the given time.
func (g *Goal) AgeDays(asOf time.Time) int {
	return WholeDays(asOf.Sub(g.CreatedAt))
}

// WholeDays floors a duration to whole days, matching calendar-delta semantics
// for negative spans as well.
func WholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

// Quarter returns the calendar quarter (1-4) of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}
