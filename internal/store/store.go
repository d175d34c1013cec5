// Package store persists goals and their subtasks.
package store

import (
	"context"
	"errors"

	"github.com/sbenjam1n/goaltrack/internal/goal"
)

// ErrNotFound is returned when a goal or subtask does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

// Store is the goal repository. Goals are always returned with their subtasks.
// Callers set ids and timestamps; empty ids are filled in on create.
type Store interface {
	ListGoals(ctx context.Context, userID string, year *int) ([]goal.Goal, error)
	GetGoal(ctx context.Context, userID, id string) (goal.Goal, error)
	CreateGoal(ctx context.Context, g *goal.Goal) error
	UpdateGoal(ctx context.Context, g *goal.Goal) error
	DeleteGoal(ctx context.Context, userID, id string) error

	GetSubtask(ctx context.Context, userID, id string) (goal.Subtask, error)
	CreateSubtask(ctx context.Context, st *goal.Subtask) error
	UpdateSubtask(ctx context.Context, st goal.Subtask) error
	DeleteSubtask(ctx context.Context, id string) error

	// UpdateGoalAndSubtasks writes the goal row and sets the completion flag of
	// every one of its subtasks in a single transaction.
	UpdateGoalAndSubtasks(ctx context.Context, g *goal.Goal, subtasksCompleted bool) error
}
