package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sbenjam1n/goaltrack/internal/goal"
)

// MemoryStore is an in-process Store. Values are copied in and out so callers
// never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	goals map[string]*goal.Goal
	order []string // insertion order, for stable listing
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{goals: make(map[string]*goal.Goal)}
}

func clone(g *goal.Goal) goal.Goal {
	out := *g
	out.Subtasks = slices.Clone(g.Subtasks)
	if out.Subtasks == nil {
		out.Subtasks = []goal.Subtask{}
	}
	if g.CompletedAt != nil {
		t := *g.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

func (s *MemoryStore) ListGoals(_ context.Context, userID string, year *int) ([]goal.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []goal.Goal{}
	for _, id := range s.order {
		g := s.goals[id]
		if g.UserID != userID || (year != nil && g.Year != *year) {
			continue
		}
		out = append(out, clone(g))
	}
	slices.SortStableFunc(out, func(a, b goal.Goal) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetGoal(_ context.Context, userID, id string) (goal.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return goal.Goal{}, ErrNotFound
	}
	return clone(g), nil
}

func (s *MemoryStore) CreateGoal(_ context.Context, g *goal.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	for i := range g.Subtasks {
		g.Subtasks[i].GoalID = g.ID
		if g.Subtasks[i].ID == "" {
			g.Subtasks[i].ID = uuid.NewString()
		}
	}
	stored := clone(g)
	s.goals[g.ID] = &stored
	s.order = append(s.order, g.ID)
	return nil
}

func (s *MemoryStore) UpdateGoal(_ context.Context, g *goal.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.goals[g.ID]
	if !ok || cur.UserID != g.UserID {
		return ErrNotFound
	}
	subtasks := cur.Subtasks
	updated := clone(g)
	updated.Subtasks = subtasks
	s.goals[g.ID] = &updated
	return nil
}

func (s *MemoryStore) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return ErrNotFound
	}
	delete(s.goals, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	return nil
}

// findSubtask returns the owning goal and index of a subtask. Caller holds mu.
func (s *MemoryStore) findSubtask(id string) (*goal.Goal, int) {
	for _, g := range s.goals {
		for i := range g.Subtasks {
			if g.Subtasks[i].ID == id {
				return g, i
			}
		}
	}
	return nil, -1
}

func (s *MemoryStore) GetSubtask(_ context.Context, userID, id string) (goal.Subtask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, i := s.findSubtask(id)
	if g == nil || g.UserID != userID {
		return goal.Subtask{}, ErrNotFound
	}
	return g.Subtasks[i], nil
}

func (s *MemoryStore) CreateSubtask(_ context.Context, st *goal.Subtask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[st.GoalID]
	if !ok {
		return ErrNotFound
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	g.Subtasks = append(g.Subtasks, *st)
	return nil
}

func (s *MemoryStore) UpdateSubtask(_ context.Context, st goal.Subtask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, i := s.findSubtask(st.ID)
	if g == nil {
		return ErrNotFound
	}
	g.Subtasks[i].Title = st.Title
	g.Subtasks[i].Completed = st.Completed
	return nil
}

func (s *MemoryStore) DeleteSubtask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, i := s.findSubtask(id)
	if g == nil {
		return ErrNotFound
	}
	g.Subtasks = slices.Delete(g.Subtasks, i, i+1)
	return nil
}

func (s *MemoryStore) UpdateGoalAndSubtasks(_ context.Context, g *goal.Goal, subtasksCompleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.goals[g.ID]
	if !ok || cur.UserID != g.UserID {
		return ErrNotFound
	}
	updated := clone(g)
	updated.Subtasks = clone(cur).Subtasks
	for i := range updated.Subtasks {
		updated.Subtasks[i].Completed = subtasksCompleted
	}
	s.goals[g.ID] = &updated
	return nil
}
