// Package service implements the goal operations on top of the store, the
// analyzer and the predictor. Every operation is scoped to one user; goals of
// other users are reported as not found.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/analyzer"
	"github.com/sbenjam1n/goaltrack/internal/complexity"
	"github.com/sbenjam1n/goaltrack/internal/goal"
	"github.com/sbenjam1n/goaltrack/internal/modelstore"
	"github.com/sbenjam1n/goaltrack/internal/predictor"
	"github.com/sbenjam1n/goaltrack/internal/store"
	"github.com/sbenjam1n/goaltrack/internal/validator"
	"go.uber.org/zap"
)

// Returned for goals and subtasks that do not exist or belong to someone else.
var (
	ErrNotFound        = errors.New("goal not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
)

// Risk thresholds used by the insights summary.
const (
	HighRiskBelow = 0.4
	OnTrackAbove  = 0.7
)

// GoalInput is the payload for creating a goal.
type GoalInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Year        int            `json:"year"`
	Completed   *bool          `json:"is_completed,omitempty"`
	Subtasks    []SubtaskInput `json:"subtasks,omitempty"`
}

// SubtaskInput describes a subtask in a create or update payload. An ID that
// matches an existing subtask updates it; anything else creates a new one.
type SubtaskInput struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Completed bool   `json:"is_completed"`
}

// GoalPatch is a partial goal update. Nil fields are left unchanged. A non-nil
// Subtasks replaces the subtask list.
type GoalPatch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Year        *int            `json:"year,omitempty"`
	Completed   *bool           `json:"is_completed,omitempty"`
	Subtasks    *[]SubtaskInput `json:"subtasks,omitempty"`
}

// SubtaskPatch is a partial subtask update.
type SubtaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"is_completed,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithScorer sets the complexity scorer shared by analysis and prediction.
func WithScorer(scorer *complexity.Scorer) Option {
	return func(s *Service) { s.scorer = scorer }
}

// Service is the goal application layer.
type Service struct {
	store     store.Store
	artifacts modelstore.Store
	log       *zap.Logger
	now       func() time.Time
	scorer    *complexity.Scorer
	validate  *validator.Validator
	analyzer  *analyzer.Analyzer
	predictor *predictor.Predictor

	models atomic.Pointer[predictor.Models]
	loadMu sync.Mutex
}

// New creates a Service.
func New(st store.Store, artifacts modelstore.Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:     st,
		artifacts: artifacts,
		log:       log.Named("service"),
		now:       time.Now,
		validate:  validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scorer == nil {
		s.scorer = complexity.Default()
	}
	s.analyzer = analyzer.New(log, s.scorer)
	s.predictor = predictor.New(log, s.scorer)
	return s
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ListGoals returns the user's goals, newest first, optionally for one year.
func (s *Service) ListGoals(ctx context.Context, userID string, year *int) ([]goal.Goal, error) {
	goals, err := s.store.ListGoals(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// GetGoal returns one goal with its subtasks.
func (s *Service) GetGoal(ctx context.Context, userID, id string) (goal.Goal, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return goal.Goal{}, s.mapErr(err)
	}
	return g, nil
}

// CreateGoal validates and stores a new goal. Unless the input sets the
// completion flag, completion is derived from the subtasks.
func (s *Service) CreateGoal(ctx context.Context, userID string, in GoalInput) (goal.Goal, error) {
	now := s.now()
	g := goal.Goal{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Year:        in.Year,
		CreatedAt:   now,
		UpdatedAt:   now,
		Subtasks:    []goal.Subtask{},
	}
	for _, st := range in.Subtasks {
		g.Subtasks = append(g.Subtasks, goal.Subtask{Title: st.Title, Completed: st.Completed})
	}
	if err := s.validate.Goal(g).Err(); err != nil {
		return goal.Goal{}, err
	}

	if in.Completed != nil {
		g.SetCompleted(*in.Completed, now)
	} else {
		g.Reconcile(now)
	}

	if err := s.store.CreateGoal(ctx, &g); err != nil {
		return goal.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	s.log.Debug("goal created", zap.String("goal_id", g.ID), zap.Int("subtasks", len(g.Subtasks)))
	return g, nil
}

// UpdateGoal applies a partial update. A provided subtask list is synchronized
// with the stored one: matching ids are updated, new entries are created and
// missing ones deleted. Completion is reconciled unless the patch sets it.
func (s *Service) UpdateGoal(ctx context.Context, userID, id string, p GoalPatch) (goal.Goal, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return goal.Goal{}, s.mapErr(err)
	}
	now := s.now()

	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Year != nil {
		g.Year = *p.Year
	}

	var removed []string
	if p.Subtasks != nil {
		g.Subtasks, removed = mergeSubtasks(g.ID, g.Subtasks, *p.Subtasks)
	}
	if err := s.validate.Goal(g).Err(); err != nil {
		return goal.Goal{}, err
	}

	if p.Subtasks != nil {
		if err := s.syncSubtasks(ctx, g.Subtasks, removed); err != nil {
			return goal.Goal{}, err
		}
	}

	if p.Completed != nil {
		g.SetCompleted(*p.Completed, now)
	} else {
		g.Reconcile(now)
	}
	g.UpdatedAt = now
	if err := s.store.UpdateGoal(ctx, &g); err != nil {
		return goal.Goal{}, fmt.Errorf("update goal: %w", s.mapErr(err))
	}
	return g, nil
}

// mergeSubtasks computes the subtask list after applying in to current. New
// subtasks come back with an empty ID. The second result lists the ids of
// current subtasks that are no longer present.
func mergeSubtasks(goalID string, current []goal.Subtask, in []SubtaskInput) ([]goal.Subtask, []string) {
	existing := make(map[string]bool, len(current))
	for _, st := range current {
		existing[st.ID] = true
	}

	kept := make(map[string]bool, len(in))
	merged := make([]goal.Subtask, 0, len(in))
	for _, st := range in {
		next := goal.Subtask{GoalID: goalID, Title: st.Title, Completed: st.Completed}
		if st.ID != "" && existing[st.ID] && !kept[st.ID] {
			next.ID = st.ID
			kept[st.ID] = true
		}
		merged = append(merged, next)
	}

	var removed []string
	for _, st := range current {
		if !kept[st.ID] {
			removed = append(removed, st.ID)
		}
	}
	return merged, removed
}

func (s *Service) syncSubtasks(ctx context.Context, subtasks []goal.Subtask, removed []string) error {
	for i := range subtasks {
		st := &subtasks[i]
		if st.ID == "" {
			if err := s.store.CreateSubtask(ctx, st); err != nil {
				return fmt.Errorf("create subtask: %w", err)
			}
			continue
		}
		if err := s.store.UpdateSubtask(ctx, *st); err != nil {
			return fmt.Errorf("update subtask %s: %w", st.ID, err)
		}
	}
	for _, id := range removed {
		if err := s.store.DeleteSubtask(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete subtask %s: %w", id, err)
		}
	}
	return nil
}

// DeleteGoal removes a goal and its subtasks.
func (s *Service) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return s.mapErr(err)
	}
	return nil
}

// ToggleCompletion flips a goal's completion flag. Un-completing a goal also
// resets all of its subtasks.
func (s *Service) ToggleCompletion(ctx context.Context, userID, id string) (goal.Goal, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return goal.Goal{}, s.mapErr(err)
	}
	now := s.now()
	cascaded := g.Toggle(now)
	g.UpdatedAt = now

	if cascaded {
		err = s.store.UpdateGoalAndSubtasks(ctx, &g, false)
	} else {
		err = s.store.UpdateGoal(ctx, &g)
	}
	if err != nil {
		return goal.Goal{}, fmt.Errorf("toggle goal: %w", s.mapErr(err))
	}
	return g, nil
}

// AddSubtask attaches a new subtask to a goal and reconciles the goal.
func (s *Service) AddSubtask(ctx context.Context, userID, goalID string, in SubtaskInput) (goal.Subtask, error) {
	g, err := s.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return goal.Subtask{}, s.mapErr(err)
	}
	st := goal.Subtask{GoalID: g.ID, Title: in.Title, Completed: in.Completed}
	if err := s.validate.Subtask(st).Err(); err != nil {
		return goal.Subtask{}, err
	}
	if err := s.store.CreateSubtask(ctx, &st); err != nil {
		return goal.Subtask{}, fmt.Errorf("create subtask: %w", err)
	}
	g.Subtasks = append(g.Subtasks, st)
	if err := s.reconcile(ctx, &g); err != nil {
		return goal.Subtask{}, err
	}
	return st, nil
}

// UpdateSubtask applies a partial subtask update and reconciles its goal.
func (s *Service) UpdateSubtask(ctx context.Context, userID, id string, p SubtaskPatch) (goal.Subtask, error) {
	st, err := s.store.GetSubtask(ctx, userID, id)
	if err != nil {
		return goal.Subtask{}, s.subtaskErr(err)
	}
	if p.Title != nil {
		st.Title = *p.Title
	}
	if p.Completed != nil {
		st.Completed = *p.Completed
	}
	if err := s.validate.Subtask(st).Err(); err != nil {
		return goal.Subtask{}, err
	}
	if err := s.store.UpdateSubtask(ctx, st); err != nil {
		return goal.Subtask{}, fmt.Errorf("update subtask: %w", s.subtaskErr(err))
	}
	if err := s.reconcileGoal(ctx, userID, st.GoalID); err != nil {
		return goal.Subtask{}, err
	}
	return st, nil
}

// DeleteSubtask removes a subtask and reconciles its goal.
func (s *Service) DeleteSubtask(ctx context.Context, userID, id string) error {
	st, err := s.store.GetSubtask(ctx, userID, id)
	if err != nil {
		return s.subtaskErr(err)
	}
	if err := s.store.DeleteSubtask(ctx, id); err != nil {
		return fmt.Errorf("delete subtask: %w", s.subtaskErr(err))
	}
	return s.reconcileGoal(ctx, userID, st.GoalID)
}

func (s *Service) subtaskErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrSubtaskNotFound
	}
	return err
}

func (s *Service) reconcileGoal(ctx context.Context, userID, goalID string) error {
	g, err := s.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return fmt.Errorf("load goal %s: %w", goalID, s.mapErr(err))
	}
	return s.reconcile(ctx, &g)
}

func (s *Service) reconcile(ctx context.Context, g *goal.Goal) error {
	now := s.now()
	if g.Reconcile(now) {
		s.log.Debug("goal completion reconciled",
			zap.String("goal_id", g.ID), zap.Bool("completed", g.Completed))
	}
	g.UpdatedAt = now
	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return fmt.Errorf("update goal: %w", s.mapErr(err))
	}
	return nil
}

// Recommendations runs the heuristic analyzer over all of the user's goals.
func (s *Service) Recommendations(ctx context.Context, userID string) (analyzer.Report, error) {
	goals, err := s.ListGoals(ctx, userID, nil)
	if err != nil {
		return analyzer.Report{}, err
	}
	return s.analyzer.Analyze(goals, s.now()), nil
}

// TrainModels fits new models on the user's goals, persists them and makes
// them current. A *predictor.ErrInsufficientData is returned unchanged.
func (s *Service) TrainModels(ctx context.Context, userID string) (predictor.TrainingReport, error) {
	goals, err := s.ListGoals(ctx, userID, nil)
	if err != nil {
		return predictor.TrainingReport{}, err
	}
	models, report, err := s.predictor.Train(goals, s.now())
	if err != nil {
		return report, err
	}
	if err := predictor.SaveModels(ctx, s.artifacts, models); err != nil {
		return report, fmt.Errorf("save models: %w", err)
	}
	s.models.Store(models)
	return report, nil
}

// Models returns the current model handle, loading it from the artifact
// store on first use. Load failures are logged and yield an untrained handle
// that is not cached, so the next call tries again.
func (s *Service) Models(ctx context.Context) *predictor.Models {
	if m := s.models.Load(); m != nil {
		return m
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if m := s.models.Load(); m != nil {
		return m
	}

	m, err := predictor.LoadModels(ctx, s.artifacts)
	if err != nil {
		s.log.Warn("model load failed", zap.Error(err))
		return &predictor.Models{}
	}
	s.models.CompareAndSwap(nil, m)
	return s.models.Load()
}

// PredictGoal scores one goal against the current models.
func (s *Service) PredictGoal(ctx context.Context, userID, id string) (predictor.Prediction, error) {
	g, err := s.GetGoal(ctx, userID, id)
	if err != nil {
		return predictor.Prediction{}, err
	}
	history, err := s.ListGoals(ctx, userID, nil)
	if err != nil {
		return predictor.Prediction{}, err
	}
	return s.predictor.Predict(s.Models(ctx), g, history, s.now()), nil
}

// Summary counts active goals by predicted outlook.
type Summary struct {
	TotalActiveGoals int `json:"total_active_goals"`
	HighRiskGoals    int `json:"high_risk_goals"`
	OnTrackGoals     int `json:"on_track_goals"`
}

// Insights bundles predictions for active goals with best practices.
type Insights struct {
	Predictions   []predictor.Prediction  `json:"predictions"`
	BestPractices predictor.BestPractices `json:"best_practices"`
	Summary       Summary                 `json:"summary"`
}

// Insights predicts every active goal, lowest probability first, and adds
// the user's best practices. The optional year narrows the goal set.
func (s *Service) Insights(ctx context.Context, userID string, year *int) (Insights, error) {
	history, err := s.ListGoals(ctx, userID, nil)
	if err != nil {
		return Insights{}, err
	}
	scoped := history
	if year != nil {
		scoped = slices.DeleteFunc(slices.Clone(history), func(g goal.Goal) bool { return g.Year != *year })
	}

	models := s.Models(ctx)
	now := s.now()
	preds := []predictor.Prediction{}
	for _, g := range scoped {
		if g.Completed {
			continue
		}
		preds = append(preds, s.predictor.Predict(models, g, history, now))
	}
	slices.SortStableFunc(preds, func(a, b predictor.Prediction) int {
		switch {
		case a.CompletionProbability < b.CompletionProbability:
			return -1
		case a.CompletionProbability > b.CompletionProbability:
			return 1
		}
		return 0
	})

	summary := Summary{TotalActiveGoals: len(preds)}
	for _, p := range preds {
		if p.CompletionProbability < HighRiskBelow {
			summary.HighRiskGoals++
		}
		if p.CompletionProbability > OnTrackAbove {
			summary.OnTrackGoals++
		}
	}

	return Insights{
		Predictions:   preds,
		BestPractices: predictor.AnalyzeBestPractices(scoped, s.scorer),
		Summary:       summary,
	}, nil
}

// ModelStatus describes a persisted artifact.
type ModelStatus struct {
	Name    string     `json:"name"`
	Present bool       `json:"present"`
	Size    int64      `json:"size,omitempty"`
	SavedAt *time.Time `json:"saved_at,omitempty"`
}

// ModelStatus reports which model artifacts are persisted.
func (s *Service) ModelStatus(ctx context.Context) ([]ModelStatus, error) {
	out := make([]ModelStatus, 0, len(predictor.Artifacts))
	for _, name := range predictor.Artifacts {
		info, err := s.artifacts.Stat(ctx, name)
		switch {
		case errors.Is(err, modelstore.ErrNotFound):
			out = append(out, ModelStatus{Name: name})
		case err != nil:
			return nil, fmt.Errorf("stat %s: %w", name, err)
		default:
			saved := info.SavedAt
			out = append(out, ModelStatus{Name: name, Present: true, Size: info.Size, SavedAt: &saved})
		}
	}
	return out, nil
}
