package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/goal"
	"github.com/sbenjam1n/goaltrack/internal/modelstore"
	"github.com/sbenjam1n/goaltrack/internal/predictor"
	"github.com/sbenjam1n/goaltrack/internal/store"
	"github.com/sbenjam1n/goaltrack/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const user = "alice"

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	store     *store.MemoryStore
	artifacts modelstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	artifacts := modelstore.NewFileStore(t.TempDir())
	svc := New(st, artifacts, zaptest.NewLogger(t), WithClock(func() time.Time { return now }))
	return &fixture{svc: svc, store: st, artifacts: artifacts}
}

func ptr[T any](v T) *T { return &v }

func TestCreateGoalReconciles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	done, err := f.svc.CreateGoal(ctx, user, GoalInput{
		Title: "Paint the fence",
		Year:  2025,
		Subtasks: []SubtaskInput{
			{Title: "Buy paint", Completed: true},
			{Title: "Paint", Completed: true},
		},
	})
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, now, *done.CompletedAt)
	for _, st := range done.Subtasks {
		assert.NotEmpty(t, st.ID)
		assert.Equal(t, done.ID, st.GoalID)
	}

	bare, err := f.svc.CreateGoal(ctx, user, GoalInput{Title: "Read more", Year: 2025})
	require.NoError(t, err)
	assert.False(t, bare.Completed, "a goal without subtasks is not completed by reconciliation")

	explicit, err := f.svc.CreateGoal(ctx, user, GoalInput{Title: "Already done", Year: 2025, Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, explicit.Completed)
	assert.NotNil(t, explicit.CompletedAt)
}

func TestCreateGoalValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateGoal(context.Background(), user, GoalInput{Title: "", Year: 1200})
	require.Error(t, err)
	assert.True(t, validator.IsValidation(err))

	var ve *validator.Error
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Result.Details, 2)

	goals, _ := f.svc.ListGoals(context.Background(), user, nil)
	assert.Empty(t, goals, "invalid goals are not stored")
}

func TestGoalsAreScopedToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.svc.CreateGoal(ctx, user, GoalInput{Title: "Private", Year: 2025, Subtasks: []SubtaskInput{{Title: "step"}}})
	require.NoError(t, err)

	_, err = f.svc.GetGoal(ctx, "mallory", g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.ToggleCompletion(ctx, "mallory", g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteGoal(ctx, "mallory", g.ID), ErrNotFound)
	_, err = f.svc.UpdateSubtask(ctx, "mallory", g.Subtasks[0].ID, SubtaskPatch{Completed: ptr(true)})
	assert.ErrorIs(t, err, ErrSubtaskNotFound)

	mine, _ := f.svc.ListGoals(ctx, "mallory", nil)
	assert.Empty(t, mine)
}

func TestCompletingLastSubtaskCompletesGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.svc.CreateGoal(ctx, user, GoalInput{
		Title: "Move house",
		Year:  2025,
		Subtasks: []SubtaskInput{
			{Title: "Pack", Completed: true},
			{Title: "Rent van", Completed: true},
			{Title: "Unpack"},
		},
	})
	require.NoError(t, err)
	require.False(t, g.Completed)

	_, err = f.svc.UpdateSubtask(ctx, user, g.Subtasks[2].ID, SubtaskPatch{Completed: ptr(true)})
	require.NoError(t, err)
	g, _ = f.svc.GetGoal(ctx, user, g.ID)
	assert.True(t, g.Completed)
	require.NotNil(t, g.CompletedAt)
	assert.Equal(t, now, *g.CompletedAt)

	added, err := f.svc.AddSubtask(ctx, user, g.ID, SubtaskInput{Title: "Throw a party"})
	require.NoError(t, err)
	g, _ = f.svc.GetGoal(ctx, user, g.ID)
	assert.False(t, g.Completed, "a new open subtask reopens the goal")
	assert.Nil(t, g.CompletedAt)

	require.NoError(t, f.svc.DeleteSubtask(ctx, user, added.ID))
	g, _ = f.svc.GetGoal(ctx, user, g.ID)
	assert.True(t, g.Completed)
	assert.Len(t, g.Subtasks, 3)

	_, err = f.svc.AddSubtask(ctx, user, g.ID, SubtaskInput{Title: "  "})
	assert.True(t, validator.IsValidation(err))
}

func TestDeletingOnlySubtaskReopensGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.svc.CreateGoal(ctx, user, GoalInput{
		Title:    "Read a book",
		Year:     2025,
		Subtasks: []SubtaskInput{{Title: "Pick one", Completed: true}},
	})
	require.NoError(t, err)
	require.True(t, g.Completed)
	require.NotNil(t, g.CompletedAt)

	require.NoError(t, f.svc.DeleteSubtask(ctx, user, g.Subtasks[0].ID))
	g, err = f.svc.GetGoal(ctx, user, g.ID)
	require.NoError(t, err)
	assert.Empty(t, g.Subtasks)
	assert.False(t, g.Completed, "a goal without subtasks is not complete after a subtask change")
	assert.Nil(t, g.CompletedAt)
}

func TestToggleCompletionCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.svc.CreateGoal(ctx, user, GoalInput{
		Title:    "Learn Go",
		Year:     2025,
		Subtasks: []SubtaskInput{{Title: "Tour", Completed: true}, {Title: "Book", Completed: true}},
	})
	require.NoError(t, err)
	require.True(t, g.Completed)

	g, err = f.svc.ToggleCompletion(ctx, user, g.ID)
	require.NoError(t, err)
	assert.False(t, g.Completed)
	assert.Nil(t, g.CompletedAt)

	stored, _ := f.svc.GetGoal(ctx, user, g.ID)
	assert.Equal(t, 0, stored.CompletedSubtasks())

	g, err = f.svc.ToggleCompletion(ctx, user, g.ID)
	require.NoError(t, err)
	assert.True(t, g.Completed, "toggling on does not consult subtasks")
	stored, _ = f.svc.GetGoal(ctx, user, g.ID)
	assert.Equal(t, 0, stored.CompletedSubtasks())
}

// brokenCascade fails every toggle that has to reset subtasks.
type brokenCascade struct {
	*store.MemoryStore
}

func (brokenCascade) UpdateGoalAndSubtasks(context.Context, *goal.Goal, bool) error {
	return errors.New("connection reset")
}

func TestToggleCompletionIsAtomic(t *testing.T) {
	st := store.NewMemoryStore()
	svc := New(brokenCascade{st}, modelstore.NewFileStore(t.TempDir()), zaptest.NewLogger(t),
		WithClock(func() time.Time { return now }))
	ctx := context.Background()
	g, err := svc.CreateGoal(ctx, user, GoalInput{
		Title:    "Learn Go",
		Year:     2025,
		Subtasks: []SubtaskInput{{Title: "Tour", Completed: true}},
	})
	require.NoError(t, err)
	require.True(t, g.Completed)

	_, err = svc.ToggleCompletion(ctx, user, g.ID)
	require.Error(t, err)

	stored, err := svc.GetGoal(ctx, user, g.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed, "a failed cascade leaves the goal as it was")
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, 1, stored.CompletedSubtasks())
}

func TestUpdateGoalSyncsSubtasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.svc.CreateGoal(ctx, user, GoalInput{
		Title:    "Plan trip",
		Year:     2025,
		Subtasks: []SubtaskInput{{Title: "Book flights"}, {Title: "Book hotel"}},
	})
	require.NoError(t, err)
	keep, drop := g.Subtasks[0], g.Subtasks[1]

	updated, err := f.svc.UpdateGoal(ctx, user, g.ID, GoalPatch{
		Title: ptr("Plan summer trip"),
		Subtasks: &[]SubtaskInput{
			{ID: keep.ID, Title: "Book flights", Completed: true},
			{Title: "Pack", Completed: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Plan summer trip", updated.Title)
	assert.True(t, updated.Completed, "all remaining subtasks are done")

	stored, _ := f.svc.GetGoal(ctx, user, g.ID)
	require.Len(t, stored.Subtasks, 2)
	var titles []string
	for _, st := range stored.Subtasks {
		titles = append(titles, st.Title)
		assert.NotEqual(t, drop.ID, st.ID)
	}
	assert.ElementsMatch(t, []string{"Book flights", "Pack"}, titles)
	_, err = f.store.GetSubtask(ctx, user, drop.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateGoalExplicitCompletionSkipsReconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.svc.CreateGoal(ctx, user, GoalInput{
		Title:    "Write novel",
		Year:     2025,
		Subtasks: []SubtaskInput{{Title: "Outline"}},
	})
	require.NoError(t, err)

	g, err = f.svc.UpdateGoal(ctx, user, g.ID, GoalPatch{Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, g.Completed)
	require.NotNil(t, g.CompletedAt)

	g, err = f.svc.UpdateGoal(ctx, user, g.ID, GoalPatch{Description: ptr("draft")})
	require.NoError(t, err)
	assert.False(t, g.Completed, "a field edit reconciles against the open subtask")

	_, err = f.svc.UpdateGoal(ctx, user, g.ID, GoalPatch{Year: ptr(99999)})
	assert.True(t, validator.IsValidation(err))
}

func TestRecommendations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := range 3 {
		_, err := f.svc.CreateGoal(ctx, user, GoalInput{Title: fmt.Sprintf("Goal %d", i), Year: 2025})
		require.NoError(t, err)
	}

	report, err := f.svc.Recommendations(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Metrics.TotalGoals)
	assert.Equal(t, 3, report.Metrics.ActiveGoals)
	assert.Equal(t, now, report.AnalysisTimestamp)
	assert.NotNil(t, report.Recommendations)
}

// seedHistory stores 15 finished and 15 open goals for the user.
func seedHistory(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	for i := range 15 {
		created := now.AddDate(0, -6, -i)
		completed := created.Add(time.Duration(10+3*i) * 24 * time.Hour)
		require.NoError(t, st.CreateGoal(ctx, &goal.Goal{
			UserID:      user,
			Title:       "Finish the report",
			Year:        created.Year(),
			Completed:   true,
			CreatedAt:   created,
			CompletedAt: &completed,
			UpdatedAt:   completed,
			Subtasks:    []goal.Subtask{{Title: "draft", Completed: true}},
		}))
	}
	for i := range 15 {
		created := now.AddDate(0, -2, -i)
		require.NoError(t, st.CreateGoal(ctx, &goal.Goal{
			UserID:    user,
			Title:     "Improve my fitness",
			Year:      2025,
			CreatedAt: created,
			UpdatedAt: created,
			Subtasks:  []goal.Subtask{{Title: "run"}},
		}))
	}
}

func TestTrainNeedsTenGoals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := range 9 {
		_, err := f.svc.CreateGoal(ctx, user, GoalInput{Title: fmt.Sprintf("Goal %d", i), Year: 2025})
		require.NoError(t, err)
	}

	_, err := f.svc.TrainModels(ctx, user)
	var insufficient *predictor.ErrInsufficientData
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 9, insufficient.Actual)

	status, err := f.svc.ModelStatus(ctx)
	require.NoError(t, err)
	for _, s := range status {
		assert.False(t, s.Present, s.Name)
	}
}

func TestPredictWithoutModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.svc.CreateGoal(ctx, user, GoalInput{Title: "Learn piano", Year: 2025})
	require.NoError(t, err)

	pred, err := f.svc.PredictGoal(ctx, user, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.5, pred.CompletionProbability)
	assert.Equal(t, "low", pred.ConfidenceLevel)
	assert.Equal(t, predictor.ErrTextNotTrained, pred.Error)

	_, err = f.svc.PredictGoal(ctx, user, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrainPersistsAndReloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedHistory(t, f.store)

	report, err := f.svc.TrainModels(ctx, user)
	require.NoError(t, err)
	assert.True(t, report.CompletionModelTrained)
	assert.Equal(t, 30, report.TrainingSamples)
	assert.True(t, f.svc.Models(ctx).Trained())

	status, err := f.svc.ModelStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status, len(predictor.Artifacts))
	for _, s := range status {
		assert.True(t, s.Present, s.Name)
		assert.Positive(t, s.Size)
	}

	// A fresh service over the same artifacts picks the models up lazily.
	fresh := New(f.store, f.artifacts, nil, WithClock(func() time.Time { return now }))
	assert.True(t, fresh.Models(ctx).Trained())

	goals, _ := fresh.ListGoals(ctx, user, nil)
	var open goal.Goal
	for _, g := range goals {
		if !g.Completed {
			open = g
			break
		}
	}
	pred, err := fresh.PredictGoal(ctx, user, open.ID)
	require.NoError(t, err)
	assert.Empty(t, pred.Error)
	assert.GreaterOrEqual(t, pred.CompletionProbability, 0.0)
	assert.LessOrEqual(t, pred.CompletionProbability, 1.0)
}

func TestRetrainOnOneOutcomeDropsOldModels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedHistory(t, f.store)
	_, err := f.svc.TrainModels(ctx, user)
	require.NoError(t, err)

	for i := range 12 {
		_, err := f.svc.CreateGoal(ctx, "bob", GoalInput{Title: fmt.Sprintf("Open goal %d", i), Year: 2025})
		require.NoError(t, err)
	}
	report, err := f.svc.TrainModels(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, report.CompletionModelTrained)
	assert.False(t, f.svc.Models(ctx).Trained())

	restarted := New(f.store, f.artifacts, nil, WithClock(func() time.Time { return now }))
	assert.False(t, restarted.Models(ctx).Trained(), "no classifier survives from the earlier fit")

	status, err := restarted.ModelStatus(ctx)
	require.NoError(t, err)
	present := map[string]bool{}
	for _, s := range status {
		present[s.Name] = s.Present
	}
	assert.Equal(t, map[string]bool{
		predictor.ArtifactCompletionModel: false,
		predictor.ArtifactScaler:          true,
		predictor.ArtifactTimeModel:       false,
	}, present)
}

func TestInsights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedHistory(t, f.store)
	_, err := f.svc.TrainModels(ctx, user)
	require.NoError(t, err)

	ins, err := f.svc.Insights(ctx, user, nil)
	require.NoError(t, err)
	assert.Equal(t, 15, ins.Summary.TotalActiveGoals)
	require.Len(t, ins.Predictions, 15)
	for i := 1; i < len(ins.Predictions); i++ {
		assert.LessOrEqual(t, ins.Predictions[i-1].CompletionProbability, ins.Predictions[i].CompletionProbability)
	}
	var high, onTrack int
	for _, p := range ins.Predictions {
		if p.CompletionProbability < HighRiskBelow {
			high++
		}
		if p.CompletionProbability > OnTrackAbove {
			onTrack++
		}
	}
	assert.Equal(t, high, ins.Summary.HighRiskGoals)
	assert.Equal(t, onTrack, ins.Summary.OnTrackGoals)
	assert.Empty(t, ins.BestPractices.Message, "15 finished goals are enough for best practices")

	none, err := f.svc.Insights(ctx, user, ptr(1999))
	require.NoError(t, err)
	assert.Empty(t, none.Predictions)
	assert.Equal(t, Summary{}, none.Summary)
}
