package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sbenjam1n/goaltrack/internal/goal"
)

var goalColumns = []string{
	"id::text", "user_id", "title", "description", "year",
	"is_completed", "created_at", "completed_at", "updated_at",
}

var subtaskColumns = []string{"id::text", "goal_id::text", "title", "is_completed"}

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPostgresStore creates a PostgresStore on an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool, sb: statementBuilder()}
}

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func listGoalsQuery(sb squirrel.StatementBuilderType, userID string, year *int) squirrel.SelectBuilder {
	q := sb.Select(goalColumns...).From("goals").Where(squirrel.Eq{"user_id": userID})
	if year != nil {
		q = q.Where(squirrel.Eq{"year": *year})
	}
	return q.OrderBy("created_at DESC", "id")
}

func subtasksQuery(sb squirrel.StatementBuilderType, goalIDs []string) squirrel.SelectBuilder {
	return sb.Select(subtaskColumns...).
		From("subtasks").
		Where(squirrel.Eq{"goal_id": goalIDs}).
		OrderBy("created_at", "id")
}

func getSubtaskQuery(sb squirrel.StatementBuilderType, userID, id string) squirrel.SelectBuilder {
	return sb.Select("s.id::text", "s.goal_id::text", "s.title", "s.is_completed").
		From("subtasks s").
		Join("goals g ON g.id = s.goal_id").
		Where(squirrel.Eq{"s.id": id, "g.user_id": userID})
}

func scanGoal(row pgx.Row) (goal.Goal, error) {
	var g goal.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Year,
		&g.Completed, &g.CreatedAt, &g.CompletedAt, &g.UpdatedAt)
	return g, err
}

// ListGoals returns a user's goals, newest first, optionally for one year.
func (s *PostgresStore) ListGoals(ctx context.Context, userID string, year *int) ([]goal.Goal, error) {
	sql, args, err := listGoalsQuery(s.sb, userID, year).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	goals := []goal.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	if err := s.attachSubtasks(ctx, goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// GetGoal returns one of the user's goals.
func (s *PostgresStore) GetGoal(ctx context.Context, userID, id string) (goal.Goal, error) {
	if uuid.Validate(id) != nil {
		return goal.Goal{}, ErrNotFound
	}
	sql, args, err := s.sb.Select(goalColumns...).
		From("goals").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return goal.Goal{}, fmt.Errorf("build get query: %w", err)
	}

	g, err := scanGoal(s.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return goal.Goal{}, ErrNotFound
	}
	if err != nil {
		return goal.Goal{}, fmt.Errorf("get goal %s: %w", id, err)
	}

	goals := []goal.Goal{g}
	if err := s.attachSubtasks(ctx, goals); err != nil {
		return goal.Goal{}, err
	}
	return goals[0], nil
}

func (s *PostgresStore) attachSubtasks(ctx context.Context, goals []goal.Goal) error {
	if len(goals) == 0 {
		return nil
	}
	ids := make([]string, len(goals))
	index := make(map[string]int, len(goals))
	for i := range goals {
		ids[i] = goals[i].ID
		index[goals[i].ID] = i
		goals[i].Subtasks = []goal.Subtask{}
	}

	sql, args, err := subtasksQuery(s.sb, ids).ToSql()
	if err != nil {
		return fmt.Errorf("build subtasks query: %w", err)
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("load subtasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st goal.Subtask
		if err := rows.Scan(&st.ID, &st.GoalID, &st.Title, &st.Completed); err != nil {
			return fmt.Errorf("scan subtask: %w", err)
		}
		i := index[st.GoalID]
		goals[i].Subtasks = append(goals[i].Subtasks, st)
	}
	return rows.Err()
}

// CreateGoal inserts a goal and its subtasks in one transaction.
func (s *PostgresStore) CreateGoal(ctx context.Context, g *goal.Goal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sql, args, err := s.sb.Insert("goals").
		Columns("id", "user_id", "title", "description", "year", "is_completed", "created_at", "completed_at", "updated_at").
		Values(g.ID, g.UserID, g.Title, g.Description, g.Year, g.Completed, g.CreatedAt, g.CompletedAt, g.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	for i := range g.Subtasks {
		st := &g.Subtasks[i]
		st.GoalID = g.ID
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		sql, args, err := s.insertSubtask(*st, g.CreatedAt.Add(time.Duration(i)*time.Microsecond)).ToSql()
		if err != nil {
			return fmt.Errorf("build subtask insert: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert subtask: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit goal: %w", err)
	}
	return nil
}

func (s *PostgresStore) insertSubtask(st goal.Subtask, createdAt time.Time) squirrel.InsertBuilder {
	return s.sb.Insert("subtasks").
		Columns("id", "goal_id", "title", "is_completed", "created_at").
		Values(st.ID, st.GoalID, st.Title, st.Completed, createdAt)
}

func updateGoalQuery(sb squirrel.StatementBuilderType, g *goal.Goal) squirrel.UpdateBuilder {
	return sb.Update("goals").
		SetMap(map[string]any{
			"title":        g.Title,
			"description":  g.Description,
			"year":         g.Year,
			"is_completed": g.Completed,
			"completed_at": g.CompletedAt,
			"updated_at":   g.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": g.ID, "user_id": g.UserID})
}

func setSubtasksQuery(sb squirrel.StatementBuilderType, goalID string, completed bool) squirrel.UpdateBuilder {
	return sb.Update("subtasks").
		Set("is_completed", completed).
		Where(squirrel.Eq{"goal_id": goalID})
}

// UpdateGoal writes the goal row. Subtasks are not touched.
func (s *PostgresStore) UpdateGoal(ctx context.Context, g *goal.Goal) error {
	sql, args, err := updateGoalQuery(s.sb, g).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return s.execOne(ctx, "update goal", sql, args)
}

// DeleteGoal removes a goal; its subtasks cascade.
func (s *PostgresStore) DeleteGoal(ctx context.Context, userID, id string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	sql, args, err := s.sb.Delete("goals").Where(squirrel.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	return s.execOne(ctx, "delete goal", sql, args)
}

// GetSubtask returns a subtask whose goal belongs to the user.
func (s *PostgresStore) GetSubtask(ctx context.Context, userID, id string) (goal.Subtask, error) {
	if uuid.Validate(id) != nil {
		return goal.Subtask{}, ErrNotFound
	}
	sql, args, err := getSubtaskQuery(s.sb, userID, id).ToSql()
	if err != nil {
		return goal.Subtask{}, fmt.Errorf("build subtask query: %w", err)
	}
	var st goal.Subtask
	err = s.db.QueryRow(ctx, sql, args...).Scan(&st.ID, &st.GoalID, &st.Title, &st.Completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return goal.Subtask{}, ErrNotFound
	}
	if err != nil {
		return goal.Subtask{}, fmt.Errorf("get subtask %s: %w", id, err)
	}
	return st, nil
}

// CreateSubtask inserts a subtask under an existing goal.
func (s *PostgresStore) CreateSubtask(ctx context.Context, st *goal.Subtask) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	sql, args, err := s.insertSubtask(*st, time.Now()).ToSql()
	if err != nil {
		return fmt.Errorf("build subtask insert: %w", err)
	}
	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert subtask: %w", err)
	}
	return nil
}

// UpdateSubtask writes a subtask's title and completion flag.
func (s *PostgresStore) UpdateSubtask(ctx context.Context, st goal.Subtask) error {
	sql, args, err := s.sb.Update("subtasks").
		Set("title", st.Title).
		Set("is_completed", st.Completed).
		Where(squirrel.Eq{"id": st.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build subtask update: %w", err)
	}
	return s.execOne(ctx, "update subtask", sql, args)
}

// DeleteSubtask removes a subtask.
func (s *PostgresStore) DeleteSubtask(ctx context.Context, id string) error {
	sql, args, err := s.sb.Delete("subtasks").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build subtask delete: %w", err)
	}
	return s.execOne(ctx, "delete subtask", sql, args)
}

// UpdateGoalAndSubtasks writes the goal row and sets every subtask's
// completion flag in one transaction.
func (s *PostgresStore) UpdateGoalAndSubtasks(ctx context.Context, g *goal.Goal, subtasksCompleted bool) error {
	goalSQL, goalArgs, err := updateGoalQuery(s.sb, g).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	subSQL, subArgs, err := setSubtasksQuery(s.sb, g.ID, subtasksCompleted).ToSql()
	if err != nil {
		return fmt.Errorf("build bulk update: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, goalSQL, goalArgs...)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, subSQL, subArgs...); err != nil {
		return fmt.Errorf("update subtasks of %s: %w", g.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit goal: %w", err)
	}
	return nil
}

func (s *PostgresStore) execOne(ctx context.Context, op, sql string, args []any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
