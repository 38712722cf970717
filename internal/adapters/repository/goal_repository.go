package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/artcycle/core/internal/domain/entities"
	"github.com/artcycle/core/internal/infrastructure/database"
	"github.com/artcycle/core/internal/ports"
)

// GoalRepositoryImpl implements the GoalRepository interface
type GoalRepositoryImpl struct {
	db *database.DB
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *database.DB) ports.GoalRepository {
	return &GoalRepositoryImpl{db: db}
}

func (r *GoalRepositoryImpl) Create(ctx context.Context, goal *entities.Goal) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO goals (id, owner_id, title, duration_days, plan_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`

		if _, err := tx.ExecContext(ctx, query,
			goal.ID, goal.OwnerID, goal.Title, goal.DurationDays,
			goal.PlanType, goal.CreatedAt, goal.UpdatedAt,
		); err != nil {
			return fmt.Errorf("create goal: %w", err)
		}

		return insertSchedule(ctx, tx, goal.ID, goal.Schedule)
	})
}

func (r *GoalRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Goal, error) {
	query := `
		SELECT id, owner_id, title, duration_days, plan_type, created_at, started_at, updated_at
		FROM goals
		WHERE id = $1`

	var goal entities.Goal
	err := r.db.DB.GetContext(ctx, &goal, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrGoalNotFound
		}
		return nil, fmt.Errorf("get goal by id: %w", err)
	}

	schedule, err := r.loadSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	goal.Schedule = schedule

	return &goal, nil
}

func (r *GoalRepositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Goal, error) {
	query := `
		SELECT id, owner_id, title, duration_days, plan_type, created_at, started_at, updated_at
		FROM goals
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	var goals []*entities.Goal
	if err := r.db.DB.SelectContext(ctx, &goals, query, ownerID); err != nil {
		return nil, fmt.Errorf("list goals by owner: %w", err)
	}

	for _, goal := range goals {
		schedule, err := r.loadSchedule(ctx, goal.ID)
		if err != nil {
			return nil, err
		}
		goal.Schedule = schedule
	}

	return goals, nil
}

func (r *GoalRepositoryImpl) Update(ctx context.Context, goal *entities.Goal) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE goals
			SET title = $2, updated_at = $3
			WHERE id = $1`

		result, err := tx.ExecContext(ctx, query, goal.ID, goal.Title, goal.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update goal: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update goal: %w", err)
		}
		if rows == 0 {
			return entities.ErrGoalNotFound
		}

		// Schedule edits replace the whole schedule; entry rows cascade
		// their tasks.
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE goal_id = $1`, goal.ID); err != nil {
			return fmt.Errorf("clear schedule: %w", err)
		}

		return insertSchedule(ctx, tx, goal.ID, goal.Schedule)
	})
}

func (r *GoalRepositoryImpl) SetStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	query := `
		UPDATE goals
		SET started_at = $2, updated_at = $2
		WHERE id = $1 AND started_at IS NULL`

	result, err := r.db.DB.ExecContext(ctx, query, id, startedAt)
	if err != nil {
		return fmt.Errorf("start goal: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("start goal: %w", err)
	}
	if rows == 0 {
		return entities.ErrGoalAlreadyStarted
	}

	return nil
}

func (r *GoalRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	// Schedule, check-ins and task completions cascade via foreign keys.
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if rows == 0 {
		return entities.ErrGoalNotFound
	}

	return nil
}

func (r *GoalRepositoryImpl) loadSchedule(ctx context.Context, goalID uuid.UUID) ([]entities.ScheduleEntry, error) {
	entryQuery := `
		SELECT day_index
		FROM schedule_entries
		WHERE goal_id = $1
		ORDER BY day_index`

	var dayIndexes []int
	if err := r.db.DB.SelectContext(ctx, &dayIndexes, entryQuery, goalID); err != nil {
		return nil, fmt.Errorf("load schedule entries: %w", err)
	}

	taskQuery := `
		SELECT day_index, task_id, title, subtitle
		FROM schedule_tasks
		WHERE goal_id = $1
		ORDER BY day_index, position`

	var taskRows []struct {
		DayIndex int     `db:"day_index"`
		TaskID   string  `db:"task_id"`
		Title    string  `db:"title"`
		Subtitle *string `db:"subtitle"`
	}
	if err := r.db.DB.SelectContext(ctx, &taskRows, taskQuery, goalID); err != nil {
		return nil, fmt.Errorf("load schedule tasks: %w", err)
	}

	tasksByDay := map[int][]entities.Task{}
	for _, row := range taskRows {
		tasksByDay[row.DayIndex] = append(tasksByDay[row.DayIndex], entities.Task{
			TaskID:   row.TaskID,
			Title:    row.Title,
			Subtitle: row.Subtitle,
		})
	}

	schedule := make([]entities.ScheduleEntry, 0, len(dayIndexes))
	for _, dayIndex := range dayIndexes {
		schedule = append(schedule, entities.ScheduleEntry{
			DayIndex: dayIndex,
			Tasks:    tasksByDay[dayIndex],
		})
	}

	return schedule, nil
}

func insertSchedule(ctx context.Context, tx *sqlx.Tx, goalID uuid.UUID, schedule []entities.ScheduleEntry) error {
	for _, entry := range schedule {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_entries (goal_id, day_index) VALUES ($1, $2)`,
			goalID, entry.DayIndex,
		); err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}

		for position, task := range entry.Tasks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schedule_tasks (goal_id, day_index, position, task_id, title, subtitle)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				goalID, entry.DayIndex, position, task.TaskID, task.Title, task.Subtitle,
			); err != nil {
				return fmt.Errorf("insert schedule task: %w", err)
			}
		}
	}

	return nil
}
