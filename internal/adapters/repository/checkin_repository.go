package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/artcycle/core/internal/domain/dates"
	"github.com/artcycle/core/internal/domain/entities"
	"github.com/artcycle/core/internal/infrastructure/database"
	"github.com/artcycle/core/internal/ports"
)

// CheckInRepositoryImpl implements the CheckInRepository interface
type CheckInRepositoryImpl struct {
	db *database.DB
}

// NewCheckInRepository creates a new check-in repository
func NewCheckInRepository(db *database.DB) ports.CheckInRepository {
	return &CheckInRepositoryImpl{db: db}
}

// Submit records the completion of one day. The submitted date string is
// cast to a date by the database, and the stored value is what comes
// back as the confirmed date; callers key their local state off that,
// not off what they sent. Re-submitting the same (goal, date) updates
// the note instead of creating a second row.
func (r *CheckInRepositoryImpl) Submit(ctx context.Context, sub ports.CheckInSubmission) (*entities.CheckInRecord, error) {
	record := &entities.CheckInRecord{
		GoalID:       sub.GoalID,
		Note:         sub.Note,
		TaskEvidence: sub.TaskEvidence,
	}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO checkins (goal_id, checked_date, checked_at, note)
			VALUES ($1, $2::date, NOW(), $3)
			ON CONFLICT (goal_id, checked_date)
			DO UPDATE SET note = COALESCE(EXCLUDED.note, checkins.note)
			RETURNING checked_date::text, checked_at`

		var confirmedDate string
		if err := tx.QueryRowContext(ctx, query, sub.GoalID, sub.Date, sub.Note).
			Scan(&confirmedDate, &record.CheckedAt); err != nil {
			return fmt.Errorf("submit check-in: %w", err)
		}

		key, err := dates.Parse(confirmedDate)
		if err != nil {
			return fmt.Errorf("confirmed date %q: %w", confirmedDate, err)
		}
		record.CheckedDate = key

		for taskID, evidenceID := range sub.TaskEvidence {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO task_completions (id, goal_id, task_id, completed_date, evidence_id, created_at)
				 VALUES ($1, $2, $3, $4::date, $5, NOW())
				 ON CONFLICT (goal_id, task_id, completed_date) DO NOTHING`,
				uuid.NewString(), sub.GoalID, taskID, sub.Date, evidenceID,
			); err != nil {
				return fmt.Errorf("record task completion: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *CheckInRepositoryImpl) ListByGoal(ctx context.Context, goalID uuid.UUID) ([]*entities.CheckInRecord, error) {
	query := `
		SELECT goal_id, checked_date::text AS checked_date, checked_at, note
		FROM checkins
		WHERE goal_id = $1
		ORDER BY checked_date`

	rows, err := r.db.DB.QueryxContext(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	var records []*entities.CheckInRecord
	for rows.Next() {
		var (
			record  entities.CheckInRecord
			rawDate string
		)
		if err := rows.Scan(&record.GoalID, &rawDate, &record.CheckedAt, &record.Note); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		key, err := dates.Parse(rawDate)
		if err != nil {
			return nil, fmt.Errorf("check-in date %q: %w", rawDate, err)
		}
		record.CheckedDate = key
		records = append(records, &record)
	}

	return records, rows.Err()
}
