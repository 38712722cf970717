package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/artcycle/core/internal/domain/entities"
	"github.com/artcycle/core/internal/infrastructure/database"
	"github.com/artcycle/core/internal/ports"
)

// CompletionRepositoryImpl implements the CompletionRepository interface
type CompletionRepositoryImpl struct {
	db *database.DB
}

// NewCompletionRepository creates a new completion repository
func NewCompletionRepository(db *database.DB) ports.CompletionRepository {
	return &CompletionRepositoryImpl{db: db}
}

// FetchLedger reads the authoritative per-goal completion ledger: which
// tasks carry evidence per date, and when each date was checked in. Keys
// stay raw date strings; normalization is the reconciler's job.
func (r *CompletionRepositoryImpl) FetchLedger(ctx context.Context, goalID uuid.UUID) (*ports.CompletionLedger, error) {
	ledger := &ports.CompletionLedger{
		Completions:  map[string]map[string]entities.TaskCompletionRecord{},
		CheckinTimes: map[string]time.Time{},
	}

	completionQuery := `
		SELECT tc.id, tc.task_id, tc.completed_date::text AS completed_date, tc.created_at,
			COALESCE(a.title, '') AS artwork_title,
			COALESCE(a.uploaded_at, tc.created_at) AS artwork_uploaded_at,
			COALESCE(a.image_ref, '') AS artwork_image_ref
		FROM task_completions tc
		LEFT JOIN artworks a ON a.id = tc.evidence_id
		WHERE tc.goal_id = $1
		ORDER BY tc.completed_date, tc.task_id`

	rows, err := r.db.DB.QueryxContext(ctx, completionQuery, goalID)
	if err != nil {
		return nil, fmt.Errorf("fetch completion ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec     entities.TaskCompletionRecord
			rawDate string
		)
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rawDate, &rec.CreatedAt,
			&rec.Artwork.Title, &rec.Artwork.UploadedAt, &rec.Artwork.ImageRef); err != nil {
			return nil, fmt.Errorf("scan completion row: %w", err)
		}
		rec.GoalID = goalID

		perTask := ledger.Completions[rawDate]
		if perTask == nil {
			perTask = map[string]entities.TaskCompletionRecord{}
			ledger.Completions[rawDate] = perTask
		}
		perTask[rec.TaskID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch completion ledger: %w", err)
	}

	timesQuery := `
		SELECT checked_date::text AS checked_date, checked_at
		FROM checkins
		WHERE goal_id = $1`

	timeRows, err := r.db.DB.QueryxContext(ctx, timesQuery, goalID)
	if err != nil {
		return nil, fmt.Errorf("fetch check-in times: %w", err)
	}
	defer timeRows.Close()

	for timeRows.Next() {
		var (
			rawDate   string
			checkedAt time.Time
		)
		if err := timeRows.Scan(&rawDate, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan check-in time: %w", err)
		}
		ledger.CheckinTimes[rawDate] = checkedAt
	}

	return ledger, timeRows.Err()
}
