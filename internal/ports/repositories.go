package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/artcycle/core/internal/domain/entities"
)

// GoalRepository defines the interface for goal data operations
type GoalRepository interface {
	Create(ctx context.Context, goal *entities.Goal) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Goal, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Goal, error)
	Update(ctx context.Context, goal *entities.Goal) error
	SetStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CheckInSubmission is the payload sent to the backing store to complete
// a day. The date is the locally computed one; the store may normalize
// it and confirm a different calendar date.
type CheckInSubmission struct {
	GoalID       uuid.UUID
	Date         string
	TaskEvidence map[string]string
	Note         *string
}

// CheckInRepository records day completions. Submit is expected to be
// idempotent per (goal, confirmed date); the returned record carries the
// store's canonical date and instant.
type CheckInRepository interface {
	Submit(ctx context.Context, sub CheckInSubmission) (*entities.CheckInRecord, error)
	ListByGoal(ctx context.Context, goalID uuid.UUID) ([]*entities.CheckInRecord, error)
}

// CompletionLedger is the backing store's authoritative view of which
// tasks were completed per date. Keys are raw date strings as the store
// recorded them; encodings may vary between rows, so consumers normalize
// through dates.Parse before comparing.
type CompletionLedger struct {
	Completions  map[string]map[string]entities.TaskCompletionRecord
	CheckinTimes map[string]time.Time
}

// CompletionRepository reads the completion ledger for a goal.
type CompletionRepository interface {
	FetchLedger(ctx context.Context, goalID uuid.UUID) (*CompletionLedger, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
}
