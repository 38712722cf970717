package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/artcycle/core/internal/domain/entities"
)

// GoalService interface for goal lifecycle operations
type GoalService interface {
	CreateGoal(ctx context.Context, ownerID uuid.UUID, req CreateGoalRequest) (*entities.Goal, error)
	GetGoal(ctx context.Context, ownerID, goalID uuid.UUID) (*entities.Goal, error)
	ListGoals(ctx context.Context, ownerID uuid.UUID) ([]*entities.Goal, error)
	UpdateGoal(ctx context.Context, ownerID, goalID uuid.UUID, req UpdateGoalRequest) (*entities.Goal, error)
	StartGoal(ctx context.Context, ownerID, goalID uuid.UUID) (*entities.Goal, error)
	DeleteGoal(ctx context.Context, ownerID, goalID uuid.UUID) error
	CycleStateFor(ctx context.Context, ownerID, goalID uuid.UUID) (*entities.CycleState, error)
}

// LedgerService interface for reconciling the completion ledger
type LedgerService interface {
	Refresh(ctx context.Context, goalID uuid.UUID) error
	CompletionsFor(goalID uuid.UUID, rawDate string) (map[string]entities.TaskCompletionRecord, bool)
}

// CheckInService interface for completing days with evidence
type CheckInService interface {
	SelectEvidence(ctx context.Context, ownerID, goalID uuid.UUID, dayNumber int, taskID, evidenceID string) error
	CompleteDay(ctx context.Context, ownerID, goalID uuid.UUID, dayNumber int, note *string) (*entities.CheckInRecord, error)
}

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Request/Response Types

type TaskRequest struct {
	TaskID   string  `json:"task_id" validate:"required,max=64"`
	Title    string  `json:"title" validate:"required,max=200"`
	Subtitle *string `json:"subtitle" validate:"omitempty,max=200"`
}

type ScheduleEntryRequest struct {
	DayIndex int           `json:"day_index" validate:"min=0"`
	Tasks    []TaskRequest `json:"tasks" validate:"dive"`
}

type CreateGoalRequest struct {
	Title        string                 `json:"title" validate:"required,max=200"`
	DurationDays int                    `json:"duration_days" validate:"required,min=1,max=90"`
	PlanType     entities.PlanType      `json:"plan_type" validate:"required,oneof=same different"`
	Schedule     []ScheduleEntryRequest `json:"schedule" validate:"dive"`
}

type UpdateGoalRequest struct {
	Title    *string                `json:"title" validate:"omitempty,max=200"`
	Schedule []ScheduleEntryRequest `json:"schedule" validate:"omitempty,dive"`
}

type SelectEvidenceRequest struct {
	TaskID     string `json:"task_id" validate:"required"`
	EvidenceID string `json:"evidence_id" validate:"required"`
}

type CheckInRequest struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}

// Auth related types
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *entities.User `json:"user"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Common response envelopes
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
