package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/artcycle/core/internal/domain/dates"
)

// Common errors
var (
	ErrGoalNotFound        = errors.New("goal not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrGoalAlreadyStarted  = errors.New("goal already started")
	ErrGoalNotEditable     = errors.New("goal can no longer be edited")
	ErrInvalidDuration     = errors.New("duration must be a positive number of days")
	ErrInvalidPlanType     = errors.New("invalid plan type")
	ErrScheduleOutOfRange  = errors.New("schedule day index out of range")
	ErrDayLocked           = errors.New("day is not yet available")
	ErrDayAlreadyCompleted = errors.New("day is already completed")
	ErrCycleExpired        = errors.New("goal cycle has expired")
	ErrMissingEvidence     = errors.New("every task needs selected evidence before check-in")
	ErrSubmissionInFlight  = errors.New("another check-in for this goal is in flight")
	ErrNoteTooLong         = errors.New("note exceeds maximum length")
	ErrInvalidDayNumber    = errors.New("day number out of range")
)

// ToleranceDays is the grace allowed beyond a goal's nominal duration:
// a cycle of N days may be finished within N+2 days of its start.
const ToleranceDays = 2

// MaxNoteLength bounds the free-text note attached to a check-in.
const MaxNoteLength = 500

// PlanType describes how a goal's schedule maps onto its days.
type PlanType string

const (
	// PlanSame repeats schedule entry 0 on every day.
	PlanSame PlanType = "same"
	// PlanDifferent gives each day its own entry, with carry-forward
	// for days that have none.
	PlanDifferent PlanType = "different"
)

func (p PlanType) IsValid() bool {
	return p == PlanSame || p == PlanDifferent
}

// CycleStatus is the overall state of a goal's cycle.
type CycleStatus string

const (
	CycleActive   CycleStatus = "active"
	CycleFinished CycleStatus = "finished"
	CycleExpired  CycleStatus = "expired"
)

// DayStatus is the unlock/completion state of a single day.
type DayStatus string

const (
	DayLocked    DayStatus = "locked"
	DayAvailable DayStatus = "available"
	DayCompleted DayStatus = "completed"
)

// Task is one item of work scheduled on a day.
type Task struct {
	TaskID   string  `json:"task_id" db:"task_id"`
	Title    string  `json:"title" db:"title"`
	Subtitle *string `json:"subtitle,omitempty" db:"subtitle"`
}

// ScheduleEntry assigns a task list to a day index of the cycle.
type ScheduleEntry struct {
	DayIndex int    `json:"day_index" db:"day_index"`
	Tasks    []Task `json:"tasks"`
}

// Goal is a user-defined short creative challenge: a fixed number of
// days, a task schedule and a grace window to finish. Duration and plan
// type are fixed at creation; the schedule may be edited until the goal
// is started.
type Goal struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OwnerID      uuid.UUID       `json:"owner_id" db:"owner_id"`
	Title        string          `json:"title" db:"title"`
	DurationDays int             `json:"duration_days" db:"duration_days"`
	PlanType     PlanType        `json:"plan_type" db:"plan_type"`
	Schedule     []ScheduleEntry `json:"schedule"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	StartedAt    *time.Time      `json:"started_at" db:"started_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// DayCard is the derived, per-day unlock/completion state shown to the
// user. It is recomputed from scratch on every derivation, never stored.
type DayCard struct {
	DayNumber  int           `json:"day_number"`
	Tasks      []Task        `json:"tasks"`
	Status     DayStatus     `json:"status"`
	DateKey    dates.DateKey `json:"date_key"`
	HasUpload  bool          `json:"has_upload"`
	IsTomorrow bool          `json:"is_tomorrow"`
}

// CycleState is the derived state of the whole challenge.
type CycleState struct {
	Status          CycleStatus `json:"status"`
	Days            []DayCard   `json:"days"`
	ProgressPercent int         `json:"progress_percent"`
	DaysRemaining   int         `json:"days_remaining"`
	CompletedCount  int         `json:"completed_count"`
	Deadline        time.Time   `json:"deadline"`
}

// CheckInRecord is the result of a successful day submission. The
// checked date is the server-confirmed one, which may differ from the
// date the client asked for.
type CheckInRecord struct {
	GoalID       uuid.UUID         `json:"goal_id" db:"goal_id"`
	CheckedDate  dates.DateKey     `json:"checked_date"`
	CheckedAt    time.Time         `json:"checked_at" db:"checked_at"`
	Note         *string           `json:"note,omitempty" db:"note"`
	TaskEvidence map[string]string `json:"task_evidence,omitempty"`
}

// ArtworkMeta describes the uploaded artwork an evidence record points
// at. Rendering and file handling are owned elsewhere; the core only
// carries the reference.
type ArtworkMeta struct {
	Title      string    `json:"title" db:"title"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
	ImageRef   string    `json:"image_ref" db:"image_ref"`
}

// TaskCompletionRecord is the backing store's authoritative evidence
// that a task on a date was completed. The core reads and caches it.
type TaskCompletionRecord struct {
	ID        string        `json:"id" db:"id"`
	GoalID    uuid.UUID     `json:"goal_id" db:"goal_id"`
	TaskID    string        `json:"task_id" db:"task_id"`
	DateKey   dates.DateKey `json:"date_key"`
	Artwork   ArtworkMeta   `json:"artwork"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// User owns goals; kept minimal, authentication internals live at the
// edges of the system.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" db:"deleted_at"`
}

// Business logic methods for Goal

// IsStarted reports whether the goal has been activated.
func (g *Goal) IsStarted() bool {
	return g.StartedAt != nil && !g.StartedAt.IsZero()
}

// StartAnchor resolves the instant all day-boundary math is anchored on:
// the activation instant when set, the creation instant otherwise, and
// the supplied fallback when neither is usable.
func (g *Goal) StartAnchor(fallback time.Time) time.Time {
	if g.IsStarted() {
		return g.StartedAt.In(dates.ReferenceZone)
	}
	if !g.CreatedAt.IsZero() {
		return g.CreatedAt.In(dates.ReferenceZone)
	}
	return fallback.In(dates.ReferenceZone)
}

// Deadline is the last instant at which the cycle can still be
// completed: start plus duration plus the tolerance window, with the
// start's time-of-day preserved.
func (g *Goal) Deadline(fallback time.Time) time.Time {
	return dates.AddDays(g.StartAnchor(fallback), g.DurationDays+ToleranceDays)
}

// TasksForDay resolves the task list for day index i. A same-plan goal
// always uses entry 0. A different-plan goal uses the exact entry for i
// when present, otherwise carries forward the latest entry at or before
// i, otherwise falls back to entry 0. A goal with no schedule yields an
// empty list.
func (g *Goal) TasksForDay(i int) []Task {
	if len(g.Schedule) == 0 {
		return nil
	}
	if g.PlanType == PlanSame {
		return g.Schedule[0].Tasks
	}
	var carried *ScheduleEntry
	for idx := range g.Schedule {
		e := &g.Schedule[idx]
		if e.DayIndex == i {
			return e.Tasks
		}
		if e.DayIndex < i && (carried == nil || e.DayIndex > carried.DayIndex) {
			carried = e
		}
	}
	if carried != nil {
		return carried.Tasks
	}
	return g.Schedule[0].Tasks
}

// ValidateSchedule checks the schedule invariant: every day index is
// non-negative and inside the cycle.
func (g *Goal) ValidateSchedule() error {
	if g.DurationDays <= 0 {
		return ErrInvalidDuration
	}
	for _, e := range g.Schedule {
		if e.DayIndex < 0 || e.DayIndex >= g.DurationDays {
			return ErrScheduleOutOfRange
		}
	}
	return nil
}

// OwnedBy reports whether the goal belongs to the given user.
func (g *Goal) OwnedBy(userID uuid.UUID) bool {
	return g.OwnerID == userID
}

// Utility methods

func (s CycleStatus) IsValid() bool {
	switch s {
	case CycleActive, CycleFinished, CycleExpired:
		return true
	default:
		return false
	}
}

func (s DayStatus) IsValid() bool {
	switch s {
	case DayLocked, DayAvailable, DayCompleted:
		return true
	default:
		return false
	}
}
