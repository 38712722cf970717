package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/artcycle/core/internal/application/state"
	"github.com/artcycle/core/internal/domain/cycle"
	"github.com/artcycle/core/internal/domain/dates"
	"github.com/artcycle/core/internal/domain/entities"
	"github.com/artcycle/core/internal/infrastructure/logger"
	"github.com/artcycle/core/internal/ports"
)

// CheckInService coordinates completing a single day exactly once, with
// the required evidence attached. Validation happens before any I/O and
// before the submission flag is taken; a failed submission leaves local
// state untouched.
type CheckInService struct {
	checkInRepo ports.CheckInRepository
	goalRepo    ports.GoalRepository
	ledger      *LedgerService
	cache       *state.CycleCache
	clock       dates.Clock
	logger      *logger.Logger
}

// NewCheckInService creates a new check-in service
func NewCheckInService(checkInRepo ports.CheckInRepository, goalRepo ports.GoalRepository, ledger *LedgerService, cache *state.CycleCache, clock dates.Clock, logger *logger.Logger) *CheckInService {
	return &CheckInService{
		checkInRepo: checkInRepo,
		goalRepo:    goalRepo,
		ledger:      ledger,
		cache:       cache,
		clock:       clock,
		logger:      logger,
	}
}

// SelectEvidence stages the uploaded artwork a task's completion will
// point at. Every task of a day must have evidence staged before the
// day can be checked in.
func (s *CheckInService) SelectEvidence(ctx context.Context, ownerID, goalID uuid.UUID, dayNumber int, taskID, evidenceID string) error {
	goal, err := s.ownedGoal(ctx, ownerID, goalID)
	if err != nil {
		return err
	}

	if dayNumber < 1 || dayNumber > goal.DurationDays {
		return entities.ErrInvalidDayNumber
	}

	tasks := goal.TasksForDay(dayNumber - 1)
	known := false
	for _, t := range tasks {
		if t.TaskID == taskID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("task %s is not scheduled on day %d", taskID, dayNumber)
	}

	s.cache.SelectEvidence(goalID, dayNumber, taskID, evidenceID)
	return nil
}

// CompleteDay submits the completion of one day.
//
// The flow is: local preconditions (card available, evidence for every
// task, note bounded), then the per-goal submission flag, then the store
// call. On success the server-confirmed date is the one added to the
// confirmed set; the requested date is only ever a hint. The flag is
// released on every path, and the ledger is re-fetched afterwards since
// evidence linkage is authoritative server-side.
func (s *CheckInService) CompleteDay(ctx context.Context, ownerID, goalID uuid.UUID, dayNumber int, note *string) (*entities.CheckInRecord, error) {
	if note != nil && len(*note) > entities.MaxNoteLength {
		return nil, entities.ErrNoteTooLong
	}

	goal, err := s.ownedGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	if dayNumber < 1 || dayNumber > goal.DurationDays {
		return nil, entities.ErrInvalidDayNumber
	}

	cs := cycle.Derive(goal, s.cache.Confirmed(goalID), s.clock)
	card := cs.Days[dayNumber-1]

	switch card.Status {
	case entities.DayCompleted:
		return nil, entities.ErrDayAlreadyCompleted
	case entities.DayLocked:
		if cs.Status == entities.CycleExpired {
			return nil, entities.ErrCycleExpired
		}
		return nil, entities.ErrDayLocked
	}

	evidence := s.cache.EvidenceFor(goalID, dayNumber)
	for _, t := range card.Tasks {
		if _, ok := evidence[t.TaskID]; !ok {
			return nil, entities.ErrMissingEvidence
		}
	}

	if !s.cache.TryBeginSubmission(goalID) {
		return nil, entities.ErrSubmissionInFlight
	}
	defer s.cache.EndSubmission(goalID)

	requested := card.DateKey
	s.cache.MarkPending(goalID, requested)

	record, err := s.checkInRepo.Submit(ctx, ports.CheckInSubmission{
		GoalID:       goalID,
		Date:         requested.String(),
		TaskEvidence: evidence,
		Note:         note,
	})
	if err != nil {
		s.cache.RollbackPending(goalID, requested)
		s.logger.Error("Check-in submission failed", "goal_id", goalID, "day", dayNumber, "error", err)
		return nil, err
	}

	confirmed := record.CheckedDate
	if confirmed.IsZero() {
		confirmed = requested
	}
	checkedAt := record.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = s.clock.Now()
	}

	s.cache.ConfirmCheckIn(goalID, requested, confirmed, checkedAt, note)
	s.cache.ClearEvidence(goalID, dayNumber)

	s.logger.Info("Day checked in", "goal_id", goalID, "day", dayNumber, "requested_date", requested, "confirmed_date", confirmed)

	// Evidence linkage is owned by the store; pull the authoritative
	// ledger back in rather than trusting the local merge alone.
	if err := s.ledger.Refresh(ctx, goalID); err != nil {
		s.logger.Warn("Ledger refresh after check-in failed", "goal_id", goalID, "error", err)
	}

	record.GoalID = goalID
	record.CheckedDate = confirmed
	record.CheckedAt = checkedAt
	return record, nil
}

func (s *CheckInService) ownedGoal(ctx context.Context, ownerID, goalID uuid.UUID) (*entities.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.OwnedBy(ownerID) {
		return nil, entities.ErrForbidden
	}
	return goal, nil
}
