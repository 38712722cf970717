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

// GoalService handles goal lifecycle operations
type GoalService struct {
	goalRepo ports.GoalRepository
	cache    *state.CycleCache
	clock    dates.Clock
	logger   *logger.Logger
}

// NewGoalService creates a new goal service
func NewGoalService(goalRepo ports.GoalRepository, cache *state.CycleCache, clock dates.Clock, logger *logger.Logger) *GoalService {
	return &GoalService{
		goalRepo: goalRepo,
		cache:    cache,
		clock:    clock,
		logger:   logger,
	}
}

// CreateGoal creates a new goal. Duration and plan type are fixed from
// here on; the schedule may still be edited until the goal is started.
func (s *GoalService) CreateGoal(ctx context.Context, ownerID uuid.UUID, req ports.CreateGoalRequest) (*entities.Goal, error) {
	if !req.PlanType.IsValid() {
		return nil, entities.ErrInvalidPlanType
	}

	goal := &entities.Goal{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        req.Title,
		DurationDays: req.DurationDays,
		PlanType:     req.PlanType,
		Schedule:     scheduleFromRequest(req.Schedule),
		CreatedAt:    s.clock.Now(),
		UpdatedAt:    s.clock.Now(),
	}

	if err := goal.ValidateSchedule(); err != nil {
		return nil, err
	}

	if err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	s.logger.Info("Goal created", "goal_id", goal.ID, "owner_id", ownerID, "duration_days", goal.DurationDays, "plan_type", goal.PlanType)

	return goal, nil
}

// GetGoal retrieves a goal owned by the caller.
func (s *GoalService) GetGoal(ctx context.Context, ownerID, goalID uuid.UUID) (*entities.Goal, error) {
	return s.ownedGoal(ctx, ownerID, goalID)
}

// ListGoals returns all goals of the caller.
func (s *GoalService) ListGoals(ctx context.Context, ownerID uuid.UUID) ([]*entities.Goal, error) {
	goals, err := s.goalRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

// UpdateGoal edits title and schedule. Only goals that have not been
// started are editable.
func (s *GoalService) UpdateGoal(ctx context.Context, ownerID, goalID uuid.UUID, req ports.UpdateGoalRequest) (*entities.Goal, error) {
	goal, err := s.ownedGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.IsStarted() {
		return nil, entities.ErrGoalNotEditable
	}

	if req.Title != nil {
		goal.Title = *req.Title
	}
	if req.Schedule != nil {
		goal.Schedule = scheduleFromRequest(req.Schedule)
		if err := goal.ValidateSchedule(); err != nil {
			return nil, err
		}
	}
	goal.UpdatedAt = s.clock.Now()

	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	s.logger.Info("Goal updated", "goal_id", goal.ID)

	return goal, nil
}

// StartGoal activates a goal, anchoring its cycle at the current
// instant. Activation happens once.
func (s *GoalService) StartGoal(ctx context.Context, ownerID, goalID uuid.UUID) (*entities.Goal, error) {
	goal, err := s.ownedGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.IsStarted() {
		return nil, entities.ErrGoalAlreadyStarted
	}

	startedAt := s.clock.Now()
	if err := s.goalRepo.SetStarted(ctx, goal.ID, startedAt); err != nil {
		return nil, fmt.Errorf("failed to start goal: %w", err)
	}
	goal.StartedAt = &startedAt

	s.logger.Info("Goal started", "goal_id", goal.ID, "started_at", startedAt)

	return goal, nil
}

// DeleteGoal deletes a goal irreversibly and purges every local
// structure keyed by it. On failure nothing local is touched.
func (s *GoalService) DeleteGoal(ctx context.Context, ownerID, goalID uuid.UUID) error {
	if _, err := s.ownedGoal(ctx, ownerID, goalID); err != nil {
		return err
	}

	if err := s.goalRepo.Delete(ctx, goalID); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	s.cache.Purge(goalID)

	s.logger.Info("Goal deleted", "goal_id", goalID, "owner_id", ownerID)

	return nil
}

// CycleStateFor derives the current cycle state of a goal from its
// schedule and the confirmed completed-date set.
func (s *GoalService) CycleStateFor(ctx context.Context, ownerID, goalID uuid.UUID) (*entities.CycleState, error) {
	goal, err := s.ownedGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	cs := cycle.Derive(goal, s.cache.Confirmed(goalID), s.clock)
	return &cs, nil
}

func (s *GoalService) ownedGoal(ctx context.Context, ownerID, goalID uuid.UUID) (*entities.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.OwnedBy(ownerID) {
		return nil, entities.ErrForbidden
	}
	return goal, nil
}

func scheduleFromRequest(entries []ports.ScheduleEntryRequest) []entities.ScheduleEntry {
	schedule := make([]entities.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		tasks := make([]entities.Task, 0, len(e.Tasks))
		for _, t := range e.Tasks {
			tasks = append(tasks, entities.Task{
				TaskID:   t.TaskID,
				Title:    t.Title,
				Subtitle: t.Subtitle,
			})
		}
		schedule = append(schedule, entities.ScheduleEntry{
			DayIndex: e.DayIndex,
			Tasks:    tasks,
		})
	}
	return schedule
}
