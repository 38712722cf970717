package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artcycle/core/internal/application/state"
	"github.com/artcycle/core/internal/domain/dates"
	"github.com/artcycle/core/internal/domain/entities"
	"github.com/artcycle/core/internal/infrastructure/logger"
	"github.com/artcycle/core/internal/ports"
)

// In-memory doubles for the repository ports. They keep just enough
// behavior for service tests: storage in maps, configurable failures,
// and a record of what was submitted.

type fakeGoalRepo struct {
	mu       sync.Mutex
	goals    map[uuid.UUID]*entities.Goal
	failWith error
	deleted  []uuid.UUID
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{goals: map[uuid.UUID]*entities.Goal{}}
}

func (r *fakeGoalRepo) Create(ctx context.Context, goal *entities.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	copied := *goal
	r.goals[goal.ID] = &copied
	return nil
}

func (r *fakeGoalRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	goal, ok := r.goals[id]
	if !ok {
		return nil, entities.ErrGoalNotFound
	}
	copied := *goal
	return &copied, nil
}

func (r *fakeGoalRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Goal
	for _, g := range r.goals {
		if g.OwnerID == ownerID {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeGoalRepo) Update(ctx context.Context, goal *entities.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.goals[goal.ID]; !ok {
		return entities.ErrGoalNotFound
	}
	copied := *goal
	r.goals[goal.ID] = &copied
	return nil
}

func (r *fakeGoalRepo) SetStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	goal, ok := r.goals[id]
	if !ok {
		return entities.ErrGoalNotFound
	}
	if goal.StartedAt != nil {
		return entities.ErrGoalAlreadyStarted
	}
	goal.StartedAt = &startedAt
	return nil
}

func (r *fakeGoalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.goals[id]; !ok {
		return entities.ErrGoalNotFound
	}
	delete(r.goals, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeGoalRepo) put(goal *entities.Goal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *goal
	r.goals[goal.ID] = &copied
}

type fakeCheckInRepo struct {
	mu          sync.Mutex
	failWith    error
	confirmDate dates.DateKey
	confirmAt   time.Time
	submissions []ports.CheckInSubmission
}

func (r *fakeCheckInRepo) Submit(ctx context.Context, sub ports.CheckInSubmission) (*entities.CheckInRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.submissions = append(r.submissions, sub)

	confirmed := r.confirmDate
	if confirmed.IsZero() {
		if key, err := dates.Parse(sub.Date); err == nil {
			confirmed = key
		}
	}
	return &entities.CheckInRecord{
		GoalID:      sub.GoalID,
		CheckedDate: confirmed,
		CheckedAt:   r.confirmAt,
		Note:        sub.Note,
	}, nil
}

func (r *fakeCheckInRepo) ListByGoal(ctx context.Context, goalID uuid.UUID) ([]*entities.CheckInRecord, error) {
	return nil, nil
}

type fakeCompletionRepo struct {
	mu       sync.Mutex
	ledger   *ports.CompletionLedger
	failWith error
	fetches  int
}

func (r *fakeCompletionRepo) FetchLedger(ctx context.Context, goalID uuid.UUID) (*ports.CompletionLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
	if r.failWith != nil {
		return nil, r.failWith
	}
	if r.ledger == nil {
		return &ports.CompletionLedger{
			Completions:  map[string]map[string]entities.TaskCompletionRecord{},
			CheckinTimes: map[string]time.Time{},
		}, nil
	}
	return r.ledger, nil
}

type testEnv struct {
	ownerID        uuid.UUID
	goalRepo       *fakeGoalRepo
	checkInRepo    *fakeCheckInRepo
	completionRepo *fakeCompletionRepo
	cache          *state.CycleCache
	clock          *dates.FixedClock
	goals          *GoalService
	ledger         *LedgerService
	checkIns       *CheckInService
}

func newTestEnv(now time.Time) *testEnv {
	env := &testEnv{
		ownerID:        uuid.New(),
		goalRepo:       newFakeGoalRepo(),
		checkInRepo:    &fakeCheckInRepo{},
		completionRepo: &fakeCompletionRepo{},
		cache:          state.NewCycleCache(),
		clock:          &dates.FixedClock{Instant: now},
	}
	log := logger.NewNop()
	env.goals = NewGoalService(env.goalRepo, env.cache, env.clock, log)
	env.ledger = NewLedgerService(env.completionRepo, env.cache, log)
	env.checkIns = NewCheckInService(env.checkInRepo, env.goalRepo, env.ledger, env.cache, env.clock, log)
	return env
}

func (env *testEnv) startedGoal(durationDays int, start time.Time) *entities.Goal {
	goal := &entities.Goal{
		ID:           uuid.New(),
		OwnerID:      env.ownerID,
		Title:        "daily sketch",
		DurationDays: durationDays,
		PlanType:     entities.PlanSame,
		Schedule: []entities.ScheduleEntry{
			{DayIndex: 0, Tasks: []entities.Task{{TaskID: "t1", Title: "sketch"}}},
		},
		CreatedAt: start,
		StartedAt: &start,
		UpdatedAt: start,
	}
	env.goalRepo.put(goal)
	return goal
}

func refTime(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04", s, dates.ReferenceZone)
	if err != nil {
		panic(err)
	}
	return t
}
