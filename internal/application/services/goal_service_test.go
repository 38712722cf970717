package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/artcycle/core/internal/domain/dates"
	"github.com/artcycle/core/internal/domain/entities"
	"github.com/artcycle/core/internal/ports"
)

func TestCreateGoal_PersistsWithFixedDurationAndPlan(t *testing.T) {
	env := newTestEnv(refTime("2024-01-01T08:00"))

	goal, err := env.goals.CreateGoal(context.Background(), env.ownerID, ports.CreateGoalRequest{
		Title:        "30 faces",
		DurationDays: 30,
		PlanType:     entities.PlanSame,
		Schedule: []ports.ScheduleEntryRequest{
			{DayIndex: 0, Tasks: []ports.TaskRequest{{TaskID: "t1", Title: "one face"}}},
		},
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if goal.ID == uuid.Nil || goal.OwnerID != env.ownerID {
		t.Fatalf("goal identity wrong: %+v", goal)
	}
	if goal.IsStarted() {
		t.Fatal("a fresh goal must not be started")
	}

	stored, err := env.goalRepo.GetByID(context.Background(), goal.ID)
	if err != nil {
		t.Fatalf("stored goal: %v", err)
	}
	if stored.DurationDays != 30 || stored.PlanType != entities.PlanSame {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestCreateGoal_RejectsInvalidInput(t *testing.T) {
	env := newTestEnv(refTime("2024-01-01T08:00"))
	ctx := context.Background()

	cases := []struct {
		name    string
		req     ports.CreateGoalRequest
		wantErr error
	}{
		{
			name:    "unknown plan type",
			req:     ports.CreateGoalRequest{Title: "x", DurationDays: 7, PlanType: "weekly"},
			wantErr: entities.ErrInvalidPlanType,
		},
		{
			name:    "non-positive duration",
			req:     ports.CreateGoalRequest{Title: "x", DurationDays: 0, PlanType: entities.PlanSame},
			wantErr: entities.ErrInvalidDuration,
		},
		{
			name: "schedule entry past the cycle end",
			req: ports.CreateGoalRequest{
				Title: "x", DurationDays: 7, PlanType: entities.PlanDifferent,
				Schedule: []ports.ScheduleEntryRequest{{DayIndex: 7}},
			},
			wantErr: entities.ErrScheduleOutOfRange,
		},
		{
			name: "negative day index",
			req: ports.CreateGoalRequest{
				Title: "x", DurationDays: 7, PlanType: entities.PlanDifferent,
				Schedule: []ports.ScheduleEntryRequest{{DayIndex: -1}},
			},
			wantErr: entities.ErrScheduleOutOfRange,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.goals.CreateGoal(ctx, env.ownerID, tc.req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestStartGoal_AnchorsOnceAtTheClockInstant(t *testing.T) {
	env := newTestEnv(refTime("2024-01-01T08:00"))
	ctx := context.Background()

	created, err := env.goals.CreateGoal(ctx, env.ownerID, ports.CreateGoalRequest{
		Title: "x", DurationDays: 7, PlanType: entities.PlanSame,
		Schedule: []ports.ScheduleEntryRequest{
			{DayIndex: 0, Tasks: []ports.TaskRequest{{TaskID: "t1", Title: "sketch"}}},
		},
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	env.clock.Instant = refTime("2024-01-03T09:30")
	started, err := env.goals.StartGoal(ctx, env.ownerID, created.ID)
	if err != nil {
		t.Fatalf("StartGoal: %v", err)
	}
	if started.StartedAt == nil || !started.StartedAt.Equal(env.clock.Instant) {
		t.Fatalf("started_at = %v, want %v", started.StartedAt, env.clock.Instant)
	}

	if _, err := env.goals.StartGoal(ctx, env.ownerID, created.ID); !errors.Is(err, entities.ErrGoalAlreadyStarted) {
		t.Fatalf("second start err = %v, want ErrGoalAlreadyStarted", err)
	}
}

func TestUpdateGoal_RefusedAfterStart(t *testing.T) {
	env := newTestEnv(refTime("2024-01-05T08:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))

	title := "new title"
	_, err := env.goals.UpdateGoal(context.Background(), env.ownerID, goal.ID, ports.UpdateGoalRequest{Title: &title})
	if !errors.Is(err, entities.ErrGoalNotEditable) {
		t.Fatalf("err = %v, want ErrGoalNotEditable", err)
	}
}

func TestUpdateGoal_EditsTitleAndScheduleBeforeStart(t *testing.T) {
	env := newTestEnv(refTime("2024-01-01T08:00"))
	ctx := context.Background()

	created, err := env.goals.CreateGoal(ctx, env.ownerID, ports.CreateGoalRequest{
		Title: "draft", DurationDays: 7, PlanType: entities.PlanDifferent,
		Schedule: []ports.ScheduleEntryRequest{
			{DayIndex: 0, Tasks: []ports.TaskRequest{{TaskID: "t1", Title: "sketch"}}},
		},
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	title := "final"
	updated, err := env.goals.UpdateGoal(ctx, env.ownerID, created.ID, ports.UpdateGoalRequest{
		Title: &title,
		Schedule: []ports.ScheduleEntryRequest{
			{DayIndex: 0, Tasks: []ports.TaskRequest{{TaskID: "t1", Title: "sketch"}}},
			{DayIndex: 3, Tasks: []ports.TaskRequest{{TaskID: "t2", Title: "ink"}}},
		},
	})
	if err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	if updated.Title != "final" || len(updated.Schedule) != 2 {
		t.Fatalf("updated = %+v", updated)
	}

	// Out-of-range schedule edits are rejected the same way creation
	// rejects them.
	_, err = env.goals.UpdateGoal(ctx, env.ownerID, created.ID, ports.UpdateGoalRequest{
		Schedule: []ports.ScheduleEntryRequest{{DayIndex: 9}},
	})
	if !errors.Is(err, entities.ErrScheduleOutOfRange) {
		t.Fatalf("err = %v, want ErrScheduleOutOfRange", err)
	}
}

func TestGoalAccess_OtherUsersAreForbidden(t *testing.T) {
	env := newTestEnv(refTime("2024-01-01T08:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))
	stranger := uuid.New()
	ctx := context.Background()

	if _, err := env.goals.GetGoal(ctx, stranger, goal.ID); !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("GetGoal err = %v, want ErrForbidden", err)
	}
	if err := env.goals.DeleteGoal(ctx, stranger, goal.ID); !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("DeleteGoal err = %v, want ErrForbidden", err)
	}
	if _, err := env.goals.GetGoal(ctx, env.ownerID, uuid.New()); !errors.Is(err, entities.ErrGoalNotFound) {
		t.Fatalf("unknown goal err = %v, want ErrGoalNotFound", err)
	}
}

func TestDeleteGoal_PurgesLocalState(t *testing.T) {
	env := newTestEnv(refTime("2024-01-02T09:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))
	day := dates.MustParse("2024-01-01")
	env.cache.MergeLedger(goal.ID, []dates.DateKey{day}, nil, nil)

	if err := env.goals.DeleteGoal(context.Background(), env.ownerID, goal.ID); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}

	if _, err := env.goalRepo.GetByID(context.Background(), goal.ID); !errors.Is(err, entities.ErrGoalNotFound) {
		t.Fatal("goal must be gone from the store")
	}
	if env.cache.IsConfirmed(goal.ID, day) {
		t.Fatal("cache must be purged after delete")
	}
}

func TestDeleteGoal_StoreFailureLeavesCacheIntact(t *testing.T) {
	env := newTestEnv(refTime("2024-01-02T09:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))
	day := dates.MustParse("2024-01-01")
	env.cache.MergeLedger(goal.ID, []dates.DateKey{day}, nil, nil)

	env.goalRepo.failWith = errors.New("connection reset")
	if err := env.goals.DeleteGoal(context.Background(), env.ownerID, goal.ID); err == nil {
		t.Fatal("expected delete to fail")
	}

	if !env.cache.IsConfirmed(goal.ID, day) {
		t.Fatal("failed delete must not purge local state")
	}
}

func TestCycleStateFor_ReflectsConfirmedCompletions(t *testing.T) {
	env := newTestEnv(refTime("2024-01-02T09:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))
	env.cache.MergeLedger(goal.ID, []dates.DateKey{dates.MustParse("2024-01-01")}, nil, nil)

	cs, err := env.goals.CycleStateFor(context.Background(), env.ownerID, goal.ID)
	if err != nil {
		t.Fatalf("CycleStateFor: %v", err)
	}
	if cs.Days[0].Status != entities.DayCompleted {
		t.Fatalf("day 1 = %s, want completed", cs.Days[0].Status)
	}
	if cs.Days[1].Status != entities.DayAvailable {
		t.Fatalf("day 2 = %s, want available", cs.Days[1].Status)
	}
	if cs.CompletedCount != 1 {
		t.Fatalf("completed count = %d, want 1", cs.CompletedCount)
	}
}
