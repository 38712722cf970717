package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artcycle/core/internal/domain/dates"
	"github.com/artcycle/core/internal/domain/entities"
	"github.com/artcycle/core/internal/ports"
)

func TestRefresh_CollapsesEncodingsOfOneDate(t *testing.T) {
	env := newTestEnv(refTime("2024-01-02T09:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))

	// Two rows for the same calendar date under different encodings. The
	// cache must end up with a single confirmed date holding both tasks.
	env.completionRepo.ledger = &ports.CompletionLedger{
		Completions: map[string]map[string]entities.TaskCompletionRecord{
			"2024-01-01": {
				"t1": {TaskID: "t1", GoalID: goal.ID},
			},
			"2024-01-01T00:00:00Z": {
				"t2": {TaskID: "t2", GoalID: goal.ID},
			},
		},
		CheckinTimes: map[string]time.Time{},
	}

	if err := env.ledger.Refresh(context.Background(), goal.ID); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	key := dates.MustParse("2024-01-01")
	if len(env.cache.Confirmed(goal.ID)) != 1 {
		t.Fatalf("confirmed = %v, want one date", env.cache.Confirmed(goal.ID))
	}
	recs, ok := env.cache.CompletionsForKey(goal.ID, key)
	if !ok || len(recs) != 2 {
		t.Fatalf("records = %v, want both tasks under one key", recs)
	}
	for _, rec := range recs {
		if rec.DateKey != key {
			t.Fatalf("record key = %v, want %v", rec.DateKey, key)
		}
	}
}

func TestRefresh_SkipsEmptyAndMalformedEntries(t *testing.T) {
	env := newTestEnv(refTime("2024-01-02T09:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))

	env.completionRepo.ledger = &ports.CompletionLedger{
		Completions: map[string]map[string]entities.TaskCompletionRecord{
			"2024-01-01": {"t1": {TaskID: "t1"}},
			"2024-01-02": {}, // no task entries, not a completion
			"not-a-date": {"t1": {TaskID: "t1"}},
		},
		CheckinTimes: map[string]time.Time{
			"also-garbage": refTime("2024-01-01T20:00"),
		},
	}

	if err := env.ledger.Refresh(context.Background(), goal.ID); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	confirmed := env.cache.Confirmed(goal.ID)
	if len(confirmed) != 1 || !confirmed[dates.MustParse("2024-01-01")] {
		t.Fatalf("confirmed = %v, want only 2024-01-01", confirmed)
	}
}

func TestRefresh_RepeatLeavesCacheUnchanged(t *testing.T) {
	env := newTestEnv(refTime("2024-01-02T09:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))

	env.completionRepo.ledger = &ports.CompletionLedger{
		Completions: map[string]map[string]entities.TaskCompletionRecord{
			"2024-01-01": {"t1": {TaskID: "t1"}},
		},
		CheckinTimes: map[string]time.Time{
			"2024-01-01": refTime("2024-01-01T20:00"),
		},
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := env.ledger.Refresh(ctx, goal.ID); err != nil {
			t.Fatalf("Refresh #%d: %v", i+1, err)
		}
	}

	if len(env.cache.Confirmed(goal.ID)) != 1 {
		t.Fatalf("confirmed = %v after repeats", env.cache.Confirmed(goal.ID))
	}
	at, ok := env.cache.CompletionInstant(goal.ID, dates.MustParse("2024-01-01"))
	if !ok || !at.Equal(refTime("2024-01-01T20:00")) {
		t.Fatalf("instant = %v ok=%t", at, ok)
	}
}

func TestRefresh_NeverFabricatesInstants(t *testing.T) {
	env := newTestEnv(refTime("2024-01-02T09:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))

	// Completion without a check-in time: the date is confirmed but no
	// instant may appear for it.
	env.completionRepo.ledger = &ports.CompletionLedger{
		Completions: map[string]map[string]entities.TaskCompletionRecord{
			"2024-01-01": {"t1": {TaskID: "t1"}},
		},
		CheckinTimes: map[string]time.Time{},
	}

	if err := env.ledger.Refresh(context.Background(), goal.ID); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	key := dates.MustParse("2024-01-01")
	if !env.cache.IsConfirmed(goal.ID, key) {
		t.Fatal("date with task entries must be confirmed")
	}
	if _, ok := env.cache.CompletionInstant(goal.ID, key); ok {
		t.Fatal("no instant was recorded, none may be reported")
	}
}

func TestRefresh_PropagatesFetchFailure(t *testing.T) {
	env := newTestEnv(refTime("2024-01-02T09:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))

	env.completionRepo.failWith = errors.New("ledger unavailable")
	if err := env.ledger.Refresh(context.Background(), goal.ID); err == nil {
		t.Fatal("expected fetch failure to surface")
	}
	if len(env.cache.Confirmed(goal.ID)) != 0 {
		t.Fatal("failed refresh must not touch the cache")
	}
}

func TestCompletionsFor_LooksUpAcrossEncodings(t *testing.T) {
	env := newTestEnv(refTime("2024-01-02T09:00"))
	goal := env.startedGoal(7, refTime("2024-01-01T08:00"))

	env.completionRepo.ledger = &ports.CompletionLedger{
		Completions: map[string]map[string]entities.TaskCompletionRecord{
			"2024-01-01T10:30:00Z": {"t1": {TaskID: "t1"}},
		},
		CheckinTimes: map[string]time.Time{},
	}
	if err := env.ledger.Refresh(context.Background(), goal.ID); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	recs, ok := env.ledger.CompletionsFor(goal.ID, "2024-01-01")
	if !ok || len(recs) != 1 {
		t.Fatalf("lookup under canonical encoding failed: ok=%t recs=%v", ok, recs)
	}
}
