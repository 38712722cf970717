// Package cycle derives the per-day unlock/completion state of a goal's
// challenge from its declarative schedule and the set of completed dates.
// Derivation is a pure function of its inputs plus an injected clock: it
// performs no I/O, mutates nothing it is given, and recomputes the whole
// state on every call, so it is safe to run on every request.
package cycle

import (
	"math"

	"github.com/artcycle/core/internal/domain/dates"
	"github.com/artcycle/core/internal/domain/entities"
)

// Derive maps a goal and its completed-date set onto the full cycle
// state: one card per day, the aggregate progress and the overall
// status. The completed set is read-only; callers pass the confirmed
// tier of the completion cache.
//
// Expiry takes precedence over completeness: a goal evaluated after its
// deadline reports expired even when every day was completed.
func Derive(goal *entities.Goal, completed map[dates.DateKey]bool, clock dates.Clock) entities.CycleState {
	now := clock.Now().In(dates.ReferenceZone)
	start := goal.StartAnchor(now)
	deadline := goal.Deadline(now)

	state := entities.CycleState{
		Status:   entities.CycleActive,
		Deadline: deadline,
	}

	// Invalid durations degrade to a zero-length cycle rather than an
	// error; the goal simply has no days to unlock.
	duration := goal.DurationDays
	if duration < 0 {
		duration = 0
	}

	expired := now.After(deadline)

	completedCount := 0
	days := make([]entities.DayCard, 0, duration)
	for i := 0; i < duration; i++ {
		unlockAt := dates.AddDays(start, i)
		key := dates.KeyOf(unlockAt)
		hasUpload := completed[key]
		if hasUpload {
			completedCount++
		}

		card := entities.DayCard{
			DayNumber: i + 1,
			Tasks:     goal.TasksForDay(i),
			DateKey:   key,
			HasUpload: hasUpload,
		}

		switch {
		case hasUpload:
			card.Status = entities.DayCompleted
		case expired:
			card.Status = entities.DayLocked
		case i == 0:
			card.Status = entities.DayAvailable
		case !now.Before(unlockAt):
			card.Status = entities.DayAvailable
		default:
			card.Status = entities.DayLocked
		}

		// Advisory hint: the next unlock is purely a matter of waiting
		// for the date, not blocked by missing work.
		if card.Status == entities.DayLocked && !expired && i > 0 {
			prevKey := dates.KeyOf(dates.AddDays(start, i-1))
			card.IsTomorrow = completed[prevKey]
		}

		days = append(days, card)
	}

	state.Days = days
	state.CompletedCount = completedCount
	state.DaysRemaining = duration - completedCount
	if state.DaysRemaining < 0 {
		state.DaysRemaining = 0
	}
	if duration > 0 {
		state.ProgressPercent = int(math.Round(float64(completedCount) / float64(duration) * 100))
	}

	switch {
	case expired:
		state.Status = entities.CycleExpired
	case duration > 0 && completedCount == duration:
		state.Status = entities.CycleFinished
	default:
		state.Status = entities.CycleActive
	}

	return state
}
