package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/artcycle/core/internal/application/state"
	"github.com/artcycle/core/internal/domain/dates"
	"github.com/artcycle/core/internal/domain/entities"
	"github.com/artcycle/core/internal/infrastructure/logger"
	"github.com/artcycle/core/internal/ports"
)

// LedgerService reconciles the backing store's completion ledger into
// the local cycle cache. The ledger is the source of truth for which
// tasks carry evidence on which dates; the cache only mirrors it.
type LedgerService struct {
	completionRepo ports.CompletionRepository
	cache          *state.CycleCache
	logger         *logger.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(completionRepo ports.CompletionRepository, cache *state.CycleCache, logger *logger.Logger) *LedgerService {
	return &LedgerService{
		completionRepo: completionRepo,
		cache:          cache,
		logger:         logger,
	}
}

// Refresh fetches the goal's ledger and merges it into the cache. Every
// ledger date with at least one task entry joins the confirmed
// completed-date set; that is how "all tasks uploaded" becomes "day is
// completed" even when no check-in was recorded separately. Raw ledger
// date encodings are normalized to DateKeys on the way in, so the same
// calendar date never splits into two entries. Running Refresh twice
// with identical ledger content leaves the cache unchanged.
func (s *LedgerService) Refresh(ctx context.Context, goalID uuid.UUID) error {
	ledger, err := s.completionRepo.FetchLedger(ctx, goalID)
	if err != nil {
		return fmt.Errorf("failed to fetch completion ledger: %w", err)
	}

	var completedDates []dates.DateKey
	records := map[dates.DateKey]map[string]entities.TaskCompletionRecord{}
	for rawDate, perTask := range ledger.Completions {
		if len(perTask) == 0 {
			continue
		}
		key, err := dates.Parse(rawDate)
		if err != nil {
			s.logger.Warn("Skipping ledger entry with malformed date", "goal_id", goalID, "date", rawDate, "error", err)
			continue
		}
		completedDates = append(completedDates, key)

		merged := records[key]
		if merged == nil {
			merged = map[string]entities.TaskCompletionRecord{}
			records[key] = merged
		}
		for taskID, rec := range perTask {
			rec.DateKey = key
			merged[taskID] = rec
		}
	}

	// Completion instants are display data only. Dates the ledger gives
	// no instant for get no entry; timestamps are never invented.
	instants := map[dates.DateKey]time.Time{}
	for rawDate, at := range ledger.CheckinTimes {
		key, err := dates.Parse(rawDate)
		if err != nil {
			s.logger.Warn("Skipping check-in time with malformed date", "goal_id", goalID, "date", rawDate, "error", err)
			continue
		}
		instants[key] = at
	}

	s.cache.MergeLedger(goalID, completedDates, records, instants)

	s.logger.Debug("Completion ledger reconciled", "goal_id", goalID, "dates", len(completedDates))

	return nil
}

// CompletionsFor exposes the cached records under any encoding of the
// date; lookup normalizes before it compares.
func (s *LedgerService) CompletionsFor(goalID uuid.UUID, rawDate string) (map[string]entities.TaskCompletionRecord, bool) {
	return s.cache.CompletionsFor(goalID, rawDate)
}
