// Package state holds the in-process cache of completion state per goal.
// Server truth (the completion ledger, confirmed check-ins) lands in the
// confirmed tier; a submission in flight sits in the pending tier until
// it is promoted or rolled back. Mutations always replace maps instead
// of editing them in place, so a snapshot handed to a caller stays
// consistent while later updates come in.
package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artcycle/core/internal/domain/dates"
	"github.com/artcycle/core/internal/domain/entities"
)

// CycleCache is the single owner of local completion state. It also
// carries the per-goal submission flag and the change subscriptions that
// replace ad hoc "data changed" broadcasts.
type CycleCache struct {
	mu      sync.RWMutex
	goals   map[uuid.UUID]*goalState
	subs    map[int]chan uuid.UUID
	nextSub int
}

type goalState struct {
	confirmed map[dates.DateKey]bool
	pending   map[dates.DateKey]bool
	instants  map[dates.DateKey]time.Time
	notes     map[dates.DateKey]string
	records   map[dates.DateKey]map[string]entities.TaskCompletionRecord
	// evidence staged per day number, then per task.
	evidence map[int]map[string]string
	inFlight bool
}

func NewCycleCache() *CycleCache {
	return &CycleCache{
		goals: make(map[uuid.UUID]*goalState),
		subs:  make(map[int]chan uuid.UUID),
	}
}

func (c *CycleCache) state(goalID uuid.UUID) *goalState {
	gs, ok := c.goals[goalID]
	if !ok {
		gs = &goalState{
			confirmed: map[dates.DateKey]bool{},
			pending:   map[dates.DateKey]bool{},
			instants:  map[dates.DateKey]time.Time{},
			notes:     map[dates.DateKey]string{},
			records:   map[dates.DateKey]map[string]entities.TaskCompletionRecord{},
			evidence:  map[int]map[string]string{},
		}
		c.goals[goalID] = gs
	}
	return gs
}

// Confirmed returns the confirmed completed-date set for a goal. The
// returned map is a snapshot owned by the caller's read: the cache never
// mutates a map it has handed out.
func (c *CycleCache) Confirmed(goalID uuid.UUID) map[dates.DateKey]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gs, ok := c.goals[goalID]
	if !ok {
		return map[dates.DateKey]bool{}
	}
	return gs.confirmed
}

// IsConfirmed reports whether a date is in the confirmed tier.
func (c *CycleCache) IsConfirmed(goalID uuid.UUID, key dates.DateKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gs, ok := c.goals[goalID]
	return ok && gs.confirmed[key]
}

// MergeLedger folds reconciled ledger content into the confirmed tier.
// Dates, records and instants are already normalized to DateKeys by the
// caller. Re-merging identical content is a no-op apart from the change
// notification.
func (c *CycleCache) MergeLedger(goalID uuid.UUID, completedDates []dates.DateKey, records map[dates.DateKey]map[string]entities.TaskCompletionRecord, instants map[dates.DateKey]time.Time) {
	c.mu.Lock()
	gs := c.state(goalID)

	confirmed := cloneSet(gs.confirmed)
	for _, k := range completedDates {
		confirmed[k] = true
	}
	gs.confirmed = confirmed

	recs := cloneRecords(gs.records)
	for k, perTask := range records {
		merged := map[string]entities.TaskCompletionRecord{}
		for taskID, r := range perTask {
			merged[taskID] = r
		}
		recs[k] = merged
	}
	gs.records = recs

	insts := cloneInstants(gs.instants)
	for k, t := range instants {
		insts[k] = t
	}
	gs.instants = insts
	c.mu.Unlock()

	c.notify(goalID)
}

// MarkPending places the requested date in the pending overlay while a
// submission is in flight.
func (c *CycleCache) MarkPending(goalID uuid.UUID, key dates.DateKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gs := c.state(goalID)
	pending := cloneSet(gs.pending)
	pending[key] = true
	gs.pending = pending
}

// RollbackPending drops a pending date after a failed submission.
func (c *CycleCache) RollbackPending(goalID uuid.UUID, key dates.DateKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gs, ok := c.goals[goalID]
	if !ok {
		return
	}
	pending := cloneSet(gs.pending)
	delete(pending, key)
	gs.pending = pending
}

// ConfirmCheckIn promotes a submission: the requested date leaves the
// pending tier and the server-confirmed date joins the confirmed tier,
// with its completion instant and optional note.
func (c *CycleCache) ConfirmCheckIn(goalID uuid.UUID, requested, confirmed dates.DateKey, at time.Time, note *string) {
	c.mu.Lock()
	gs := c.state(goalID)

	pending := cloneSet(gs.pending)
	delete(pending, requested)
	gs.pending = pending

	set := cloneSet(gs.confirmed)
	set[confirmed] = true
	gs.confirmed = set

	insts := cloneInstants(gs.instants)
	insts[confirmed] = at
	gs.instants = insts

	if note != nil {
		notes := cloneNotes(gs.notes)
		notes[confirmed] = *note
		gs.notes = notes
	}
	c.mu.Unlock()

	c.notify(goalID)
}

// CompletionsFor returns the cached task completion records for a date.
// Raw ledger encodings and canonical encodings of the same calendar date
// resolve to the same entry because lookup goes through normalization.
func (c *CycleCache) CompletionsFor(goalID uuid.UUID, rawDate string) (map[string]entities.TaskCompletionRecord, bool) {
	key, err := dates.Parse(rawDate)
	if err != nil {
		return nil, false
	}
	return c.CompletionsForKey(goalID, key)
}

// CompletionsForKey returns the cached records under a normalized key.
func (c *CycleCache) CompletionsForKey(goalID uuid.UUID, key dates.DateKey) (map[string]entities.TaskCompletionRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gs, ok := c.goals[goalID]
	if !ok {
		return nil, false
	}
	recs, ok := gs.records[key]
	return recs, ok
}

// CompletionInstant returns the ledger- or check-in-provided completion
// instant for a date. No entry exists for dates the store gave no
// instant for; timestamps are never fabricated.
func (c *CycleCache) CompletionInstant(goalID uuid.UUID, key dates.DateKey) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gs, ok := c.goals[goalID]
	if !ok {
		return time.Time{}, false
	}
	t, ok := gs.instants[key]
	return t, ok
}

// Note returns the note persisted for a confirmed date.
func (c *CycleCache) Note(goalID uuid.UUID, key dates.DateKey) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gs, ok := c.goals[goalID]
	if !ok {
		return "", false
	}
	n, ok := gs.notes[key]
	return n, ok
}

// SelectEvidence stages an evidence reference for one task of one day.
func (c *CycleCache) SelectEvidence(goalID uuid.UUID, dayNumber int, taskID, evidenceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gs := c.state(goalID)
	evidence := make(map[int]map[string]string, len(gs.evidence))
	for day, m := range gs.evidence {
		evidence[day] = m
	}
	perTask := map[string]string{}
	for t, e := range gs.evidence[dayNumber] {
		perTask[t] = e
	}
	perTask[taskID] = evidenceID
	evidence[dayNumber] = perTask
	gs.evidence = evidence
}

// EvidenceFor returns the staged taskID → evidenceID map for a day.
func (c *CycleCache) EvidenceFor(goalID uuid.UUID, dayNumber int) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gs, ok := c.goals[goalID]
	if !ok {
		return map[string]string{}
	}
	return gs.evidence[dayNumber]
}

// ClearEvidence drops the staged evidence of a day once it is submitted.
func (c *CycleCache) ClearEvidence(goalID uuid.UUID, dayNumber int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gs, ok := c.goals[goalID]
	if !ok {
		return
	}
	evidence := make(map[int]map[string]string, len(gs.evidence))
	for day, m := range gs.evidence {
		if day != dayNumber {
			evidence[day] = m
		}
	}
	gs.evidence = evidence
}

// TryBeginSubmission acquires the goal's submission flag. At most one
// check-in per goal may be in flight; a second caller gets false and
// must surface ErrSubmissionInFlight instead of queueing.
func (c *CycleCache) TryBeginSubmission(goalID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	gs := c.state(goalID)
	if gs.inFlight {
		return false
	}
	gs.inFlight = true
	return true
}

// EndSubmission releases the submission flag on every outcome.
func (c *CycleCache) EndSubmission(goalID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gs, ok := c.goals[goalID]; ok {
		gs.inFlight = false
	}
}

// Purge removes every structure keyed by the goal. Called after a goal
// is deleted so nothing stale can be observed.
func (c *CycleCache) Purge(goalID uuid.UUID) {
	c.mu.Lock()
	delete(c.goals, goalID)
	c.mu.Unlock()

	c.notify(goalID)
}

// Subscribe registers a change listener. The channel receives the goal
// ID whenever that goal's confirmed state changes; slow consumers miss
// notifications rather than blocking updates.
func (c *CycleCache) Subscribe() (int, <-chan uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan uuid.UUID, 8)
	c.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (c *CycleCache) Unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.subs[id]; ok {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *CycleCache) notify(goalID uuid.UUID) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subs {
		select {
		case ch <- goalID:
		default:
		}
	}
}

func cloneSet(m map[dates.DateKey]bool) map[dates.DateKey]bool {
	out := make(map[dates.DateKey]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneInstants(m map[dates.DateKey]time.Time) map[dates.DateKey]time.Time {
	out := make(map[dates.DateKey]time.Time, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneNotes(m map[dates.DateKey]string) map[dates.DateKey]string {
	out := make(map[dates.DateKey]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneRecords(m map[dates.DateKey]map[string]entities.TaskCompletionRecord) map[dates.DateKey]map[string]entities.TaskCompletionRecord {
	out := make(map[dates.DateKey]map[string]entities.TaskCompletionRecord, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
