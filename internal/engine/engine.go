// Package engine fills task slots with workers, balancing long-run
// workload via the fairness comparator.
package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fentz26/shavtzak/internal/catalog"
	"github.com/fentz26/shavtzak/internal/models"
	"github.com/fentz26/shavtzak/internal/roster"
	"github.com/google/uuid"
)

// ErrInvalidConfig reports a malformed period definition.
var ErrInvalidConfig = errors.New("invalid period configuration")

// Engine runs scheduling over a registry and a task-type catalog. The
// engine is the only component that mutates registry counters, and it
// processes slots strictly in order: each slot's fairness decision
// depends on the previous slot's counter updates.
type Engine struct {
	registry *roster.Registry
	catalog  *catalog.Catalog
}

// New creates an engine over a registry and catalog.
func New(r *roster.Registry, c *catalog.Catalog) *Engine {
	return &Engine{registry: r, catalog: c}
}

// Options controls an engine run.
type Options struct {
	// Existing holds the already-committed assignments for the period.
	// On an edit run, slots matching an existing assignment are kept
	// without re-incrementing counters.
	Existing []models.Assignment
	// ClearFirst reverses the counters of every existing assignment in
	// the period before regenerating. This is the explicit
	// clear-before-regenerate path; without it existing assignments are
	// diffed, never re-counted.
	ClearFirst bool
}

// occupant records who holds a worker's calendar date during a run.
type occupant struct {
	kind     models.TaskKind
	taskType string
}

// Run fills every slot the period and catalog define. Unfillable slots
// are reported, never fatal: the run completes PartiallyFilled and the
// caller learns which slots need manual attention.
func (e *Engine) Run(period models.Period, opts Options) (*models.RunResult, error) {
	if models.Day(period.End).Before(models.Day(period.Start)) {
		return nil, fmt.Errorf("%w: period end %s precedes start %s",
			ErrInvalidConfig, models.FormatDate(period.End), models.FormatDate(period.Start))
	}
	if err := e.registry.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to run over corrupted registry: %w", err)
	}

	result := &models.RunResult{
		RunID:  uuid.New().String(),
		Period: period,
		State:  models.RunPending,
	}

	existing, err := e.existingInPeriod(period, opts)
	if err != nil {
		return nil, err
	}

	slots := e.buildSlots(period)
	occupied := seedOccupancy(existing)
	remaining := indexExisting(existing)

	result.State = models.RunFilling
	for _, slot := range slots {
		res := e.fillSlot(slot, occupied, remaining)
		result.Results = append(result.Results, res)
		if res.Unfilled {
			result.Unfilled = append(result.Unfilled, res)
		}
	}

	result.Conflicts = conflictsFromOccupancy(occupied)
	if len(result.Unfilled) > 0 {
		result.State = models.RunPartiallyFilled
	} else {
		result.State = models.RunCommitted
	}
	log.Printf("Run %s over %s..%s: %d slots, %d unfilled, %d conflicts (%s)",
		result.RunID, models.FormatDate(period.Start), models.FormatDate(period.End),
		len(result.Results), len(result.Unfilled), len(result.Conflicts), result.State)
	return result, nil
}

// existingInPeriod narrows the existing set to assignments whose span
// overlaps the period and, when requested, reverses their counter
// effects so the period can be rebuilt from scratch. Multi-day blocks
// straddling in from an earlier period still count: their overlap days
// stay occupied.
func (e *Engine) existingInPeriod(period models.Period, opts Options) ([]models.Assignment, error) {
	var existing []models.Assignment
	for _, a := range opts.Existing {
		if !overlapsPeriod(period, a) {
			continue
		}
		if !e.catalog.Has(a.TaskType) {
			return nil, fmt.Errorf("existing assignment references %w: %q", catalog.ErrNotFound, a.TaskType)
		}
		existing = append(existing, a)
	}
	if !opts.ClearFirst {
		return existing, nil
	}
	var kept []models.Assignment
	for _, a := range existing {
		if !period.Contains(a.Date) {
			// A straddling block belongs to an earlier period's run and
			// is not ours to clear; it stays committed and occupied.
			kept = append(kept, a)
			continue
		}
		t, err := e.catalog.Get(a.TaskType)
		if err != nil {
			return nil, err
		}
		if err := e.registry.ReverseAssignment(a.WorkerID, a.TaskType, t.Kind == models.TaskKindX, t.Closing, a.Date); err != nil {
			return nil, fmt.Errorf("clear before regenerate: %w", err)
		}
	}
	return kept, nil
}

func overlapsPeriod(period models.Period, a models.Assignment) bool {
	end := a.EndDate
	if end.IsZero() {
		end = a.Date
	}
	return !models.Day(end).Before(models.Day(period.Start)) &&
		!models.Day(a.Date).After(models.Day(period.End))
}

// buildSlots derives the slot list from the period and catalog. Order is
// deterministic: chronological by date, then catalog order within a
// date, then slot index. X blocks start at the period start and repeat
// every DurationDays.
func (e *Engine) buildSlots(period models.Period) []models.TaskSlot {
	var slots []models.TaskSlot
	days := period.Days()
	for dayIdx, day := range days {
		for _, t := range e.catalog.Types() {
			if t.Kind == models.TaskKindX {
				if dayIdx%t.DurationDays != 0 {
					continue
				}
				end := day.AddDate(0, 0, t.DurationDays-1)
				if end.After(models.Day(period.End)) {
					end = models.Day(period.End)
				}
				for i := 0; i < t.SlotsPerDay; i++ {
					slots = append(slots, models.TaskSlot{
						TaskType:              t.Name,
						Kind:                  t.Kind,
						Date:                  day,
						EndDate:               end,
						Index:                 i,
						RequiredQualification: t.RequiredQualification,
						AutoAssign:            t.AutoAssign,
					})
				}
				continue
			}
			for i := 0; i < t.SlotsPerDay; i++ {
				slots = append(slots, models.TaskSlot{
					TaskType:              t.Name,
					Kind:                  t.Kind,
					Date:                  day,
					EndDate:               day,
					Index:                 i,
					RequiredQualification: t.RequiredQualification,
					AutoAssign:            t.AutoAssign,
					Closing:               t.Closing,
				})
			}
		}
	}
	return slots
}

// fillSlot resolves a single slot: keep an existing assignment, skip a
// manual-only type, or select and commit the fairest eligible worker.
func (e *Engine) fillSlot(slot models.TaskSlot, occupied map[string]map[time.Time][]occupant, remaining map[string][]string) models.SlotResult {
	res := models.SlotResult{Slot: slot}

	// Edit diff: an existing assignment with the same type and date is
	// the same slot; keep it and do not touch counters.
	key := existingKey(slot.TaskType, slot.Date)
	if ids := remaining[key]; len(ids) > 0 {
		res.WorkerID = ids[0]
		res.Kept = true
		remaining[key] = ids[1:]
		return res
	}

	if !slot.AutoAssign {
		res.Unfilled = true
		res.Reason = models.ReasonAutoAssignDisabled
		return res
	}

	candidates := e.eligible(slot, occupied)
	if len(candidates) == 0 {
		res.Unfilled = true
		res.Reason = models.ReasonNoEligibleWorker
		return res
	}

	chosen := pickMin(candidates, slot.TaskType)
	err := e.registry.ApplyAssignment(chosen.ID, slot.TaskType, slot.Kind == models.TaskKindX, slot.Closing, slot.Date)
	if err != nil {
		// Atomic per slot: a failed counter update is never reported as
		// a successful assignment.
		log.Printf("Commit failed for %s on %s: %v", slot.TaskType, models.FormatDate(slot.Date), err)
		res.Unfilled = true
		res.Reason = models.ReasonCommitFailed
		return res
	}

	markOccupied(occupied, chosen.ID, slot.Dates(), occupant{kind: slot.Kind, taskType: slot.TaskType})
	res.WorkerID = chosen.ID
	return res
}

// eligible filters the roster for a slot: required qualification held,
// and no assignment of either kind already on any date the slot spans.
// An X assignment and a Y assignment on the same date are a conflict,
// never silently stacked.
func (e *Engine) eligible(slot models.TaskSlot, occupied map[string]map[time.Time][]occupant) []*models.Worker {
	var out []*models.Worker
	for _, w := range e.registry.List(roster.Filter{Qualification: slot.RequiredQualification}) {
		if isOccupied(occupied, w.ID, slot.Dates()) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func existingKey(taskType string, date time.Time) string {
	return taskType + "|" + models.FormatDate(date)
}

func indexExisting(existing []models.Assignment) map[string][]string {
	idx := make(map[string][]string)
	for _, a := range existing {
		key := existingKey(a.TaskType, a.Date)
		idx[key] = append(idx[key], a.WorkerID)
	}
	return idx
}

func seedOccupancy(existing []models.Assignment) map[string]map[time.Time][]occupant {
	occupied := make(map[string]map[time.Time][]occupant)
	for _, a := range existing {
		markOccupied(occupied, a.WorkerID, a.Dates(), occupant{kind: a.Kind, taskType: a.TaskType})
	}
	return occupied
}

func markOccupied(occupied map[string]map[time.Time][]occupant, workerID string, dates []time.Time, occ occupant) {
	days, ok := occupied[workerID]
	if !ok {
		days = make(map[time.Time][]occupant)
		occupied[workerID] = days
	}
	for _, d := range dates {
		day := models.Day(d)
		days[day] = append(days[day], occ)
	}
}

func isOccupied(occupied map[string]map[time.Time][]occupant, workerID string, dates []time.Time) bool {
	days, ok := occupied[workerID]
	if !ok {
		return false
	}
	for _, d := range dates {
		if len(days[models.Day(d)]) > 0 {
			return true
		}
	}
	return false
}
