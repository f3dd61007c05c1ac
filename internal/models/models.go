// Package models defines the core domain types for shavtzak.
package models

import (
	"time"
)

// TaskKind distinguishes fixed-shape duty blocks (X) from flexible
// support-role assignments (Y).
type TaskKind string

const (
	TaskKindX TaskKind = "x"
	TaskKindY TaskKind = "y"
)

// DateLayout is the canonical calendar-date encoding used across the
// store and CLI.
const DateLayout = "2006-01-02"

// ParseDate parses a canonical calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a date in the canonical encoding.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates a timestamp to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Worker is a roster member with static attributes and the mutable
// counters the assignment engine balances on.
type Worker struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	StartDate      time.Time `json:"start_date"`
	Qualifications []string  `json:"qualifications"`
	Officer        bool      `json:"officer"`
	Seniority      string    `json:"seniority"`
	// ClosingIntervalWeeks is the target spacing between on-base closings.
	ClosingIntervalWeeks float64 `json:"closing_interval_weeks"`

	XTaskCounts    map[string]int `json:"x_task_counts"`
	YTaskCounts    map[string]int `json:"y_task_counts"`
	TotalClosings  int            `json:"total_closings"`
	ClosingHistory []time.Time    `json:"closing_history"`
	// Score is a legacy fairness scalar kept for admin visibility; the
	// comparator no longer reads it.
	Score float64 `json:"score"`
}

// HasQualification reports whether the worker holds the named qualification.
// An empty name always matches.
func (w *Worker) HasQualification(name string) bool {
	if name == "" {
		return true
	}
	for _, q := range w.Qualifications {
		if q == name {
			return true
		}
	}
	return false
}

// XTotal is the worker's total X-task count across types.
func (w *Worker) XTotal() int {
	total := 0
	for _, n := range w.XTaskCounts {
		total += n
	}
	return total
}

// YTotal is the worker's total Y-task count across types.
func (w *Worker) YTotal() int {
	total := 0
	for _, n := range w.YTaskCounts {
		total += n
	}
	return total
}

// TotalTasks is the combined X and Y task count.
func (w *Worker) TotalTasks() int {
	return w.XTotal() + w.YTotal()
}

// TaskCount returns the worker's count for one task type, regardless of kind.
func (w *Worker) TaskCount(taskType string) int {
	return w.XTaskCounts[taskType] + w.YTaskCounts[taskType]
}

// Clone returns a deep copy of the worker.
func (w *Worker) Clone() *Worker {
	c := *w
	c.Qualifications = append([]string(nil), w.Qualifications...)
	c.ClosingHistory = append([]time.Time(nil), w.ClosingHistory...)
	c.XTaskCounts = make(map[string]int, len(w.XTaskCounts))
	for k, v := range w.XTaskCounts {
		c.XTaskCounts[k] = v
	}
	c.YTaskCounts = make(map[string]int, len(w.YTaskCounts))
	for k, v := range w.YTaskCounts {
		c.YTaskCounts[k] = v
	}
	return &c
}

// Period is the scheduling window an engine run fills, inclusive on both ends.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns every calendar date in the period in chronological order.
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := Day(p.Start); !d.After(Day(p.End)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether a date falls inside the period.
func (p Period) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(p.Start)) && !d.After(Day(p.End))
}

// TaskSlot is a single fillable position for a task type on a date.
// Slots exist only as engine input; the committed Assignment is what
// gets persisted.
type TaskSlot struct {
	TaskType string    `json:"task_type"`
	Kind     TaskKind  `json:"kind"`
	Date     time.Time `json:"date"`
	// EndDate equals Date for single-day slots; multi-day X slots span
	// Date through EndDate inclusive.
	EndDate time.Time `json:"end_date"`
	// Index disambiguates concurrent slots of the same type on one date.
	Index int `json:"index"`

	RequiredQualification string `json:"required_qualification,omitempty"`
	AutoAssign            bool   `json:"auto_assign"`
	Closing               bool   `json:"closing"`
}

// Dates returns every calendar date the slot occupies.
func (s TaskSlot) Dates() []time.Time {
	return Period{Start: s.Date, End: s.EndDate}.Days()
}

// Assignment is a committed (worker, slot) pairing.
type Assignment struct {
	WorkerID  string    `json:"worker_id"`
	TaskType  string    `json:"task_type"`
	Kind      TaskKind  `json:"kind"`
	Date      time.Time `json:"date"`
	EndDate   time.Time `json:"end_date"`
	SlotIndex int       `json:"slot_index"`
}

// Dates returns every calendar date the assignment occupies.
func (a Assignment) Dates() []time.Time {
	end := a.EndDate
	if end.IsZero() {
		end = a.Date
	}
	return Period{Start: a.Date, End: end}.Days()
}

// RunState tracks an engine run through its lifecycle.
type RunState string

const (
	RunPending         RunState = "pending"
	RunFilling         RunState = "filling"
	RunCommitted       RunState = "committed"
	RunPartiallyFilled RunState = "partially_filled"
)

// Unfilled-slot reasons reported on SlotResult.
const (
	ReasonNoEligibleWorker   = "no eligible worker"
	ReasonAutoAssignDisabled = "excluded from auto-assign"
	ReasonCommitFailed       = "commit failed"
)

// SlotResult is the outcome for one slot in a run.
type SlotResult struct {
	Slot     TaskSlot `json:"slot"`
	WorkerID string   `json:"worker_id,omitempty"`
	// Kept marks an edit-run slot whose existing assignment was preserved
	// without re-incrementing counters.
	Kept     bool   `json:"kept,omitempty"`
	Unfilled bool   `json:"unfilled,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Conflict is an X/Y double-booking for one worker on one date.
type Conflict struct {
	WorkerID string    `json:"worker_id"`
	Date     time.Time `json:"date"`
	XTask    string    `json:"x_task"`
	YTask    string    `json:"y_task"`
}

// RunResult is the full output of an engine run.
type RunResult struct {
	RunID     string       `json:"run_id"`
	Period    Period       `json:"period"`
	State     RunState     `json:"state"`
	Results   []SlotResult `json:"results"`
	Unfilled  []SlotResult `json:"unfilled,omitempty"`
	Conflicts []Conflict   `json:"conflicts,omitempty"`
}

// Assignments returns the committed (or kept) assignments of the run.
func (r *RunResult) Assignments() []Assignment {
	var out []Assignment
	for _, res := range r.Results {
		if res.Unfilled || res.WorkerID == "" {
			continue
		}
		out = append(out, Assignment{
			WorkerID:  res.WorkerID,
			TaskType:  res.Slot.TaskType,
			Kind:      res.Slot.Kind,
			Date:      res.Slot.Date,
			EndDate:   res.Slot.EndDate,
			SlotIndex: res.Slot.Index,
		})
	}
	return out
}

// ClosingIntervalRecord is the derived per-worker closing analysis.
type ClosingIntervalRecord struct {
	Intervals   []float64 `json:"intervals"`
	TargetWeeks float64   `json:"target_weeks"`
	// ActualAvgWeeks and AccuracyPercent are meaningless when LowSample
	// is set; callers must not read them in that case.
	ActualAvgWeeks  float64 `json:"actual_avg_weeks"`
	MinWeeks        float64 `json:"min_weeks"`
	MaxWeeks        float64 `json:"max_weeks"`
	AccuracyPercent float64 `json:"accuracy_percent"`
	TotalClosings   int     `json:"total_closings"`
	// LowSample flags workers with fewer than two closings; no numeric
	// accuracy is fabricated for them.
	LowSample bool `json:"low_sample"`
}

// WorkerStats is one worker's row in a statistics snapshot.
type WorkerStats struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	XTotal           int                    `json:"x_total"`
	YTotal           int                    `json:"y_total"`
	Total            int                    `json:"total"`
	SharePercent     float64                `json:"share_percent"`
	DeviationPercent float64                `json:"deviation_percent"`
	Closing          *ClosingIntervalRecord `json:"closing,omitempty"`
}

// TaskTypeStats is one task type's utilization row.
type TaskTypeStats struct {
	Name             string   `json:"name"`
	Kind             TaskKind `json:"kind"`
	QualifiedWorkers int      `json:"qualified_workers"`
	TotalAssignments int      `json:"total_assignments"`
	AvgPerQualified  float64  `json:"avg_per_qualified"`
}

// ClosingSummary is the aggregate closing-accuracy distribution.
type ClosingSummary struct {
	WorkersWithClosings int     `json:"workers_with_closings"`
	LowConfidence       int     `json:"low_confidence"`
	AverageAccuracy     float64 `json:"average_accuracy"`
	Above90             int     `json:"above_90"`
	Above80             int     `json:"above_80"`
	Below50             int     `json:"below_50"`
}

// StatisticsSnapshot is the full derived reporting dataset. It carries no
// identity or timestamp of its own so that identical inputs always produce
// identical snapshots; the store attaches those when persisting.
type StatisticsSnapshot struct {
	Workers   []WorkerStats   `json:"workers"`
	TaskTypes []TaskTypeStats `json:"task_types"`

	TotalWorkers int            `json:"total_workers"`
	TotalX       int            `json:"total_x"`
	TotalY       int            `json:"total_y"`
	Closing      ClosingSummary `json:"closing"`
}
