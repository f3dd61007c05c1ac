// Package roster holds the worker registry: the single mutation point
// for worker counters and closing history.
package roster

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fentz26/shavtzak/internal/models"
)

// Sentinel errors for registry operations.
var (
	ErrNotFound      = errors.New("worker not found")
	ErrDuplicate     = errors.New("worker already registered")
	ErrDataIntegrity = errors.New("worker state failed integrity check")
	ErrInvalidConfig = errors.New("invalid worker configuration")
)

// Filter narrows List results. A nil Officer matches both flags.
type Filter struct {
	Qualification string
	Officer       *bool
}

// Scope selects which counter groups a reset touches. Identity and
// qualifications are never part of a reset.
type Scope struct {
	Tasks    bool
	Closings bool
	Score    bool
}

// Registry is the in-memory worker registry. All mutation is serialized
// behind one mutex; only the assignment engine and explicit admin
// operations go through it.
type Registry struct {
	mu      sync.Mutex
	workers map[string]*models.Worker
	order   []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{workers: make(map[string]*models.Worker)}
}

// FromWorkers builds a registry from a roster snapshot, preserving the
// given order as insertion order.
func FromWorkers(ws []*models.Worker) (*Registry, error) {
	r := New()
	for _, w := range ws {
		if err := r.Add(w); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers a worker. The registry keeps its own copy.
func (r *Registry) Add(w *models.Worker) error {
	if w.ID == "" {
		return fmt.Errorf("%w: worker has no id", ErrInvalidConfig)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workers[w.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, w.ID)
	}
	c := w.Clone()
	if c.XTaskCounts == nil {
		c.XTaskCounts = make(map[string]int)
	}
	if c.YTaskCounts == nil {
		c.YTaskCounts = make(map[string]int)
	}
	r.workers[w.ID] = c
	r.order = append(r.order, w.ID)
	return nil
}

// Get returns a copy of the worker.
func (r *Registry) Get(id string) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return w.Clone(), nil
}

// List returns copies of workers matching the filter, in insertion order.
func (r *Registry) List(f Filter) []*models.Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Worker
	for _, id := range r.order {
		w := r.workers[id]
		if f.Qualification != "" && !w.HasQualification(f.Qualification) {
			continue
		}
		if f.Officer != nil && w.Officer != *f.Officer {
			continue
		}
		out = append(out, w.Clone())
	}
	return out
}

// Snapshot returns copies of all workers in insertion order. Readers get
// a consistent view: the copy is taken under the registry lock, so a
// partially committed run is never observed.
func (r *Registry) Snapshot() []*models.Worker {
	return r.List(Filter{})
}

// Len returns the number of registered workers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// ApplyAssignment increments the worker's counter for the task type and,
// for closing-type Y tasks, appends the date to the closing history.
// The whole update happens under one lock acquisition, so it is atomic
// with respect to other registry operations.
func (r *Registry) ApplyAssignment(workerID, taskType string, isX, closing bool, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[workerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, workerID)
	}
	if closing && isX {
		return fmt.Errorf("%w: closing assignment on X task %q", ErrInvalidConfig, taskType)
	}
	if isX {
		w.XTaskCounts[taskType]++
	} else {
		w.YTaskCounts[taskType]++
	}
	if closing {
		w.TotalClosings++
		// Periods may be scheduled out of order (backfilling an earlier
		// month is a normal flow); insert in sorted position so the
		// history invariant holds regardless of run order.
		day := models.Day(date)
		i := sort.Search(len(w.ClosingHistory), func(i int) bool {
			return w.ClosingHistory[i].After(day)
		})
		w.ClosingHistory = append(w.ClosingHistory, time.Time{})
		copy(w.ClosingHistory[i+1:], w.ClosingHistory[i:])
		w.ClosingHistory[i] = day
	}
	return nil
}

// ReverseAssignment undoes a previously applied assignment. Used by the
// engine's explicit clear-before-regenerate path so edit runs never
// double-count.
func (r *Registry) ReverseAssignment(workerID, taskType string, isX, closing bool, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[workerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, workerID)
	}
	if isX {
		if w.XTaskCounts[taskType] <= 0 {
			return fmt.Errorf("%w: reversing %q would make worker %s counter negative", ErrDataIntegrity, taskType, workerID)
		}
		w.XTaskCounts[taskType]--
	} else {
		if w.YTaskCounts[taskType] <= 0 {
			return fmt.Errorf("%w: reversing %q would make worker %s counter negative", ErrDataIntegrity, taskType, workerID)
		}
		w.YTaskCounts[taskType]--
	}
	if closing {
		day := models.Day(date)
		for i := len(w.ClosingHistory) - 1; i >= 0; i-- {
			if w.ClosingHistory[i].Equal(day) {
				w.ClosingHistory = append(w.ClosingHistory[:i], w.ClosingHistory[i+1:]...)
				w.TotalClosings--
				break
			}
		}
	}
	return nil
}

// ResetCounters zeroes only the requested scope for one worker.
// Identity and qualifications are untouched.
func (r *Registry) ResetCounters(workerID string, scope Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[workerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, workerID)
	}
	resetWorker(w, scope)
	return nil
}

// ResetAllCounters applies a scoped reset to every worker.
func (r *Registry) ResetAllCounters(scope Scope) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		resetWorker(r.workers[id], scope)
	}
	return len(r.order)
}

func resetWorker(w *models.Worker, scope Scope) {
	if scope.Tasks {
		w.XTaskCounts = make(map[string]int)
		w.YTaskCounts = make(map[string]int)
	}
	if scope.Closings {
		w.TotalClosings = 0
		w.ClosingHistory = nil
	}
	if scope.Score {
		w.Score = 0
	}
}

// Validate checks every worker for corrupted state: negative counters or
// a closing history that runs backwards. The engine refuses to start a
// run over a registry that fails validation.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if err := validateWorker(r.workers[id]); err != nil {
			return err
		}
	}
	return nil
}

func validateWorker(w *models.Worker) error {
	for t, n := range w.XTaskCounts {
		if n < 0 {
			return fmt.Errorf("%w: worker %s has negative X count for %q", ErrDataIntegrity, w.ID, t)
		}
	}
	for t, n := range w.YTaskCounts {
		if n < 0 {
			return fmt.Errorf("%w: worker %s has negative Y count for %q", ErrDataIntegrity, w.ID, t)
		}
	}
	if w.TotalClosings < 0 {
		return fmt.Errorf("%w: worker %s has negative closing total", ErrDataIntegrity, w.ID)
	}
	if !sort.SliceIsSorted(w.ClosingHistory, func(i, j int) bool {
		return w.ClosingHistory[i].Before(w.ClosingHistory[j])
	}) {
		return fmt.Errorf("%w: worker %s closing history is out of order", ErrDataIntegrity, w.ID)
	}
	return nil
}

// UpdateWorker replaces a worker's static attributes via an explicit
// admin edit. Counters and history are preserved.
func (r *Registry) UpdateWorker(id string, name string, qualifications []string, officer bool, seniority string, intervalWeeks float64) error {
	if intervalWeeks <= 0 {
		return fmt.Errorf("%w: closing interval must be positive, got %v", ErrInvalidConfig, intervalWeeks)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	w.Name = name
	w.Qualifications = append([]string(nil), qualifications...)
	w.Officer = officer
	w.Seniority = seniority
	w.ClosingIntervalWeeks = intervalWeeks
	return nil
}
