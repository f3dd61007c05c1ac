// Package stats aggregates registry and assignment history into the
// reporting dataset external dashboards consume. Snapshots are derived
// state: a cache over the registry and assignment log, never a source
// of truth.
package stats

import (
	"fmt"
	"sync"

	"github.com/fentz26/shavtzak/internal/catalog"
	"github.com/fentz26/shavtzak/internal/closing"
	"github.com/fentz26/shavtzak/internal/models"
)

// Aggregator computes statistics snapshots and caches the current one.
// Reset clears only the cache; recomputing after a reset reproduces the
// same numbers because everything derives from registry and history.
type Aggregator struct {
	mu      sync.Mutex
	current *models.StatisticsSnapshot
}

// New returns an aggregator with no cached snapshot.
func New() *Aggregator {
	return &Aggregator{}
}

// Summarize builds a snapshot from a roster snapshot, the assignment
// log, and the catalog. The result is deterministic for identical
// inputs: workers keep their given order and task types keep catalog
// order, and the snapshot carries no generation timestamp.
func (a *Aggregator) Summarize(workers []*models.Worker, assignments []models.Assignment, cat *catalog.Catalog) (*models.StatisticsSnapshot, error) {
	snap := &models.StatisticsSnapshot{TotalWorkers: len(workers)}

	grandTotal := 0
	for _, w := range workers {
		snap.TotalX += w.XTotal()
		snap.TotalY += w.YTotal()
		grandTotal += w.TotalTasks()
	}
	mean := 0.0
	if len(workers) > 0 {
		mean = float64(grandTotal) / float64(len(workers))
	}

	accuracySum := 0.0
	for _, w := range workers {
		ws := models.WorkerStats{
			ID:     w.ID,
			Name:   w.Name,
			XTotal: w.XTotal(),
			YTotal: w.YTotal(),
			Total:  w.TotalTasks(),
		}
		if grandTotal > 0 {
			ws.SharePercent = float64(ws.Total) / float64(grandTotal) * 100
		}
		if mean > 0 {
			ws.DeviationPercent = (float64(ws.Total) - mean) / mean * 100
		}

		// Workers with no positive target interval get no closing
		// record at all rather than a fabricated one.
		if w.ClosingIntervalWeeks > 0 {
			rec, err := closing.Analyze(w.ClosingHistory, w.ClosingIntervalWeeks)
			if err != nil {
				return nil, fmt.Errorf("closing analysis for worker %s: %w", w.ID, err)
			}
			ws.Closing = rec
			if rec.LowSample {
				if rec.TotalClosings > 0 {
					snap.Closing.LowConfidence++
				}
			} else {
				snap.Closing.WorkersWithClosings++
				accuracySum += rec.AccuracyPercent
				switch {
				case rec.AccuracyPercent >= 90:
					snap.Closing.Above90++
					snap.Closing.Above80++
				case rec.AccuracyPercent >= 80:
					snap.Closing.Above80++
				case rec.AccuracyPercent < 50:
					snap.Closing.Below50++
				}
			}
		}
		snap.Workers = append(snap.Workers, ws)
	}
	if snap.Closing.WorkersWithClosings > 0 {
		snap.Closing.AverageAccuracy = accuracySum / float64(snap.Closing.WorkersWithClosings)
	}

	totalsByType := make(map[string]int)
	for _, asg := range assignments {
		totalsByType[asg.TaskType]++
	}
	for _, t := range cat.Types() {
		ts := models.TaskTypeStats{
			Name:             t.Name,
			Kind:             t.Kind,
			TotalAssignments: totalsByType[t.Name],
		}
		for _, w := range workers {
			if w.HasQualification(t.RequiredQualification) {
				ts.QualifiedWorkers++
			}
		}
		if ts.QualifiedWorkers > 0 {
			ts.AvgPerQualified = float64(ts.TotalAssignments) / float64(ts.QualifiedWorkers)
		}
		snap.TaskTypes = append(snap.TaskTypes, ts)
	}

	a.mu.Lock()
	a.current = snap
	a.mu.Unlock()
	return snap, nil
}

// Current returns the cached snapshot, or nil after a reset.
func (a *Aggregator) Current() *models.StatisticsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Reset clears the cached snapshot. The registry and assignment history
// are untouched, so the next Summarize reproduces the same numbers.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.current = nil
	a.mu.Unlock()
}
