package engine

import (
	"sort"
	"time"

	"github.com/fentz26/shavtzak/internal/models"
)

// Conflicts lists every (worker, date, x task, y task) double-booking
// between a committed X period and the existing Y schedules. This is a
// read-only derived query; nothing is resolved or dropped here, the
// operator decides.
func Conflicts(xAssignments, yAssignments []models.Assignment) []models.Conflict {
	xByWorkerDay := make(map[string]map[time.Time][]string)
	for _, a := range xAssignments {
		days, ok := xByWorkerDay[a.WorkerID]
		if !ok {
			days = make(map[time.Time][]string)
			xByWorkerDay[a.WorkerID] = days
		}
		for _, d := range a.Dates() {
			days[models.Day(d)] = append(days[models.Day(d)], a.TaskType)
		}
	}

	var conflicts []models.Conflict
	for _, y := range yAssignments {
		days, ok := xByWorkerDay[y.WorkerID]
		if !ok {
			continue
		}
		for _, d := range y.Dates() {
			for _, xTask := range days[models.Day(d)] {
				conflicts = append(conflicts, models.Conflict{
					WorkerID: y.WorkerID,
					Date:     models.Day(d),
					XTask:    xTask,
					YTask:    y.TaskType,
				})
			}
		}
	}
	sortConflicts(conflicts)
	return conflicts
}

// conflictsFromOccupancy surfaces X/Y double-bookings present in a run's
// occupancy map. The engine never creates these itself; they come from
// the existing assignment set handed to an edit run.
func conflictsFromOccupancy(occupied map[string]map[time.Time][]occupant) []models.Conflict {
	var conflicts []models.Conflict
	for workerID, days := range occupied {
		for day, occs := range days {
			for _, x := range occs {
				if x.kind != models.TaskKindX {
					continue
				}
				for _, y := range occs {
					if y.kind != models.TaskKindY {
						continue
					}
					conflicts = append(conflicts, models.Conflict{
						WorkerID: workerID,
						Date:     day,
						XTask:    x.taskType,
						YTask:    y.taskType,
					})
				}
			}
		}
	}
	sortConflicts(conflicts)
	return conflicts
}

func sortConflicts(conflicts []models.Conflict) {
	sort.Slice(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.WorkerID != b.WorkerID {
			return a.WorkerID < b.WorkerID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.XTask != b.XTask {
			return a.XTask < b.XTask
		}
		return a.YTask < b.YTask
	})
}
