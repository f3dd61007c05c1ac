package engine

import (
	"strings"

	"github.com/fentz26/shavtzak/internal/models"
)

// Compare is the fairness ordering over candidate workers for a slot of
// the given task type. The smallest worker wins the slot.
//
// The key is (total task count, count for this task type, worker id),
// ascending. The worker id tiebreak makes the order total, so no two
// distinct workers ever compare equal. The comparator is stateless: it
// reads counters off the worker values it is handed and mutates nothing.
func Compare(a, b *models.Worker, taskType string) int {
	at, bt := a.TotalTasks(), b.TotalTasks()
	if at != bt {
		if at < bt {
			return -1
		}
		return 1
	}
	ac, bc := a.TaskCount(taskType), b.TaskCount(taskType)
	if ac != bc {
		if ac < bc {
			return -1
		}
		return 1
	}
	return strings.Compare(a.ID, b.ID)
}

// Less reports whether a orders before b for the given task type.
func Less(a, b *models.Worker, taskType string) bool {
	return Compare(a, b, taskType) < 0
}

// pickMin returns the minimal worker under the comparator, or nil for an
// empty candidate list.
func pickMin(candidates []*models.Worker, taskType string) *models.Worker {
	var best *models.Worker
	for _, w := range candidates {
		if best == nil || Less(w, best, taskType) {
			best = w
		}
	}
	return best
}
