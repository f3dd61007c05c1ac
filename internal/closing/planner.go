package closing

import (
	"sort"
	"time"

	"github.com/fentz26/shavtzak/internal/models"
)

// Plan is a worker's closing schedule over a window of closing weekends:
// the weekends they must close (fixed duty blocks) and the weekends they
// should close to hold their target interval.
type Plan struct {
	RequiredDates []time.Time
	OptimalDates  []time.Time
}

// PlanSchedule selects optimal closing weekends around required anchors.
//
// weeks is the ordered list of closing weekends in the window (normally
// Fridays); required holds the weekends the worker already must close.
// For interval n, any two selected closes must be at least n weeks
// apart. Selection is greedy at minimum spacing, which maximizes the
// number of closes under the constraint: fill before the first anchor,
// between consecutive anchors, and after the last anchor, always
// stepping by the interval. Intervals below two weeks are clamped to
// two, like NextOptimalDate.
func PlanSchedule(weeks []time.Time, required []time.Time, intervalWeeks int) *Plan {
	if intervalWeeks < 2 {
		intervalWeeks = 2
	}
	if len(weeks) == 0 {
		return &Plan{}
	}

	index := make(map[time.Time]int, len(weeks))
	for i, w := range weeks {
		index[models.Day(w)] = i + 1 // 1-based week numbers
	}

	var requiredWeeks []int
	var requiredDates []time.Time
	for _, d := range required {
		if n, ok := index[models.Day(d)]; ok {
			requiredWeeks = append(requiredWeeks, n)
			requiredDates = append(requiredDates, models.Day(d))
		}
	}
	sort.Ints(requiredWeeks)
	sort.Slice(requiredDates, func(i, j int) bool { return requiredDates[i].Before(requiredDates[j]) })

	optimalWeeks := selectOptimalWeeks(len(weeks), requiredWeeks, intervalWeeks)

	plan := &Plan{RequiredDates: requiredDates}
	for _, n := range optimalWeeks {
		plan.OptimalDates = append(plan.OptimalDates, weeks[n-1])
	}
	return plan
}

// selectOptimalWeeks picks week numbers (1-based) keeping every pair of
// closes, required ones included, at least interval weeks apart.
func selectOptimalWeeks(totalWeeks int, required []int, interval int) []int {
	isRequired := make(map[int]bool, len(required))
	for _, w := range required {
		isRequired[w] = true
	}
	var picks []int

	if len(required) == 0 {
		for w := 1; w <= totalWeeks; w += interval {
			picks = append(picks, w)
		}
		return picks
	}

	// Before the first anchor: latest pick must leave a full interval.
	first := required[0]
	for w := 1; w <= first-interval; w += interval {
		picks = append(picks, w)
	}

	// Between consecutive anchors.
	for i := 0; i < len(required)-1; i++ {
		a, b := required[i], required[i+1]
		for w := a + interval; w <= b-interval; w += interval {
			picks = append(picks, w)
		}
	}

	// After the last anchor.
	last := required[len(required)-1]
	for w := last + interval; w <= totalWeeks; w += interval {
		picks = append(picks, w)
	}

	var out []int
	seen := make(map[int]bool)
	for _, w := range picks {
		if w < 1 || w > totalWeeks || isRequired[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// NextOptimalDate finds the earliest weekend after a given date that
// keeps the minimum interval from every prior close. Used to reschedule
// a worker who missed an optimal closing weekend.
func NextOptimalDate(history []time.Time, intervalWeeks int, after time.Time, weeks []time.Time) (time.Time, bool) {
	if intervalWeeks < 2 {
		intervalWeeks = 2
	}
	for _, d := range weeks {
		day := models.Day(d)
		if !day.After(models.Day(after)) {
			continue
		}
		ok := true
		for _, prior := range history {
			gap := day.Sub(models.Day(prior)).Hours() / 24
			if gap < 0 {
				gap = -gap
			}
			if int(gap)/7 < intervalWeeks {
				ok = false
				break
			}
		}
		if ok {
			return day, true
		}
	}
	return time.Time{}, false
}
