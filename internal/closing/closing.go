// Package closing computes closing-interval statistics and plans
// closing schedules against a worker's target interval.
package closing

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fentz26/shavtzak/internal/models"
)

// ErrInvalidConfig reports a malformed target interval.
var ErrInvalidConfig = errors.New("invalid closing interval configuration")

const daysPerWeek = 7.0

// Analyze computes actual inter-closing intervals and an accuracy
// percentage against the target interval.
//
// Intervals are the real gaps between consecutive closing dates in
// weeks; nothing is derived from a fixed horizon or from dividing a
// constant by the closing count. With fewer than two closings the
// record is flagged LowSample and carries no fabricated averages.
func Analyze(dates []time.Time, targetWeeks float64) (*models.ClosingIntervalRecord, error) {
	if targetWeeks <= 0 {
		return nil, fmt.Errorf("%w: target interval must be positive, got %v", ErrInvalidConfig, targetWeeks)
	}

	sorted := make([]time.Time, len(dates))
	for i, d := range dates {
		sorted[i] = models.Day(d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	rec := &models.ClosingIntervalRecord{
		TargetWeeks:   targetWeeks,
		TotalClosings: len(sorted),
	}
	if len(sorted) < 2 {
		rec.LowSample = true
		return rec, nil
	}

	intervals := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		days := sorted[i].Sub(sorted[i-1]).Hours() / 24
		intervals = append(intervals, days/daysPerWeek)
	}

	sum := 0.0
	min, max := intervals[0], intervals[0]
	for _, iv := range intervals {
		sum += iv
		if iv < min {
			min = iv
		}
		if iv > max {
			max = iv
		}
	}
	avg := sum / float64(len(intervals))

	accuracy := 100 * (1 - abs(avg-targetWeeks)/targetWeeks)
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 100 {
		accuracy = 100
	}

	rec.Intervals = intervals
	rec.ActualAvgWeeks = avg
	rec.MinWeeks = min
	rec.MaxWeeks = max
	rec.AccuracyPercent = accuracy
	return rec, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// FridaysBetween returns every Friday between start and end inclusive.
// Fridays anchor closing weekends throughout the scheduler.
func FridaysBetween(start, end time.Time) []time.Time {
	var fridays []time.Time
	for d := models.Day(start); !d.After(models.Day(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Friday {
			fridays = append(fridays, d)
		}
	}
	return fridays
}
