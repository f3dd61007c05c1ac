package closing

import (
	"errors"
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAnalyzeExactInterval(t *testing.T) {
	dates := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 15),
		date(2024, time.January, 29),
	}

	rec, err := Analyze(dates, 2)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if rec.LowSample {
		t.Fatal("Expected full analysis, got low-sample record")
	}
	if len(rec.Intervals) != 2 {
		t.Fatalf("Expected 2 intervals, got %d", len(rec.Intervals))
	}
	for i, iv := range rec.Intervals {
		if iv != 2.0 {
			t.Errorf("Interval %d: expected 2.0 weeks, got %v", i, iv)
		}
	}
	if rec.ActualAvgWeeks != 2.0 {
		t.Errorf("Expected average 2.0 weeks, got %v", rec.ActualAvgWeeks)
	}
	if rec.AccuracyPercent != 100 {
		t.Errorf("Expected 100%% accuracy, got %v", rec.AccuracyPercent)
	}
}

func TestAnalyzeOffTargetInterval(t *testing.T) {
	// 19 days apart against a 2-week target.
	dates := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 20),
	}

	rec, err := Analyze(dates, 2)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	wantInterval := 19.0 / 7.0
	if math.Abs(rec.Intervals[0]-wantInterval) > 1e-9 {
		t.Errorf("Expected interval %v, got %v", wantInterval, rec.Intervals[0])
	}
	wantAccuracy := 100 * (1 - math.Abs(wantInterval-2)/2)
	if math.Abs(rec.AccuracyPercent-wantAccuracy) > 1e-9 {
		t.Errorf("Expected accuracy %v, got %v", wantAccuracy, rec.AccuracyPercent)
	}
	// A 19-day gap against a 2-week target lands around 64.3%.
	if rec.AccuracyPercent < 64 || rec.AccuracyPercent > 65 {
		t.Errorf("Accuracy %v outside expected 64-65%% band", rec.AccuracyPercent)
	}
}

func TestAnalyzeLowSample(t *testing.T) {
	for _, dates := range [][]time.Time{
		nil,
		{date(2024, time.March, 1)},
	} {
		rec, err := Analyze(dates, 2)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if !rec.LowSample {
			t.Errorf("Expected low-sample flag for %d closing(s)", len(dates))
		}
		if rec.ActualAvgWeeks != 0 || rec.AccuracyPercent != 0 || len(rec.Intervals) != 0 {
			t.Errorf("Low-sample record must not carry fabricated numbers: %+v", rec)
		}
	}
}

func TestAnalyzeUnsortedInput(t *testing.T) {
	dates := []time.Time{
		date(2024, time.January, 29),
		date(2024, time.January, 1),
		date(2024, time.January, 15),
	}

	rec, err := Analyze(dates, 2)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rec.ActualAvgWeeks != 2.0 {
		t.Errorf("Expected defensive sort to yield average 2.0, got %v", rec.ActualAvgWeeks)
	}
}

func TestAnalyzeInvalidTarget(t *testing.T) {
	for _, target := range []float64{0, -1} {
		_, err := Analyze([]time.Time{date(2024, time.January, 1)}, target)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Target %v: expected ErrInvalidConfig, got %v", target, err)
		}
	}
}

func TestAnalyzeAccuracyClamped(t *testing.T) {
	// Average interval far beyond twice the target drives the raw
	// formula negative; the result must clamp to zero.
	dates := []time.Time{
		date(2024, time.January, 5),
		date(2024, time.May, 3),
	}

	rec, err := Analyze(dates, 2)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rec.AccuracyPercent != 0 {
		t.Errorf("Expected clamped accuracy 0, got %v", rec.AccuracyPercent)
	}
}

func TestFridaysBetween(t *testing.T) {
	// 2024-03-01 is a Friday.
	fridays := FridaysBetween(date(2024, time.March, 1), date(2024, time.March, 31))
	if len(fridays) != 5 {
		t.Fatalf("Expected 5 Fridays in March 2024, got %d", len(fridays))
	}
	for _, f := range fridays {
		if f.Weekday() != time.Friday {
			t.Errorf("Expected Friday, got %s on %s", f.Weekday(), f)
		}
	}
}
