package roster

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/shavtzak/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newWorker(id string, quals ...string) *models.Worker {
	return &models.Worker{
		ID:                   id,
		Name:                 "Worker " + id,
		Qualifications:       quals,
		ClosingIntervalWeeks: 4,
	}
}

func TestGetUnknownWorker(t *testing.T) {
	r := New()
	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	r := New()
	if err := r.Add(newWorker("w1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add(newWorker("w1")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
}

func TestListInsertionOrderAndFilters(t *testing.T) {
	officer := newWorker("w2", "Driver")
	officer.Officer = true
	r, err := FromWorkers([]*models.Worker{
		newWorker("w3", "Driver"),
		officer,
		newWorker("w1", "Escort"),
	})
	if err != nil {
		t.Fatalf("FromWorkers failed: %v", err)
	}

	all := r.List(Filter{})
	if len(all) != 3 || all[0].ID != "w3" || all[1].ID != "w2" || all[2].ID != "w1" {
		t.Fatalf("Expected insertion order w3,w2,w1, got %v", ids(all))
	}

	drivers := r.List(Filter{Qualification: "Driver"})
	if len(drivers) != 2 {
		t.Errorf("Expected 2 drivers, got %v", ids(drivers))
	}

	isOfficer := true
	officers := r.List(Filter{Officer: &isOfficer})
	if len(officers) != 1 || officers[0].ID != "w2" {
		t.Errorf("Expected only w2, got %v", ids(officers))
	}
}

func ids(ws []*models.Worker) []string {
	var out []string
	for _, w := range ws {
		out = append(out, w.ID)
	}
	return out
}

func TestApplyAssignmentCounters(t *testing.T) {
	r := New()
	if err := r.Add(newWorker("w1", "Driver")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := r.ApplyAssignment("w1", "Driver", false, false, date(2024, time.June, 3)); err != nil {
		t.Fatalf("ApplyAssignment failed: %v", err)
	}
	if err := r.ApplyAssignment("w1", "Guarding", true, false, date(2024, time.June, 4)); err != nil {
		t.Fatalf("ApplyAssignment failed: %v", err)
	}

	w, err := r.Get("w1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if w.YTaskCounts["Driver"] != 1 || w.XTaskCounts["Guarding"] != 1 {
		t.Errorf("Unexpected counters: X=%v Y=%v", w.XTaskCounts, w.YTaskCounts)
	}
	if w.TotalClosings != 0 || len(w.ClosingHistory) != 0 {
		t.Error("Non-closing assignments must not touch closing history")
	}
}

func TestApplyClosingAssignment(t *testing.T) {
	r := New()
	if err := r.Add(newWorker("w1", "Supervisor")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	friday := date(2024, time.June, 7)
	if err := r.ApplyAssignment("w1", "Supervisor", false, true, friday); err != nil {
		t.Fatalf("ApplyAssignment failed: %v", err)
	}

	w, _ := r.Get("w1")
	if w.TotalClosings != 1 || len(w.ClosingHistory) != 1 || !w.ClosingHistory[0].Equal(friday) {
		t.Errorf("Closing not recorded: %+v", w)
	}
}

func TestApplyClosingOutOfOrderKeepsHistorySorted(t *testing.T) {
	r := New()
	if err := r.Add(newWorker("w1", "Supervisor")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Schedule March, backfill February, then continue with April.
	days := []time.Time{
		date(2024, time.March, 8),
		date(2024, time.February, 9),
		date(2024, time.April, 12),
	}
	for _, d := range days {
		if err := r.ApplyAssignment("w1", "Supervisor", false, true, d); err != nil {
			t.Fatalf("ApplyAssignment for %s failed: %v", d, err)
		}
	}

	w, _ := r.Get("w1")
	want := []time.Time{
		date(2024, time.February, 9),
		date(2024, time.March, 8),
		date(2024, time.April, 12),
	}
	if len(w.ClosingHistory) != len(want) {
		t.Fatalf("Expected %d closings, got %d", len(want), len(w.ClosingHistory))
	}
	for i := range want {
		if !w.ClosingHistory[i].Equal(want[i]) {
			t.Fatalf("Expected sorted history %v, got %v", want, w.ClosingHistory)
		}
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Out-of-order scheduling must not corrupt the registry: %v", err)
	}
}

func TestApplyClosingOnXRejected(t *testing.T) {
	r := New()
	if err := r.Add(newWorker("w1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	err := r.ApplyAssignment("w1", "Guarding", true, true, date(2024, time.June, 7))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestReverseAssignment(t *testing.T) {
	r := New()
	if err := r.Add(newWorker("w1", "Supervisor")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	friday := date(2024, time.June, 7)
	if err := r.ApplyAssignment("w1", "Supervisor", false, true, friday); err != nil {
		t.Fatalf("ApplyAssignment failed: %v", err)
	}

	if err := r.ReverseAssignment("w1", "Supervisor", false, true, friday); err != nil {
		t.Fatalf("ReverseAssignment failed: %v", err)
	}
	w, _ := r.Get("w1")
	if w.YTaskCounts["Supervisor"] != 0 || w.TotalClosings != 0 || len(w.ClosingHistory) != 0 {
		t.Errorf("Reverse left residue: %+v", w)
	}

	// Reversing below zero is an integrity failure, not a silent clamp.
	if err := r.ReverseAssignment("w1", "Supervisor", false, false, friday); !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("Expected ErrDataIntegrity, got %v", err)
	}
}

func TestResetCountersScoped(t *testing.T) {
	r := New()
	w := newWorker("w1", "Driver")
	w.Score = 3.5
	if err := r.Add(w); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.ApplyAssignment("w1", "Driver", false, true, date(2024, time.June, 7)); err != nil {
		t.Fatalf("ApplyAssignment failed: %v", err)
	}

	if err := r.ResetCounters("w1", Scope{Tasks: true}); err != nil {
		t.Fatalf("ResetCounters failed: %v", err)
	}
	got, _ := r.Get("w1")
	if got.TotalTasks() != 0 {
		t.Error("Task scope not reset")
	}
	if got.TotalClosings != 1 {
		t.Error("Closings reset without being in scope")
	}
	if got.Score != 3.5 {
		t.Error("Score reset without being in scope")
	}
	if len(got.Qualifications) != 1 {
		t.Error("Reset must never touch qualifications")
	}

	if err := r.ResetCounters("w1", Scope{Closings: true, Score: true}); err != nil {
		t.Fatalf("ResetCounters failed: %v", err)
	}
	got, _ = r.Get("w1")
	if got.TotalClosings != 0 || len(got.ClosingHistory) != 0 || got.Score != 0 {
		t.Errorf("Closings/score scope not reset: %+v", got)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	r := New()
	bad := newWorker("w1")
	bad.YTaskCounts = map[string]int{"Driver": -2}
	if err := r.Add(bad); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Validate(); !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("Expected ErrDataIntegrity for negative counter, got %v", err)
	}

	r2 := New()
	outOfOrder := newWorker("w2")
	outOfOrder.ClosingHistory = []time.Time{
		date(2024, time.June, 14),
		date(2024, time.June, 7),
	}
	if err := r2.Add(outOfOrder); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r2.Validate(); !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("Expected ErrDataIntegrity for unordered history, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := New()
	if err := r.Add(newWorker("w1", "Driver")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	w, _ := r.Get("w1")
	w.YTaskCounts["Driver"] = 99

	again, _ := r.Get("w1")
	if again.YTaskCounts["Driver"] != 0 {
		t.Error("Mutating a returned worker must not affect the registry")
	}
}

func TestConcurrentApplySerialized(t *testing.T) {
	r := New()
	if err := r.Add(newWorker("w1", "Driver")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.ApplyAssignment("w1", "Driver", false, false, date(2024, time.June, 3)); err != nil {
				t.Errorf("ApplyAssignment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	w, _ := r.Get("w1")
	if w.YTaskCounts["Driver"] != n {
		t.Errorf("Lost updates: expected %d, got %d", n, w.YTaskCounts["Driver"])
	}
}

func TestUpdateWorkerValidatesInterval(t *testing.T) {
	r := New()
	if err := r.Add(newWorker("w1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	err := r.UpdateWorker("w1", "New Name", []string{"Driver"}, true, "senior", 0)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig for zero interval, got %v", err)
	}
	if err := r.UpdateWorker("w1", "New Name", []string{"Driver"}, true, "senior", 3); err != nil {
		t.Fatalf("UpdateWorker failed: %v", err)
	}
	w, _ := r.Get("w1")
	if w.Name != "New Name" || !w.HasQualification("Driver") || w.ClosingIntervalWeeks != 3 {
		t.Errorf("Update not applied: %+v", w)
	}
}
