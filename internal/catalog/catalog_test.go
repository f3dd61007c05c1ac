package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fentz26/shavtzak/internal/models"
)

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name  string
		types []TaskType
	}{
		{"empty catalog", nil},
		{"missing name", []TaskType{{Kind: models.TaskKindY, SlotsPerDay: 1}}},
		{"duplicate name", []TaskType{
			{Name: "Driver", Kind: models.TaskKindY, SlotsPerDay: 1},
			{Name: "Driver", Kind: models.TaskKindY, SlotsPerDay: 1},
		}},
		{"unknown kind", []TaskType{{Name: "Driver", Kind: "z", SlotsPerDay: 1}}},
		{"zero slots", []TaskType{{Name: "Driver", Kind: models.TaskKindY, SlotsPerDay: 0}}},
		{"x without duration", []TaskType{{Name: "Guarding", Kind: models.TaskKindX, SlotsPerDay: 1}}},
		{"multi-day y", []TaskType{{Name: "Driver", Kind: models.TaskKindY, SlotsPerDay: 1, DurationDays: 3}}},
		{"closing on x", []TaskType{{Name: "Guarding", Kind: models.TaskKindX, SlotsPerDay: 1, DurationDays: 7, Closing: true}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.types); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNewPreservesOrder(t *testing.T) {
	c, err := New([]TaskType{
		{Name: "Escort", Kind: models.TaskKindY, SlotsPerDay: 1},
		{Name: "Driver", Kind: models.TaskKindY, SlotsPerDay: 1},
		{Name: "Guarding", Kind: models.TaskKindX, SlotsPerDay: 2, DurationDays: 7},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	types := c.Types()
	if types[0].Name != "Escort" || types[1].Name != "Driver" || types[2].Name != "Guarding" {
		t.Errorf("Catalog order changed: %v", types)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `task_types:
  - name: Supervisor
    kind: "y"
    required_qualification: Supervisor
    auto_assign: true
    closing: true
    slots_per_day: 1
  - name: Guarding
    kind: "x"
    auto_assign: false
    slots_per_day: 2
    duration_days: 7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Write catalog file: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Expected 2 task types, got %d", c.Len())
	}

	sup, err := c.Get("Supervisor")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sup.Kind != models.TaskKindY || !sup.Closing || !sup.AutoAssign || sup.RequiredQualification != "Supervisor" {
		t.Errorf("Supervisor parsed wrong: %+v", sup)
	}

	guard, err := c.Get("Guarding")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if guard.Kind != models.TaskKindX || guard.SlotsPerDay != 2 || guard.DurationDays != 7 {
		t.Errorf("Guarding parsed wrong: %+v", guard)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("task_types: {not a list"), 0o644); err != nil {
		t.Fatalf("Write catalog file: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if c.Len() != 8 {
		t.Fatalf("Expected 8 built-in task types, got %d", c.Len())
	}

	closingY := 0
	for _, tt := range c.Types() {
		if tt.Closing {
			if tt.Kind != models.TaskKindY {
				t.Errorf("Closing flag on non-Y type %q", tt.Name)
			}
			closingY++
		}
		if tt.Kind == models.TaskKindX && tt.AutoAssign {
			t.Errorf("X type %q must not auto-assign by default", tt.Name)
		}
	}
	if closingY != 5 {
		t.Errorf("Expected 5 closing support roles, got %d", closingY)
	}

	if !c.Has("Guarding") || c.Has("Gardening") {
		t.Error("Has lookup broken")
	}
	if _, err := c.Get("Gardening"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
