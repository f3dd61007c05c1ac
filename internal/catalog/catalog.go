// Package catalog defines the closed task-type catalog the engine
// schedules against. Task types are data records, not string-keyed
// dispatch: the eligibility filter is a plain lookup.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/fentz26/shavtzak/internal/models"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for catalog operations.
var (
	ErrInvalidConfig = errors.New("invalid catalog configuration")
	ErrNotFound      = errors.New("task type not found")
)

// TaskType describes one schedulable duty.
type TaskType struct {
	Name string          `yaml:"name" json:"name"`
	Kind models.TaskKind `yaml:"kind" json:"kind"`
	// RequiredQualification is empty when the type needs none.
	RequiredQualification string `yaml:"required_qualification,omitempty" json:"required_qualification,omitempty"`
	// AutoAssign gates automatic filling; slots of non-auto types are
	// reported and left for manual assignment.
	AutoAssign bool `yaml:"auto_assign" json:"auto_assign"`
	// Closing marks Y types whose assignment keeps the worker on-base
	// over the weekend and feeds the closing history.
	Closing bool `yaml:"closing" json:"closing"`
	// SlotsPerDay is how many concurrent slots a single date carries.
	SlotsPerDay int `yaml:"slots_per_day" json:"slots_per_day"`
	// DurationDays is the block length for X types; Y types are single-day.
	DurationDays int `yaml:"duration_days,omitempty" json:"duration_days,omitempty"`
}

// Catalog is an ordered, validated set of task types. Order is fixed at
// construction and determines the engine's within-date processing order.
type Catalog struct {
	types  []TaskType
	byName map[string]int
}

// New validates the given types and builds a catalog preserving their order.
func New(types []TaskType) (*Catalog, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no task types defined", ErrInvalidConfig)
	}
	byName := make(map[string]int, len(types))
	for i, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: task type %d has no name", ErrInvalidConfig, i)
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate task type %q", ErrInvalidConfig, t.Name)
		}
		if t.Kind != models.TaskKindX && t.Kind != models.TaskKindY {
			return nil, fmt.Errorf("%w: task type %q has unknown kind %q", ErrInvalidConfig, t.Name, t.Kind)
		}
		if t.SlotsPerDay <= 0 {
			return nil, fmt.Errorf("%w: task type %q has non-positive slots_per_day %d", ErrInvalidConfig, t.Name, t.SlotsPerDay)
		}
		if t.Kind == models.TaskKindX && t.DurationDays <= 0 {
			return nil, fmt.Errorf("%w: X task type %q has non-positive duration_days %d", ErrInvalidConfig, t.Name, t.DurationDays)
		}
		if t.Kind == models.TaskKindY && t.DurationDays > 1 {
			return nil, fmt.Errorf("%w: Y task type %q cannot span %d days", ErrInvalidConfig, t.Name, t.DurationDays)
		}
		if t.Closing && t.Kind != models.TaskKindY {
			return nil, fmt.Errorf("%w: closing flag is only valid on Y task types, found on %q", ErrInvalidConfig, t.Name)
		}
		byName[t.Name] = i
	}
	return &Catalog{types: append([]TaskType(nil), types...), byName: byName}, nil
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file struct {
		TaskTypes []TaskType `yaml:"task_types"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse catalog: %v", ErrInvalidConfig, err)
	}
	return New(file.TaskTypes)
}

// Default returns the built-in catalog: the five support roles plus the
// fixed duty blocks. X blocks are excluded from auto-assign and filled
// manually.
func Default() *Catalog {
	c, err := New([]TaskType{
		{Name: "Supervisor", Kind: models.TaskKindY, RequiredQualification: "Supervisor", AutoAssign: true, Closing: true, SlotsPerDay: 1},
		{Name: "C&N Driver", Kind: models.TaskKindY, RequiredQualification: "C&N Driver", AutoAssign: true, Closing: true, SlotsPerDay: 1},
		{Name: "C&N Escort", Kind: models.TaskKindY, RequiredQualification: "C&N Escort", AutoAssign: true, Closing: true, SlotsPerDay: 1},
		{Name: "Southern Driver", Kind: models.TaskKindY, RequiredQualification: "Southern Driver", AutoAssign: true, Closing: true, SlotsPerDay: 1},
		{Name: "Southern Escort", Kind: models.TaskKindY, RequiredQualification: "Southern Escort", AutoAssign: true, Closing: true, SlotsPerDay: 1},
		{Name: "Guarding", Kind: models.TaskKindX, AutoAssign: false, SlotsPerDay: 2, DurationDays: 7},
		{Name: "Kitchen", Kind: models.TaskKindX, AutoAssign: false, SlotsPerDay: 1, DurationDays: 7},
		{Name: "RASAR", Kind: models.TaskKindX, AutoAssign: false, SlotsPerDay: 1, DurationDays: 7},
	})
	if err != nil {
		panic(err) // built-in catalog is always valid
	}
	return c
}

// Get looks up a task type by name.
func (c *Catalog) Get(name string) (TaskType, error) {
	i, ok := c.byName[name]
	if !ok {
		return TaskType{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c.types[i], nil
}

// Has reports whether the catalog defines the named type.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Types returns the task types in catalog order.
func (c *Catalog) Types() []TaskType {
	return append([]TaskType(nil), c.types...)
}

// Len returns the number of task types.
func (c *Catalog) Len() int {
	return len(c.types)
}
