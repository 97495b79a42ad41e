// Package scenario loads starting worlds from YAML files.
package scenario

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// File is the top-level scenario document
type File struct {
	Name        string           `yaml:"name"`
	Start       TimeSpec         `yaml:"start"`
	Settlements []SettlementSpec `yaml:"settlements" validate:"required,min=1,dive"`
	Resupplies  []ResupplySpec   `yaml:"resupplies" validate:"dive"`
}

// TimeSpec is a point on the Mars calendar
type TimeSpec struct {
	Sol      int     `yaml:"sol" validate:"gte=0"`
	Millisol float64 `yaml:"millisol" validate:"gte=0,lt=1000"`
}

// MarsTime converts the spec, treating sol 0 as sol 1
func (t TimeSpec) MarsTime() shared.MarsTime {
	sol := t.Sol
	if sol < 1 {
		sol = 1
	}
	return shared.MarsTime{Sol: sol, Millisol: t.Millisol}
}

// SettlementSpec describes one settlement and everything it starts with
type SettlementSpec struct {
	ID                  string             `yaml:"id" validate:"required"`
	Name                string             `yaml:"name" validate:"required"`
	Position            shared.Coordinates `yaml:"position"`
	Capacity            float64            `yaml:"capacity" validate:"gte=0"`
	CommandThreshold    int                `yaml:"command_threshold" validate:"gte=0"`
	ThreeShiftThreshold int                `yaml:"three_shift_threshold" validate:"gte=0"`
	Buildings           []BuildingSpec     `yaml:"buildings" validate:"dive"`
	Vehicles            []VehicleSpec      `yaml:"vehicles" validate:"dive"`
	Equipment           map[string]int     `yaml:"equipment" validate:"dive,gte=0"`
	Resources           map[string]float64 `yaml:"resources" validate:"dive,gte=0"`
	Parts               map[string]int     `yaml:"parts" validate:"dive,gte=0"`
	People              []PersonSpec       `yaml:"people" validate:"dive"`
	Robots              []RobotSpec        `yaml:"robots" validate:"dive"`
}

// BuildingSpec places a building. Zero width or length takes the type's default.
type BuildingSpec struct {
	ID        string             `yaml:"id"`
	Name      string             `yaml:"name"`
	Type      string             `yaml:"type" validate:"required"`
	Position  shared.Coordinates `yaml:"position"`
	Facing    float64            `yaml:"facing"`
	Width     float64            `yaml:"width" validate:"gte=0"`
	Length    float64            `yaml:"length" validate:"gte=0"`
	Endpoints []string           `yaml:"endpoints" validate:"omitempty,len=2"`
	Kit       bool               `yaml:"kit"`
}

// VehicleSpec parks a vehicle. Type is a template name such as "Transport Rover".
type VehicleSpec struct {
	ID   string  `yaml:"id"`
	Name string  `yaml:"name"`
	Type string  `yaml:"type" validate:"required"`
	Fuel float64 `yaml:"fuel" validate:"gte=0"`
}

// PersonSpec describes a settler
type PersonSpec struct {
	ID               string         `yaml:"id"`
	Name             string         `yaml:"name" validate:"required"`
	Gender           string         `yaml:"gender" validate:"omitempty,oneof=male female MALE FEMALE"`
	Job              string         `yaml:"job"`
	Building         string         `yaml:"building"`
	FavoriteActivity string         `yaml:"favorite_activity"`
	FavoriteDish     string         `yaml:"favorite_dish"`
	Skills           map[string]int `yaml:"skills" validate:"dive,gte=0"`
}

// RobotSpec describes a robot by model, e.g. "chefbot"
type RobotSpec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Type string `yaml:"type" validate:"required"`
}

// ResupplySpec schedules a shipment
type ResupplySpec struct {
	ID         string             `yaml:"id"`
	Name       string             `yaml:"name"`
	Settlement string             `yaml:"settlement" validate:"required"`
	Arrival    TimeSpec           `yaml:"arrival"`
	Buildings  []BuildingSpec     `yaml:"buildings" validate:"dive"`
	Vehicles   []string           `yaml:"vehicles"`
	Equipment  map[string]int     `yaml:"equipment" validate:"dive,gte=0"`
	Resources  map[string]float64 `yaml:"resources" validate:"dive,gte=0"`
	Parts      map[string]int     `yaml:"parts" validate:"dive,gte=0"`
	Immigrants int                `yaml:"immigrants" validate:"gte=0"`
}

// Load reads and validates a scenario file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a scenario document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("scenario is empty")
		}
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks struct tags and cross references between sections
func (f *File) Validate() error {
	if err := validator.New().Struct(f); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid scenario:\n  %s", strings.Join(messages, "\n  "))
		}
		return err
	}

	ids := make(map[string]bool, len(f.Settlements))
	for _, s := range f.Settlements {
		if ids[s.ID] {
			return fmt.Errorf("invalid scenario: duplicate settlement id %q", s.ID)
		}
		ids[s.ID] = true
	}
	for _, r := range f.Resupplies {
		if !ids[r.Settlement] {
			return fmt.Errorf("invalid scenario: resupply %q targets unknown settlement %q", r.Name, r.Settlement)
		}
	}
	return nil
}
