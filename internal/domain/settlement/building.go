package settlement

import (
	"errors"
	"sort"
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// Function is a capability a building offers, each with its own occupant capacity
type Function string

const (
	FunctionLiving         Function = "LIVING_ACCOMMODATION"
	FunctionCooking        Function = "COOKING"
	FunctionDining         Function = "DINING"
	FunctionRecreation     Function = "RECREATION"
	FunctionExercise       Function = "EXERCISE"
	FunctionMedicalCare    Function = "MEDICAL_CARE"
	FunctionResearch       Function = "RESEARCH"
	FunctionStorage        Function = "STORAGE"
	FunctionEVA            Function = "EVA"
	FunctionGarage         Function = "GARAGE"
	FunctionConnection     Function = "CONNECTION"
	FunctionFarming        Function = "FARMING"
	FunctionAdministration Function = "ADMINISTRATION"
)

// ErrCapacityReached is returned when an occupancy slot is requested from a full function
var ErrCapacityReached = errors.New("capacity reached")

type functionSlot struct {
	capacity  int
	occupants []string
}

// Building is a placed settlement structure.
//
// Occupancy is tracked per function. AddOccupant performs the capacity check and
// the increment under one lock, so callers get an atomic check-and-reserve.
type Building struct {
	mu sync.RWMutex

	id           string
	name         string
	buildingType string
	settlementID string

	position shared.Coordinates
	facing   float64
	width    float64
	length   float64

	functions   map[Function]*functionSlot
	malfunction bool
	wear        float64

	connector bool
	endpoints [2]string

	kitchen *Kitchen
}

// BuildingParams describes a building at creation time
type BuildingParams struct {
	ID           string
	Name         string
	Type         string
	SettlementID string
	Position     shared.Coordinates
	Facing       float64
	Width        float64
	Length       float64
	Functions    map[Function]int
	Connector    bool
	Endpoints    [2]string
}

// NewBuilding creates a building. A building with the COOKING function gets a kitchen.
func NewBuilding(p BuildingParams) *Building {
	b := &Building{
		id:           p.ID,
		name:         p.Name,
		buildingType: p.Type,
		settlementID: p.SettlementID,
		position:     p.Position,
		facing:       p.Facing,
		width:        p.Width,
		length:       p.Length,
		functions:    make(map[Function]*functionSlot, len(p.Functions)),
		connector:    p.Connector,
		endpoints:    p.Endpoints,
	}
	for f, capacity := range p.Functions {
		b.functions[f] = &functionSlot{capacity: capacity}
	}
	if _, ok := p.Functions[FunctionCooking]; ok {
		b.kitchen = NewKitchen()
	}
	return b
}

// Getters

func (b *Building) ID() string                   { return b.id }
func (b *Building) Name() string                 { return b.name }
func (b *Building) Type() string                 { return b.buildingType }
func (b *Building) SettlementID() string         { return b.settlementID }
func (b *Building) Position() shared.Coordinates { return b.position }
func (b *Building) Facing() float64              { return b.facing }
func (b *Building) Width() float64               { return b.width }
func (b *Building) Length() float64              { return b.length }
func (b *Building) IsConnector() bool            { return b.connector }
func (b *Building) Endpoints() [2]string         { return b.endpoints }
func (b *Building) Kitchen() *Kitchen            { return b.kitchen }

// Bounds returns the footprint rectangle of the building
func (b *Building) Bounds() shared.Bounds {
	return shared.BoundsAround(b.position, b.width, b.length, b.facing)
}

// Functions returns the building's functions in name order
func (b *Building) Functions() []Function {
	out := make([]Function, 0, len(b.functions))
	for f := range b.functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (b *Building) HasFunction(f Function) bool {
	_, ok := b.functions[f]
	return ok
}

// Capacity returns the occupant capacity of a function, 0 when absent
func (b *Building) Capacity(f Function) int {
	if slot, ok := b.functions[f]; ok {
		return slot.capacity
	}
	return 0
}

// Occupants returns a copy of the actor IDs occupying a function
func (b *Building) Occupants(f Function) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	slot, ok := b.functions[f]
	if !ok {
		return nil
	}
	out := make([]string, len(slot.occupants))
	copy(out, slot.occupants)
	return out
}

func (b *Building) OccupantCount(f Function) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if slot, ok := b.functions[f]; ok {
		return len(slot.occupants)
	}
	return 0
}

// IsFull reports whether a function has no free slot
func (b *Building) IsFull(f Function) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	slot, ok := b.functions[f]
	return !ok || len(slot.occupants) >= slot.capacity
}

// AddOccupant reserves a slot for the actor. Adding an existing occupant again succeeds without a second slot.
func (b *Building) AddOccupant(f Function, actorID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	slot, ok := b.functions[f]
	if !ok {
		return ErrCapacityReached
	}
	for _, id := range slot.occupants {
		if id == actorID {
			return nil
		}
	}
	if len(slot.occupants) >= slot.capacity {
		return ErrCapacityReached
	}
	slot.occupants = append(slot.occupants, actorID)
	return nil
}

// RemoveOccupant releases the actor's slot. Removing a non-occupant is a no-op.
func (b *Building) RemoveOccupant(f Function, actorID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	slot, ok := b.functions[f]
	if !ok {
		return
	}
	for i, id := range slot.occupants {
		if id == actorID {
			slot.occupants = append(slot.occupants[:i], slot.occupants[i+1:]...)
			return
		}
	}
}

func (b *Building) HasMalfunction() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.malfunction
}

func (b *Building) SetMalfunction(m bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.malfunction = m
}

// Wear is the condition loss in percent, 0 (new) to 100 (worn out)
func (b *Building) Wear() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.wear
}

func (b *Building) AddWear(delta float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wear += delta
	if b.wear < 0 {
		b.wear = 0
	}
	if b.wear > 100 {
		b.wear = 100
	}
}
