package settlement

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/construction"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// Settlement is the aggregate root for a colony: its buildings, vehicles,
// equipment, storage, residents and governance.
//
// Invariants:
// - Equipment names are unique within the settlement
// - Building and vehicle lists keep insertion order
type Settlement struct {
	mu sync.RWMutex

	id       string
	name     string
	position shared.Coordinates

	buildings []*Building
	vehicles  []*Vehicle
	suits     []*EVASuit
	equipment []*Equipment
	names     map[string]bool

	inventory *Inventory
	residents []string
	robots    []string

	chain  *ChainOfCommand
	shifts *ShiftSchedule
	sites  []*construction.Site
}

// Params for NewSettlement
type Params struct {
	ID                  string
	Name                string
	Position            shared.Coordinates
	GeneralCapacity     float64
	CommandThreshold    int
	ThreeShiftThreshold int
}

func NewSettlement(p Params) *Settlement {
	return &Settlement{
		id:        p.ID,
		name:      p.Name,
		position:  p.Position,
		names:     make(map[string]bool),
		inventory: NewInventory(p.GeneralCapacity),
		chain:     NewChainOfCommand(p.CommandThreshold),
		shifts:    NewShiftSchedule(p.ThreeShiftThreshold),
	}
}

func (s *Settlement) ID() string                      { return s.id }
func (s *Settlement) Name() string                    { return s.name }
func (s *Settlement) Position() shared.Coordinates    { return s.position }
func (s *Settlement) Inventory() *Inventory           { return s.inventory }
func (s *Settlement) ChainOfCommand() *ChainOfCommand { return s.chain }
func (s *Settlement) Shifts() *ShiftSchedule          { return s.shifts }

// AddBuilding registers a placed building and adds the storage its type contributes
func (s *Settlement) AddBuilding(b *Building) {
	s.mu.Lock()
	s.buildings = append(s.buildings, b)
	s.mu.Unlock()

	if spec, ok := LookupBuildingSpec(b.Type()); ok {
		s.inventory.AddGeneralCapacity(spec.General)
		for r, c := range spec.Storage {
			s.inventory.AddCapacity(r, c)
		}
	}
}

func (s *Settlement) Buildings() []*Building {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Building, len(s.buildings))
	copy(out, s.buildings)
	return out
}

// Building finds a building by ID
func (s *Settlement) Building(id string) (*Building, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.buildings {
		if b.ID() == id {
			return b, true
		}
	}
	return nil, false
}

// FindBuildingsByFunction returns buildings offering f, in insertion order
func (s *Settlement) FindBuildingsByFunction(f Function) []*Building {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Building
	for _, b := range s.buildings {
		if b.HasFunction(f) {
			out = append(out, b)
		}
	}
	return out
}

// AddVehicle registers an owned vehicle and parks it here
func (s *Settlement) AddVehicle(v *Vehicle) {
	v.Park(s.id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = append(s.vehicles, v)
}

// Vehicles returns every vehicle owned by the settlement
func (s *Settlement) Vehicles() []*Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Vehicle, len(s.vehicles))
	copy(out, s.vehicles)
	return out
}

// ParkedVehicles returns owned vehicles currently parked at the settlement
func (s *Settlement) ParkedVehicles() []*Vehicle {
	var out []*Vehicle
	for _, v := range s.Vehicles() {
		if v.SettlementID() == s.id {
			out = append(out, v)
		}
	}
	return out
}

// Vehicle finds an owned vehicle by ID
func (s *Settlement) Vehicle(id string) (*Vehicle, bool) {
	for _, v := range s.Vehicles() {
		if v.ID() == id {
			return v, true
		}
	}
	return nil, false
}

// UniqueEquipmentName returns "<base> NNN" with the lowest free number
func (s *Settlement) UniqueEquipmentName(base string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uniqueNameLocked(base)
}

func (s *Settlement) uniqueNameLocked(base string) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s %03d", base, i)
		if !s.names[name] {
			return name
		}
	}
}

// AddEquipment registers a unit of equipment, renaming it when its name is taken.
// EVA suits are also registered as wearable suits. Returns the stored equipment.
func (s *Settlement) AddEquipment(id, baseName string, t EquipmentType) *Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.uniqueNameLocked(baseName)
	s.names[name] = true
	e := NewEquipment(id, name, t)
	s.equipment = append(s.equipment, e)
	if t == EquipmentEVASuit {
		s.suits = append(s.suits, NewEVASuit(e))
	}
	return e
}

// ReceiveEquipment registers equipment arriving from elsewhere, renumbering it for this settlement
func (s *Settlement) ReceiveEquipment(e *Equipment) *Equipment {
	base := e.Name()
	if i := strings.LastIndex(base, " "); i > 0 {
		if _, err := strconv.Atoi(base[i+1:]); err == nil {
			base = base[:i]
		}
	}
	return s.AddEquipment(e.ID(), base, e.Type())
}

// Equipment returns all equipment in insertion order
func (s *Settlement) Equipment() []*Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Equipment, len(s.equipment))
	copy(out, s.equipment)
	return out
}

// EquipmentCount counts equipment of a type
func (s *Settlement) EquipmentCount(t EquipmentType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.equipment {
		if e.Type() == t {
			n++
		}
	}
	return n
}

// TakeEquipment removes up to n units of a type, newest first, and returns them
func (s *Settlement) TakeEquipment(t EquipmentType, n int) []*Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var taken []*Equipment
	for i := len(s.equipment) - 1; i >= 0 && len(taken) < n; i-- {
		e := s.equipment[i]
		if e.Type() != t || t == EquipmentEVASuit {
			continue
		}
		taken = append(taken, e)
		delete(s.names, e.Name())
		s.equipment = append(s.equipment[:i], s.equipment[i+1:]...)
	}
	return taken
}

// Suits returns the settlement's EVA suits
func (s *Settlement) Suits() []*EVASuit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*EVASuit, len(s.suits))
	copy(out, s.suits)
	return out
}

// AddResident associates a person with the settlement
func (s *Settlement) AddResident(personID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.residents {
		if id == personID {
			return
		}
	}
	s.residents = append(s.residents, personID)
}

func (s *Settlement) RemoveResident(personID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.residents {
		if id == personID {
			s.residents = append(s.residents[:i], s.residents[i+1:]...)
			return
		}
	}
}

// Residents returns resident person IDs in arrival order
func (s *Settlement) Residents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.residents))
	copy(out, s.residents)
	return out
}

// Population is the number of associated people
func (s *Settlement) Population() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.residents)
}

// AddRobot associates a robot with the settlement
func (s *Settlement) AddRobot(robotID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.robots {
		if id == robotID {
			return
		}
	}
	s.robots = append(s.robots, robotID)
}

func (s *Settlement) Robots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.robots))
	copy(out, s.robots)
	return out
}

// AddConstructionSite registers a construction site
func (s *Settlement) AddConstructionSite(site *construction.Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites = append(s.sites, site)
}

func (s *Settlement) ConstructionSites() []*construction.Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*construction.Site, len(s.sites))
	copy(out, s.sites)
	return out
}

// Registry is the set of all settlements in the simulation
type Registry struct {
	mu          sync.RWMutex
	settlements []*Settlement
	byID        map[string]*Settlement
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Settlement)}
}

// Add registers a settlement. Re-adding an ID replaces nothing and returns an error.
func (r *Registry) Add(s *Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[s.ID()]; exists {
		return fmt.Errorf("settlement %s already registered", s.ID())
	}
	r.settlements = append(r.settlements, s)
	r.byID[s.ID()] = s
	return nil
}

func (r *Registry) Get(id string) (*Settlement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// AllSettlements returns settlements in registration order
func (r *Registry) AllSettlements() []*Settlement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Settlement, len(r.settlements))
	copy(out, r.settlements)
	return out
}

// FindBuildingsByFunction searches every settlement
func (r *Registry) FindBuildingsByFunction(f Function) []*Building {
	var out []*Building
	for _, s := range r.AllSettlements() {
		out = append(out, s.FindBuildingsByFunction(f)...)
	}
	return out
}

// FindVehicle searches every settlement for an owned vehicle
func (r *Registry) FindVehicle(id string) (*Vehicle, *Settlement, bool) {
	for _, s := range r.AllSettlements() {
		if v, ok := s.Vehicle(id); ok {
			return v, s, true
		}
	}
	return nil, nil, false
}

// SortedIDs returns settlement IDs in lexical order
func (r *Registry) SortedIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
