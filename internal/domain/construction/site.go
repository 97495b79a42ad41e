package construction

import (
	"fmt"
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// Tier is the position of a stage in the build order
type Tier int

const (
	TierFoundation Tier = iota
	TierFrame
	TierBuilding
)

func (t Tier) String() string {
	switch t {
	case TierFoundation:
		return "Foundation"
	case TierFrame:
		return "Frame"
	case TierBuilding:
		return "Building"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Material is a part or resource a stage consumes
type Material struct {
	name      string
	required  float64
	fulfilled float64
}

func NewMaterial(name string, required float64) Material {
	return Material{name: name, required: required}
}

func (m Material) Name() string       { return m.name }
func (m Material) Required() float64  { return m.required }
func (m Material) Fulfilled() float64 { return m.fulfilled }
func (m Material) Remaining() float64 { return maxFloat(0, m.required-m.fulfilled) }
func (m Material) IsFulfilled() bool  { return m.fulfilled >= m.required }

// Stage is one tier of a construction project
type Stage struct {
	tier          Tier
	name          string
	requiredWork  float64
	completedWork float64
	materials     []Material
}

// NewStage creates a stage of the given tier with its work (millisols) and materials
func NewStage(tier Tier, name string, requiredWork float64, materials ...Material) *Stage {
	return &Stage{tier: tier, name: name, requiredWork: requiredWork, materials: materials}
}

func (s *Stage) Tier() Tier             { return s.tier }
func (s *Stage) Name() string           { return s.name }
func (s *Stage) RequiredWork() float64  { return s.requiredWork }
func (s *Stage) CompletedWork() float64 { return s.completedWork }
func (s *Stage) Materials() []Material  { return s.materials }

// IsComplete reports whether both the work and every material are done
func (s *Stage) IsComplete() bool {
	if s.completedWork < s.requiredWork {
		return false
	}
	for _, m := range s.materials {
		if !m.IsFulfilled() {
			return false
		}
	}
	return true
}

// Site is a construction project that accumulates at most one stage per tier,
// foundation then frame then building.
//
// Invariants:
// - A tier can only be added once
// - A tier can only be added after the tier before it
type Site struct {
	mu           sync.Mutex
	id           string
	settlementID string
	buildingType string
	position     shared.Coordinates
	stages       map[Tier]*Stage
}

func NewSite(id, settlementID, buildingType string, position shared.Coordinates) *Site {
	return &Site{
		id:           id,
		settlementID: settlementID,
		buildingType: buildingType,
		position:     position,
		stages:       make(map[Tier]*Stage),
	}
}

func (s *Site) ID() string                   { return s.id }
func (s *Site) SettlementID() string         { return s.settlementID }
func (s *Site) BuildingType() string         { return s.buildingType }
func (s *Site) Position() shared.Coordinates { return s.position }

// AddStage installs the next stage. Out-of-order or duplicate tiers are
// invariant violations, raised to the caller rather than ignored.
func (s *Site) AddStage(stage *Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stages[stage.tier]; exists {
		return shared.NewInvariantViolationError("construction",
			fmt.Sprintf("%s stage already exists", stage.tier))
	}
	if stage.tier > TierFoundation {
		prior := stage.tier - 1
		if _, ok := s.stages[prior]; !ok {
			return shared.NewInvariantViolationError("construction",
				fmt.Sprintf("%s stage hasn't been added yet", prior))
		}
	}
	s.stages[stage.tier] = stage
	return nil
}

// Stage returns the stage for a tier when present
func (s *Site) Stage(t Tier) (*Stage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stages[t]
	return st, ok
}

// CurrentStage returns the highest tier added so far
func (s *Site) CurrentStage() (*Stage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t := TierBuilding; t >= TierFoundation; t-- {
		if st, ok := s.stages[t]; ok {
			return st, true
		}
	}
	return nil, false
}

// AddWork applies construction work to the current stage and returns the unused remainder
func (s *Site) AddWork(work float64) float64 {
	st, ok := s.CurrentStage()
	if !ok || work <= 0 {
		return work
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	needed := st.requiredWork - st.completedWork
	if needed <= 0 {
		return work
	}
	applied := minFloat(work, needed)
	st.completedWork += applied
	return work - applied
}

// Supply delivers an amount of a named material to the current stage and returns what was used
func (s *Site) Supply(name string, amount float64) float64 {
	st, ok := s.CurrentStage()
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range st.materials {
		m := &st.materials[i]
		if m.name != name {
			continue
		}
		used := minFloat(amount, m.Remaining())
		m.fulfilled += used
		return used
	}
	return 0
}

// IsComplete reports whether the building stage exists and is complete
func (s *Site) IsComplete() bool {
	st, ok := s.Stage(TierBuilding)
	return ok && st.IsComplete()
}

// Progress returns overall progress as a percentage (0-100) over the three tiers
func (s *Site) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, st := range s.stages {
		if st.requiredWork <= 0 {
			total += 1
			continue
		}
		total += minFloat(1, st.completedWork/st.requiredWork)
	}
	return total / 3 * 100
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
