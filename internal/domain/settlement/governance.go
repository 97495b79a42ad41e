package settlement

import (
	"sort"
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
)

// Structure is the chain-of-command layout
type Structure string

const (
	StructureThreeDivision Structure = "THREE_DIVISION"
	StructureSevenDivision Structure = "SEVEN_DIVISION"
)

// DefaultChainOfCommandThreshold is the population at which settlements switch to seven divisions
const DefaultChainOfCommandThreshold = 12

// Division is a department within the chain of command
type Division string

const (
	DivisionAgriculture Division = "AGRICULTURE"
	DivisionComputing   Division = "COMPUTING"
	DivisionEngineering Division = "ENGINEERING"
	DivisionLogistics   Division = "LOGISTICS"
	DivisionOperations  Division = "OPERATIONS"
	DivisionSafety      Division = "SAFETY"
	DivisionScience     Division = "SCIENCE"
)

var structureDivisions = map[Structure][]Division{
	StructureThreeDivision: {DivisionEngineering, DivisionSafety, DivisionScience},
	StructureSevenDivision: {
		DivisionAgriculture, DivisionComputing, DivisionEngineering, DivisionLogistics,
		DivisionOperations, DivisionSafety, DivisionScience,
	},
}

var jobDivisions = map[Structure]map[agent.Job]Division{
	StructureThreeDivision: {
		agent.JobEngineer:   DivisionEngineering,
		agent.JobTechnician: DivisionEngineering,
		agent.JobArchitect:  DivisionEngineering,
		agent.JobDriver:     DivisionEngineering,
		agent.JobDoctor:     DivisionSafety,
		agent.JobChef:       DivisionSafety,
		agent.JobTrader:     DivisionSafety,
		agent.JobBotanist:   DivisionScience,
		agent.JobAreologist: DivisionScience,
	},
	StructureSevenDivision: {
		agent.JobBotanist:   DivisionAgriculture,
		agent.JobTechnician: DivisionComputing,
		agent.JobEngineer:   DivisionEngineering,
		agent.JobArchitect:  DivisionEngineering,
		agent.JobDriver:     DivisionLogistics,
		agent.JobTrader:     DivisionLogistics,
		agent.JobChef:       DivisionOperations,
		agent.JobDoctor:     DivisionSafety,
		agent.JobAreologist: DivisionScience,
	},
}

// Command roles
const (
	RoleCommander    agent.Role = "COMMANDER"
	RoleSubCommander agent.Role = "SUB_COMMANDER"
)

// ChiefRole returns the chief role of a division
func ChiefRole(d Division) agent.Role { return agent.Role("CHIEF_OF_" + string(d)) }

// SpecialistRole returns the specialist role of a division
func SpecialistRole(d Division) agent.Role { return agent.Role(string(d) + "_SPECIALIST") }

// Divisions returns the divisions of a structure in fixed order
func Divisions(s Structure) []Division {
	return structureDivisions[s]
}

// RoleBelongsTo reports whether a role is valid under a structure
func RoleBelongsTo(role agent.Role, s Structure) bool {
	if role == RoleCommander || role == RoleSubCommander {
		return true
	}
	for _, d := range structureDivisions[s] {
		if role == ChiefRole(d) || role == SpecialistRole(d) {
			return true
		}
	}
	return false
}

// ChainOfCommand assigns every settler a role.
//
// Business Rules:
// - Population below the threshold uses three divisions, at or above it seven
// - The settler with the best management skill commands; ties break by ID
// - A sub-commander is named from four settlers upward
// - Chiefs are named once there are more settlers than divisions plus the command pair
// - Everyone else is a specialist of the division their job maps to, or of the smallest division
type ChainOfCommand struct {
	mu          sync.RWMutex
	threshold   int
	structure   Structure
	assignments map[string]agent.Role
}

func NewChainOfCommand(threshold int) *ChainOfCommand {
	if threshold <= 0 {
		threshold = DefaultChainOfCommandThreshold
	}
	return &ChainOfCommand{
		threshold:   threshold,
		structure:   StructureThreeDivision,
		assignments: make(map[string]agent.Role),
	}
}

func (c *ChainOfCommand) Threshold() int { return c.threshold }

func (c *ChainOfCommand) Structure() Structure {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.structure
}

// RoleOf returns the role assigned to a person at the last rebuild
func (c *ChainOfCommand) RoleOf(personID string) (agent.Role, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.assignments[personID]
	return r, ok
}

// Rebuild recomputes the structure and every role for the given population
func (c *ChainOfCommand) Rebuild(people []*agent.Person) Structure {
	c.mu.Lock()
	defer c.mu.Unlock()

	structure := StructureThreeDivision
	if len(people) >= c.threshold {
		structure = StructureSevenDivision
	}
	c.structure = structure
	c.assignments = make(map[string]agent.Role, len(people))

	ranked := make([]*agent.Person, len(people))
	copy(ranked, people)
	sort.SliceStable(ranked, func(i, j int) bool {
		li := ranked[i].Skills().Level(agent.SkillManagement)
		lj := ranked[j].Skills().Level(agent.SkillManagement)
		if li != lj {
			return li > lj
		}
		return ranked[i].ID() < ranked[j].ID()
	})

	assign := func(p *agent.Person, r agent.Role) {
		p.SetRole(r)
		c.assignments[p.ID()] = r
	}

	rest := ranked
	if len(rest) > 0 {
		assign(rest[0], RoleCommander)
		rest = rest[1:]
	}
	if len(ranked) >= 4 && len(rest) > 0 {
		assign(rest[0], RoleSubCommander)
		rest = rest[1:]
	}

	divisions := structureDivisions[structure]
	members := make(map[Division]int, len(divisions))
	divisionOf := func(p *agent.Person) Division {
		if d, ok := jobDivisions[structure][p.Job()]; ok {
			return d
		}
		smallest := divisions[0]
		for _, d := range divisions[1:] {
			if members[d] < members[smallest] {
				smallest = d
			}
		}
		return smallest
	}

	namingChiefs := len(ranked) > len(divisions)+2
	chiefed := make(map[Division]bool, len(divisions))
	for _, p := range rest {
		d := divisionOf(p)
		members[d]++
		if namingChiefs && !chiefed[d] {
			chiefed[d] = true
			assign(p, ChiefRole(d))
			continue
		}
		assign(p, SpecialistRole(d))
	}
	return structure
}

// Shift is a work period within a sol, in millisols [Start, End)
type Shift struct {
	Label string
	Start float64
	End   float64
}

// DefaultThreeShiftThreshold is the population at which settlements move from two to three shifts
const DefaultThreeShiftThreshold = 10

var (
	twoShifts   = []Shift{{Label: "X", Start: 0, End: 500}, {Label: "Y", Start: 500, End: 1000}}
	threeShifts = []Shift{
		{Label: "A", Start: 0, End: 333.33},
		{Label: "B", Start: 333.33, End: 666.67},
		{Label: "C", Start: 666.67, End: 1000},
	}
)

// ShiftSchedule balances settlers over the work shifts
type ShiftSchedule struct {
	mu          sync.RWMutex
	threshold   int
	shifts      []Shift
	assignments map[string]string
}

func NewShiftSchedule(threeShiftThreshold int) *ShiftSchedule {
	if threeShiftThreshold <= 0 {
		threeShiftThreshold = DefaultThreeShiftThreshold
	}
	return &ShiftSchedule{
		threshold:   threeShiftThreshold,
		shifts:      twoShifts,
		assignments: make(map[string]string),
	}
}

// Shifts returns the current shift pattern
func (s *ShiftSchedule) Shifts() []Shift {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Shift, len(s.shifts))
	copy(out, s.shifts)
	return out
}

// Rebuild picks the pattern for the population and spreads people over it in ID order
func (s *ShiftSchedule) Rebuild(people []*agent.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shifts = twoShifts
	if len(people) >= s.threshold {
		s.shifts = threeShifts
	}
	sorted := make([]*agent.Person, len(people))
	copy(sorted, people)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })

	s.assignments = make(map[string]string, len(sorted))
	for i, p := range sorted {
		label := s.shifts[i%len(s.shifts)].Label
		s.assignments[p.ID()] = label
		p.SetShift(label)
	}
}

// ShiftOf returns the shift label of a person
func (s *ShiftSchedule) ShiftOf(personID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignments[personID]
}

// OnDuty reports whether a person's shift covers the given millisol.
// People without a shift are always on duty.
func (s *ShiftSchedule) OnDuty(personID string, millisol float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	label, ok := s.assignments[personID]
	if !ok {
		return true
	}
	for _, sh := range s.shifts {
		if sh.Label == label {
			return millisol >= sh.Start && millisol < sh.End
		}
	}
	return true
}
