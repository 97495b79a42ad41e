package agent

import (
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// Kind distinguishes people from robots. Task and mission code never switches on it;
// it exists for reporting and for capability checks inside Actor implementations.
type Kind string

const (
	KindPerson Kind = "PERSON"
	KindRobot  Kind = "ROBOT"
)

// Situation is where an actor currently is relative to settlements and vehicles
type Situation string

const (
	SituationInSettlement Situation = "IN_SETTLEMENT"
	SituationInVehicle    Situation = "IN_VEHICLE"
	SituationOutside      Situation = "OUTSIDE"
	SituationBuried       Situation = "BURIED"
)

// Work is the view of a task an actor holds. The task package owns the concrete type.
type Work interface {
	Name() string
	Ended() bool
}

// Actor is the capability set shared by every autonomous agent.
//
// Invariants:
// - at most one active (non-ended) Work at a time
// - at most one mission membership at a time (held as a mission ID, the mission owns the roster)
type Actor interface {
	ID() string
	Name() string
	Kind() Kind

	Situation() Situation
	SetSituation(s Situation)
	Position() shared.Coordinates
	SetPosition(c shared.Coordinates)

	SettlementID() string
	SetSettlementID(id string)
	BuildingID() string
	SetBuildingID(id string)
	VehicleID() string
	SetVehicleID(id string)

	Job() Job
	SetJob(j Job)
	Skills() *Skills
	Condition() *Condition
	Preferences() *Preferences
	Relationships() *Relationships

	CurrentTask() Work
	AssignTask(w Work) error
	ClearTask()

	MissionID() string
	JoinMission(missionID string) error
	LeaveMission()
}

// base holds the state common to people and robots
type base struct {
	mu sync.RWMutex

	id   string
	name string
	kind Kind

	situation  Situation
	position   shared.Coordinates
	settlement string
	building   string
	vehicle    string

	job           Job
	skills        *Skills
	condition     *Condition
	preferences   *Preferences
	relationships *Relationships

	task      Work
	missionID string
}

func (b *base) init(id, name string, kind Kind, settlementID string) {
	b.id = id
	b.name = name
	b.kind = kind
	b.situation = SituationInSettlement
	b.settlement = settlementID
	b.skills = NewSkills()
	b.condition = NewCondition()
	b.preferences = NewPreferences()
	b.relationships = NewRelationships()
}

func (b *base) ID() string   { return b.id }
func (b *base) Name() string { return b.name }
func (b *base) Kind() Kind   { return b.kind }

func (b *base) Situation() Situation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.situation
}

func (b *base) SetSituation(s Situation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.situation = s
}

func (b *base) Position() shared.Coordinates {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.position
}

func (b *base) SetPosition(c shared.Coordinates) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.position = c
}

func (b *base) SettlementID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settlement
}

func (b *base) SetSettlementID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settlement = id
}

func (b *base) BuildingID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.building
}

func (b *base) SetBuildingID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.building = id
}

func (b *base) VehicleID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.vehicle
}

func (b *base) SetVehicleID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vehicle = id
}

func (b *base) Job() Job {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.job
}

func (b *base) SetJob(j Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.job = j
}

func (b *base) Skills() *Skills               { return b.skills }
func (b *base) Condition() *Condition         { return b.condition }
func (b *base) Preferences() *Preferences     { return b.preferences }
func (b *base) Relationships() *Relationships { return b.relationships }

func (b *base) CurrentTask() Work {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.task
}

// AssignTask installs new work. An actor whose current work has ended may be reassigned.
func (b *base) AssignTask(w Work) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.task != nil && !b.task.Ended() {
		return shared.NewActorBusyError(b.id, b.task.Name())
	}
	b.task = w
	return nil
}

func (b *base) ClearTask() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.task = nil
}

func (b *base) MissionID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.missionID
}

func (b *base) JoinMission(missionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.missionID != "" && b.missionID != missionID {
		return shared.NewMissionMembershipError(b.id, b.missionID)
	}
	b.missionID = missionID
	return nil
}

func (b *base) LeaveMission() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.missionID = ""
}

// IsIdle reports whether the actor has no active work
func IsIdle(a Actor) bool {
	w := a.CurrentTask()
	return w == nil || w.Ended()
}

// IsAvailable reports whether the actor can take part in activities at all
func IsAvailable(a Actor) bool {
	return a.Situation() != SituationBuried
}
