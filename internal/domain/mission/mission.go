package mission

import (
	"fmt"
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/guard"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
	"github.com/andrescamacho/colonysim/internal/domain/world"
	"github.com/andrescamacho/colonysim/pkg/utils"
)

// EventProducer is the event queue name missions publish on
const EventProducer = "missions"

// Phase is a named step of a mission
type Phase string

const (
	PhaseEmbarking       Phase = "EMBARKING"
	PhaseTravelling      Phase = "TRAVELLING"
	PhaseDisembarking    Phase = "DISEMBARKING"
	PhaseUnloadGoods     Phase = "UNLOAD_GOODS"
	PhaseLoadGoods       Phase = "LOAD_GOODS"
	PhaseDeliverSupplies Phase = "DELIVER_SUPPLIES"
)

// Termination reasons
const (
	ReasonInsufficientMembers = "insufficient members"
	ReasonNoVehicle           = "no vehicle available"
	ReasonCannotCarry         = "vehicle cannot carry the manifest"
	ReasonTowUnavailable      = "tow vehicle unavailable"
	ReasonNoDriver            = "no driver aboard"
	ReasonCompleted           = "mission completed"
	ReasonStopped             = "stopped by operator"
)

// Params configures a new mission
type Params struct {
	Name        string
	Starter     agent.Actor
	Home        *settlement.Settlement
	Destination *settlement.Settlement
	MinMembers  int
	MaxMembers  int
	Flavor      Flavor
	Tow         *settlement.Vehicle // optional vehicle to tow along
}

// Mission coordinates a group of actors travelling in one vehicle.
//
// Phases:
// - EMBARKING: load the manifest (one loader at a time), then walk every member aboard
// - TRAVELLING: the driver operates the vehicle toward the current navpoint
// - flavor phases: run at settlement navpoints, e.g. unloading goods
// - DISEMBARKING: walk members back inside and unload what is left
//
// Invariants:
// - Navpoints are consumed in order
// - End is idempotent and releases the vehicle, the tow and member tasks
// - Fewer members than the minimum ends the mission before departure
type Mission struct {
	mu sync.Mutex

	id          string
	name        string
	ctx         *world.Context
	lifecycle   *shared.LifecycleStateMachine
	flavor      Flavor
	home        *settlement.Settlement
	destination *settlement.Settlement
	plan        *TravelPlan
	minMembers  int
	maxMembers  int
	members     []agent.Actor

	phase   Phase
	pending []Phase
	done    bool
	outcome outcome
	reason  string

	vehicle     *settlement.Vehicle
	tow         *settlement.Vehicle
	manifest    settlement.Manifest
	consumables settlement.Manifest

	passengers []agent.Actor

	loader  *task.LoadVehicle
	walks   map[string]*task.Walk
	operate *task.OperateVehicle
	cargo   task.Work
}

// New creates a pending mission with the starter as its first member
func New(ctx *world.Context, p Params) (*Mission, error) {
	if p.Starter == nil {
		return nil, shared.NewValidationError("starter", "a mission needs a starting member")
	}
	if p.Home == nil || p.Destination == nil {
		return nil, shared.NewValidationError("settlement", "home and destination are required")
	}
	if p.MinMembers < 1 {
		p.MinMembers = 1
	}
	if p.MaxMembers < p.MinMembers {
		return nil, shared.NewValidationError("maxMembers", fmt.Sprintf("must be at least %d", p.MinMembers))
	}
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("%s to %s", p.Flavor.Type, p.Destination.Name())
	}

	m := &Mission{
		id:          utils.GenerateEntityID(string(p.Flavor.Type), p.Destination.Name()),
		name:        name,
		ctx:         ctx,
		lifecycle:   shared.NewLifecycleStateMachine(ctx.Clock),
		flavor:      p.Flavor,
		home:        p.Home,
		destination: p.Destination,
		minMembers:  p.MinMembers,
		maxMembers:  p.MaxMembers,
		tow:         p.Tow,
		manifest:    settlement.NewManifest(),
		consumables: settlement.NewManifest(),
		walks:       make(map[string]*task.Walk),
	}
	m.plan = NewTravelPlan(p.Home.Position(),
		Navpoint{Position: p.Destination.Position(), SettlementID: p.Destination.ID(), Description: p.Destination.Name()},
		Navpoint{Position: p.Home.Position(), SettlementID: p.Home.ID(), Description: p.Home.Name()},
	)

	if err := p.Starter.JoinMission(m.id); err != nil {
		return nil, err
	}
	m.members = append(m.members, p.Starter)
	return m, nil
}

// Getters

func (m *Mission) ID() string                          { return m.id }
func (m *Mission) Name() string                        { return m.name }
func (m *Mission) Type() Type                          { return m.flavor.Type }
func (m *Mission) Home() *settlement.Settlement        { return m.home }
func (m *Mission) Destination() *settlement.Settlement { return m.destination }
func (m *Mission) Plan() *TravelPlan                   { return m.plan }
func (m *Mission) Vehicle() *settlement.Vehicle        { return m.vehicle }
func (m *Mission) Manifest() settlement.Manifest       { return m.manifest }
func (m *Mission) Consumables() settlement.Manifest    { return m.consumables }
func (m *Mission) Status() shared.LifecycleStatus      { return m.lifecycle.Status() }
func (m *Mission) Context() *world.Context             { return m.ctx }

func (m *Mission) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// IsDone reports whether the mission has ended
func (m *Mission) IsDone() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

func (m *Mission) EndReason() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}

// Members returns the roster in join order
func (m *Mission) Members() []agent.Actor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]agent.Actor, len(m.members))
	copy(out, m.members)
	return out
}

// Recruit adds idle, available actors who are inside the home settlement, up
// to the member limit. Returns how many joined.
func (m *Mission) Recruit(candidates ...agent.Actor) int {
	added := 0
	for _, c := range candidates {
		m.mu.Lock()
		full := len(m.members) >= m.maxMembers || m.done
		m.mu.Unlock()
		if full {
			break
		}
		if m.isMember(c.ID()) || !agent.IsAvailable(c) || !agent.IsIdle(c) {
			continue
		}
		if c.Situation() != agent.SituationInSettlement || c.SettlementID() != m.home.ID() {
			continue
		}
		if err := c.JoinMission(m.id); err != nil {
			continue
		}
		m.mu.Lock()
		m.members = append(m.members, c)
		m.mu.Unlock()
		added++
	}
	return added
}

func (m *Mission) isMember(actorID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.members {
		if a.ID() == actorID {
			return true
		}
	}
	return false
}

// RemoveMember drops an actor from the roster. Before departure, falling below
// the minimum ends the mission.
func (m *Mission) RemoveMember(actorID string) {
	m.mu.Lock()
	var removed agent.Actor
	for i, a := range m.members {
		if a.ID() == actorID {
			removed = a
			m.members = append(m.members[:i], m.members[i+1:]...)
			break
		}
	}
	remaining := len(m.members)
	departed := m.phase != "" && m.phase != PhaseEmbarking
	w := m.walks[actorID]
	delete(m.walks, actorID)
	m.mu.Unlock()

	if removed == nil {
		return
	}
	if w != nil {
		w.End("left mission")
	}
	endWork(removed, "left mission")
	removed.LeaveMission()
	m.dropOff(removed)

	if !departed && remaining < m.minMembers {
		m.End(ReasonInsufficientMembers)
	}
}

// Start checks the roster, picks and reserves a vehicle, builds the manifest
// and enters EMBARKING. Expected shortfalls end the mission instead of failing.
func (m *Mission) Start() error {
	if !m.lifecycle.IsPending() || m.IsDone() {
		return shared.NewInvariantViolationError("mission", fmt.Sprintf("%s cannot start from %s", m.name, m.lifecycle.Status()))
	}
	members := m.Members()
	if len(members) < m.minMembers {
		m.End(ReasonInsufficientMembers)
		return nil
	}

	payload := settlement.NewManifest()
	if m.flavor.Payload != nil {
		payload = m.flavor.Payload(m)
	}
	distance := m.plan.TotalDistance()
	req := guard.VehicleRequirements{
		MissionID: m.id,
		MinCrew:   len(members),
		MinRange:  distance,
		MinCargo:  payload.RequiredMass(),
	}
	v, ok := guard.SelectVehicle(m.home.ParkedVehicles(), req)
	if !ok || v.Reserve(m.id) != nil {
		m.End(ReasonNoVehicle)
		return nil
	}
	m.vehicle = v

	people := 0
	for _, a := range members {
		if a.Kind() == agent.KindPerson {
			people++
		}
	}
	m.consumables = TripConsumables(people, distance, v, m.ctx.Tuning.ConsumableMargin)
	m.manifest = settlement.NewManifest()
	m.manifest.Merge(m.consumables)
	m.manifest.Merge(payload)
	if m.manifest.RequiredMass() > v.CargoCapacity() {
		m.End(ReasonCannotCarry)
		return nil
	}
	if m.tow != nil {
		if err := v.Tow(m.tow); err != nil {
			m.End(ReasonTowUnavailable)
			return nil
		}
	}

	if err := m.lifecycle.Start(); err != nil {
		return err
	}
	m.ctx.Logger.Log(shared.LevelInfo, "mission started", map[string]interface{}{
		"mission": m.name,
		"vehicle": v.Name(),
		"members": len(members),
	})
	m.setPhase(PhaseEmbarking)
	return nil
}

// Perform runs one tick of the current phase, delegating to member tasks.
// Only invariant violations come back as errors.
func (m *Mission) Perform(budget float64) error {
	if m.IsDone() || !m.lifecycle.IsRunning() {
		return nil
	}
	var err error
	switch phase := m.Phase(); phase {
	case PhaseEmbarking:
		err = m.embarking(budget)
	case PhaseTravelling:
		err = m.travelling(budget)
	case PhaseDisembarking:
		err = m.disembarking(budget)
	default:
		handler, ok := m.flavor.Handlers[phase]
		if !ok {
			return shared.NewInvariantViolationError("mission", fmt.Sprintf("%s has no handler for phase %q", m.name, phase))
		}
		var finished bool
		finished, err = handler(m, budget)
		if err == nil && finished && !m.IsDone() {
			m.nextPhase()
		}
	}
	if err == nil {
		m.lifecycle.UpdateTimestamp()
	}
	return err
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeCompleted
	outcomeStopped
)

// End terminates the mission as failed. Calling it again is a no-op.
func (m *Mission) End(reason string) {
	m.finish(reason, outcomeFailed)
}

// Stop terminates the mission on request. The lifecycle records STOPPED.
func (m *Mission) Stop(reason string) {
	m.finish(reason, outcomeStopped)
}

func (m *Mission) finish(reason string, o outcome) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	m.outcome = o
	m.reason = reason
	members := make([]agent.Actor, len(m.members))
	copy(members, m.members)
	walks := m.walks
	m.walks = make(map[string]*task.Walk)
	passengers := m.passengers
	m.passengers = nil
	m.mu.Unlock()

	for _, w := range walks {
		w.End("mission ended")
	}
	if m.loader != nil {
		m.loader.End("mission ended")
	}
	if m.operate != nil {
		m.operate.End("mission ended")
	}
	if m.cargo != nil {
		m.cargo.End("mission ended")
	}
	if m.vehicle != nil {
		if towed := m.vehicle.ReleaseTow(); towed != nil {
			towed.Park(m.vehicle.SettlementID())
		}
		m.vehicle.Release(m.id)
	}

	for _, a := range members {
		endWork(a, "mission ended")
		a.LeaveMission()
		if a.Situation() == agent.SituationInSettlement {
			m.rejoin(a, m.home)
		}
	}
	if s := m.parkedAt(); s != nil {
		for _, a := range passengers {
			m.settle(a, s)
		}
	}

	success := o == outcomeCompleted
	switch o {
	case outcomeCompleted:
		_ = m.lifecycle.Complete(reason)
	case outcomeStopped:
		_ = m.lifecycle.Stop(reason)
	default:
		_ = m.lifecycle.Fail(reason)
	}
	m.ctx.Logger.Log(shared.LevelInfo, "mission ended", map[string]interface{}{
		"mission": m.name,
		"reason":  reason,
		"success": success,
	})
	m.ctx.Publish(EventProducer, event.Event{
		Type:       event.TypeMissionEnded,
		Settlement: m.home.ID(),
		Message:    fmt.Sprintf("%s ended: %s", m.name, reason),
		Data:       map[string]interface{}{"mission": m.id, "reason": reason, "success": success},
	})
}

// rejoin puts an in-settlement actor on a settlement's roster
func (m *Mission) rejoin(a agent.Actor, s *settlement.Settlement) {
	if a.Kind() == agent.KindRobot {
		s.AddRobot(a.ID())
	} else {
		s.AddResident(a.ID())
	}
}

// parkedAt is the settlement the vehicle stands at, home before one is
// reserved and nil while it travels
func (m *Mission) parkedAt() *settlement.Settlement {
	if m.vehicle == nil {
		return m.home
	}
	id := m.vehicle.SettlementID()
	if id == "" {
		return nil
	}
	if s, ok := m.ctx.Settlements.Get(id); ok {
		return s
	}
	return nil
}

// dropOff returns an actor who left the roster to a settlement. Someone in a
// travelling vehicle rides along as a passenger until the next settlement stop.
func (m *Mission) dropOff(a agent.Actor) {
	aboard := m.vehicle != nil && m.vehicle.IsAboard(a.ID())
	if !aboard && a.Situation() == agent.SituationInSettlement {
		return
	}
	if s := m.parkedAt(); s != nil {
		m.settle(a, s)
		return
	}
	m.mu.Lock()
	m.passengers = append(m.passengers, a)
	m.mu.Unlock()
}

// settle moves an actor out of the vehicle and inside settlement s
func (m *Mission) settle(a agent.Actor, s *settlement.Settlement) {
	if m.vehicle != nil {
		m.vehicle.Disembark(a.ID())
	}
	a.SetVehicleID("")
	a.SetPosition(s.Position())
	a.SetSituation(agent.SituationInSettlement)
	a.SetSettlementID(s.ID())
	if bs := s.Buildings(); len(bs) > 0 {
		a.SetBuildingID(bs[0].ID())
	}
	m.rejoin(a, s)
}

// Passengers returns former members still riding in the vehicle
func (m *Mission) Passengers() []agent.Actor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]agent.Actor, len(m.passengers))
	copy(out, m.passengers)
	return out
}

func endWork(a agent.Actor, reason string) {
	if w, ok := a.CurrentTask().(task.Work); ok && !w.Ended() {
		w.End(reason)
	}
	a.ClearTask()
}

func (m *Mission) setPhase(p Phase) {
	m.mu.Lock()
	m.phase = p
	m.mu.Unlock()
	m.ctx.Logger.Log(shared.LevelDebug, "mission phase", map[string]interface{}{
		"mission": m.name,
		"phase":   string(p),
	})
	m.ctx.Publish(EventProducer, event.Event{
		Type:       event.TypeMissionPhase,
		Settlement: m.home.ID(),
		Message:    fmt.Sprintf("%s entered %s", m.name, p),
		Data:       map[string]interface{}{"mission": m.id, "phase": string(p)},
	})
}

func (m *Mission) nextPhase() {
	if len(m.pending) == 0 {
		m.setPhase(PhaseDisembarking)
		return
	}
	p := m.pending[0]
	m.pending = m.pending[1:]
	if p == PhaseTravelling {
		m.plan.Advance()
	}
	m.setPhase(p)
}

// assign installs mission work on an idle member. A busy member is skipped for this tick.
func (m *Mission) assign(a agent.Actor, w task.Work) bool {
	if !agent.IsIdle(a) {
		w.End("member busy")
		return false
	}
	a.ClearTask()
	if err := a.AssignTask(w); err != nil {
		w.End("member busy")
		return false
	}
	return true
}

func (m *Mission) isAboard(a agent.Actor) bool {
	return m.vehicle.IsAboard(a.ID()) && a.Situation() == agent.SituationInVehicle
}

// Embarking

func (m *Mission) embarking(budget float64) error {
	if !m.manifest.IsLoaded(m.vehicle) {
		return m.loadVehicle(budget)
	}
	if m.loader != nil && !m.loader.Ended() {
		m.loader.Complete(task.ReasonLoaded)
	}
	m.loader = nil

	aboard := 0
	members := m.Members()
	for _, a := range members {
		if m.isAboard(a) {
			aboard++
			continue
		}
		if err := m.walkMember(a, budget, true); err != nil || m.IsDone() {
			return err
		}
		if m.isAboard(a) {
			aboard++
		}
	}
	if aboard < len(members) {
		return nil
	}

	m.mu.Lock()
	m.walks = make(map[string]*task.Walk)
	m.mu.Unlock()
	m.pending = nil
	m.setPhase(PhaseTravelling)
	return nil
}

// loadVehicle keeps exactly one loader working. When the previous loader has
// finished, each member in turn is offered the job with a chance drawn from
// the loading range, so no single member is always picked.
func (m *Mission) loadVehicle(budget float64) error {
	if m.loader != nil && m.loader.Ended() {
		if !m.loader.Completed() {
			m.End(m.loader.EndReason())
			return nil
		}
		m.loader = nil
	}
	if m.loader == nil {
		tuning := m.ctx.Tuning
		chance := shared.Between(m.ctx.Rand, tuning.LoadingChanceMin, tuning.LoadingChanceMax)
		for _, a := range m.Members() {
			if a.Situation() != agent.SituationInSettlement || a.SettlementID() != m.home.ID() || !agent.IsIdle(a) {
				continue
			}
			if !shared.Chance(m.ctx.Rand, chance) {
				continue
			}
			w := task.NewLoadVehicle(m.ctx, a, m.vehicle, m.home, m.manifest)
			if w.Ended() {
				m.End(w.EndReason())
				return nil
			}
			if m.assign(a, w) {
				m.loader = w
			}
			break
		}
		if m.loader == nil {
			return nil
		}
	}
	_, err := m.loader.Perform(budget)
	return err
}

// Loader returns the member currently loading, nil when nobody is
func (m *Mission) Loader() agent.Actor {
	if m.loader == nil || m.loader.Ended() {
		return nil
	}
	return m.loader.Actor()
}

func (m *Mission) walkMember(a agent.Actor, budget float64, boarding bool) error {
	w := m.walkOf(a.ID())
	if w != nil && w.Ended() {
		if !w.Completed() {
			m.End(w.EndReason())
			return nil
		}
		w = nil
	}
	if w == nil {
		if boarding && m.waitForSuit(a) {
			return nil
		}
		if boarding {
			w = task.NewWalkToVehicle(m.ctx, a, m.vehicle, m.home)
		} else {
			w = task.NewWalkToSettlement(m.ctx, a, m.vehicle, m.arrivalSettlement())
		}
		if w.Ended() {
			m.End(w.EndReason())
			return nil
		}
		if !m.assign(a, w) {
			return nil
		}
		m.mu.Lock()
		m.walks[a.ID()] = w
		m.mu.Unlock()
	}
	_, err := w.Perform(budget)
	return err
}

func (m *Mission) walkOf(actorID string) *task.Walk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.walks[actorID]
}

// waitForSuit reports whether a member must wait for a suit that another
// member's walk is wearing. With no suit free and none worn by the crew the
// walk is attempted and fails.
func (m *Mission) waitForSuit(a agent.Actor) bool {
	if !task.NeedsSuit(a, m.home) {
		return false
	}
	if _, ok := guard.FindAvailableSuit(m.home); ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.walks {
		if !w.Ended() && w.Suit() != nil {
			return true
		}
	}
	return false
}

// Travelling

func (m *Mission) travelling(budget float64) error {
	np, ok := m.plan.Current()
	if !ok {
		m.setPhase(PhaseDisembarking)
		return nil
	}
	if m.operate == nil {
		driver := m.driver()
		if driver == nil {
			m.End(ReasonNoDriver)
			return nil
		}
		w := task.NewOperateVehicle(m.ctx, driver, m.vehicle, np.Position)
		if w.Ended() {
			m.End(w.EndReason())
			return nil
		}
		if !m.assign(driver, w) {
			return nil
		}
		m.operate = w
	}

	before := m.operate.Effort()
	if _, err := m.operate.Perform(budget); err != nil {
		return err
	}
	m.consumeLifeSupport(m.operate.Effort() - before)
	m.syncCrewPosition()

	if !m.operate.Ended() {
		return nil
	}
	if !m.operate.Completed() {
		m.End(m.operate.EndReason())
		return nil
	}
	m.operate = nil
	m.arrive(np)
	return nil
}

// driver returns the aboard member with the best piloting skill, roster order on ties
func (m *Mission) driver() agent.Actor {
	var best agent.Actor
	for _, a := range m.Members() {
		if !m.isAboard(a) {
			continue
		}
		if best == nil || a.Skills().Level(agent.SkillPiloting) > best.Skills().Level(agent.SkillPiloting) {
			best = a
		}
	}
	return best
}

func (m *Mission) consumeLifeSupport(millisols float64) {
	if millisols <= 0 {
		return
	}
	people := 0
	for _, a := range m.Members() {
		if a.Kind() == agent.KindPerson && m.isAboard(a) {
			people++
		}
	}
	for r, amount := range LifeSupportUse(people, millisols) {
		m.vehicle.Inventory().Retrieve(r, amount)
	}
}

func (m *Mission) syncCrewPosition() {
	pos := m.vehicle.Position()
	for _, a := range m.Members() {
		if m.isAboard(a) {
			a.SetPosition(pos)
		}
	}
	for _, a := range m.Passengers() {
		a.SetPosition(pos)
	}
}

func (m *Mission) arrive(np Navpoint) {
	if np.IsSettlement() {
		m.vehicle.Park(np.SettlementID)
		if s, ok := m.ctx.Settlements.Get(np.SettlementID); ok {
			m.mu.Lock()
			passengers := m.passengers
			m.passengers = nil
			m.mu.Unlock()
			for _, a := range passengers {
				m.settle(a, s)
			}
		}
	}
	var next []Phase
	if m.flavor.Stops != nil {
		next = append(next, m.flavor.Stops(m, np)...)
	}
	if m.plan.IsLast() {
		next = append(next, PhaseDisembarking)
	} else {
		next = append(next, PhaseTravelling)
	}
	m.pending = next
	m.nextPhase()
}

// arrivalSettlement is the settlement at the final navpoint, home when it cannot be resolved
func (m *Mission) arrivalSettlement() *settlement.Settlement {
	if np, ok := m.plan.Current(); ok && np.IsSettlement() {
		if s, found := m.ctx.Settlements.Get(np.SettlementID); found {
			return s
		}
	}
	return m.home
}

// Disembarking

func (m *Mission) disembarking(budget float64) error {
	inside := 0
	members := m.Members()
	for _, a := range members {
		if a.Situation() == agent.SituationInSettlement && !m.vehicle.IsAboard(a.ID()) {
			inside++
			continue
		}
		if err := m.walkMember(a, budget, false); err != nil || m.IsDone() {
			return err
		}
		if a.Situation() == agent.SituationInSettlement && !m.vehicle.IsAboard(a.ID()) {
			inside++
		}
	}
	if inside < len(members) {
		return nil
	}

	s := m.arrivalSettlement()
	finished, err := m.cargoStep(budget, func(a agent.Actor) task.Work {
		return task.NewUnloadVehicle(m.ctx, a, m.vehicle, s, nil)
	})
	if err != nil {
		return err
	}
	if finished && !m.IsDone() {
		m.finish(ReasonCompleted, outcomeCompleted)
	}
	return nil
}

// cargoStep runs one cargo task on the first idle member. It reports true once
// the task has ended, whatever its outcome.
func (m *Mission) cargoStep(budget float64, build func(a agent.Actor) task.Work) (bool, error) {
	if m.cargo == nil {
		var worker agent.Actor
		for _, a := range m.Members() {
			if agent.IsIdle(a) {
				worker = a
				break
			}
		}
		if worker == nil {
			return false, nil
		}
		w := build(worker)
		if w.Ended() {
			return true, nil
		}
		if !m.assign(worker, w) {
			return false, nil
		}
		m.cargo = w
	}
	if _, err := m.cargo.Perform(budget); err != nil {
		return false, err
	}
	if !m.cargo.Ended() {
		return false, nil
	}
	m.cargo = nil
	return true, nil
}

// Snapshot is the persisted view of a mission
type Snapshot struct {
	ID        string
	Name      string
	Type      Type
	Phase     Phase
	Status    shared.LifecycleStatus
	Members   []string
	VehicleID string
	NavIndex  int
	Done      bool
	Reason    string
}

func (m *Mission) Snapshot() Snapshot {
	members := m.Members()
	ids := make([]string, len(members))
	for i, a := range members {
		ids[i] = a.ID()
	}
	s := Snapshot{
		ID:       m.id,
		Name:     m.name,
		Type:     m.flavor.Type,
		Phase:    m.Phase(),
		Status:   m.lifecycle.Status(),
		Members:  ids,
		NavIndex: m.plan.Index(),
		Done:     m.IsDone(),
		Reason:   m.EndReason(),
	}
	if m.vehicle != nil {
		s.VehicleID = m.vehicle.ID()
	}
	return s
}
