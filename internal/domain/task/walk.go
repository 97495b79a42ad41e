package task

import (
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/guard"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

const (
	WalkToVehicleName    = "Walk To Vehicle"
	WalkToSettlementName = "Walk To Settlement"

	PhaseEgress    Phase = "EGRESS"
	PhaseWalking   Phase = "WALKING"
	PhaseBoarding  Phase = "BOARDING"
	PhaseDisembark Phase = "DISEMBARKING"
	PhaseIngress   Phase = "INGRESS"

	walkSpeed   = 0.05 // km per millisol
	suitingTime = 5.0  // millisols to don or doff a suit and cycle an airlock
	seatingTime = 2.0  // millisols to climb in or out of a vehicle
)

const (
	ReasonNoSuit       = "no EVA suit available"
	ReasonVehicleFull  = "vehicle full"
	ReasonBoarded      = "boarded vehicle"
	ReasonWalkedInside = "arrived in settlement"
)

// Walk moves an actor between a settlement and a parked vehicle, through an
// airlock in an EVA suit or through a garage when the settlement has one.
// Robots need no suit. A suit taken for the walk is returned when the walk ends.
type Walk struct {
	*Task
	vehicle    *settlement.Vehicle
	settlement *settlement.Settlement
	suit       *settlement.EVASuit
	indoor     bool
	spent      float64
}

func hasGarage(s *settlement.Settlement) bool {
	for _, b := range s.FindBuildingsByFunction(settlement.FunctionGarage) {
		if !b.HasMalfunction() {
			return true
		}
	}
	return false
}

// NeedsSuit reports whether walking actor a out of settlement s takes an EVA suit
func NeedsSuit(a agent.Actor, s *settlement.Settlement) bool {
	return a.Kind() == agent.KindPerson && !hasGarage(s)
}

func (t *Walk) takeSuit(required bool) bool {
	suit, ok := guard.FindAvailableSuit(t.settlement)
	if !ok || suit.Reserve(t.Actor().ID()) != nil {
		return !required
	}
	t.suit = suit
	actorID := t.Actor().ID()
	t.OnEnd(func() { suit.Release(actorID) })
	return true
}

// NewWalkToVehicle walks an actor from settlement s to vehicle v and boards it
func NewWalkToVehicle(ctx *world.Context, a agent.Actor, v *settlement.Vehicle, s *settlement.Settlement) *Walk {
	t := &Walk{Task: NewTask(ctx, a, WalkToVehicleName), vehicle: v, settlement: s, indoor: hasGarage(s)}
	t.SetSkill(agent.SkillEVA)

	if NeedsSuit(a, s) && !t.takeSuit(true) {
		t.End(ReasonNoSuit)
		return t
	}
	t.AddPhase(PhaseEgress, t.egress)
	t.AddPhase(PhaseWalking, t.walkTo(func() shared.Coordinates { return v.Position() }, PhaseBoarding))
	t.AddPhase(PhaseBoarding, t.boarding)
	_ = t.SetPhase(PhaseEgress)
	return t
}

// NewWalkToSettlement leaves vehicle v and walks the actor into settlement s
func NewWalkToSettlement(ctx *world.Context, a agent.Actor, v *settlement.Vehicle, s *settlement.Settlement) *Walk {
	t := &Walk{Task: NewTask(ctx, a, WalkToSettlementName), vehicle: v, settlement: s, indoor: hasGarage(s)}
	t.SetSkill(agent.SkillEVA)

	if !t.indoor && a.Kind() == agent.KindPerson {
		t.takeSuit(false)
	}
	t.AddPhase(PhaseDisembark, t.disembark)
	t.AddPhase(PhaseWalking, t.walkTo(func() shared.Coordinates { return s.Position() }, PhaseIngress))
	t.AddPhase(PhaseIngress, t.ingress)
	_ = t.SetPhase(PhaseDisembark)
	return t
}

// Suit returns the suit worn for the walk, nil when walking indoors
func (t *Walk) Suit() *settlement.EVASuit { return t.suit }

// timed spends up to duration of the budget on a fixed-length step.
// It reports the time used and whether the step finished.
func (t *Walk) timed(budget, duration float64) (float64, bool) {
	use := math.Max(0, math.Min(budget, duration-t.spent))
	t.spent += use
	if t.spent >= duration {
		t.spent = 0
		return use, true
	}
	return use, false
}

func (t *Walk) egress(budget float64) Outcome {
	duration := suitingTime
	if t.indoor {
		duration = 0
	}
	use, done := t.timed(budget, duration)
	t.AddExperience(use)
	if !done {
		return Suspend(use)
	}
	a := t.Actor()
	a.SetBuildingID("")
	if !t.indoor {
		a.SetSituation(agent.SituationOutside)
	}
	return Continue(use, PhaseWalking)
}

func (t *Walk) walkTo(target func() shared.Coordinates, next Phase) PhaseHandler {
	return func(budget float64) Outcome {
		a := t.Actor()
		speed := walkSpeed * math.Max(0.1, PerformanceModifier(a))
		pos, arrived := a.Position().MoveToward(target(), speed*budget)
		used := a.Position().DistanceTo(pos) / speed
		if used > budget {
			used = budget
		}
		a.SetPosition(pos)
		t.SetCounter("distance", t.Counter("distance")+speed*used)
		if !arrived {
			return Suspend(budget)
		}
		return Continue(used, next)
	}
}

func (t *Walk) boarding(budget float64) Outcome {
	use, done := t.timed(budget, seatingTime)
	if !done {
		return Suspend(use)
	}
	a := t.Actor()
	if err := t.vehicle.Board(a.ID()); err != nil {
		t.End(ReasonVehicleFull)
		return Suspend(use)
	}
	a.SetSituation(agent.SituationInVehicle)
	a.SetVehicleID(t.vehicle.ID())
	t.Complete(ReasonBoarded)
	return Suspend(use)
}

func (t *Walk) disembark(budget float64) Outcome {
	use, done := t.timed(budget, seatingTime)
	if !done {
		return Suspend(use)
	}
	a := t.Actor()
	t.vehicle.Disembark(a.ID())
	a.SetVehicleID("")
	a.SetPosition(t.vehicle.Position())
	if t.indoor {
		a.SetSituation(agent.SituationInSettlement)
	} else {
		a.SetSituation(agent.SituationOutside)
	}
	return Continue(use, PhaseWalking)
}

func (t *Walk) ingress(budget float64) Outcome {
	duration := suitingTime
	if t.indoor {
		duration = 0
	}
	use, done := t.timed(budget, duration)
	t.AddExperience(use)
	if !done {
		return Suspend(use)
	}
	a := t.Actor()
	a.SetSituation(agent.SituationInSettlement)
	a.SetSettlementID(t.settlement.ID())
	a.SetBuildingID(entryBuilding(t.settlement, t.indoor))
	t.Complete(ReasonWalkedInside)
	return Suspend(use)
}

func entryBuilding(s *settlement.Settlement, indoor bool) string {
	f := settlement.FunctionEVA
	if indoor {
		f = settlement.FunctionGarage
	}
	if bs := s.FindBuildingsByFunction(f); len(bs) > 0 {
		return bs[0].ID()
	}
	if bs := s.Buildings(); len(bs) > 0 {
		return bs[0].ID()
	}
	return ""
}
