package task

import (
	"fmt"
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

const (
	OperateVehicleName = "Operate Vehicle"

	PhaseDriving Phase = "DRIVING"

	drivingStress = 0.05
)

const (
	ReasonArrived            = "arrived"
	ReasonOutOfFuel          = "out of fuel"
	ReasonVehicleMalfunction = "vehicle malfunction"
	ReasonNotAboard          = "driver not aboard"
)

// OperateVehicle drives a vehicle toward a destination. The driver must already
// be aboard. Distance per millisol is the vehicle's speed scaled by the
// driver's piloting multiplier, capped at the vehicle's rated speed.
type OperateVehicle struct {
	*Task
	vehicle     *settlement.Vehicle
	destination shared.Coordinates
	driven      float64
}

func NewOperateVehicle(ctx *world.Context, a agent.Actor, v *settlement.Vehicle, destination shared.Coordinates) *OperateVehicle {
	t := &OperateVehicle{Task: NewTask(ctx, a, OperateVehicleName), vehicle: v, destination: destination}
	t.SetSkill(agent.SkillPiloting)
	t.SetStressModifier(drivingStress)

	if !v.IsAboard(a.ID()) {
		t.End(ReasonNotAboard)
		return t
	}
	if v.HasMalfunction() {
		t.End(ReasonVehicleMalfunction)
		return t
	}
	t.AddPhase(PhaseDriving, t.driving)
	_ = t.SetPhase(PhaseDriving)
	return t
}

// Vehicle returns the vehicle being driven
func (t *OperateVehicle) Vehicle() *settlement.Vehicle { return t.vehicle }

// Driven returns the km covered by this task
func (t *OperateVehicle) Driven() float64 { return t.driven }

func (t *OperateVehicle) driving(budget float64) Outcome {
	v := t.vehicle
	if v.HasMalfunction() {
		t.End(ReasonVehicleMalfunction)
		return Suspend(0)
	}
	if v.Position().DistanceTo(t.destination) <= 1e-9 {
		t.Complete(ReasonArrived)
		return Suspend(0)
	}
	if v.SettlementID() != "" {
		v.Park("")
	}

	speed := v.Speed() * math.Min(1, t.SkillMultiplier())
	if speed <= 0 {
		t.End(ReasonOutOfFuel)
		return Suspend(0)
	}
	moved, arrived := v.Drive(t.destination, speed*budget)
	if moved <= 0 {
		t.End(ReasonOutOfFuel)
		return Suspend(0)
	}
	used := math.Min(budget, moved/speed)
	t.driven += moved
	t.SetCounter("driven", t.driven)
	t.AddExperience(used)
	t.Actor().SetPosition(v.Position())

	if t.RollAccident(used, 0) {
		v.SetMalfunction(true)
		t.Context().Publish(EventProducer, event.Event{
			Type:    event.TypeAccident,
			Actor:   t.Actor().ID(),
			Message: fmt.Sprintf("%s broke down after %.1f km", v.Name(), t.driven),
		})
		t.End(ReasonVehicleMalfunction)
		return Suspend(used)
	}
	if arrived {
		t.Complete(ReasonArrived)
	}
	return Suspend(used)
}
