package task

import (
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

const (
	LoadVehicleName   = "Load Vehicle"
	UnloadVehicleName = "Unload Vehicle"

	PhaseLoading   Phase = "LOADING"
	PhaseUnloading Phase = "UNLOADING"

	// cargoRate is kg moved per millisol at skill multiplier 1 and full performance
	cargoRate = 20.0

	loadStressModifier = 0.02
)

const (
	ReasonLoaded      = "vehicle loaded"
	ReasonNoSupplies  = "insufficient supplies"
	ReasonUnloaded    = "vehicle unloaded"
	ReasonStorageFull = "storage full"
	ReasonVehicleGone = "vehicle not parked"
	ReasonCargoNoRoom = "vehicle cargo full"
)

// LoadVehicle moves a manifest's resources and equipment from a settlement
// into a parked vehicle. Required resources go first, optional ones after.
type LoadVehicle struct {
	*Task
	vehicle    *settlement.Vehicle
	settlement *settlement.Settlement
	manifest   settlement.Manifest
	loaded     float64
}

func NewLoadVehicle(ctx *world.Context, a agent.Actor, v *settlement.Vehicle, s *settlement.Settlement, m settlement.Manifest) *LoadVehicle {
	t := &LoadVehicle{Task: NewTask(ctx, a, LoadVehicleName), vehicle: v, settlement: s, manifest: m}
	t.SetSkill(agent.SkillEVA)
	t.SetStressModifier(loadStressModifier)

	if v.SettlementID() != s.ID() {
		t.End(ReasonVehicleGone)
		return t
	}
	t.AddPhase(PhaseLoading, t.loading)
	_ = t.SetPhase(PhaseLoading)
	return t
}

// Loaded returns the kg this task has moved into the vehicle
func (t *LoadVehicle) Loaded() float64 { return t.loaded }

func (t *LoadVehicle) loading(budget float64) Outcome {
	if t.vehicle.SettlementID() != t.settlement.ID() {
		t.End(ReasonVehicleGone)
		return Suspend(0)
	}

	t.loadEquipment()

	rate := cargoRate * t.SkillMultiplier() * math.Max(0.1, PerformanceModifier(t.Actor()))
	capacity := rate * budget
	moved := 0.0
	for _, r := range t.manifest.RequiredResources() {
		moved += t.transfer(r, t.manifest.Required[r], capacity-moved)
	}
	requiredDone := t.manifest.IsLoaded(t.vehicle)
	if requiredDone {
		for _, r := range t.manifest.OptionalResources() {
			want := t.manifest.Optional[r] + t.manifest.Required[r]
			moved += t.transfer(r, want, capacity-moved)
		}
	}
	t.loaded += moved
	t.SetCounter("loaded", t.loaded)

	spare := moved < capacity-1e-9
	used := budget
	if rate > 0 && spare {
		used = moved / rate
	}
	t.AddExperience(used)

	switch {
	case requiredDone && spare:
		t.Complete(ReasonLoaded)
	case !requiredDone && spare:
		if len(t.manifest.Shortfall(t.vehicle, t.settlement)) > 0 {
			t.End(ReasonNoSupplies)
		} else {
			t.End(ReasonCargoNoRoom)
		}
	}
	return Suspend(used)
}

// transfer tops r up toward target, moving at most limit kg
func (t *LoadVehicle) transfer(r settlement.ResourceType, target, limit float64) float64 {
	cargo := t.vehicle.Inventory()
	amount := math.Min(target-cargo.Amount(r), limit)
	amount = math.Min(amount, cargo.CapacityRemaining(r))
	if amount <= 1e-9 {
		return 0
	}
	got := t.settlement.Inventory().Retrieve(r, amount)
	if got <= 0 {
		return 0
	}
	stored := cargo.Store(r, got)
	if stored < got {
		t.settlement.Inventory().Store(r, got-stored)
	}
	return stored
}

func (t *LoadVehicle) loadEquipment() {
	for et, n := range t.manifest.Equipment {
		gap := n - t.vehicle.CargoEquipmentCount(et)
		if gap <= 0 {
			continue
		}
		t.vehicle.LoadEquipment(t.settlement.TakeEquipment(et, gap)...)
	}
}

// UnloadVehicle empties a parked vehicle into the settlement's storage.
// Amounts listed in keep stay aboard (fuel and life support for the ride home).
type UnloadVehicle struct {
	*Task
	vehicle    *settlement.Vehicle
	settlement *settlement.Settlement
	keep       map[settlement.ResourceType]float64
	unloaded   float64
}

func NewUnloadVehicle(ctx *world.Context, a agent.Actor, v *settlement.Vehicle, s *settlement.Settlement, keep map[settlement.ResourceType]float64) *UnloadVehicle {
	t := &UnloadVehicle{Task: NewTask(ctx, a, UnloadVehicleName), vehicle: v, settlement: s, keep: keep}
	t.SetSkill(agent.SkillEVA)
	t.SetStressModifier(loadStressModifier)

	if v.SettlementID() != s.ID() {
		t.End(ReasonVehicleGone)
		return t
	}
	t.AddPhase(PhaseUnloading, t.unloading)
	_ = t.SetPhase(PhaseUnloading)
	return t
}

// Unloaded returns the kg this task has moved out of the vehicle
func (t *UnloadVehicle) Unloaded() float64 { return t.unloaded }

func (t *UnloadVehicle) unloading(budget float64) Outcome {
	if t.vehicle.SettlementID() != t.settlement.ID() {
		t.End(ReasonVehicleGone)
		return Suspend(0)
	}

	for _, e := range t.vehicle.UnloadEquipment() {
		t.settlement.ReceiveEquipment(e)
	}

	rate := cargoRate * t.SkillMultiplier() * math.Max(0.1, PerformanceModifier(t.Actor()))
	capacity := rate * budget
	cargo := t.vehicle.Inventory()
	store := t.settlement.Inventory()
	moved := 0.0
	blocked := false
	for _, r := range cargo.Resources() {
		surplus := cargo.Amount(r) - t.keep[r]
		if surplus <= 1e-9 {
			continue
		}
		room := store.CapacityRemaining(r)
		amount := math.Min(math.Min(surplus, room), capacity-moved)
		if room < surplus {
			blocked = true
		}
		if amount <= 1e-9 {
			continue
		}
		got := cargo.Retrieve(r, amount)
		stored := store.Store(r, got)
		if stored < got {
			cargo.Store(r, got-stored)
		}
		moved += stored
	}
	t.unloaded += moved
	t.SetCounter("unloaded", t.unloaded)

	spare := moved < capacity-1e-9
	used := budget
	if rate > 0 && spare {
		used = moved / rate
	}
	t.AddExperience(used)

	if spare {
		if blocked {
			t.End(ReasonStorageFull)
		} else {
			t.Complete(ReasonUnloaded)
		}
	}
	return Suspend(used)
}
