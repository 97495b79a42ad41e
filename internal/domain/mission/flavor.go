package mission

import (
	"math"
	"sort"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/task"
)

// Type names a mission flavor
type Type string

const (
	TypeDelivery        Type = "DELIVERY"
	TypeEmergencySupply Type = "EMERGENCY_SUPPLY"
)

// Handler runs one tick of a flavor phase and reports when the phase is finished
type Handler func(m *Mission, budget float64) (bool, error)

// Flavor is what distinguishes one kind of mission from another: the payload it
// carries, the phases it inserts at navpoints, and the handlers for those phases.
// Travel, loading and embarking are shared.
type Flavor struct {
	Type     Type
	Payload  func(m *Mission) settlement.Manifest
	Stops    func(m *Mission, np Navpoint) []Phase
	Handlers map[Phase]Handler
}

func atDestination(m *Mission, np Navpoint) bool {
	return np.SettlementID == m.Destination().ID()
}

// keepAboard lists what must stay in the vehicle for the rest of the trip
func keepAboard(m *Mission) map[settlement.ResourceType]float64 {
	keep := make(map[settlement.ResourceType]float64)
	c := m.Consumables()
	for r, a := range c.Required {
		keep[r] += a
	}
	for r, a := range c.Optional {
		keep[r] += a
	}
	return keep
}

// Delivery carries goods from home to the destination and optionally brings
// other goods back. Goods are required cargo: the mission does not leave without them.
func Delivery(goods, returnGoods map[settlement.ResourceType]float64) Flavor {
	return Flavor{
		Type: TypeDelivery,
		Payload: func(*Mission) settlement.Manifest {
			m := settlement.NewManifest()
			for r, a := range goods {
				m.Required[r] += a
			}
			return m
		},
		Stops: func(m *Mission, np Navpoint) []Phase {
			if !atDestination(m, np) {
				return nil
			}
			phases := []Phase{PhaseUnloadGoods}
			if len(returnGoods) > 0 {
				phases = append(phases, PhaseLoadGoods)
			}
			return phases
		},
		Handlers: map[Phase]Handler{
			PhaseUnloadGoods: unloadAtDestination,
			PhaseLoadGoods: func(m *Mission, budget float64) (bool, error) {
				return loadReturnGoods(m, returnGoods, budget)
			},
		},
	}
}

func unloadAtDestination(m *Mission, budget float64) (bool, error) {
	keep := keepAboard(m)
	return m.cargoStep(budget, func(a agent.Actor) task.Work {
		return task.NewUnloadVehicle(m.Context(), a, m.Vehicle(), m.Destination(), keep)
	})
}

// loadReturnGoods takes what the destination can spare of the requested goods
func loadReturnGoods(m *Mission, goods map[settlement.ResourceType]float64, budget float64) (bool, error) {
	dest := m.Destination()
	return m.cargoStep(budget, func(a agent.Actor) task.Work {
		manifest := settlement.NewManifest()
		cargo := m.Vehicle().Inventory()
		for r, want := range goods {
			available := math.Min(want, dest.Inventory().Amount(r))
			if available > 0 {
				manifest.Required[r] = cargo.Amount(r) + available
			}
		}
		return task.NewLoadVehicle(m.Context(), a, m.Vehicle(), dest, manifest)
	})
}

// EmergencySupply delivers a precomputed relief payload to the destination
func EmergencySupply(payload settlement.Manifest) Flavor {
	return Flavor{
		Type:    TypeEmergencySupply,
		Payload: func(*Mission) settlement.Manifest { return payload },
		Stops: func(m *Mission, np Navpoint) []Phase {
			if !atDestination(m, np) {
				return nil
			}
			return []Phase{PhaseDeliverSupplies}
		},
		Handlers: map[Phase]Handler{
			PhaseDeliverSupplies: unloadAtDestination,
		},
	}
}

// Per-person stock levels used when sizing relief, per sol
var dailyNeed = map[settlement.ResourceType]float64{
	settlement.ResourceOxygen:  OxygenPerMillisol * 1000,
	settlement.ResourceWater:   WaterPerMillisol * 1000,
	settlement.ResourceFood:    FoodPerMillisol * 1000,
	settlement.ResourceMethane: 1.0,
}

// StockTarget is what a settlement of the given population should hold to last sols
func StockTarget(population int, sols float64) map[settlement.ResourceType]float64 {
	out := make(map[settlement.ResourceType]float64, len(dailyNeed))
	for r, perSol := range dailyNeed {
		out[r] = perSol * float64(population) * sols
	}
	return out
}

// PlanEmergencySupply works out a relief payload from home to target.
//
// Business Rules:
// - Deficit = target stock for stockSols minus what the target holds
// - Home only gives what it holds beyond its own target stock
// - Each resource travels in containers matching its phase; home must own enough
// - No deficit, no surplus, or too few containers means no dispatch (ok = false)
func PlanEmergencySupply(home, target *settlement.Settlement, stockSols float64) (settlement.Manifest, bool) {
	payload := settlement.NewManifest()
	need := StockTarget(target.Population(), stockSols)
	reserve := StockTarget(home.Population(), stockSols)

	for _, r := range sortedKeys(need) {
		deficit := need[r] - target.Inventory().Amount(r)
		surplus := home.Inventory().Amount(r) - reserve[r]
		amount := math.Min(deficit, surplus)
		if amount <= 1e-9 {
			continue
		}
		container, n := settlement.ContainersNeeded(r, amount)
		payload.Required[r] = amount
		payload.Equipment[container] += n
	}
	if len(payload.Required) == 0 {
		return payload, false
	}
	for container, n := range payload.Equipment {
		if home.EquipmentCount(container) < n {
			return payload, false
		}
	}
	return payload, true
}

func sortedKeys(m map[settlement.ResourceType]float64) []settlement.ResourceType {
	out := make([]settlement.ResourceType, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
