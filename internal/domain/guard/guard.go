// Package guard answers availability questions about shared settlement
// facilities. Guards never reserve: a caller that acts on a returned resource
// must mark occupancy itself (Building.AddOccupant, Vehicle.Reserve,
// EVASuit.Reserve), and handle the error when another actor got there first.
package guard

import (
	"sort"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// BuildingConstraints narrows a building search
type BuildingConstraints struct {
	// Exclude skips buildings by ID
	Exclude map[string]bool
}

// FindAvailableBuilding returns a building offering f that the actor could use now.
//
// Selection:
// 1. drop malfunctioning buildings and buildings whose f slots are all taken
// 2. keep only the least crowded of the rest
// 3. pick among those at random, weighted by the actor's average opinion of each building's occupants
func FindAvailableBuilding(
	rng shared.RandomSource,
	actor agent.Actor,
	s *settlement.Settlement,
	f settlement.Function,
	c BuildingConstraints,
) (*settlement.Building, bool) {
	if s == nil {
		return nil, false
	}
	return pickByRelationship(rng, actor, AvailableBuildings(s, f, c), f)
}

// AvailableBuildings applies the filter and least-crowded steps of FindAvailableBuilding
// without drawing. Scorers use it to stay free of random draws.
func AvailableBuildings(s *settlement.Settlement, f settlement.Function, c BuildingConstraints) []*settlement.Building {
	if s == nil {
		return nil
	}
	var usable []*settlement.Building
	for _, b := range s.FindBuildingsByFunction(f) {
		if c.Exclude[b.ID()] || b.HasMalfunction() || b.IsFull(f) {
			continue
		}
		usable = append(usable, b)
	}
	return LeastCrowded(usable, f)
}

// LeastCrowded keeps the buildings with the fewest occupants of f, preserving order
func LeastCrowded(buildings []*settlement.Building, f settlement.Function) []*settlement.Building {
	if len(buildings) == 0 {
		return nil
	}
	min := -1
	for _, b := range buildings {
		if n := b.OccupantCount(f); min < 0 || n < min {
			min = n
		}
	}
	var out []*settlement.Building
	for _, b := range buildings {
		if b.OccupantCount(f) == min {
			out = append(out, b)
		}
	}
	return out
}

func pickByRelationship(
	rng shared.RandomSource,
	actor agent.Actor,
	buildings []*settlement.Building,
	f settlement.Function,
) (*settlement.Building, bool) {
	switch len(buildings) {
	case 0:
		return nil, false
	case 1:
		return buildings[0], true
	}

	weights := make([]float64, len(buildings))
	total := 0.0
	for i, b := range buildings {
		w := agent.NeutralOpinion
		if actor != nil {
			w = actor.Relationships().Average(b.Occupants(f))
		}
		if w < 1 {
			w = 1
		}
		weights[i] = w
		total += w
	}

	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return buildings[i], true
		}
		r -= w
	}
	return buildings[len(buildings)-1], true
}

// VehicleRequirements filter vehicles a mission could take
type VehicleRequirements struct {
	MissionID string  // a vehicle already reserved by this mission stays usable
	MinCrew   int     // seats needed
	MinRange  float64 // km the trip needs
	MinCargo  float64 // kg the trip needs
}

// IsUsable reports whether a vehicle passes the usability filter
func IsUsable(v *settlement.Vehicle, req VehicleRequirements) bool {
	if v.HasMalfunction() || v.SettlementID() == "" || v.TowedBy() != "" {
		return false
	}
	if holder := v.ReservedBy(); holder != "" && holder != req.MissionID {
		return false
	}
	return v.CrewCapacity() >= req.MinCrew &&
		v.Range() >= req.MinRange &&
		v.CargoCapacity() >= req.MinCargo
}

// RankVehicles filters to usable vehicles and orders them by cargo capacity,
// then range, both descending. Equal vehicles keep their input order.
func RankVehicles(candidates []*settlement.Vehicle, req VehicleRequirements) []*settlement.Vehicle {
	var usable []*settlement.Vehicle
	for _, v := range candidates {
		if IsUsable(v, req) {
			usable = append(usable, v)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		if usable[i].CargoCapacity() != usable[j].CargoCapacity() {
			return usable[i].CargoCapacity() > usable[j].CargoCapacity()
		}
		return usable[i].Range() > usable[j].Range()
	})
	return usable
}

// SelectVehicle returns the best usable vehicle. No randomness is involved.
func SelectVehicle(candidates []*settlement.Vehicle, req VehicleRequirements) (*settlement.Vehicle, bool) {
	ranked := RankVehicles(candidates, req)
	if len(ranked) == 0 {
		return nil, false
	}
	return ranked[0], true
}

// FindAvailableSuit returns the first suit that is neither worn nor broken
func FindAvailableSuit(s *settlement.Settlement) (*settlement.EVASuit, bool) {
	if s == nil {
		return nil, false
	}
	for _, suit := range s.Suits() {
		if !suit.IsReserved() && !suit.HasMalfunction() {
			return suit, true
		}
	}
	return nil, false
}

// FreeSlots returns the remaining capacity of f across usable buildings
func FreeSlots(s *settlement.Settlement, f settlement.Function) int {
	free := 0
	for _, b := range s.FindBuildingsByFunction(f) {
		if b.HasMalfunction() {
			continue
		}
		if n := b.Capacity(f) - b.OccupantCount(f); n > 0 {
			free += n
		}
	}
	return free
}
