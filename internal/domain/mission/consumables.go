package mission

import (
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
)

// Life support use per person per millisol, in kg
const (
	OxygenPerMillisol = 0.00084
	WaterPerMillisol  = 0.0044
	FoodPerMillisol   = 0.00062
)

// TripConsumables builds the manifest a crew needs for a trip of distance km.
//
// Business Rules:
// - Duration = distance / vehicle speed
// - Oxygen, water and food scale with the people aboard; robots use none
// - Methane = distance / fuel economy
// - Every required amount is multiplied by margin
// - Extra food of the same size is optional
func TripConsumables(people int, distance float64, v *settlement.Vehicle, margin float64) settlement.Manifest {
	m := settlement.NewManifest()
	if margin < 1 {
		margin = 1
	}
	if v.Speed() > 0 && people > 0 {
		duration := distance / v.Speed()
		crew := float64(people) * duration * margin
		m.Required[settlement.ResourceOxygen] = OxygenPerMillisol * crew
		m.Required[settlement.ResourceWater] = WaterPerMillisol * crew
		m.Required[settlement.ResourceFood] = FoodPerMillisol * crew
		m.Optional[settlement.ResourceFood] = FoodPerMillisol * crew
	}
	if v.FuelEconomy() > 0 && distance > 0 {
		m.Required[settlement.ResourceMethane] = distance / v.FuelEconomy() * margin
	}
	return m
}

// LifeSupportUse returns what people aboard use over millisols
func LifeSupportUse(people int, millisols float64) map[settlement.ResourceType]float64 {
	n := float64(people) * millisols
	return map[settlement.ResourceType]float64{
		settlement.ResourceOxygen: OxygenPerMillisol * n,
		settlement.ResourceWater:  WaterPerMillisol * n,
		settlement.ResourceFood:   FoodPerMillisol * n,
	}
}
