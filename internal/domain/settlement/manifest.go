package settlement

import (
	"math"
	"sort"
)

// Manifest lists what a vehicle must (and would like to) carry before departure
type Manifest struct {
	Required  map[ResourceType]float64
	Optional  map[ResourceType]float64
	Equipment map[EquipmentType]int
}

// NewManifest creates an empty manifest
func NewManifest() Manifest {
	return Manifest{
		Required:  make(map[ResourceType]float64),
		Optional:  make(map[ResourceType]float64),
		Equipment: make(map[EquipmentType]int),
	}
}

// RequiredMass returns the total kg of required resources
func (m Manifest) RequiredMass() float64 {
	total := 0.0
	for _, a := range m.Required {
		total += a
	}
	return total
}

// Merge adds another manifest's amounts into this one
func (m Manifest) Merge(other Manifest) {
	for r, a := range other.Required {
		m.Required[r] += a
	}
	for r, a := range other.Optional {
		m.Optional[r] += a
	}
	for e, n := range other.Equipment {
		m.Equipment[e] += n
	}
}

// RequiredResources returns required resource types in name order
func (m Manifest) RequiredResources() []ResourceType {
	return sortedResources(m.Required)
}

// OptionalResources returns optional resource types in name order
func (m Manifest) OptionalResources() []ResourceType {
	return sortedResources(m.Optional)
}

func sortedResources(amounts map[ResourceType]float64) []ResourceType {
	out := make([]ResourceType, 0, len(amounts))
	for r := range amounts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsLoaded reports whether the vehicle already carries every required amount and equipment unit
func (m Manifest) IsLoaded(v *Vehicle) bool {
	for r, a := range m.Required {
		if v.Inventory().Amount(r) < a-1e-9 {
			return false
		}
	}
	for t, n := range m.Equipment {
		if v.CargoEquipmentCount(t) < n {
			return false
		}
	}
	return true
}

// Shortfall returns the required amounts the source cannot provide on top of what the vehicle holds
func (m Manifest) Shortfall(v *Vehicle, source *Settlement) map[ResourceType]float64 {
	short := make(map[ResourceType]float64)
	for r, a := range m.Required {
		missing := a - v.Inventory().Amount(r) - source.Inventory().Amount(r)
		if missing > 1e-9 {
			short[r] = missing
		}
	}
	return short
}

// MissingEquipment returns equipment units the source cannot provide on top of what the vehicle holds
func (m Manifest) MissingEquipment(v *Vehicle, source *Settlement) map[EquipmentType]int {
	missing := make(map[EquipmentType]int)
	for t, n := range m.Equipment {
		if gap := n - v.CargoEquipmentCount(t) - source.EquipmentCount(t); gap > 0 {
			missing[t] = gap
		}
	}
	return missing
}

// ContainersNeeded returns how many containers of the matching type carry amount of r
func ContainersNeeded(r ResourceType, amount float64) (EquipmentType, int) {
	t := ContainerFor(PhaseOf(r))
	c := ContainerCapacity(t)
	if c <= 0 || amount <= 0 {
		return t, 0
	}
	return t, int(math.Ceil(amount / c))
}
