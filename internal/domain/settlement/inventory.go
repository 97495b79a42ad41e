package settlement

import (
	"math"
	"sort"
	"sync"
)

// Inventory stores amount resources against per-resource capacity and
// counted parts without any capacity limit.
//
// A resource with a specific capacity uses only that capacity. All other
// resources share the general capacity. Operations are atomic: Store and
// Retrieve check and mutate under one lock.
type Inventory struct {
	mu       sync.Mutex
	general  float64
	specific map[ResourceType]float64
	amounts  map[ResourceType]float64
	parts    map[string]int
}

// NewInventory creates an inventory with the given shared general capacity (kg)
func NewInventory(generalCapacity float64) *Inventory {
	return &Inventory{
		general:  generalCapacity,
		specific: make(map[ResourceType]float64),
		amounts:  make(map[ResourceType]float64),
		parts:    make(map[string]int),
	}
}

// AddCapacity increases the dedicated capacity for one resource
func (inv *Inventory) AddCapacity(r ResourceType, amount float64) {
	if amount <= 0 {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.specific[r] += amount
}

// AddGeneralCapacity increases the shared capacity
func (inv *Inventory) AddGeneralCapacity(amount float64) {
	if amount <= 0 {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.general += amount
}

// Store adds up to amount of r and returns what was actually stored.
// Anything beyond the remaining capacity is discarded.
func (inv *Inventory) Store(r ResourceType, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	stored := math.Min(amount, inv.remainingLocked(r))
	if stored <= 0 {
		return 0
	}
	inv.amounts[r] += stored
	return stored
}

// Retrieve removes up to amount of r and returns what was actually removed
func (inv *Inventory) Retrieve(r ResourceType, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	got := math.Min(amount, inv.amounts[r])
	inv.amounts[r] -= got
	if inv.amounts[r] <= 0 {
		delete(inv.amounts, r)
	}
	return got
}

// RetrieveAll removes every listed amount only when all of them are available.
// It reports whether the retrieval happened.
func (inv *Inventory) RetrieveAll(amounts map[ResourceType]float64) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for r, a := range amounts {
		if inv.amounts[r] < a {
			return false
		}
	}
	for r, a := range amounts {
		inv.amounts[r] -= a
		if inv.amounts[r] <= 0 {
			delete(inv.amounts, r)
		}
	}
	return true
}

// HasAll reports whether every listed amount is present
func (inv *Inventory) HasAll(amounts map[ResourceType]float64) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for r, a := range amounts {
		if inv.amounts[r] < a {
			return false
		}
	}
	return true
}

// Amount returns the stored amount of r
func (inv *Inventory) Amount(r ResourceType) float64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.amounts[r]
}

// CapacityRemaining returns how much more of r can be stored
func (inv *Inventory) CapacityRemaining(r ResourceType) float64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.remainingLocked(r)
}

func (inv *Inventory) remainingLocked(r ResourceType) float64 {
	if c, ok := inv.specific[r]; ok {
		return math.Max(0, c-inv.amounts[r])
	}
	used := 0.0
	for res, a := range inv.amounts {
		if _, dedicated := inv.specific[res]; !dedicated {
			used += a
		}
	}
	return math.Max(0, inv.general-used)
}

// TotalMass returns the combined stored amount of every resource
func (inv *Inventory) TotalMass() float64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	total := 0.0
	for _, a := range inv.amounts {
		total += a
	}
	return total
}

// Resources returns the stored resource types in name order
func (inv *Inventory) Resources() []ResourceType {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]ResourceType, 0, len(inv.amounts))
	for r := range inv.amounts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StoreParts adds counted parts. Parts are never clipped.
func (inv *Inventory) StoreParts(name string, count int) {
	if count <= 0 {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.parts[name] += count
}

// RetrieveParts removes up to count parts and returns how many were removed
func (inv *Inventory) RetrieveParts(name string, count int) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	got := count
	if have := inv.parts[name]; have < got {
		got = have
	}
	if got <= 0 {
		return 0
	}
	inv.parts[name] -= got
	if inv.parts[name] == 0 {
		delete(inv.parts, name)
	}
	return got
}

// Parts returns the stored count of a part
func (inv *Inventory) Parts(name string) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.parts[name]
}
