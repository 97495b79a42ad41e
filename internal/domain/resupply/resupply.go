package resupply

import (
	"errors"
	"sort"
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// ErrAlreadyDelivered is returned when a resupply is applied twice
var ErrAlreadyDelivered = errors.New("resupply already delivered")

// Resupply is a shipment scheduled to land at a settlement
type Resupply struct {
	ID           string
	Name         string
	SettlementID string
	ArrivalTime  shared.MarsTime

	Buildings  []BuildingTemplate
	Vehicles   []string // template names, e.g. "Explorer Rover"
	Equipment  map[settlement.EquipmentType]int
	Resources  map[settlement.ResourceType]float64
	Parts      map[string]int
	Immigrants int

	mu        sync.Mutex
	delivered bool
}

// IsDelivered reports whether the shipment has been applied
func (r *Resupply) IsDelivered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delivered
}

// markDelivered flags the shipment, returning false when it already was
func (r *Resupply) markDelivered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.delivered {
		return false
	}
	r.delivered = true
	return true
}

// Schedule holds pending resupplies ordered by arrival
type Schedule struct {
	mu    sync.Mutex
	items []*Resupply
}

func NewSchedule() *Schedule {
	return &Schedule{}
}

// Add schedules a resupply, keeping arrival order stable
func (s *Schedule) Add(r *Resupply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[j].ArrivalTime.After(s.items[i].ArrivalTime)
	})
}

// Due returns undelivered resupplies whose arrival time has passed
func (s *Schedule) Due(now shared.MarsTime) []*Resupply {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Resupply
	for _, r := range s.items {
		if r.IsDelivered() || r.ArrivalTime.After(now) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// All returns every scheduled resupply in arrival order
func (s *Schedule) All() []*Resupply {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Resupply, len(s.items))
	copy(out, s.items)
	return out
}
