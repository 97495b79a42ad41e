package mission

import (
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// Navpoint is a waypoint a mission must visit. SettlementID is set when the
// waypoint is a settlement, which is where flavor phases can run.
type Navpoint struct {
	Position     shared.Coordinates
	SettlementID string
	Description  string
}

// IsSettlement reports whether the navpoint is a settlement
func (n Navpoint) IsSettlement() bool { return n.SettlementID != "" }

// TravelPlan is the ordered navpoint list of a mission. Navpoints are consumed in order.
type TravelPlan struct {
	mu     sync.RWMutex
	origin shared.Coordinates
	points []Navpoint
	index  int
}

// NewTravelPlan creates a plan leaving from origin
func NewTravelPlan(origin shared.Coordinates, points ...Navpoint) *TravelPlan {
	out := make([]Navpoint, len(points))
	copy(out, points)
	return &TravelPlan{origin: origin, points: out}
}

// Current returns the navpoint being travelled to
func (p *TravelPlan) Current() (Navpoint, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.index >= len(p.points) {
		return Navpoint{}, false
	}
	return p.points[p.index], true
}

// Advance moves to the next navpoint. It reports whether one remains.
func (p *TravelPlan) Advance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index < len(p.points) {
		p.index++
	}
	return p.index < len(p.points)
}

// IsLast reports whether the current navpoint is the final one
func (p *TravelPlan) IsLast() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.index == len(p.points)-1
}

func (p *TravelPlan) Index() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.index
}

func (p *TravelPlan) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.points)
}

// Navpoints returns a copy of every navpoint
func (p *TravelPlan) Navpoints() []Navpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Navpoint, len(p.points))
	copy(out, p.points)
	return out
}

// TotalDistance is the km of every leg, starting at the origin
func (p *TravelPlan) TotalDistance() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total := 0.0
	from := p.origin
	for _, n := range p.points {
		total += from.DistanceTo(n.Position)
		from = n.Position
	}
	return total
}

// Restore sets the navpoint index, used when resuming from a checkpoint
func (p *TravelPlan) Restore(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if index > len(p.points) {
		index = len(p.points)
	}
	p.index = index
}
