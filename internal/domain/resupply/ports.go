package resupply

import "github.com/andrescamacho/colonysim/internal/domain/settlement"

// Placer finds room for a footprint in a settlement
type Placer interface {
	// TryPlace returns a placement for the footprint, or false when nothing fits
	TryPlace(fp Footprint, s *settlement.Settlement) (Placement, bool)
}

// PlacerFunc adapts a function to the Placer interface
type PlacerFunc func(fp Footprint, s *settlement.Settlement) (Placement, bool)

func (f PlacerFunc) TryPlace(fp Footprint, s *settlement.Settlement) (Placement, bool) {
	return f(fp, s)
}
