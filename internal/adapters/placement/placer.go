// Package placement finds free ground for delivered buildings.
package placement

import (
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/resupply"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

const (
	// DefaultSpacing is the clear gap kept around every building, in metres
	DefaultSpacing = 2.0
	// DefaultMaxRings bounds how far from the requested position the search goes
	DefaultMaxRings = 6

	endpointTolerance = 1e-6
)

// OverlapPlacer accepts a footprint where it was requested when nothing is in
// the way, otherwise walks square rings around the request and takes the first
// clear spot. Connectors spanning two building centres are accepted as given,
// since they overlap their endpoints by construction.
type OverlapPlacer struct {
	Spacing  float64
	MaxRings int
}

// NewOverlapPlacer returns a placer with the default spacing and search radius
func NewOverlapPlacer() *OverlapPlacer {
	return &OverlapPlacer{Spacing: DefaultSpacing, MaxRings: DefaultMaxRings}
}

// TryPlace implements resupply.Placer
func (p *OverlapPlacer) TryPlace(fp resupply.Footprint, s *settlement.Settlement) (resupply.Placement, bool) {
	buildings := s.Buildings()

	if spansBuildings(fp, buildings) {
		return fp, true
	}

	if p.clear(fp, buildings) {
		return fp, true
	}

	rings := p.MaxRings
	if rings <= 0 {
		rings = DefaultMaxRings
	}
	step := math.Max(fp.Width, fp.Length) + p.spacing()
	if step <= 0 {
		step = 1
	}

	for ring := 1; ring <= rings; ring++ {
		for _, offset := range ringOffsets(ring) {
			candidate := fp
			candidate.Position = shared.Coordinates{
				X: fp.Position.X + float64(offset[0])*step,
				Y: fp.Position.Y + float64(offset[1])*step,
			}
			if p.clear(candidate, buildings) {
				return candidate, true
			}
		}
	}
	return resupply.Placement{}, false
}

func (p *OverlapPlacer) spacing() float64 {
	if p.Spacing < 0 {
		return 0
	}
	return p.Spacing
}

// clear reports whether fp, grown by the spacing, misses every non-connector building
func (p *OverlapPlacer) clear(fp resupply.Footprint, buildings []*settlement.Building) bool {
	bounds := grow(fp.Bounds(), p.spacing()/2)
	for _, b := range buildings {
		if b.IsConnector() {
			continue
		}
		other := grow(shared.BoundsAround(b.Position(), b.Width(), b.Length(), b.Facing()), p.spacing()/2)
		if bounds.Overlaps(other) {
			return false
		}
	}
	return true
}

// spansBuildings reports whether both ends of fp's long axis sit on building centres
func spansBuildings(fp resupply.Footprint, buildings []*settlement.Building) bool {
	if fp.Length <= 0 {
		return false
	}
	from, to := resupply.ConnectorEnds(resupply.BuildingTemplate{
		Position: fp.Position,
		Facing:   fp.Facing,
		Length:   fp.Length,
	})
	var fromOK, toOK bool
	for _, b := range buildings {
		if b.IsConnector() {
			continue
		}
		c := b.Position()
		if near(c, from) {
			fromOK = true
		}
		if near(c, to) {
			toOK = true
		}
	}
	return fromOK && toOK
}

func near(a, b shared.Coordinates) bool {
	return math.Abs(a.X-b.X) < endpointTolerance && math.Abs(a.Y-b.Y) < endpointTolerance
}

func grow(b shared.Bounds, by float64) shared.Bounds {
	return shared.Bounds{MinX: b.MinX - by, MinY: b.MinY - by, MaxX: b.MaxX + by, MaxY: b.MaxY + by}
}

// ringOffsets lists the grid cells on the square ring at distance n, starting
// east and going counter-clockwise, so searches are deterministic
func ringOffsets(n int) [][2]int {
	out := make([][2]int, 0, 8*n)
	for y := 0; y <= n; y++ {
		out = append(out, [2]int{n, y})
	}
	for x := n - 1; x >= -n; x-- {
		out = append(out, [2]int{x, n})
	}
	for y := n - 1; y >= -n; y-- {
		out = append(out, [2]int{-n, y})
	}
	for x := -n + 1; x <= n; x++ {
		out = append(out, [2]int{x, -n})
	}
	for y := -n + 1; y < 0; y++ {
		out = append(out, [2]int{n, y})
	}
	return out
}
