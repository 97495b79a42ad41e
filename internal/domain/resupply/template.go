package resupply

import (
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// Footprint is the ground area a building occupies. Facing is in degrees,
// 0 pointing along +Y; the length runs along the facing direction.
type Footprint struct {
	Position shared.Coordinates
	Facing   float64
	Width    float64
	Length   float64
}

// Bounds returns the axis-aligned rectangle covering the footprint
func (f Footprint) Bounds() shared.Bounds {
	return shared.BoundsAround(f.Position, f.Width, f.Length, f.Facing)
}

// Placement is where the placer decided a footprint goes
type Placement = Footprint

// BuildingTemplate describes a building a resupply brings.
//
// Connectors join two endpoint buildings; Endpoints holds the IDs of either
// existing buildings or other templates in the same resupply. Kits arrive as
// construction sites instead of finished buildings.
type BuildingTemplate struct {
	ID        string
	Name      string
	Type      string
	Position  shared.Coordinates
	Facing    float64
	Width     float64
	Length    float64
	Connector bool
	Endpoints [2]string
	Kit       bool
}

// Footprint returns the template's own footprint
func (t BuildingTemplate) Footprint() Footprint {
	return Footprint{Position: t.Position, Facing: t.Facing, Width: t.Width, Length: t.Length}
}

// Anchor is an end of a connector: a placed building's ID and centre
type Anchor struct {
	ID       string
	Position shared.Coordinates
}

// ComputeConnector lays a connector template from one anchor to another.
// The connector is centred between the anchors, as long as the gap between
// their centres, and faces from a to b. Width is the connector's cross section.
func ComputeConnector(id, buildingType string, a, b Anchor, width float64) BuildingTemplate {
	dx := b.Position.X - a.Position.X
	dy := b.Position.Y - a.Position.Y
	return BuildingTemplate{
		ID:   id,
		Type: buildingType,
		Position: shared.Coordinates{
			X: a.Position.X + dx/2,
			Y: a.Position.Y + dy/2,
		},
		Facing:    normalizeFacing(math.Atan2(dx, dy) * 180 / math.Pi),
		Width:     width,
		Length:    math.Hypot(dx, dy),
		Connector: true,
		Endpoints: [2]string{a.ID, b.ID},
	}
}

// ConnectorEnds recovers the two anchor centres of a connector template
func ConnectorEnds(t BuildingTemplate) (shared.Coordinates, shared.Coordinates) {
	rad := t.Facing * math.Pi / 180
	hx := math.Sin(rad) * t.Length / 2
	hy := math.Cos(rad) * t.Length / 2
	return shared.Coordinates{X: t.Position.X - hx, Y: t.Position.Y - hy},
		shared.Coordinates{X: t.Position.X + hx, Y: t.Position.Y + hy}
}

func normalizeFacing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// normalize fills unset dimensions from the building type's defaults.
// A connector keeps its computed length.
func normalize(p Placement, buildingType string) Placement {
	spec, ok := settlement.LookupBuildingSpec(buildingType)
	if !ok {
		return p
	}
	if p.Width <= 0 {
		p.Width = spec.Width
	}
	if p.Length <= 0 && !spec.Connector {
		p.Length = spec.Length
	}
	return p
}
