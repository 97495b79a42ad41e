package shared

import (
	"fmt"
	"math"
)

// Coordinates is a surface location in kilometres on the local map grid
type Coordinates struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// DistanceTo calculates Euclidean distance to another location
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	dx := other.X - c.X
	dy := other.Y - c.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// MoveToward returns the point reached after travelling distance km toward target.
// The second result reports whether the target was reached.
func (c Coordinates) MoveToward(target Coordinates, distance float64) (Coordinates, bool) {
	remaining := c.DistanceTo(target)
	if distance >= remaining || remaining == 0 {
		return target, true
	}
	ratio := distance / remaining
	return Coordinates{
		X: c.X + (target.X-c.X)*ratio,
		Y: c.Y + (target.Y-c.Y)*ratio,
	}, false
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", c.X, c.Y)
}

// Bounds is an axis-aligned rectangle on the local map grid
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// BoundsAround builds the rectangle of a width x length footprint centred on c.
// Facing 90 or 270 swaps the axes.
func BoundsAround(c Coordinates, width, length, facing float64) Bounds {
	w, l := width, length
	if f := int(facing) % 180; f == 90 || f == -90 {
		w, l = l, w
	}
	return Bounds{
		MinX: c.X - w/2,
		MinY: c.Y - l/2,
		MaxX: c.X + w/2,
		MaxY: c.Y + l/2,
	}
}

// Overlaps reports whether two rectangles share any interior area
func (b Bounds) Overlaps(other Bounds) bool {
	return b.MinX < other.MaxX && other.MinX < b.MaxX &&
		b.MinY < other.MaxY && other.MinY < b.MaxY
}

// Center returns the centre point of the rectangle
func (b Bounds) Center() Coordinates {
	return Coordinates{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}
