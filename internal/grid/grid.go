// Package grid implements the city lattice and a time-aware A* pathfinder
// over it, avoiding cells blocked by active Blockages (spec §2, §4.A).
package grid

import (
	"github.com/terminal-bench/glp-fleet/internal/model"
)

// DefaultSpeedKPH is the reference fleet travel speed (spec §6).
const DefaultSpeedKPH = 80.0

// Grid is the fixed discrete city lattice: width x height cells, 4-connected,
// each edge one kilometre, traversed at SpeedKPH (spec §3: "time-to-traverse
// is distance / vehicle_speed").
type Grid struct {
	Width    int
	Height   int
	SpeedKPH float64
}

// New constructs a Grid of the given dimensions and vehicle travel speed.
func New(width, height int, speedKPH float64) *Grid {
	return &Grid{Width: width, Height: height, SpeedKPH: speedKPH}
}

// InBounds reports whether pos lies on the grid.
func (g *Grid) InBounds(pos model.Position) bool {
	return pos.InBounds(g.Width, g.Height)
}

// Neighbors returns the in-bounds 4-connected neighbours of pos.
func (g *Grid) Neighbors(pos model.Position) []model.Position {
	all := pos.Neighbors4()
	out := make([]model.Position, 0, 4)
	for _, n := range all {
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}
