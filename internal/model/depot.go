package model

import (
	"github.com/google/uuid"

	"github.com/terminal-bench/glp-fleet/pkg/units"
)

// Depot is identity (ID, position, capacity, main/aux, refuelable) plus
// mutable current-GLP state (spec §3).
type Depot struct {
	ID           uuid.UUID
	Code         string
	Position     Position
	GLPCapacity  units.Volume // only meaningful for auxiliaries; main is unbounded
	IsMain       bool
	CanRefuel    bool

	CurrentGLP units.Volume
}

// NewDepot constructs a Depot starting at full capacity.
func NewDepot(id uuid.UUID, code string, pos Position, capacity units.Volume, isMain, canRefuel bool) *Depot {
	return &Depot{
		ID:          id,
		Code:        code,
		Position:    pos,
		GLPCapacity: capacity,
		IsMain:      isMain,
		CanRefuel:   canRefuel,
		CurrentGLP:  capacity,
	}
}

// Withdraw removes up to amount GLP, capped by current stock, and returns
// the amount actually withdrawn. The main depot has effectively unbounded
// capacity and never runs out (spec §3).
func (d *Depot) Withdraw(amount units.Volume) units.Volume {
	if d.IsMain {
		return amount
	}
	take := amount.Min(d.CurrentGLP)
	d.CurrentGLP = d.CurrentGLP.Sub(take)
	return take
}

// Refill restores the depot to full capacity (spec §4.B: "midnight
// transition"). The main depot is a no-op since it is already unbounded.
func (d *Depot) Refill() {
	if d.IsMain {
		return
	}
	d.CurrentGLP = d.GLPCapacity
}

// Clone returns a deep copy.
func (d *Depot) Clone() *Depot {
	cp := *d
	return &cp
}
