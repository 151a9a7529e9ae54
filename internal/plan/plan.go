// Package plan defines the Action/Plan model: a per-vehicle ordered list of
// timed actions produced by the solver and executed by the orchestrator
// (spec §4.D). Actions of one vehicle are in non-decreasing time order: each
// starts no earlier than the previous one ends. This package does not
// enforce it; the evaluator rejects a plan that breaks it.
package plan

import (
	"time"

	"github.com/google/uuid"

	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

// ActionType tags the variant of an Action (spec §4.D).
type ActionType string

const (
	ActionDrive   ActionType = "DRIVE"
	ActionServe   ActionType = "SERVE"
	ActionRefuel  ActionType = "REFUEL"
	ActionReload  ActionType = "RELOAD"
	ActionIdle    ActionType = "IDLE"
)

// Action is one scheduled step of a vehicle's plan. Fields not relevant to
// the action's type are left zero-valued; callers switch on Type.
type Action struct {
	Type ActionType

	ExpectedStart time.Time
	ExpectedEnd   time.Time

	// DRIVE
	Path []model.Position

	// SERVE
	OrderID   uuid.UUID
	ServeM3   units.Volume

	// REFUEL / RELOAD
	DepotID uuid.UUID
}

// Plan is one vehicle's ordered action list (spec §4.D/§4.E); aggregates
// such as TotalDistance are computed from the actions on demand.
type Plan struct {
	VehicleID uuid.UUID
	Actions   []Action
}

// NewPlan constructs an empty Plan for a vehicle.
func NewPlan(vehicleID uuid.UUID) *Plan {
	return &Plan{VehicleID: vehicleID}
}

// Append adds an action to the end of the plan.
func (p *Plan) Append(a Action) {
	p.Actions = append(p.Actions, a)
}

// IsEmpty reports whether the plan has no actions.
func (p *Plan) IsEmpty() bool { return len(p.Actions) == 0 }

// LastEnd returns the ExpectedEnd of the final action, or zero if empty.
func (p *Plan) LastEnd() time.Time {
	if len(p.Actions) == 0 {
		return time.Time{}
	}
	return p.Actions[len(p.Actions)-1].ExpectedEnd
}

// TotalDistance sums the cell-count of every DRIVE action's path (spec §4.E
// cost term).
func (p *Plan) TotalDistance() units.Distance {
	total := units.ZeroDistance
	for _, a := range p.Actions {
		if a.Type == ActionDrive && len(a.Path) > 0 {
			total = total.Add(units.NewDistance(float64(len(a.Path) - 1)))
		}
	}
	return total
}

// Clone returns a deep copy.
func (p *Plan) Clone() *Plan {
	cp := &Plan{VehicleID: p.VehicleID, Actions: make([]Action, len(p.Actions))}
	for i, a := range p.Actions {
		cp.Actions[i] = a
		cp.Actions[i].Path = append([]model.Position(nil), a.Path...)
	}
	return cp
}

// Solution is the solver's output: one Plan per vehicle it assigned work to
// (spec §4.D).
type Solution struct {
	Plans map[uuid.UUID]*Plan
}

// NewSolution constructs an empty Solution.
func NewSolution() *Solution {
	return &Solution{Plans: make(map[uuid.UUID]*Plan)}
}

// PlanFor returns the vehicle's plan, creating an empty one if absent.
func (s *Solution) PlanFor(vehicleID uuid.UUID) *Plan {
	p, ok := s.Plans[vehicleID]
	if !ok {
		p = NewPlan(vehicleID)
		s.Plans[vehicleID] = p
	}
	return p
}
