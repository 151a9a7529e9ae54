// Package evaluator scores a candidate Solution against a (cloned)
// Environment: a deterministic per-vehicle simulation accumulating cost and
// feasibility, following the per-position metric-accumulation loop used by
// internal/risk's CalculateRisk (spec §4.E).
package evaluator

import (
	"fmt"

	"github.com/terminal-bench/glp-fleet/internal/environment"
	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/internal/plan"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

// LatePenalty is the cost charged per overdue order at evaluation time (spec
// §4.E).
const LatePenalty = 500.0

// UndeliveredPenalty is the cost charged per order left with undelivered GLP
// at the end of the plan horizon (spec §4.E).
const UndeliveredPenalty = 10_000.0

// DistanceWeight converts total fleet distance (grid cells) into cost (spec
// §4.E).
const DistanceWeight = 10.0

// CostBreakdown itemises how Cost was assembled, returned for observability
// (spec §4.E, §6 snapshot surface).
type CostBreakdown struct {
	DistanceCost    float64
	LatePenaltyCost float64
	UndeliveredCost float64
}

// Result is the evaluator's verdict on one Solution.
type Result struct {
	IsValid             bool
	Cost                float64
	Breakdown           CostBreakdown
	OrderFulfilmentRate float64
	GLPSatisfactionRate float64
	InfeasibilityReason string
}

// infeasible returns a Result with Cost = units.InfCost (the 1e18 sentinel
// that units.Cost.IsInf reports as infinite) and a human-readable reason.
func infeasible(reason string) *Result {
	return &Result{
		IsValid:             false,
		Cost:                units.InfCost.Float64(),
		InfeasibilityReason: reason,
	}
}

// Evaluate simulates every vehicle's plan against env (which the caller must
// have already cloned, since simulation mutates vehicle/order/depot state)
// and returns the aggregate cost and feasibility verdict.
func Evaluate(env *environment.Environment, solution *plan.Solution) *Result {
	totalDistance := units.ZeroDistance

	for vehicleID, p := range solution.Plans {
		v, ok := env.FindVehicleByID(vehicleID)
		if !ok {
			return infeasible(fmt.Sprintf("plan references unknown vehicle %s", vehicleID))
		}
		if !v.EligibleForAssignment() {
			return infeasible(fmt.Sprintf("vehicle %s is not eligible for assignment", vehicleID))
		}

		dist, err := simulateVehiclePlan(env, v, p)
		if err != nil {
			return infeasible(err.Error())
		}
		totalDistance = totalDistance.Add(dist)
	}

	allOrders := env.AllOrders()

	undeliveredCount := 0
	lateCount := 0
	requestedTotal := units.ZeroVolume
	deliveredTotal := units.ZeroVolume

	for _, o := range allOrders {
		requestedTotal = requestedTotal.Add(o.RequestM3)
		deliveredTotal = deliveredTotal.Add(o.DeliveredTotal())
		if !o.Delivered() {
			undeliveredCount++
		}
		if o.Overdue(env.SimTime()) {
			lateCount++
		}
	}

	breakdown := CostBreakdown{
		DistanceCost:    totalDistance.Float64() * DistanceWeight,
		LatePenaltyCost: float64(lateCount) * LatePenalty,
		UndeliveredCost: float64(undeliveredCount) * UndeliveredPenalty,
	}
	cost := breakdown.DistanceCost + breakdown.LatePenaltyCost + breakdown.UndeliveredCost

	fulfilmentRate := 1.0
	if len(allOrders) > 0 {
		fulfilmentRate = float64(len(allOrders)-undeliveredCount) / float64(len(allOrders))
	}
	satisfactionRate := 1.0
	if !requestedTotal.IsZero() {
		satisfactionRate = deliveredTotal.Float64() / requestedTotal.Float64()
	}

	return &Result{
		IsValid:             true,
		Cost:                cost,
		Breakdown:           breakdown,
		OrderFulfilmentRate: fulfilmentRate,
		GLPSatisfactionRate: satisfactionRate,
	}
}

// simulateVehiclePlan replays p's actions against v and env, applying
// DRIVE/SERVE/RELOAD/REFUEL effects in order and returning the total
// distance driven. It returns an error naming the first invariant violated,
// if any (spec §8 invariants: fuel never negative, GLP never exceeds
// capacity or available stock, no action starts before the previous one
// ends).
func simulateVehiclePlan(env *environment.Environment, v *model.Vehicle, p *plan.Plan) (units.Distance, error) {
	totalDistance := units.ZeroDistance

	for i, a := range p.Actions {
		if i > 0 {
			prevEndTime := p.Actions[i-1].ExpectedEnd
			if a.ExpectedStart.Before(prevEndTime) {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: action %d starts before action %d ends", v.ID, i, i-1)
			}
		}

		switch a.Type {
		case plan.ActionDrive:
			if len(a.Path) < 2 {
				continue
			}
			for step := 1; step < len(a.Path); step++ {
				d := units.NewDistance(1)
				fuel := v.FuelCostForDistance(d)
				if fuel.LessThan(units.ZeroFuel) || v.FuelGal.LessThan(fuel) {
					return units.ZeroDistance, fmt.Errorf("vehicle %s: insufficient fuel en route", v.ID)
				}
				v.FuelGal = v.FuelGal.Sub(fuel)
				totalDistance = totalDistance.Add(d)
			}
			v.Position = a.Path[len(a.Path)-1]

		case plan.ActionServe:
			order, ok := env.FindOrderByID(a.OrderID)
			if !ok {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: serves unknown order %s", v.ID, a.OrderID)
			}
			if v.Position != order.Position {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: serves order %s from wrong position", v.ID, a.OrderID)
			}
			if v.GLPM3.LessThan(a.ServeM3) {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: serves %.2f m3 but carries only %.2f", v.ID, a.ServeM3.Float64(), v.GLPM3.Float64())
			}
			if a.ServeM3.GreaterThan(order.RemainingM3) {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: serves more than order %s needs", v.ID, a.OrderID)
			}
			v.GLPM3 = v.GLPM3.Sub(a.ServeM3)
			order.Deliver(v.ID, a.ServeM3, a.ExpectedEnd)

		case plan.ActionReload:
			depot, ok := env.FindDepotByID(a.DepotID)
			if !ok {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: reloads at unknown depot %s", v.ID, a.DepotID)
			}
			if v.Position != depot.Position {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: reloads from wrong position", v.ID)
			}
			need := v.Type.CapacityM3.Sub(v.GLPM3)
			got := depot.Withdraw(need)
			v.GLPM3 = v.GLPM3.Add(got)
			if v.GLPM3.GreaterThan(v.Type.CapacityM3) {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: reload exceeds tank capacity", v.ID)
			}

		case plan.ActionRefuel:
			depot, ok := env.FindDepotByID(a.DepotID)
			if !ok || !depot.CanRefuel {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: refuels at non-fuel depot", v.ID)
			}
			if v.Position != depot.Position {
				return units.ZeroDistance, fmt.Errorf("vehicle %s: refuels from wrong position", v.ID)
			}
			v.FuelGal = v.Type.FuelCapacity

		case plan.ActionIdle:
			// no state change
		}
	}

	return totalDistance, nil
}
