package evaluator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/glp-fleet/internal/environment"
	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/internal/plan"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

func buildEnv(start time.Time) (*environment.Environment, *model.Vehicle, *model.Order, *model.Depot) {
	env := environment.New(start)
	depot := model.NewDepot(uuid.New(), "MAIN", model.Position{0, 0}, units.ZeroVolume, true, true)
	v := model.NewVehicle(uuid.New(), "TD01", model.VehicleTypes[model.TypeTD], model.Position{0, 0})
	v.GLPM3 = units.NewVolume(5)
	order := model.NewOrder(uuid.New(), start, start.Add(4*time.Hour), units.NewVolume(5), model.Position{3, 0})
	env.AddDepot(depot)
	env.AddVehicle(v)
	env.AddOrder(order)
	return env, v, order, depot
}

func TestEvaluateFeasiblePlanDeliversOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	env, v, order, _ := buildEnv(start)

	sol := plan.NewSolution()
	p := sol.PlanFor(v.ID)
	p.Append(plan.Action{
		Type:          plan.ActionDrive,
		ExpectedStart: start,
		ExpectedEnd:   start.Add(3 * time.Minute),
		Path:          []model.Position{{0, 0}, {1, 0}, {2, 0}, {3, 0}},
	})
	p.Append(plan.Action{
		Type:          plan.ActionServe,
		ExpectedStart: start.Add(3 * time.Minute),
		ExpectedEnd:   start.Add(13 * time.Minute),
		OrderID:       order.ID,
		ServeM3:       units.NewVolume(5),
	})

	result := Evaluate(env, sol)
	require.True(t, result.IsValid)
	assert.InDelta(t, 1.0, result.OrderFulfilmentRate, 1e-9)
	assert.InDelta(t, 1.0, result.GLPSatisfactionRate, 1e-9)
	assert.InDelta(t, 30.0, result.Breakdown.DistanceCost, 1e-9)
	assert.InDelta(t, 0.0, result.Breakdown.UndeliveredCost, 1e-9)
}

func TestEvaluateInfeasibleWhenServingWrongLocation(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	env, v, order, _ := buildEnv(start)

	sol := plan.NewSolution()
	p := sol.PlanFor(v.ID)
	p.Append(plan.Action{
		Type:          plan.ActionServe,
		ExpectedStart: start,
		ExpectedEnd:   start.Add(10 * time.Minute),
		OrderID:       order.ID,
		ServeM3:       units.NewVolume(5),
	})

	result := Evaluate(env, sol)
	assert.False(t, result.IsValid)
	assert.True(t, units.NewCost(result.Cost).IsInf())
}

func TestEvaluateUndeliveredOrderPenalised(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	env, _, _, _ := buildEnv(start)

	sol := plan.NewSolution()
	result := Evaluate(env, sol)
	require.True(t, result.IsValid)
	assert.InDelta(t, UndeliveredPenalty, result.Breakdown.UndeliveredCost, 1e-9)
	assert.InDelta(t, 0.0, result.OrderFulfilmentRate, 1e-9)
}

func TestEvaluateRejectsIneligibleVehicle(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	env, v, _, _ := buildEnv(start)
	v.Status = model.StatusUnavailable

	sol := plan.NewSolution()
	sol.PlanFor(v.ID) // empty plan still references the vehicle

	result := Evaluate(env, sol)
	assert.False(t, result.IsValid)
}
