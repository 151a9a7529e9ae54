package solver

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/glp-fleet/internal/environment"
	"github.com/terminal-bench/glp-fleet/internal/grid"
	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

func buildEnv(start time.Time) *environment.Environment {
	env := environment.New(start)
	main := model.NewDepot(uuid.New(), "MAIN", model.Position{10, 10}, units.ZeroVolume, true, true)
	env.AddDepot(main)

	v := model.NewVehicle(uuid.New(), "TA01", model.VehicleTypes[model.TypeTA], model.Position{10, 10})
	v.GLPM3 = v.Type.CapacityM3
	env.AddVehicle(v)

	order := model.NewOrder(uuid.New(), start, start.Add(6*time.Hour), units.NewVolume(8), model.Position{10, 15})
	env.AddOrder(order)

	return env
}

func TestSolveProducesFeasiblePlan(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	env := buildEnv(start)
	g := grid.New(51, 51, grid.DefaultSpeedKPH)

	s := New(DefaultConfig())
	sol, strategy := s.Solve(context.Background(), env, g)

	require.Equal(t, "sih", strategy)
	require.Len(t, sol.Plans, 1)
	for _, p := range sol.Plans {
		assert.False(t, p.IsEmpty())
	}
}

func TestRandomizedFallbackAlwaysReturnsASolution(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	env := buildEnv(start)
	g := grid.New(51, 51, grid.DefaultSpeedKPH)

	s := New(DefaultConfig())
	sol := s.randomizedGreedy(env, g)
	assert.NotNil(t, sol)
}

func TestSolveWithNoOrdersReturnsEmptyPlans(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	env := environment.New(start)
	main := model.NewDepot(uuid.New(), "MAIN", model.Position{0, 0}, units.ZeroVolume, true, true)
	env.AddDepot(main)
	v := model.NewVehicle(uuid.New(), "TD01", model.VehicleTypes[model.TypeTD], model.Position{0, 0})
	env.AddVehicle(v)

	g := grid.New(10, 10, grid.DefaultSpeedKPH)
	s := New(DefaultConfig())
	sol, strategy := s.Solve(context.Background(), env, g)
	assert.Equal(t, "sih", strategy)
	for _, p := range sol.Plans {
		assert.True(t, p.IsEmpty())
	}
}
