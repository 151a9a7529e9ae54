package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/glp-fleet/internal/environment"
	"github.com/terminal-bench/glp-fleet/internal/eventqueue"
	"github.com/terminal-bench/glp-fleet/internal/grid"
	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/internal/solver"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

func buildTestOrchestrator(start time.Time) (*Orchestrator, *model.Vehicle, *model.Order) {
	env := environment.New(start)
	main := model.NewDepot(uuid.New(), "MAIN", model.Position{5, 5}, units.ZeroVolume, true, true)
	env.AddDepot(main)

	v := model.NewVehicle(uuid.New(), "TA01", model.VehicleTypes[model.TypeTA], model.Position{5, 5})
	v.GLPM3 = v.Type.CapacityM3
	env.AddVehicle(v)

	order := model.NewOrder(uuid.New(), start, start.Add(4*time.Hour), units.NewVolume(5), model.Position{5, 8})
	env.AddOrder(order)

	g := grid.New(51, 51, grid.DefaultSpeedKPH)
	sv := solver.New(solver.DefaultConfig())
	q := eventqueue.New()

	o := New(DefaultConfig(), env, g, sv, q, nil, nil, nil, nil)
	return o, v, order
}

func TestTickAdvancesSimTimeAndReplans(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	o, _, _ := buildTestOrchestrator(start)

	o.tick(context.Background())

	assert.Equal(t, start.Add(o.cfg.StepMinutes), o.env.SimTime())
	assert.Equal(t, int64(1), o.TickCount())
	assert.Equal(t, "sih", o.LastStrategy())
}

func TestTickExecutesDueActionsEventually(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	o, v, order := buildTestOrchestrator(start)

	for i := 0; i < 30; i++ {
		o.tick(context.Background())
	}

	got, ok := o.env.FindOrderByID(order.ID)
	require.True(t, ok)
	assert.True(t, got.Delivered(), "order should be delivered after enough ticks")

	gotV, ok := o.env.FindVehicleByID(v.ID)
	require.True(t, ok)
	// The plan ends with the drive back to the main depot at (5,5).
	assert.Equal(t, model.Position{5, 5}, gotV.Position)
}

func TestPauseStopsTicking(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	o, _, _ := buildTestOrchestrator(start)

	o.Pause()
	assert.True(t, o.IsPaused())
	o.maybeTick(context.Background())
	assert.Equal(t, start, o.env.SimTime())

	o.Resume()
	assert.False(t, o.IsPaused())
	o.maybeTick(context.Background())
	assert.Equal(t, start.Add(o.cfg.StepMinutes), o.env.SimTime())
}

func TestSetSpeedClamps(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	o, _, _ := buildTestOrchestrator(start)

	o.SetSpeed(10)
	assert.Equal(t, int64(50), o.tickIntervalMs)

	o.SetSpeed(999999)
	assert.Equal(t, int64(10000), o.tickIntervalMs)
}
