package environment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/pkg/units"
)

func newTestEnv(start time.Time) (*Environment, *model.Depot, *model.Vehicle) {
	env := New(start)
	main := model.NewDepot(uuid.New(), "MAIN", model.Position{12, 8}, units.ZeroVolume, true, true)
	aux := model.NewDepot(uuid.New(), "NORTH", model.Position{42, 42}, units.NewVolume(160), false, true)
	v := model.NewVehicle(uuid.New(), "TD01", model.VehicleTypes[model.TypeTD], model.Position{12, 8})
	env.AddDepot(main)
	env.AddDepot(aux)
	env.AddVehicle(v)
	return env, aux, v
}

func TestAvailableVehiclesExcludesUnavailable(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env, _, v := newTestEnv(start)

	assert.Len(t, env.AvailableVehicles(), 1)

	inc := model.NewIncident(uuid.New(), v.ID, model.TI1, start, model.Position{12, 8}, "flat tire")
	env.RegisterIncident(inc)

	assert.Len(t, env.AvailableVehicles(), 0)
	got, ok := env.FindVehicleByID(v.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusUnavailable, got.Status)
}

func TestAdvanceTimeReleasesResolvedIncident(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	env, _, v := newTestEnv(start)

	inc := model.NewIncident(uuid.New(), v.ID, model.TI1, start, model.Position{12, 8}, "flat tire")
	env.RegisterIncident(inc)
	assert.Len(t, env.AvailableVehicles(), 0)

	env.AdvanceTime(3 * time.Hour) // TI1 resolves after 2h

	assert.Len(t, env.AvailableVehicles(), 1)
}

func TestAdvanceTimeRefillsAuxDepotAtMidnight(t *testing.T) {
	start := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	env, aux, _ := newTestEnv(start)
	aux.CurrentGLP = units.NewVolume(10)

	env.AdvanceTime(2 * time.Hour) // crosses into 2026-01-02

	got, ok := env.FindDepotByID(aux.ID)
	require.True(t, ok)
	assert.InDelta(t, 160, got.CurrentGLP.Float64(), 1e-9)
}

func TestAdvanceTimeAppliesMaintenanceWindow(t *testing.T) {
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	env, _, v := newTestEnv(start)

	m := model.NewMaintenance(uuid.New(), v.ID, start, 2)
	env.RegisterMaintenance(m)

	env.AdvanceTime(1 * time.Hour)
	got, _ := env.FindVehicleByID(v.ID)
	assert.Equal(t, model.StatusMaintenance, got.Status)

	env.AdvanceTime(24 * time.Hour) // now 2026-03-16, window over
	got, _ = env.FindVehicleByID(v.ID)
	assert.Equal(t, model.StatusAvailable, got.Status)
}

func TestCloneIsIndependent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env, _, v := newTestEnv(start)

	clone := env.Clone()
	cloned, _ := clone.FindVehicleByID(v.ID)
	cloned.Status = model.StatusDriving

	original, _ := env.FindVehicleByID(v.ID)
	assert.Equal(t, model.StatusAvailable, original.Status)
}

func TestBlockedAtReflectsActiveBlockages(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env, _, _ := newTestEnv(start)

	b, err := model.NewBlockage(uuid.New(), start, start.Add(time.Hour), []model.Position{{5, 5}, {5, 10}})
	require.NoError(t, err)
	env.AddBlockage(b)

	assert.True(t, env.BlockedAt(model.Position{5, 7}, start.Add(30*time.Minute)))
	assert.False(t, env.BlockedAt(model.Position{5, 7}, start.Add(2*time.Hour)))
}
