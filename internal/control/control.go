// Package control implements the Control Facade: the single entry point
// external callers use to pause/resume the simulation, change its speed,
// simulate or clear a vehicle breakdown, and read read-only snapshots of
// fleet state. Pure business logic with no transport dependency.
package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/terminal-bench/glp-fleet/internal/environment"
	"github.com/terminal-bench/glp-fleet/internal/model"
	"github.com/terminal-bench/glp-fleet/internal/orchestrator"
	"github.com/terminal-bench/glp-fleet/internal/plan"
)

// ErrSpeedOutOfRange is returned by SetSpeed for a value outside
// [MinSpeedMs, MaxSpeedMs] (spec §9).
var ErrSpeedOutOfRange = errors.New("control: speed must be between 50 and 10000 ms")

// ErrVehicleNotFound is returned by any command referencing an unknown
// vehicle.
var ErrVehicleNotFound = errors.New("control: vehicle not found")

// ErrNoActiveIncident is returned by Repair when the vehicle has nothing to
// resolve.
var ErrNoActiveIncident = errors.New("control: vehicle has no active incident")

// ErrVehicleAlreadyUnavailable is returned by BreakDown when the vehicle is
// already UNAVAILABLE (spec §4.H: rejects rather than stacking a second
// incident).
var ErrVehicleAlreadyUnavailable = errors.New("control: vehicle is already unavailable")

const (
	MinSpeedMs = int64(50)
	MaxSpeedMs = int64(10000)
)

// Facade is the Control Facade (spec §4.I).
type Facade struct {
	env  *environment.Environment
	orch *orchestrator.Orchestrator
}

// New constructs a Facade over a running Environment and Orchestrator.
func New(env *environment.Environment, orch *orchestrator.Orchestrator) *Facade {
	return &Facade{env: env, orch: orch}
}

// Pause suspends the tick loop; idempotent (spec §4.I).
func (f *Facade) Pause() { f.orch.Pause() }

// Resume resumes the tick loop; idempotent (spec §4.I).
func (f *Facade) Resume() { f.orch.Resume() }

// IsPaused reports whether the simulation is currently paused.
func (f *Facade) IsPaused() bool { return f.orch.IsPaused() }

// Speed returns the current real-time tick interval in milliseconds.
func (f *Facade) Speed() int64 { return f.orch.Speed() }

// SetSpeed validates and applies a new real-time tick interval (spec §9:
// "[50,10000]ms").
func (f *Facade) SetSpeed(ms int64) error {
	if ms < MinSpeedMs || ms > MaxSpeedMs {
		return ErrSpeedOutOfRange
	}
	f.orch.SetSpeed(ms)
	return nil
}

// BreakDown simulates a vehicle breakdown: it infers the incident type from
// the estimated repair duration, registers the incident (which immediately
// marks the vehicle UNAVAILABLE), and triggers a replan (spec §4.H).
func (f *Facade) BreakDown(vehicleID uuid.UUID, estimatedHours float64, reason string) (*model.Incident, error) {
	v, ok := f.env.FindVehicleByID(vehicleID)
	if !ok {
		return nil, ErrVehicleNotFound
	}
	if v.Status == model.StatusUnavailable {
		return nil, ErrVehicleAlreadyUnavailable
	}
	typ := model.IncidentTypeFromHours(estimatedHours)
	inc := model.NewIncident(uuid.New(), vehicleID, typ, f.env.SimTime(), v.Position, reason)
	f.env.RegisterIncident(inc)
	f.orch.TriggerReplan()
	return inc, nil
}

// Repair resolves a vehicle's active incident and returns it to service
// (spec §4.H).
func (f *Facade) Repair(vehicleID uuid.UUID) error {
	if _, ok := f.env.FindVehicleByID(vehicleID); !ok {
		return ErrVehicleNotFound
	}
	if !f.env.ReleaseVehicleIncident(vehicleID) {
		return ErrNoActiveIncident
	}
	f.orch.TriggerReplan()
	return nil
}

// VehicleSnapshot is the read-only view of a vehicle exposed by the
// snapshot endpoints (spec §6).
type VehicleSnapshot struct {
	ID       uuid.UUID
	Code     string
	Type     string
	Position model.Position
	GLPM3    float64
	FuelGal  float64
	Status   string
}

// OrderSnapshot is the read-only view of an order.
type OrderSnapshot struct {
	ID          uuid.UUID
	ArriveAt    string
	DueAt       string
	RequestM3   float64
	RemainingM3 float64
	Position    model.Position
	Overdue     bool
}

// FleetSnapshot is the read-only whole-simulation summary.
type FleetSnapshot struct {
	SimTime       string
	Tick          int64
	Paused        bool
	PendingOrders int
	OverdueOrders int
}

// dateTimeFormat is the wire timestamp layout used throughout snapshots
// (spec §9 open question: yyyy-MM-dd HH:mm:ss).
const dateTimeFormat = "2006-01-02 15:04:05"

// SnapshotVehicles returns a read-only view of every vehicle.
func (f *Facade) SnapshotVehicles() []VehicleSnapshot {
	vehicles := f.env.Vehicles()
	out := make([]VehicleSnapshot, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, VehicleSnapshot{
			ID:       v.ID,
			Code:     v.Code,
			Type:     string(v.Type.Code),
			Position: v.Position,
			GLPM3:    v.GLPM3.Float64(),
			FuelGal:  v.FuelGal.Float64(),
			Status:   string(v.Status),
		})
	}
	return out
}

// SnapshotOrders returns a read-only view of every order.
func (f *Facade) SnapshotOrders() []OrderSnapshot {
	orders := f.env.AllOrders()
	now := f.env.SimTime()
	out := make([]OrderSnapshot, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderSnapshot{
			ID:          o.ID,
			ArriveAt:    o.ArriveAt.Format(dateTimeFormat),
			DueAt:       o.DueAt.Format(dateTimeFormat),
			RequestM3:   o.RequestM3.Float64(),
			RemainingM3: o.RemainingM3.Float64(),
			Position:    o.Position,
			Overdue:     o.Overdue(now),
		})
	}
	return out
}

// SnapshotFleet returns the whole-simulation summary.
func (f *Facade) SnapshotFleet() FleetSnapshot {
	return FleetSnapshot{
		SimTime:       f.env.SimTime().Format(dateTimeFormat),
		Tick:          f.orch.TickCount(),
		Paused:        f.orch.IsPaused(),
		PendingOrders: len(f.env.PendingOrders()),
		OverdueOrders: len(f.env.OverdueOrders()),
	}
}

// BlockageSnapshot is the read-only view of an active street blockage.
type BlockageSnapshot struct {
	ID        uuid.UUID
	StartTime string
	EndTime   string
	PolyLine  []model.Position
}

// SnapshotBlockages returns every blockage active at the current sim time.
func (f *Facade) SnapshotBlockages() []BlockageSnapshot {
	blockages := f.env.ActiveBlockagesAt(f.env.SimTime())
	out := make([]BlockageSnapshot, 0, len(blockages))
	for _, b := range blockages {
		out = append(out, BlockageSnapshot{
			ID:        b.ID,
			StartTime: b.StartTime.Format(dateTimeFormat),
			EndTime:   b.EndTime.Format(dateTimeFormat),
			PolyLine:  b.PolyLine,
		})
	}
	return out
}

// VehiclePlan returns a vehicle's current plan, if one has been assigned.
func (f *Facade) VehiclePlan(vehicleID uuid.UUID) (*plan.Plan, error) {
	if _, ok := f.env.FindVehicleByID(vehicleID); !ok {
		return nil, ErrVehicleNotFound
	}
	p, ok := f.orch.PlanFor(vehicleID)
	if !ok {
		return nil, fmt.Errorf("control: vehicle %s has no assigned plan", vehicleID)
	}
	return p, nil
}

// FormatTime renders t using the wire timestamp format (spec §9).
func FormatTime(t time.Time) string { return t.Format(dateTimeFormat) }
