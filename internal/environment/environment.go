// Package environment holds the single authoritative, mutable simulation
// state: vehicles, orders, depots, blockages, incidents and maintenance
// windows, all behind one mutex with narrow accessor methods.
package environment

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terminal-bench/glp-fleet/internal/model"
)

// retentionHorizon bounds how long an expired blockage is kept in the
// registry before AdvanceTime prunes it; nothing in the simulation reads a
// blockage once this much simulated time has passed its end.
const retentionHorizon = 48 * time.Hour

// Environment is the orchestrator's single source of truth. Its accessors
// return pointers to the live entities, not copies; callers that mutate
// those entities outside the mutating methods take Lock first.
type Environment struct {
	mu sync.RWMutex

	simTime time.Time

	vehicles     map[uuid.UUID]*model.Vehicle
	orders       map[uuid.UUID]*model.Order
	depots       map[uuid.UUID]*model.Depot
	blockages    map[uuid.UUID]*model.Blockage
	incidents    map[uuid.UUID]*model.Incident
	maintenances map[uuid.UUID]*model.Maintenance

	// vehicleIncidents/vehicleMaintenance index the active constraint (if
	// any) per vehicle, recomputed by AdvanceTime.
	vehicleIncidents   map[uuid.UUID]uuid.UUID
	vehicleMaintenance map[uuid.UUID]uuid.UUID
}

// New constructs an empty Environment at the given start time.
func New(start time.Time) *Environment {
	return &Environment{
		simTime:            start,
		vehicles:           make(map[uuid.UUID]*model.Vehicle),
		orders:             make(map[uuid.UUID]*model.Order),
		depots:             make(map[uuid.UUID]*model.Depot),
		blockages:          make(map[uuid.UUID]*model.Blockage),
		incidents:          make(map[uuid.UUID]*model.Incident),
		maintenances:       make(map[uuid.UUID]*model.Maintenance),
		vehicleIncidents:   make(map[uuid.UUID]uuid.UUID),
		vehicleMaintenance: make(map[uuid.UUID]uuid.UUID),
	}
}

// Lock acquires the environment's write lock for callers that must mutate
// vehicle/order/depot state directly — the orchestrator's tick-time action
// execution — instead of going through a narrow mutating accessor. Callers
// must not call back into any other Environment method while held.
func (e *Environment) Lock() { e.mu.Lock() }

// Unlock releases the lock acquired by Lock.
func (e *Environment) Unlock() { e.mu.Unlock() }

// SimTime returns the environment's current simulated time.
func (e *Environment) SimTime() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.simTime
}

// AddVehicle registers a vehicle at construction time (not a tick-time
// operation; the fleet composition is fixed, spec §6).
func (e *Environment) AddVehicle(v *model.Vehicle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vehicles[v.ID] = v
}

// AddDepot registers a depot at construction time.
func (e *Environment) AddDepot(d *model.Depot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.depots[d.ID] = d
}

// AddOrder admits a new order into the environment (spec §4.B).
func (e *Environment) AddOrder(o *model.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orders[o.ID] = o
}

// AddBlockage admits a new street blockage (spec §4.B).
func (e *Environment) AddBlockage(b *model.Blockage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blockages[b.ID] = b
}

// RegisterIncident admits a vehicle breakdown incident and immediately marks
// the vehicle UNAVAILABLE (spec §4.B, §4.H).
func (e *Environment) RegisterIncident(inc *model.Incident) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.incidents[inc.ID] = inc
	e.vehicleIncidents[inc.VehicleID] = inc.ID
	if v, ok := e.vehicles[inc.VehicleID]; ok {
		v.Status = model.StatusUnavailable
	}
}

// RegisterMaintenance admits a scheduled maintenance window (spec §4.B).
func (e *Environment) RegisterMaintenance(m *model.Maintenance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maintenances[m.ID] = m
}

// Vehicles returns every registered vehicle.
func (e *Environment) Vehicles() []*model.Vehicle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*model.Vehicle, 0, len(e.vehicles))
	for _, v := range e.vehicles {
		out = append(out, v)
	}
	return out
}

// AvailableVehicles returns vehicles eligible for new plan assignment (spec
// §3: not UNAVAILABLE or MAINTENANCE).
func (e *Environment) AvailableVehicles() []*model.Vehicle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*model.Vehicle, 0, len(e.vehicles))
	for _, v := range e.vehicles {
		if v.EligibleForAssignment() {
			out = append(out, v)
		}
	}
	return out
}

// PendingOrders returns orders not yet fully delivered.
func (e *Environment) PendingOrders() []*model.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*model.Order, 0, len(e.orders))
	for _, o := range e.orders {
		if !o.Delivered() {
			out = append(out, o)
		}
	}
	return out
}

// AllOrders returns every registered order, delivered or not, used by the
// evaluator to compute fleet-wide fulfilment rates.
func (e *Environment) AllOrders() []*model.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*model.Order, 0, len(e.orders))
	for _, o := range e.orders {
		out = append(out, o)
	}
	return out
}

// OverdueOrders returns orders overdue at the environment's current
// sim_time.
func (e *Environment) OverdueOrders() []*model.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*model.Order, 0)
	for _, o := range e.orders {
		if o.Overdue(e.simTime) {
			out = append(out, o)
		}
	}
	return out
}

// ActiveBlockagesAt returns every blockage active at time t.
func (e *Environment) ActiveBlockagesAt(t time.Time) []*model.Blockage {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*model.Blockage, 0)
	for _, b := range e.blockages {
		if b.Active(t) {
			out = append(out, b)
		}
	}
	return out
}

// BlockedAt implements grid.BlockageSource: pos is blocked at t if any
// registered blockage covers it and is active then.
func (e *Environment) BlockedAt(pos model.Position, t time.Time) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, b := range e.blockages {
		if b.Active(t) && b.Blocks(pos) {
			return true
		}
	}
	return false
}

// ActiveIncidentForVehicle returns the incident currently constraining a
// vehicle, if any (spec §4.H: repair needs to find what to resolve).
func (e *Environment) ActiveIncidentForVehicle(vehicleID uuid.UUID) (*model.Incident, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	incidentID, ok := e.vehicleIncidents[vehicleID]
	if !ok {
		return nil, false
	}
	inc, ok := e.incidents[incidentID]
	return inc, ok
}

// ReleaseVehicleIncident force-resolves a vehicle's active incident and
// returns it to AVAILABLE (spec §4.H: "repair" control command).
func (e *Environment) ReleaseVehicleIncident(vehicleID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	incidentID, ok := e.vehicleIncidents[vehicleID]
	if !ok {
		return false
	}
	if inc, ok := e.incidents[incidentID]; ok {
		inc.ForceResolve()
	}
	delete(e.vehicleIncidents, vehicleID)
	if v, ok := e.vehicles[vehicleID]; ok {
		v.Status = model.StatusAvailable
	}
	return true
}

// FindVehicleByID looks up a vehicle by id.
func (e *Environment) FindVehicleByID(id uuid.UUID) (*model.Vehicle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vehicles[id]
	return v, ok
}

// FindOrderByID looks up an order by id.
func (e *Environment) FindOrderByID(id uuid.UUID) (*model.Order, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	o, ok := e.orders[id]
	return o, ok
}

// FindDepotByID looks up a depot by id.
func (e *Environment) FindDepotByID(id uuid.UUID) (*model.Depot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.depots[id]
	return d, ok
}

// Depots returns every registered depot.
func (e *Environment) Depots() []*model.Depot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*model.Depot, 0, len(e.depots))
	for _, d := range e.depots {
		out = append(out, d)
	}
	return out
}

// MainDepot returns the first depot flagged IsMain, used by the solver and
// orchestrator as the default return point (spec §3).
func (e *Environment) MainDepot() (*model.Depot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, d := range e.depots {
		if d.IsMain {
			return d, true
		}
	}
	return nil, false
}

// AdvanceTime moves sim_time forward by delta, applying every time-dependent
// side effect (spec §4.B "advance_time"):
//   - crossing a midnight boundary refills every auxiliary depot;
//   - incidents/maintenance windows that have lapsed release their vehicle
//     back to AVAILABLE, and newly active maintenance windows ground it;
//   - blockages fully expired beyond the retention horizon are pruned.
func (e *Environment) AdvanceTime(delta time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	oldTime := e.simTime
	newTime := oldTime.Add(delta)

	if crossesMidnight(oldTime, newTime) {
		for _, d := range e.depots {
			d.Refill()
		}
	}

	for vehicleID, incidentID := range e.vehicleIncidents {
		inc, ok := e.incidents[incidentID]
		if !ok {
			delete(e.vehicleIncidents, vehicleID)
			continue
		}
		if inc.Resolved(newTime) {
			delete(e.vehicleIncidents, vehicleID)
			if v, ok := e.vehicles[vehicleID]; ok && v.Status == model.StatusUnavailable {
				v.Status = model.StatusAvailable
			}
		}
	}

	for _, m := range e.maintenances {
		v, ok := e.vehicles[m.VehicleID]
		if !ok {
			continue
		}
		switch {
		case m.Active(newTime):
			e.vehicleMaintenance[m.VehicleID] = m.ID
			v.Status = model.StatusMaintenance
		case e.vehicleMaintenance[m.VehicleID] == m.ID && !m.Active(newTime):
			delete(e.vehicleMaintenance, m.VehicleID)
			if v.Status == model.StatusMaintenance {
				v.Status = model.StatusAvailable
			}
		}
	}

	for id, b := range e.blockages {
		if newTime.Sub(b.EndTime) > retentionHorizon {
			delete(e.blockages, id)
		}
	}

	e.simTime = newTime
}

func crossesMidnight(oldTime, newTime time.Time) bool {
	if !newTime.After(oldTime) {
		return false
	}
	oldDay := time.Date(oldTime.Year(), oldTime.Month(), oldTime.Day(), 0, 0, 0, 0, oldTime.Location())
	newDay := time.Date(newTime.Year(), newTime.Month(), newTime.Day(), 0, 0, 0, 0, newTime.Location())
	return newDay.After(oldDay)
}

// Clone returns a deep, independent copy of the environment for the solver
// to plan against without racing the tick loop's writer (spec §4.D: "the
// solver never mutates the live environment").
func (e *Environment) Clone() *Environment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp := &Environment{
		simTime:            e.simTime,
		vehicles:           make(map[uuid.UUID]*model.Vehicle, len(e.vehicles)),
		orders:             make(map[uuid.UUID]*model.Order, len(e.orders)),
		depots:             make(map[uuid.UUID]*model.Depot, len(e.depots)),
		blockages:          make(map[uuid.UUID]*model.Blockage, len(e.blockages)),
		incidents:          make(map[uuid.UUID]*model.Incident, len(e.incidents)),
		maintenances:       make(map[uuid.UUID]*model.Maintenance, len(e.maintenances)),
		vehicleIncidents:   make(map[uuid.UUID]uuid.UUID, len(e.vehicleIncidents)),
		vehicleMaintenance: make(map[uuid.UUID]uuid.UUID, len(e.vehicleMaintenance)),
	}
	for id, v := range e.vehicles {
		cp.vehicles[id] = v.Clone()
	}
	for id, o := range e.orders {
		cp.orders[id] = o.Clone()
	}
	for id, d := range e.depots {
		cp.depots[id] = d.Clone()
	}
	for id, b := range e.blockages {
		cp.blockages[id] = b.Clone()
	}
	for id, inc := range e.incidents {
		cpInc := *inc
		cp.incidents[id] = &cpInc
	}
	for id, m := range e.maintenances {
		cpM := *m
		cp.maintenances[id] = &cpM
	}
	for k, v := range e.vehicleIncidents {
		cp.vehicleIncidents[k] = v
	}
	for k, v := range e.vehicleMaintenance {
		cp.vehicleMaintenance[k] = v
	}
	return cp
}

// String implements fmt.Stringer for debug logging.
func (e *Environment) String() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fmt.Sprintf("Environment{sim_time=%s vehicles=%d orders=%d}", e.simTime.Format(time.RFC3339), len(e.vehicles), len(e.orders))
}
