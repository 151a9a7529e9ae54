package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// Subject names for domain events. The orchestrator's tick loop does not use
// them: it publishes drained events under their event type string (e.g.
// "ORDER_ARRIVAL") and its per-tick checkpoint under "checkpoint".
const (
	SubjectOrderArrival    = "sim.order.arrival"
	SubjectOrderDelivered  = "sim.order.delivered"
	SubjectBlockageStart   = "sim.blockage.start"
	SubjectBlockageEnd     = "sim.blockage.end"
	SubjectVehicleBreakdown = "sim.vehicle.breakdown"
	SubjectMaintenanceStart = "sim.maintenance.start"
	SubjectMaintenanceEnd   = "sim.maintenance.end"
	SubjectDepotRefill      = "sim.depot.refill"
	SubjectReplanTriggered  = "sim.replan.triggered"
	SubjectCheckpoint       = "sim.checkpoint"
	SubjectSimulationEnd    = "sim.end"
)

// OrderArrivalEvent announces a newly arrived order.
type OrderArrivalEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	ArriveAt  time.Time `json:"arrive_at"`
	DueAt     time.Time `json:"due_at"`
	GLPM3     float64   `json:"glp_m3"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
}

// OrderDeliveredEvent announces an order reaching remaining == 0.
type OrderDeliveredEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	VehicleID uuid.UUID `json:"vehicle_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// BlockageEvent announces a blockage interval boundary crossing.
type BlockageEvent struct {
	BlockageID uuid.UUID `json:"blockage_id"`
	At         time.Time `json:"at"`
}

// BreakdownEvent announces a vehicle incident.
type BreakdownEvent struct {
	VehicleID uuid.UUID `json:"vehicle_id"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

// MaintenanceEvent announces a maintenance window boundary.
type MaintenanceEvent struct {
	VehicleID uuid.UUID `json:"vehicle_id"`
	At        time.Time `json:"at"`
}

// DepotRefillEvent announces a depot being refilled at a day boundary.
type DepotRefillEvent struct {
	DepotID uuid.UUID `json:"depot_id"`
	At      time.Time `json:"at"`
}

// ReplanEvent announces a solver invocation having replaced the plan map.
type ReplanEvent struct {
	At            time.Time `json:"at"`
	VehiclesPlanned int     `json:"vehicles_planned"`
	OrdersCovered   int     `json:"orders_covered"`
	DurationMS      int64   `json:"duration_ms"`
}
