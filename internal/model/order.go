package model

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/terminal-bench/glp-fleet/pkg/units"
)

// DeliveryRecord is appended to an Order every time a SERVE action delivers
// GLP to it (spec §3, §8 invariant 6).
type DeliveryRecord struct {
	VehicleID uuid.UUID
	OrderID   uuid.UUID
	M3        units.Volume
	At        time.Time
}

// Order is identity (ID, ArriveAt, DueAt, requested volume, position —
// immutable) plus mutable remaining/delivery-record state (spec §3).
type Order struct {
	ID         uuid.UUID
	ArriveAt   time.Time
	DueAt      time.Time
	RequestM3  units.Volume
	Position   Position

	RemainingM3 units.Volume
	Deliveries  []DeliveryRecord
}

// NewOrder constructs an Order with the full requested volume still
// remaining.
func NewOrder(id uuid.UUID, arrive, due time.Time, request units.Volume, pos Position) *Order {
	return &Order{
		ID:          id,
		ArriveAt:    arrive,
		DueAt:       due,
		RequestM3:   request,
		Position:    pos,
		RemainingM3: request,
	}
}

// Delivered reports remaining == 0 (spec §3 invariant).
func (o *Order) Delivered() bool { return o.RemainingM3.IsZero() }

// Overdue reports t > due_time && !delivered (spec §3).
func (o *Order) Overdue(t time.Time) bool {
	return t.After(o.DueAt) && !o.Delivered()
}

// Deliver applies a SERVE action's effect: decrements remaining and appends
// a DeliveryRecord. Callers are responsible for clamping m3 against vehicle
// GLP and remaining before calling (spec §4.C).
func (o *Order) Deliver(vehicleID uuid.UUID, m3 units.Volume, at time.Time) {
	o.RemainingM3 = o.RemainingM3.Sub(m3)
	o.Deliveries = append(o.Deliveries, DeliveryRecord{
		VehicleID: vehicleID,
		OrderID:   o.ID,
		M3:        m3,
		At:        at,
	})
}

// DeliveredTotal sums all delivery records (spec §8 invariant 6:
// Σrecords(o).m3 == request - remaining).
func (o *Order) DeliveredTotal() units.Volume {
	total := units.ZeroVolume
	for _, rec := range o.Deliveries {
		total = total.Add(rec.M3)
	}
	return total
}

// Priority is a monotone function of time-until-due (spec §3):
// 100/(1+hoursLeft) on time, 1000+hoursLate when overdue.
func (o *Order) Priority(t time.Time) float64 {
	if o.Overdue(t) {
		hoursLate := t.Sub(o.DueAt).Hours()
		return 1000 + hoursLate
	}
	hoursLeft := o.DueAt.Sub(t).Hours()
	if hoursLeft < 0 {
		hoursLeft = 0
	}
	return 100 / (1 + hoursLeft)
}

// WindowMinutes returns due - arrive in minutes, used by the solver to sort
// orders by "most critical first" (spec §4.D step 1).
func (o *Order) WindowMinutes() float64 {
	return o.DueAt.Sub(o.ArriveAt).Minutes()
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Deliveries = append([]DeliveryRecord(nil), o.Deliveries...)
	return &cp
}

// HoursLate returns ceil(hours late) at time t, used by the evaluator's late
// penalty (spec §4.E); zero if not overdue.
func (o *Order) HoursLate(t time.Time) float64 {
	if !t.After(o.DueAt) {
		return 0
	}
	return math.Ceil(t.Sub(o.DueAt).Hours())
}
