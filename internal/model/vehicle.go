// Package model defines the GLP fleet domain types: identity plus mutable
// state for Vehicle, Order, Depot, Blockage, Incident and Maintenance,
// following an identity/state split for each registry.
package model

import (
	"github.com/google/uuid"

	"github.com/terminal-bench/glp-fleet/pkg/units"
)

// VehicleTypeCode tags the four fixed vehicle classes (spec §3/§6).
type VehicleTypeCode string

const (
	TypeTA VehicleTypeCode = "TA"
	TypeTB VehicleTypeCode = "TB"
	TypeTC VehicleTypeCode = "TC"
	TypeTD VehicleTypeCode = "TD"
)

// VehicleType carries the fixed physical attributes of a class of tanker.
type VehicleType struct {
	Code          VehicleTypeCode
	CapacityM3    units.Volume
	TareTons      float64
	FullGLPTons   float64
	FuelCapacity  units.Fuel
}

// VehicleTypes is the fixed catalogue of the four classes (spec §6): fuel
// capacity is 25 gallons for every type.
var VehicleTypes = map[VehicleTypeCode]VehicleType{
	TypeTA: {Code: TypeTA, CapacityM3: units.NewVolume(25), TareTons: 2.5, FullGLPTons: 12.5, FuelCapacity: units.NewFuel(25)},
	TypeTB: {Code: TypeTB, CapacityM3: units.NewVolume(15), TareTons: 2.0, FullGLPTons: 7.5, FuelCapacity: units.NewFuel(25)},
	TypeTC: {Code: TypeTC, CapacityM3: units.NewVolume(10), TareTons: 1.5, FullGLPTons: 5.0, FuelCapacity: units.NewFuel(25)},
	TypeTD: {Code: TypeTD, CapacityM3: units.NewVolume(5), TareTons: 1.0, FullGLPTons: 2.5, FuelCapacity: units.NewFuel(25)},
}

// VehicleStatus is the current operational state of a vehicle.
type VehicleStatus string

const (
	StatusAvailable   VehicleStatus = "AVAILABLE"
	StatusDriving     VehicleStatus = "DRIVING"
	StatusServing     VehicleStatus = "SERVING"
	StatusMaintenance VehicleStatus = "MAINTENANCE"
	StatusRefueling   VehicleStatus = "REFUELING"
	StatusReloading   VehicleStatus = "RELOADING"
	StatusIdle        VehicleStatus = "IDLE"
	StatusUnavailable VehicleStatus = "UNAVAILABLE"
)

// Vehicle is identity (ID, Type — immutable) plus mutable position/GLP/
// fuel/status state (spec §3).
type Vehicle struct {
	ID   uuid.UUID
	Code string // human label, e.g. "TD01"
	Type VehicleType

	Position Position
	GLPM3    units.Volume
	FuelGal  units.Fuel
	Status   VehicleStatus
}

// NewVehicle constructs a Vehicle fully fuelled, empty, and available.
func NewVehicle(id uuid.UUID, code string, vt VehicleType, pos Position) *Vehicle {
	return &Vehicle{
		ID:       id,
		Code:     code,
		Type:     vt,
		Position: pos,
		GLPM3:    units.ZeroVolume,
		FuelGal:  vt.FuelCapacity,
		Status:   StatusAvailable,
	}
}

// EligibleForAssignment reports whether the vehicle may be given new plan
// actions by the solver (spec §3: "a vehicle in UNAVAILABLE or MAINTENANCE
// is not eligible for assignment").
func (v *Vehicle) EligibleForAssignment() bool {
	return v.Status != StatusUnavailable && v.Status != StatusMaintenance
}

// FuelCostForDistance is the fuel required to travel d while carrying the
// vehicle's current GLP load (spec §3 formula).
func (v *Vehicle) FuelCostForDistance(d units.Distance) units.Fuel {
	return units.FuelForDistance(d, v.Type.TareTons, v.GLPM3)
}

// Clone returns a deep copy (Vehicle has no nested pointers besides value
// types, so a shallow struct copy already satisfies deep-copy semantics).
func (v *Vehicle) Clone() *Vehicle {
	cp := *v
	return &cp
}
