package model

import (
	"time"

	"github.com/google/uuid"
)

// IncidentType is the severity class of a breakdown (spec §3).
type IncidentType string

const (
	TI1 IncidentType = "TI1"
	TI2 IncidentType = "TI2"
	TI3 IncidentType = "TI3"
)

// Shift is one of the three 8-hour windows partitioning a day (spec
// GLOSSARY).
type Shift string

const (
	ShiftT1 Shift = "T1" // 00:00-08:00
	ShiftT2 Shift = "T2" // 08:00-16:00
	ShiftT3 Shift = "T3" // 16:00-24:00
)

// ShiftOf returns the shift containing t.
func ShiftOf(t time.Time) Shift {
	switch {
	case t.Hour() < 8:
		return ShiftT1
	case t.Hour() < 16:
		return ShiftT2
	default:
		return ShiftT3
	}
}

// IncidentTypeFromHours infers an incident type from an estimated repair
// duration (spec §4.H: break_down infers type from hours).
func IncidentTypeFromHours(hours float64) IncidentType {
	switch {
	case hours <= 2:
		return TI1
	case hours <= 24:
		return TI2
	default:
		return TI3
	}
}

// Incident records a vehicle breakdown: its type, the shift and time it
// occurred, its location, and resolution state (spec §3).
type Incident struct {
	ID             uuid.UUID
	VehicleID      uuid.UUID
	Type           IncidentType
	Shift          Shift
	OccurrenceTime time.Time
	Location       Position
	Reason         string

	forcedResolved bool
}

// NewIncident constructs an Incident, deriving its shift from the
// occurrence time.
func NewIncident(id, vehicleID uuid.UUID, typ IncidentType, occurrence time.Time, loc Position, reason string) *Incident {
	return &Incident{
		ID:             id,
		VehicleID:      vehicleID,
		Type:           typ,
		Shift:          ShiftOf(occurrence),
		OccurrenceTime: occurrence,
		Location:       loc,
		Reason:         reason,
	}
}

// AvailabilityTime is a pure function of (type, shift, occurrence_time)
// (spec §3):
//   - TI1: occurrence + 2h (vehicle may continue its route).
//   - TI2: occurrence + 2h immobilisation, then available at the start of
//     the shift after-next (T1->same-day T3, T2->next-day T1,
//     T3->next-day T2); must return to depot.
//   - TI3: occurrence + 4h immobilisation, available at next-next-next
//     day's T1 (+3 days); must return to depot.
func (inc *Incident) AvailabilityTime() time.Time {
	switch inc.Type {
	case TI1:
		return inc.OccurrenceTime.Add(2 * time.Hour)
	case TI2:
		return startOfShiftAfterNext(inc.OccurrenceTime, inc.Shift)
	case TI3:
		return startOfDayOffset(inc.OccurrenceTime, 3, ShiftT1)
	default:
		return inc.OccurrenceTime
	}
}

// MustReturnToDepot reports whether the incident's type requires the
// vehicle to return to a depot before resuming service (spec §3: TI2/TI3).
func (inc *Incident) MustReturnToDepot() bool {
	return inc.Type == TI2 || inc.Type == TI3
}

// Resolved reports whether the incident no longer constrains the vehicle at
// time t: either sim_time has passed the availability time, or the
// incident was explicitly resolved via the control facade's repair command
// (spec §9 open question: both coexist).
func (inc *Incident) Resolved(simTime time.Time) bool {
	return inc.forcedResolved || !simTime.Before(inc.AvailabilityTime())
}

// ForceResolve marks the incident resolved regardless of sim_time, used by
// the control facade's repair command.
func (inc *Incident) ForceResolve() { inc.forcedResolved = true }

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfDayOffset(t time.Time, days int, shift Shift) time.Time {
	day := startOfDay(t).AddDate(0, 0, days)
	return shiftStart(day, shift)
}

func shiftStart(dayMidnight time.Time, shift Shift) time.Time {
	switch shift {
	case ShiftT1:
		return dayMidnight
	case ShiftT2:
		return dayMidnight.Add(8 * time.Hour)
	case ShiftT3:
		return dayMidnight.Add(16 * time.Hour)
	default:
		return dayMidnight
	}
}

// startOfShiftAfterNext implements the TI2 table: T1->same-day T3,
// T2->next-day T1, T3->next-day T2.
func startOfShiftAfterNext(occurrence time.Time, shift Shift) time.Time {
	midnight := startOfDay(occurrence)
	switch shift {
	case ShiftT1:
		return shiftStart(midnight, ShiftT3)
	case ShiftT2:
		return shiftStart(midnight.AddDate(0, 0, 1), ShiftT1)
	case ShiftT3:
		return shiftStart(midnight.AddDate(0, 0, 1), ShiftT2)
	default:
		return occurrence
	}
}
