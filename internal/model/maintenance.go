package model

import (
	"time"

	"github.com/google/uuid"
)

// Maintenance is a scheduled preventive-maintenance window for one vehicle:
// start is midnight of the date, end is 23:59:59 of the same date, and it
// repeats every repeat_months (spec §3).
type Maintenance struct {
	ID           uuid.UUID
	VehicleID    uuid.UUID
	Start        time.Time
	End          time.Time
	RepeatMonths int
}

// NewMaintenance constructs a Maintenance window for the given date,
// normalising Start/End to midnight / 23:59:59 of that date.
func NewMaintenance(id, vehicleID uuid.UUID, date time.Time, repeatMonths int) *Maintenance {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, date.Location())
	return &Maintenance{
		ID:           id,
		VehicleID:    vehicleID,
		Start:        start,
		End:          end,
		RepeatMonths: repeatMonths,
	}
}

// Active reports whether t falls within [Start, End] inclusive.
func (m *Maintenance) Active(t time.Time) bool {
	return !t.Before(m.Start) && !t.After(m.End)
}

// CreateNext yields the same vehicle's next maintenance window, offset by
// RepeatMonths (spec §3: "createNext() yields the same vehicle
// +repeat_months").
func (m *Maintenance) CreateNext(newID uuid.UUID) *Maintenance {
	nextDate := m.Start.AddDate(0, m.RepeatMonths, 0)
	return NewMaintenance(newID, m.VehicleID, nextDate, m.RepeatMonths)
}
