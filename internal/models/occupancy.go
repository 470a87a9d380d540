package models

import "time"

// OccupancyPeriod represents a lease: one occupant assigned to one unit over a date range.
// Several historical periods may exist per unit; at most one may be active for a billing period.
type OccupancyPeriod struct {
	// ID is the unique identifier for the occupancy period (UUID format).
	ID string

	// UnitID is the unit being occupied.
	UnitID string

	// OccupantID identifies the person living in the unit.
	OccupantID string

	// StartDate is the first day of the lease.
	StartDate time.Time

	// EndDate is the last day of the lease, inclusive. Nil for an open-ended lease.
	EndDate *time.Time
}

// ActiveIn reports whether the period overlaps the billing period:
// start <= period end and (no end or end >= period start).
func (o OccupancyPeriod) ActiveIn(p Period) bool {
	if Day(o.StartDate).After(p.End()) {
		return false
	}
	return o.EndDate == nil || !Day(*o.EndDate).Before(p.Start())
}
