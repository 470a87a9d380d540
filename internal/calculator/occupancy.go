package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/colivsplit/internal/models"
)

// OccupiedUnit pairs a unit with the occupant holding its active lease.
type OccupiedUnit struct {
	Unit       models.Unit
	OccupantID string
}

// Occupancy is the occupied/vacant picture of a property for one billing period.
type Occupancy struct {
	PropertyID    string
	Period        models.Period
	Occupied      []OccupiedUnit
	Vacant        []models.Unit
	TotalCapacity int
	OccupiedCount int

	// StaleVacancyFlags lists units whose cached IsVacant flag disagrees with their leases.
	StaleVacancyFlags []string
}

// RentPotential is the sum of base prices over every unit, occupied or not.
func (o *Occupancy) RentPotential() decimal.Decimal {
	total := decimal.Zero
	for _, ou := range o.Occupied {
		total = total.Add(ou.Unit.BasePrice)
	}
	for _, u := range o.Vacant {
		total = total.Add(u.BasePrice)
	}
	return total
}

// AggregateOccupancy derives which units are occupied in the period from their leases.
//
// A unit is occupied iff exactly one of its leases is active in the period. A negative
// base price, two active leases on one unit, an active lease on an unknown unit, or one
// occupant holding two units at once are reported as a DataIntegrityError.
// Units are reported in input order.
func AggregateOccupancy(propertyID string, units []models.Unit, leases []models.OccupancyPeriod, period models.Period) (*Occupancy, error) {
	if len(units) == 0 {
		return nil, &EmptyPropertyError{PropertyID: propertyID}
	}

	known := make(map[string]bool, len(units))
	for _, u := range units {
		if u.BasePrice.IsNegative() {
			return nil, &DataIntegrityError{UnitID: u.ID, Reason: "negative base price " + u.BasePrice.String()}
		}
		known[u.ID] = true
	}

	// Active lease per unit
	active := make(map[string]models.OccupancyPeriod)
	holder := make(map[string]string) // occupant -> unit
	for _, lease := range leases {
		if !lease.ActiveIn(period) {
			continue
		}
		if !known[lease.UnitID] {
			return nil, &DataIntegrityError{UnitID: lease.UnitID, Reason: "active lease on a unit outside the property"}
		}
		if prev, exists := active[lease.UnitID]; exists {
			return nil, &DataIntegrityError{
				UnitID: lease.UnitID,
				Reason: fmt.Sprintf("overlapping active leases %q and %q", prev.ID, lease.ID),
			}
		}
		if other, exists := holder[lease.OccupantID]; exists {
			return nil, &DataIntegrityError{
				UnitID: lease.UnitID,
				Reason: fmt.Sprintf("occupant %q also holds unit %q", lease.OccupantID, other),
			}
		}
		active[lease.UnitID] = lease
		holder[lease.OccupantID] = lease.UnitID
	}

	occ := &Occupancy{
		PropertyID:    propertyID,
		Period:        period,
		TotalCapacity: len(units),
	}
	for _, u := range units {
		lease, occupied := active[u.ID]
		if occupied == u.IsVacant {
			occ.StaleVacancyFlags = append(occ.StaleVacancyFlags, u.ID)
		}
		if occupied {
			occ.Occupied = append(occ.Occupied, OccupiedUnit{Unit: u, OccupantID: lease.OccupantID})
		} else {
			occ.Vacant = append(occ.Vacant, u)
		}
	}
	occ.OccupiedCount = len(occ.Occupied)

	return occ, nil
}
