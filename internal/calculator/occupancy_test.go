package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/colivsplit/internal/models"
)

func TestAggregateOccupancy(t *testing.T) {
	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	febEnd := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	marMid := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	t.Run("historical leases do not count", func(t *testing.T) {
		units, leases := coliving([]string{"300", "300"}, 2)
		// An older lease on room-0 that ended before March
		leases = append(leases, models.OccupancyPeriod{
			ID: "old", UnitID: "room-0", OccupantID: "former", StartDate: jan.AddDate(-1, 0, 0), EndDate: &febEnd,
		})

		occ, err := AggregateOccupancy("prop-1", units, leases, march)
		require.NoError(t, err)
		assert.Equal(t, 2, occ.OccupiedCount)
		assert.Equal(t, 2, occ.TotalCapacity)
		assert.Empty(t, occ.Vacant)
		assert.Equal(t, "tenant-0", occ.Occupied[0].OccupantID)
	})

	t.Run("lease ending mid-period still occupies the unit", func(t *testing.T) {
		units, _ := coliving([]string{"300", "300"}, 0)
		leases := []models.OccupancyPeriod{{ID: "l", UnitID: "room-1", OccupantID: "ana", StartDate: jan, EndDate: &marMid}}

		occ, err := AggregateOccupancy("prop-1", units, leases, march)
		require.NoError(t, err)
		require.Len(t, occ.Occupied, 1)
		assert.Equal(t, "room-1", occ.Occupied[0].Unit.ID)
		require.Len(t, occ.Vacant, 1)
		assert.Equal(t, "room-0", occ.Vacant[0].ID)
		// room-1 was cached as vacant
		assert.Equal(t, []string{"room-1"}, occ.StaleVacancyFlags)
	})

	t.Run("rent potential covers vacant units", func(t *testing.T) {
		units, leases := coliving([]string{"250", "260", "270"}, 1)
		occ, err := AggregateOccupancy("prop-1", units, leases, march)
		require.NoError(t, err)
		assertMoney(t, "780", occ.RentPotential())
	})

	t.Run("no units", func(t *testing.T) {
		_, err := AggregateOccupancy("prop-1", nil, nil, march)
		var empty *EmptyPropertyError
		assert.ErrorAs(t, err, &empty)
	})

	t.Run("two active leases on one unit", func(t *testing.T) {
		units, leases := coliving([]string{"300", "300"}, 1)
		leases = append(leases, models.OccupancyPeriod{ID: "dup", UnitID: "room-0", OccupantID: "bob", StartDate: marMid})

		_, err := AggregateOccupancy("prop-1", units, leases, march)
		var integrity *DataIntegrityError
		require.ErrorAs(t, err, &integrity)
		assert.Equal(t, "room-0", integrity.UnitID)
		assert.False(t, NothingToAllocate(err))
	})

	t.Run("one occupant in two units", func(t *testing.T) {
		units, _ := coliving([]string{"300", "300"}, 0)
		leases := []models.OccupancyPeriod{
			{ID: "a", UnitID: "room-0", OccupantID: "ana", StartDate: jan},
			{ID: "b", UnitID: "room-1", OccupantID: "ana", StartDate: jan},
		}
		_, err := AggregateOccupancy("prop-1", units, leases, march)
		var integrity *DataIntegrityError
		assert.ErrorAs(t, err, &integrity)
	})

	t.Run("lease on a foreign unit", func(t *testing.T) {
		units, _ := coliving([]string{"300"}, 0)
		leases := []models.OccupancyPeriod{{ID: "x", UnitID: "elsewhere", OccupantID: "ana", StartDate: jan}}
		_, err := AggregateOccupancy("prop-1", units, leases, march)
		var integrity *DataIntegrityError
		require.ErrorAs(t, err, &integrity)
		assert.Equal(t, "elsewhere", integrity.UnitID)
	})
}

func TestAggregateOccupancyRejectsNegativeBasePrice(t *testing.T) {
	units, leases := coliving([]string{"-250", "250"}, 2)

	occ, err := AggregateOccupancy("prop-1", units, leases, march)
	var integrity *DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "room-0", integrity.UnitID)
	assert.Nil(t, occ)

	_, err = AllocateSnapshot(Snapshot{
		Property: property(models.AllocationPerUnit, models.VacancyRedistribute, models.BillOwner),
		Period:   march,
		Units:    units,
		Leases:   leases,
	})
	assert.ErrorAs(t, err, &integrity)
}
