package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/colivsplit/internal/models"
	"github.com/mmynk/colivsplit/internal/storage"
)

const propertyColumns = `id, name, allocation_mode, vacancy_policy, shared_service_fee, management_fee,
	subscription_billing_target, subscription_plan_id, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreateProperty persists a new property. Invalid configuration is rejected before any write.
func (s *SQLiteStore) CreateProperty(ctx context.Context, property *models.Property) error {
	if err := property.Validate(); err != nil {
		return err
	}
	if property.ID == "" {
		property.ID = uuid.New().String()
	}
	if property.CreatedAt == 0 {
		property.CreatedAt = s.now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (`+propertyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		property.ID, property.Name, string(property.AllocationMode), string(property.VacancyPolicy),
		property.SharedServiceFee, property.ManagementFee, string(property.SubscriptionBillingTarget),
		property.SubscriptionPlanID, property.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// GetProperty retrieves a property by ID.
func (s *SQLiteStore) GetProperty(ctx context.Context, propertyID string) (*models.Property, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ?`,
		propertyID,
	)
	property, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("property %s: %w", propertyID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return property, nil
}

// ListSubscribedProperties returns every property that references a subscription plan.
func (s *SQLiteStore) ListSubscribedProperties(ctx context.Context) ([]*models.Property, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE subscription_plan_id IS NOT NULL ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribed properties: %w", err)
	}
	defer rows.Close()

	var properties []*models.Property
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, property)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}
	return properties, nil
}

// scanProperty reads one property row, parsing its enum columns.
// Unknown stored values surface as *models.ConfigurationError.
func scanProperty(row rowScanner) (*models.Property, error) {
	property := &models.Property{}
	var mode, policy, target string
	var planID sql.NullString

	if err := row.Scan(&property.ID, &property.Name, &mode, &policy,
		&property.SharedServiceFee, &property.ManagementFee, &target, &planID, &property.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if property.AllocationMode, err = models.ParseAllocationMode(mode); err != nil {
		return nil, err
	}
	if property.VacancyPolicy, err = models.ParseVacancyPolicy(policy); err != nil {
		return nil, err
	}
	if property.SubscriptionBillingTarget, err = models.ParseBillingTarget(target); err != nil {
		return nil, err
	}
	if planID.Valid {
		property.SubscriptionPlanID = &planID.String
	}
	return property, nil
}

// CreateUnit persists a new unit.
func (s *SQLiteStore) CreateUnit(ctx context.Context, unit *models.Unit) error {
	if unit.ID == "" {
		unit.ID = uuid.New().String()
	}
	if unit.BasePrice.IsNegative() {
		return fmt.Errorf("unit %s: negative base price %s", unit.ID, unit.BasePrice)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO units (id, property_id, name, base_price, is_vacant) VALUES (?, ?, ?, ?, ?)",
		unit.ID, unit.PropertyID, unit.Name, unit.BasePrice, boolToInt(unit.IsVacant),
	)
	if err != nil {
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	return nil
}

// ListUnits returns a property's units ordered by name.
func (s *SQLiteStore) ListUnits(ctx context.Context, propertyID string) ([]models.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, property_id, name, base_price, is_vacant FROM units WHERE property_id = ? ORDER BY name, id",
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []models.Unit
	for rows.Next() {
		var unit models.Unit
		var vacant int
		if err := rows.Scan(&unit.ID, &unit.PropertyID, &unit.Name, &unit.BasePrice, &vacant); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		unit.IsVacant = vacant != 0
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate units: %w", err)
	}
	return units, nil
}

// CreateOccupancyPeriod persists a new lease and refreshes the unit's cached vacancy flag
// against the current period.
func (s *SQLiteStore) CreateOccupancyPeriod(ctx context.Context, lease *models.OccupancyPeriod) error {
	if lease.ID == "" {
		lease.ID = uuid.New().String()
	}
	var end any
	if lease.EndDate != nil {
		if lease.EndDate.Before(lease.StartDate) {
			return fmt.Errorf("lease %s ends before it starts", lease.ID)
		}
		end = formatDate(*lease.EndDate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO occupancy_periods (id, unit_id, occupant_id, start_date, end_date) VALUES (?, ?, ?, ?, ?)",
		lease.ID, lease.UnitID, lease.OccupantID, formatDate(lease.StartDate), end,
	)
	if err != nil {
		return fmt.Errorf("failed to insert occupancy period: %w", err)
	}

	if err := s.refreshVacancy(ctx, tx, lease.UnitID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// EndOccupancyPeriod sets a lease's last day and refreshes the unit's cached vacancy flag.
func (s *SQLiteStore) EndOccupancyPeriod(ctx context.Context, leaseID string, endDate time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var unitID, start string
	err = tx.QueryRowContext(ctx,
		"SELECT unit_id, start_date FROM occupancy_periods WHERE id = ?", leaseID,
	).Scan(&unitID, &start)
	if err == sql.ErrNoRows {
		return fmt.Errorf("lease %s: %w", leaseID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get occupancy period: %w", err)
	}
	startDate, err := parseDate(start)
	if err != nil {
		return err
	}
	if models.Day(endDate).Before(startDate) {
		return fmt.Errorf("lease %s ends before it starts", leaseID)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE occupancy_periods SET end_date = ? WHERE id = ?", formatDate(endDate), leaseID,
	); err != nil {
		return fmt.Errorf("failed to end occupancy period: %w", err)
	}
	if err := s.refreshVacancy(ctx, tx, unitID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// refreshVacancy recomputes a unit's cached is_vacant flag from its leases for the current period.
func (s *SQLiteStore) refreshVacancy(ctx context.Context, tx *sql.Tx, unitID string) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT start_date, end_date FROM occupancy_periods WHERE unit_id = ?", unitID,
	)
	if err != nil {
		return fmt.Errorf("failed to list unit leases: %w", err)
	}
	defer rows.Close()

	current := models.PeriodOf(s.now())
	vacant := true
	for rows.Next() {
		var start string
		var end sql.NullString
		if err := rows.Scan(&start, &end); err != nil {
			return fmt.Errorf("failed to scan unit lease: %w", err)
		}
		lease := models.OccupancyPeriod{UnitID: unitID}
		if lease.StartDate, err = parseDate(start); err != nil {
			return err
		}
		if end.Valid {
			endDate, err := parseDate(end.String)
			if err != nil {
				return err
			}
			lease.EndDate = &endDate
		}
		if lease.ActiveIn(current) {
			vacant = false
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate unit leases: %w", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, "UPDATE units SET is_vacant = ? WHERE id = ?", boolToInt(vacant), unitID); err != nil {
		return fmt.Errorf("failed to update unit vacancy: %w", err)
	}
	return nil
}

// ListOccupancyPeriods returns every lease on the property's units.
func (s *SQLiteStore) ListOccupancyPeriods(ctx context.Context, propertyID string) ([]models.OccupancyPeriod, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT o.id, o.unit_id, o.occupant_id, o.start_date, o.end_date
		 FROM occupancy_periods o JOIN units u ON u.id = o.unit_id
		 WHERE u.property_id = ? ORDER BY o.start_date, o.id`,
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupancy periods: %w", err)
	}
	defer rows.Close()

	var leases []models.OccupancyPeriod
	for rows.Next() {
		var lease models.OccupancyPeriod
		var start string
		var end sql.NullString
		if err := rows.Scan(&lease.ID, &lease.UnitID, &lease.OccupantID, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy period: %w", err)
		}
		if lease.StartDate, err = parseDate(start); err != nil {
			return nil, err
		}
		if end.Valid {
			endDate, err := parseDate(end.String)
			if err != nil {
				return nil, err
			}
			lease.EndDate = &endDate
		}
		leases = append(leases, lease)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate occupancy periods: %w", err)
	}
	return leases, nil
}
