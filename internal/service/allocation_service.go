package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/colivsplit/internal/calculator"
	"github.com/mmynk/colivsplit/internal/metrics"
	"github.com/mmynk/colivsplit/internal/models"
	"github.com/mmynk/colivsplit/internal/storage"
)

// AllocationStore is the persistence the allocation pipeline reads from.
type AllocationStore interface {
	GetProperty(ctx context.Context, propertyID string) (*models.Property, error)
	ListUnits(ctx context.Context, propertyID string) ([]models.Unit, error)
	ListOccupancyPeriods(ctx context.Context, propertyID string) ([]models.OccupancyPeriod, error)
	ListExpenses(ctx context.Context, propertyID string, period models.Period) ([]models.ExpenseRecord, error)
	FindSubscriptionInvoice(ctx context.Context, propertyID string, period models.Period) (*models.SubscriptionInvoice, error)
}

// AllocationService loads a property's state for a period and runs the cost allocation.
type AllocationService struct {
	store   AllocationStore
	metrics *metrics.Metrics
}

// NewAllocationService creates a new AllocationService with the given storage backend.
func NewAllocationService(store AllocationStore, m *metrics.Metrics) *AllocationService {
	if m == nil {
		m = metrics.Nop()
	}
	return &AllocationService{store: store, metrics: m}
}

// Allocate computes each present occupant's share of the property's costs for the period.
func (s *AllocationService) Allocate(ctx context.Context, propertyID string, period models.Period) (*calculator.AllocationResult, error) {
	if err := validate.Var(propertyID, "required"); err != nil {
		return nil, fmt.Errorf("invalid property id: %w", err)
	}
	start := time.Now()
	defer func() { s.metrics.AllocationDuration.Observe(time.Since(start).Seconds()) }()

	snapshot, err := s.snapshot(ctx, propertyID, period)
	if err != nil {
		s.metrics.Allocations.WithLabelValues("", "error").Inc()
		slog.Error("Allocation failed to load property state", "property_id", propertyID, "period", period.String(), "error", err)
		return nil, err
	}

	mode := string(snapshot.Property.AllocationMode)
	result, err := calculator.AllocateSnapshot(*snapshot)
	switch {
	case calculator.NothingToAllocate(err):
		s.metrics.Allocations.WithLabelValues(mode, "nothing_to_allocate").Inc()
		slog.Warn("Nothing to allocate", "property_id", propertyID, "period", period.String(), "reason", err)
		return nil, err
	case err != nil:
		s.metrics.Allocations.WithLabelValues(mode, "error").Inc()
		slog.Error("Allocation failed", "property_id", propertyID, "period", period.String(), "error", err)
		return nil, err
	}

	s.metrics.Allocations.WithLabelValues(mode, "ok").Inc()
	slog.Info("Allocation computed",
		"property_id", propertyID,
		"period", period.String(),
		"mode", mode,
		"vacancy_policy", string(result.VacancyPolicy),
		"occupied", result.OccupiedCount,
		"capacity", result.TotalCapacity,
		"owner_absorbed", result.OwnerAbsorbedAmount.StringFixed(2),
		"rounding_residual", result.RoundingResidual.StringFixed(2),
	)
	return result, nil
}

func (s *AllocationService) snapshot(ctx context.Context, propertyID string, period models.Period) (*calculator.Snapshot, error) {
	property, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	units, err := s.store.ListUnits(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	leases, err := s.store.ListOccupancyPeriods(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupancy periods: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, propertyID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	var fee decimal.NullDecimal
	invoice, err := s.store.FindSubscriptionInvoice(ctx, propertyID, period)
	switch {
	case err == nil:
		fee = decimal.NewNullDecimal(invoice.Amount)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to load subscription invoice: %w", err)
	}

	return &calculator.Snapshot{
		Property:        *property,
		Period:          period,
		Units:           units,
		Leases:          leases,
		Expenses:        expenses,
		SubscriptionFee: fee,
	}, nil
}
