// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/colivsplit/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateInvoice is returned when a subscription invoice already exists for
	// the (property, period) pair. The store enforces this with a uniqueness constraint.
	ErrDuplicateInvoice = errors.New("subscription invoice already exists for period")

	// ErrStatusConflict is returned when an invoice is no longer in the status a
	// transition expected.
	ErrStatusConflict = errors.New("invoice status changed concurrently")
)

// PropertyStore persists properties, their units and their leases.
type PropertyStore interface {
	// CreateProperty persists a new property. The ID and CreatedAt fields are populated if empty.
	CreateProperty(ctx context.Context, property *models.Property) error

	// GetProperty retrieves a property by ID.
	// Returns ErrNotFound if it does not exist, or a *models.ConfigurationError
	// if a stored enum value is invalid.
	GetProperty(ctx context.Context, propertyID string) (*models.Property, error)

	// ListSubscribedProperties returns every property with a subscription plan.
	ListSubscribedProperties(ctx context.Context) ([]*models.Property, error)

	// CreateUnit persists a new unit.
	CreateUnit(ctx context.Context, unit *models.Unit) error

	// ListUnits returns a property's units ordered by name.
	ListUnits(ctx context.Context, propertyID string) ([]models.Unit, error)

	// CreateOccupancyPeriod persists a new lease.
	CreateOccupancyPeriod(ctx context.Context, lease *models.OccupancyPeriod) error

	// EndOccupancyPeriod sets a lease's last day. Returns ErrNotFound if the lease does not exist.
	EndOccupancyPeriod(ctx context.Context, leaseID string, endDate time.Time) error

	// ListOccupancyPeriods returns every lease on the property's units, historical ones included.
	ListOccupancyPeriods(ctx context.Context, propertyID string) ([]models.OccupancyPeriod, error)
}

// ExpenseStore persists expense records.
type ExpenseStore interface {
	// CreateExpense persists a new expense record.
	CreateExpense(ctx context.Context, record *models.ExpenseRecord) error

	// ListExpenses returns the property's expense records dated within the period.
	ListExpenses(ctx context.Context, propertyID string, period models.Period) ([]models.ExpenseRecord, error)
}

// BillingStore persists subscription plans and invoices.
type BillingStore interface {
	// CreatePlan persists a new subscription plan.
	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error

	// GetPlan retrieves a plan by ID. Returns ErrNotFound if it does not exist.
	GetPlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error)

	// CreateSubscriptionInvoice persists an invoice and, when line is non-nil, the
	// tenant-facing expense line in the same transaction.
	// Returns ErrDuplicateInvoice if the property is already invoiced for the period.
	CreateSubscriptionInvoice(ctx context.Context, invoice *models.SubscriptionInvoice, line *models.ExpenseRecord) error

	// GetSubscriptionInvoice retrieves an invoice by ID. Returns ErrNotFound if it does not exist.
	GetSubscriptionInvoice(ctx context.Context, invoiceID string) (*models.SubscriptionInvoice, error)

	// FindSubscriptionInvoice retrieves the property's invoice for the period.
	// Returns ErrNotFound if the property has not been invoiced.
	FindSubscriptionInvoice(ctx context.Context, propertyID string, period models.Period) (*models.SubscriptionInvoice, error)

	// UpdateInvoiceStatus applies a status change only if the invoice is still in
	// invoice.Status's expected predecessor `from`. The payment fields of invoice are
	// written alongside. Returns ErrStatusConflict if the stored status is not `from`.
	UpdateInvoiceStatus(ctx context.Context, invoice *models.SubscriptionInvoice, from models.InvoiceStatus) error

	// ListSubscriptionInvoices returns invoices, newest first. An empty status lists all.
	ListSubscriptionInvoices(ctx context.Context, status models.InvoiceStatus) ([]*models.SubscriptionInvoice, error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	PropertyStore
	ExpenseStore
	BillingStore

	// Close releases any resources held by the store.
	Close() error
}
