package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SubscriptionPlan is a platform service plan. Read-only input to billing.
type SubscriptionPlan struct {
	// ID is the unique identifier for the plan.
	ID string

	// Name is the display name of the plan (e.g., "Pro").
	Name string

	// MonthlyPrice is the amount billed per property per month.
	MonthlyPrice decimal.Decimal

	// Currency is the ISO 4217 code of MonthlyPrice.
	Currency string

	// Active reports whether properties on this plan are billed.
	Active bool
}

// InvoiceStatus is the payment state of a subscription invoice.
type InvoiceStatus string

const (
	InvoiceUnpaid         InvoiceStatus = "UNPAID"
	InvoiceOfflinePending InvoiceStatus = "OFFLINE_PENDING"
	InvoicePaid           InvoiceStatus = "PAID"
)

// ParseInvoiceStatus converts a stored value into an InvoiceStatus.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch st := InvoiceStatus(s); st {
	case InvoiceUnpaid, InvoiceOfflinePending, InvoicePaid:
		return st, nil
	}
	return "", fmt.Errorf("unknown invoice status %q", s)
}

// invoiceTransitions is the invoice state machine.
var invoiceTransitions = map[InvoiceStatus]InvoiceStatus{
	InvoiceUnpaid:         InvoiceOfflinePending,
	InvoiceOfflinePending: InvoicePaid,
}

// CanTransition reports whether an invoice in status from may move to status to.
func CanTransition(from, to InvoiceStatus) bool {
	next, ok := invoiceTransitions[from]
	return ok && next == to
}

// PaymentMethod records how a subscription invoice was paid.
type PaymentMethod string

const (
	PaymentNone    PaymentMethod = ""
	PaymentOffline PaymentMethod = "OFFLINE"
)

// SubscriptionInvoice represents a property's debt to the platform for one billing period.
// Exactly one exists per (PropertyID, Period).
type SubscriptionInvoice struct {
	// ID is the unique identifier for the invoice (UUID format).
	ID string

	// PropertyID is the billed property.
	PropertyID string

	// PlanID is the plan the amount was taken from.
	PlanID string

	// Period is the billing period this invoice covers.
	Period Period

	// Amount is the plan's monthly price at billing time.
	Amount decimal.Decimal

	// Status is the payment state.
	Status InvoiceStatus

	// PaymentMethod is set once a payment is submitted.
	PaymentMethod PaymentMethod

	// ProofRef references the uploaded proof of an offline payment.
	ProofRef string

	// CreatedAt is the Unix timestamp when the invoice was generated.
	CreatedAt int64

	// PaidAt is the Unix timestamp when the payment was approved. Zero while unpaid.
	PaidAt int64
}
