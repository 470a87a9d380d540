package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/colivsplit/internal/metrics"
	"github.com/mmynk/colivsplit/internal/models"
	"github.com/mmynk/colivsplit/internal/storage"
)

var validate = validator.New()

// BillingStore is the persistence the billing orchestrator needs.
type BillingStore interface {
	storage.BillingStore
	ListSubscribedProperties(ctx context.Context) ([]*models.Property, error)
}

// BillingService creates monthly subscription invoices and moves them through
// the offline payment workflow.
type BillingService struct {
	store   BillingStore
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewBillingService creates a new BillingService with the given storage backend.
func NewBillingService(store BillingStore, m *metrics.Metrics) *BillingService {
	if m == nil {
		m = metrics.Nop()
	}
	return &BillingService{store: store, metrics: m, now: time.Now}
}

// GenerateMonthlyInvoices creates one UNPAID invoice per subscribed property for the period.
// Properties that are already billed, or whose plan is missing or inactive, are skipped.
// It returns the number of invoices created. On a persistence error the run stops and
// returns the count so far; running it again is safe.
func (s *BillingService) GenerateMonthlyInvoices(ctx context.Context, period models.Period) (int, error) {
	start := s.now()
	slog.Info("Billing run started", "period", period.String())

	properties, err := s.store.ListSubscribedProperties(ctx)
	if err != nil {
		s.finishRun("error", start)
		return 0, fmt.Errorf("failed to list subscribed properties: %w", err)
	}

	created := 0
	for _, property := range properties {
		if err := ctx.Err(); err != nil {
			s.finishRun("error", start)
			return created, err
		}
		ok, err := s.billProperty(ctx, property, period)
		if err != nil {
			slog.Error("Billing run aborted", "period", period.String(), "property_id", property.ID, "created", created, "error", err)
			s.finishRun("error", start)
			return created, err
		}
		if ok {
			created++
		}
	}

	s.finishRun("ok", start)
	slog.Info("Billing run completed",
		"period", period.String(),
		"properties", len(properties),
		"created", created,
	)
	return created, nil
}

// billProperty creates the property's invoice for the period. It reports false when the
// property was skipped.
func (s *BillingService) billProperty(ctx context.Context, property *models.Property, period models.Period) (bool, error) {
	if property.SubscriptionPlanID == nil {
		return false, nil
	}

	if _, err := s.store.FindSubscriptionInvoice(ctx, property.ID, period); err == nil {
		s.skip(metrics.SkipAlreadyBilled)
		slog.Debug("Property already billed", "property_id", property.ID, "period", period.String())
		return false, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("failed to check existing invoice for property %s: %w", property.ID, err)
	}

	plan, err := s.store.GetPlan(ctx, *property.SubscriptionPlanID)
	if errors.Is(err, storage.ErrNotFound) {
		s.skip(metrics.SkipMissingPlan)
		slog.Warn("Subscription plan not found", "property_id", property.ID, "plan_id", *property.SubscriptionPlanID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load plan for property %s: %w", property.ID, err)
	}
	if !plan.Active {
		s.skip(metrics.SkipInactivePlan)
		slog.Info("Subscription plan inactive, skipping", "property_id", property.ID, "plan_id", plan.ID)
		return false, nil
	}

	invoice := &models.SubscriptionInvoice{
		PropertyID: property.ID,
		PlanID:     plan.ID,
		Period:     period,
		Amount:     plan.MonthlyPrice,
		Status:     models.InvoiceUnpaid,
	}
	var line *models.ExpenseRecord
	if property.SubscriptionBillingTarget == models.BillOccupants {
		line = subscriptionLine(property.ID, plan, period)
	}

	err = s.store.CreateSubscriptionInvoice(ctx, invoice, line)
	if errors.Is(err, storage.ErrDuplicateInvoice) {
		// Another run billed the property between the lookup and the insert.
		s.skip(metrics.SkipAlreadyBilled)
		slog.Info("Property billed concurrently, skipping", "property_id", property.ID, "period", period.String())
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create invoice for property %s: %w", property.ID, err)
	}

	s.metrics.InvoicesCreated.Inc()
	slog.Info("Subscription invoice created",
		"invoice_id", invoice.ID,
		"property_id", property.ID,
		"period", period.String(),
		"amount", invoice.Amount.StringFixed(2),
		"billed_to", string(property.SubscriptionBillingTarget),
	)
	return true, nil
}

// subscriptionLine is the tenant-facing expense record for an occupant-billed subscription.
func subscriptionLine(propertyID string, plan *models.SubscriptionPlan, period models.Period) *models.ExpenseRecord {
	return &models.ExpenseRecord{
		PropertyID:  propertyID,
		Category:    models.CategorySubscription,
		Amount:      decimal.NewNullDecimal(plan.MonthlyPrice),
		Date:        period.Start(),
		Description: fmt.Sprintf("Platform subscription (%s)", plan.Name),
	}
}

func (s *BillingService) skip(reason string) {
	s.metrics.InvoicesSkipped.WithLabelValues(reason).Inc()
}

func (s *BillingService) finishRun(outcome string, start time.Time) {
	s.metrics.BillingRuns.WithLabelValues(outcome).Inc()
	s.metrics.BillingRunDuration.Observe(s.now().Sub(start).Seconds())
}

// SubmitOfflinePayment records an offline payment proof, moving the invoice from
// UNPAID to OFFLINE_PENDING.
func (s *BillingService) SubmitOfflinePayment(ctx context.Context, invoiceID, proofRef string) (*models.SubscriptionInvoice, error) {
	if err := validate.Var(proofRef, "required,max=255"); err != nil {
		return nil, fmt.Errorf("invalid proof reference: %w", err)
	}
	return s.transition(ctx, invoiceID, models.InvoiceOfflinePending, func(inv *models.SubscriptionInvoice) {
		inv.PaymentMethod = models.PaymentOffline
		inv.ProofRef = proofRef
	})
}

// ApproveOfflinePayment confirms a pending offline payment, moving the invoice from
// OFFLINE_PENDING to PAID.
func (s *BillingService) ApproveOfflinePayment(ctx context.Context, invoiceID string) (*models.SubscriptionInvoice, error) {
	return s.transition(ctx, invoiceID, models.InvoicePaid, func(inv *models.SubscriptionInvoice) {
		inv.PaidAt = s.now().Unix()
	})
}

// transition applies one step of the payment workflow. Disallowed steps, and steps that
// lose a race with a concurrent update, return *models.InvalidStateTransitionError and
// leave the stored invoice unchanged.
func (s *BillingService) transition(ctx context.Context, invoiceID string, to models.InvoiceStatus, apply func(*models.SubscriptionInvoice)) (*models.SubscriptionInvoice, error) {
	if err := validate.Var(invoiceID, "required"); err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}

	invoice, err := s.store.GetSubscriptionInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	from := invoice.Status
	if !models.CanTransition(from, to) {
		slog.Warn("Rejected invoice transition", "invoice_id", invoiceID, "from", string(from), "to", string(to))
		return nil, &models.InvalidStateTransitionError{InvoiceID: invoiceID, From: from, To: to}
	}

	updated := *invoice
	updated.Status = to
	apply(&updated)

	if err := s.store.UpdateInvoiceStatus(ctx, &updated, from); err != nil {
		if !errors.Is(err, storage.ErrStatusConflict) {
			return nil, fmt.Errorf("failed to update invoice: %w", err)
		}
		if current, getErr := s.store.GetSubscriptionInvoice(ctx, invoiceID); getErr == nil {
			from = current.Status
		}
		slog.Warn("Invoice changed concurrently", "invoice_id", invoiceID, "status", string(from), "to", string(to))
		return nil, &models.InvalidStateTransitionError{InvoiceID: invoiceID, From: from, To: to}
	}

	s.metrics.PaymentTransitions.WithLabelValues(string(to)).Inc()
	slog.Info("Invoice status updated", "invoice_id", invoiceID, "from", string(from), "to", string(to))
	return &updated, nil
}

// ListInvoices returns invoices newest first. An empty status lists every invoice.
func (s *BillingService) ListInvoices(ctx context.Context, status models.InvoiceStatus) ([]*models.SubscriptionInvoice, error) {
	if status != "" {
		if _, err := models.ParseInvoiceStatus(string(status)); err != nil {
			return nil, err
		}
	}
	invoices, err := s.store.ListSubscriptionInvoices(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// PaidRevenue sums the amounts of every PAID invoice.
func (s *BillingService) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	invoices, err := s.store.ListSubscriptionInvoices(ctx, models.InvoicePaid)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list paid invoices: %w", err)
	}
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.Amount)
	}
	return total, nil
}
