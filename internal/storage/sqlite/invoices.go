package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/colivsplit/internal/models"
	"github.com/mmynk/colivsplit/internal/storage"
)

const invoiceColumns = `id, property_id, plan_id, period, amount, status, payment_method, proof_ref, created_at, paid_at`

// CreatePlan persists a new subscription plan.
func (s *SQLiteStore) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.Currency == "" {
		plan.Currency = "EUR"
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO subscription_plans (id, name, monthly_price, currency, active) VALUES (?, ?, ?, ?, ?)",
		plan.ID, plan.Name, plan.MonthlyPrice, plan.Currency, boolToInt(plan.Active),
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a subscription plan by ID.
func (s *SQLiteStore) GetPlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error) {
	plan := &models.SubscriptionPlan{}
	var active int
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, monthly_price, currency, active FROM subscription_plans WHERE id = ?",
		planID,
	).Scan(&plan.ID, &plan.Name, &plan.MonthlyPrice, &plan.Currency, &active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan %s: %w", planID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	plan.Active = active != 0
	return plan, nil
}

// CreateSubscriptionInvoice persists an invoice and its optional tenant-facing expense line
// atomically. The UNIQUE(property_id, period) constraint turns a concurrent duplicate into
// storage.ErrDuplicateInvoice.
func (s *SQLiteStore) CreateSubscriptionInvoice(ctx context.Context, invoice *models.SubscriptionInvoice, line *models.ExpenseRecord) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	if invoice.CreatedAt == 0 {
		invoice.CreatedAt = s.now().Unix()
	}
	if invoice.Status == "" {
		invoice.Status = models.InvoiceUnpaid
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO subscription_invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID, invoice.PropertyID, invoice.PlanID, invoice.Period.String(), invoice.Amount,
		string(invoice.Status), string(invoice.PaymentMethod), invoice.ProofRef, invoice.CreatedAt, invoice.PaidAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("property %s period %s: %w", invoice.PropertyID, invoice.Period, storage.ErrDuplicateInvoice)
	}
	if err != nil {
		return fmt.Errorf("failed to insert subscription invoice: %w", err)
	}

	if line != nil {
		if err := insertExpense(ctx, tx, line); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("property %s period %s: %w", invoice.PropertyID, invoice.Period, storage.ErrDuplicateInvoice)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSubscriptionInvoice retrieves an invoice by ID.
func (s *SQLiteStore) GetSubscriptionInvoice(ctx context.Context, invoiceID string) (*models.SubscriptionInvoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM subscription_invoices WHERE id = ?`,
		invoiceID,
	)
	invoice, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription invoice: %w", err)
	}
	return invoice, nil
}

// FindSubscriptionInvoice retrieves the property's invoice for the period.
func (s *SQLiteStore) FindSubscriptionInvoice(ctx context.Context, propertyID string, period models.Period) (*models.SubscriptionInvoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM subscription_invoices WHERE property_id = ? AND period = ?`,
		propertyID, period.String(),
	)
	invoice, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invoice for property %s period %s: %w", propertyID, period, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription invoice: %w", err)
	}
	return invoice, nil
}

// UpdateInvoiceStatus writes the invoice's new status and payment fields, guarded by a
// compare-and-set on the previous status.
func (s *SQLiteStore) UpdateInvoiceStatus(ctx context.Context, invoice *models.SubscriptionInvoice, from models.InvoiceStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscription_invoices
		 SET status = ?, payment_method = ?, proof_ref = ?, paid_at = ?
		 WHERE id = ? AND status = ?`,
		string(invoice.Status), string(invoice.PaymentMethod), invoice.ProofRef, invoice.PaidAt,
		invoice.ID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("invoice %s no longer %s: %w", invoice.ID, from, storage.ErrStatusConflict)
	}
	return nil
}

// ListSubscriptionInvoices returns invoices newest first, optionally filtered by status.
func (s *SQLiteStore) ListSubscriptionInvoices(ctx context.Context, status models.InvoiceStatus) ([]*models.SubscriptionInvoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM subscription_invoices`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY period DESC, created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.SubscriptionInvoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscription invoices: %w", err)
	}
	return invoices, nil
}

func scanInvoice(row rowScanner) (*models.SubscriptionInvoice, error) {
	invoice := &models.SubscriptionInvoice{}
	var period, status, method string
	if err := row.Scan(&invoice.ID, &invoice.PropertyID, &invoice.PlanID, &period, &invoice.Amount,
		&status, &method, &invoice.ProofRef, &invoice.CreatedAt, &invoice.PaidAt); err != nil {
		return nil, err
	}

	var err error
	if invoice.Period, err = models.ParsePeriod(period); err != nil {
		return nil, err
	}
	if invoice.Status, err = models.ParseInvoiceStatus(status); err != nil {
		return nil, err
	}
	invoice.PaymentMethod = models.PaymentMethod(method)
	return invoice, nil
}
