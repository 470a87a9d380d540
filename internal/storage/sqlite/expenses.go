package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/colivsplit/internal/models"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateExpense persists a new expense record.
func (s *SQLiteStore) CreateExpense(ctx context.Context, record *models.ExpenseRecord) error {
	return insertExpense(ctx, s.db, record)
}

// insertExpense writes an expense record through db, which may be a transaction.
func insertExpense(ctx context.Context, db execer, record *models.ExpenseRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if !record.Category.Valid() {
		return fmt.Errorf("expense %s: unknown category %q", record.ID, record.Category)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO expenses (id, property_id, category, amount, expense_date, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.PropertyID, string(record.Category), record.Amount,
		formatDate(record.Date), record.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// ListExpenses returns the property's expense records dated within the period.
func (s *SQLiteStore) ListExpenses(ctx context.Context, propertyID string, period models.Period) ([]models.ExpenseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, property_id, category, amount, expense_date, description
		 FROM expenses WHERE property_id = ? AND expense_date BETWEEN ? AND ?
		 ORDER BY expense_date, id`,
		propertyID, formatDate(period.Start()), formatDate(period.End()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var records []models.ExpenseRecord
	for rows.Next() {
		var rec models.ExpenseRecord
		var category, date string
		if err := rows.Scan(&rec.ID, &rec.PropertyID, &category, &rec.Amount, &date, &rec.Description); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		// Unknown categories are kept as-is; aggregation rejects them with the record ID.
		rec.Category = models.ExpenseCategory(category)
		if rec.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return records, nil
}
