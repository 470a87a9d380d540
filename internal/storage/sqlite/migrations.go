package sqlite

import "database/sql"

// schema sets up the database. It runs on startup so tables always exist.
// Money is stored as TEXT to keep exact decimal values; dates as YYYY-MM-DD and
// billing periods as YYYY-MM.
// IMPORTANT: subscription_plans must be created BEFORE properties due to the foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS subscription_plans (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    monthly_price TEXT NOT NULL,
    currency TEXT NOT NULL DEFAULT 'EUR',
    active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS properties (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    allocation_mode TEXT NOT NULL,
    vacancy_policy TEXT NOT NULL,
    shared_service_fee TEXT NOT NULL DEFAULT '0',
    management_fee TEXT NOT NULL DEFAULT '0',
    subscription_billing_target TEXT NOT NULL,
    subscription_plan_id TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (subscription_plan_id) REFERENCES subscription_plans(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS units (
    id TEXT PRIMARY KEY,
    property_id TEXT NOT NULL,
    name TEXT NOT NULL,
    base_price TEXT NOT NULL,
    is_vacant INTEGER NOT NULL DEFAULT 1,
    FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS occupancy_periods (
    id TEXT PRIMARY KEY,
    unit_id TEXT NOT NULL,
    occupant_id TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT,
    FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    property_id TEXT NOT NULL,
    category TEXT NOT NULL,
    amount TEXT,
    expense_date TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS subscription_invoices (
    id TEXT PRIMARY KEY,
    property_id TEXT NOT NULL,
    plan_id TEXT NOT NULL,
    period TEXT NOT NULL,
    amount TEXT NOT NULL,
    status TEXT NOT NULL,
    payment_method TEXT NOT NULL DEFAULT '',
    proof_ref TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    paid_at INTEGER NOT NULL DEFAULT 0,
    UNIQUE (property_id, period),
    FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_units_property_id ON units(property_id);
CREATE INDEX IF NOT EXISTS idx_occupancy_periods_unit_id ON occupancy_periods(unit_id);
CREATE INDEX IF NOT EXISTS idx_expenses_property_date ON expenses(property_id, expense_date);
CREATE INDEX IF NOT EXISTS idx_subscription_invoices_status ON subscription_invoices(status);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
