// Package models defines the core domain models for the coliving allocation engine.
//
// # Models
//
//   - Property: one coliving unit with its allocation configuration
//   - Unit: a rentable room belonging to a property
//   - OccupancyPeriod: a lease linking one occupant to one unit over time
//   - ExpenseRecord: a dated bill charged to a property
//   - SubscriptionPlan / SubscriptionInvoice: the platform's recurring fee
//   - Period: a calendar month used as the billing period
//
// # Design Principles
//
// 1. **Explicit value types**: every entity is a plain struct; unknown shapes are rejected at the boundary
// 2. **Fail fast on configuration**: enum values are parsed, never defaulted silently
// 3. **IDs over pointers**: relationships are expressed with ID strings, never object graphs
// 4. **Exact money**: amounts are decimal.Decimal, rounded only for presentation
//
// A unit's current occupant is derived from its active OccupancyPeriod and is never
// stored on the Unit itself.
package models
