package models

import (
	"github.com/shopspring/decimal"
)

// AllocationMode decides whether a property's costs are pooled equally or tied to each unit's price.
type AllocationMode string

const (
	// AllocationEqual pools all rent and charges and splits them evenly among present occupants.
	AllocationEqual AllocationMode = "EQUAL"
	// AllocationPerUnit charges each occupant their own unit's price plus a share of charges.
	AllocationPerUnit AllocationMode = "PER_UNIT"
)

// ParseAllocationMode converts a stored value into an AllocationMode.
func ParseAllocationMode(s string) (AllocationMode, error) {
	switch m := AllocationMode(s); m {
	case AllocationEqual, AllocationPerUnit:
		return m, nil
	}
	return "", &ConfigurationError{Field: "allocation_mode", Value: s}
}

// VacancyPolicy decides who carries the vacant units' share of variable costs.
type VacancyPolicy string

const (
	// VacancyRedistribute makes present occupants cover every variable cost.
	VacancyRedistribute VacancyPolicy = "REDISTRIBUTE"
	// VacancyOwnerAbsorbs makes the owner pay the vacant units' share of variable costs.
	VacancyOwnerAbsorbs VacancyPolicy = "OWNER_ABSORBS"
)

// ParseVacancyPolicy converts a stored value into a VacancyPolicy.
func ParseVacancyPolicy(s string) (VacancyPolicy, error) {
	switch p := VacancyPolicy(s); p {
	case VacancyRedistribute, VacancyOwnerAbsorbs:
		return p, nil
	}
	return "", &ConfigurationError{Field: "vacancy_policy", Value: s}
}

// BillingTarget decides who pays the platform subscription fee.
type BillingTarget string

const (
	// BillOwner leaves the subscription invoice as the owner's debt to the platform.
	BillOwner BillingTarget = "OWNER"
	// BillOccupants folds the subscription fee into the occupants' variable charges.
	BillOccupants BillingTarget = "OCCUPANTS"
)

// ParseBillingTarget converts a stored value into a BillingTarget.
func ParseBillingTarget(s string) (BillingTarget, error) {
	switch t := BillingTarget(s); t {
	case BillOwner, BillOccupants:
		return t, nil
	}
	return "", &ConfigurationError{Field: "subscription_billing_target", Value: s}
}

// Property represents one coliving unit and its financial configuration.
// A property owns its units and its configuration; expense records and
// subscription invoices reference it by ID.
type Property struct {
	// ID is the unique identifier for the property (UUID format).
	ID string

	// Name is the display name of the property (e.g., "Rue Oberkampf flatshare").
	Name string

	// AllocationMode selects the cost allocation algorithm.
	AllocationMode AllocationMode

	// VacancyPolicy selects who pays vacant units' share of variable costs.
	// Only consulted in PER_UNIT mode.
	VacancyPolicy VacancyPolicy

	// SharedServiceFee is a recurring monthly fee (internet, cleaning) charged to the property.
	// Always split among the occupants present.
	SharedServiceFee decimal.Decimal

	// ManagementFee is the recurring monthly management or syndic fee.
	// Always split among the occupants present.
	ManagementFee decimal.Decimal

	// SubscriptionBillingTarget selects who pays the platform subscription fee.
	SubscriptionBillingTarget BillingTarget

	// SubscriptionPlanID references the property's plan. Nil when the property is not subscribed.
	SubscriptionPlanID *string

	// CreatedAt is the Unix timestamp when the property was created.
	CreatedAt int64
}

// Validate checks that every enumerated field holds a known value and that fees are non-negative.
func (p Property) Validate() error {
	if _, err := ParseAllocationMode(string(p.AllocationMode)); err != nil {
		return err
	}
	if _, err := ParseVacancyPolicy(string(p.VacancyPolicy)); err != nil {
		return err
	}
	if _, err := ParseBillingTarget(string(p.SubscriptionBillingTarget)); err != nil {
		return err
	}
	if p.SharedServiceFee.IsNegative() {
		return &ConfigurationError{Field: "shared_service_fee", Value: p.SharedServiceFee.String()}
	}
	if p.ManagementFee.IsNegative() {
		return &ConfigurationError{Field: "management_fee", Value: p.ManagementFee.String()}
	}
	return nil
}

// Unit represents a rentable room belonging to exactly one property.
type Unit struct {
	// ID is the unique identifier for the unit (UUID format).
	ID string

	// PropertyID is the property this unit belongs to.
	PropertyID string

	// Name is the display name of the unit (e.g., "Room 2").
	Name string

	// BasePrice is the monthly rent for this unit.
	BasePrice decimal.Decimal

	// IsVacant is a cached flag. The active occupancy period for a billing period is authoritative.
	IsVacant bool
}
