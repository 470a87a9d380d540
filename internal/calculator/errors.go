package calculator

import (
	"errors"
	"fmt"

	"github.com/mmynk/colivsplit/internal/models"
)

// EmptyPropertyError is returned when a property has no units at all.
type EmptyPropertyError struct {
	PropertyID string
}

func (e *EmptyPropertyError) Error() string {
	return fmt.Sprintf("property %q has no units", e.PropertyID)
}

// NoOccupantsError is returned when a property has units but none is occupied in the period.
type NoOccupantsError struct {
	PropertyID    string
	TotalCapacity int
}

func (e *NoOccupantsError) Error() string {
	return fmt.Sprintf("property %q has no occupants among %d units", e.PropertyID, e.TotalCapacity)
}

// InvalidExpenseError is returned for an expense record that cannot be aggregated.
type InvalidExpenseError struct {
	RecordID string
	Reason   string
}

func (e *InvalidExpenseError) Error() string {
	return fmt.Sprintf("invalid expense %q: %s", e.RecordID, e.Reason)
}

// DataIntegrityError is returned when occupancy records contradict each other.
type DataIntegrityError struct {
	UnitID string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("occupancy data for unit %q: %s", e.UnitID, e.Reason)
}

// NothingToAllocate reports whether err is one of the expected empty outcomes
// (no units, or no occupants) rather than a failure.
func NothingToAllocate(err error) bool {
	var empty *EmptyPropertyError
	var vacant *NoOccupantsError
	return errors.As(err, &empty) || errors.As(err, &vacant)
}

// configError is a shorthand for the models configuration error.
func configError(field, value string) error {
	return &models.ConfigurationError{Field: field, Value: value}
}
