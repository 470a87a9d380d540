package models

import "fmt"

// ConfigurationError reports a property configuration value outside its allowed set.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%q", e.Field, e.Value)
}

// InvalidStateTransitionError reports a subscription invoice status change that the
// invoice state machine does not allow.
type InvalidStateTransitionError struct {
	InvoiceID string
	From      InvoiceStatus
	To        InvoiceStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invoice %s: cannot transition from %s to %s", e.InvoiceID, e.From, e.To)
}
