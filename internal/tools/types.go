// Package tools exposes the retrieval and action operations the agent
// composes. Retrieval tools are pure queries; action tools mutate the ledger
// and re-validate ownership and affordability on their own, independent of
// any validation the caller already performed.
package tools

import (
	"github.com/creditdesk/creditdesk/internal/ledger"
)

// ErrorType classifies a tool failure for the response layer.
type ErrorType string

const (
	ErrCustomerNotFound    ErrorType = "customer_not_found"
	ErrInvoiceNotFound     ErrorType = "invoice_not_found"
	ErrInvoiceNotOwned     ErrorType = "invoice_not_owned"
	ErrInvoiceAlreadyPaid  ErrorType = "invoice_already_paid"
	ErrInsufficientCredits ErrorType = "insufficient_credits"
	ErrMissingField        ErrorType = "missing_required_field"
	ErrInvalidChoice       ErrorType = "invalid_choice"
	ErrExtractionFailure   ErrorType = "intent_extraction_failure"
	ErrSystem              ErrorType = "system_error"
)

// ToolError is a typed, user-renderable failure from a tool.
type ToolError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`

	// Owner names the actual owner on ownership mismatches.
	Owner string `json:"owner,omitempty"`
	// Shortfall and Available itemize an insufficient-credits failure.
	Shortfall int64           `json:"shortfall,omitempty"`
	Available []ledger.Credit `json:"available,omitempty"`
}

func (e *ToolError) Error() string { return e.Message }

// AvailableCreditsResult is returned by GetAvailableCredits.
type AvailableCreditsResult struct {
	CustomerID string          `json:"customer_id"`
	Total      int64           `json:"total"`
	Credits    []ledger.Credit `json:"credits"`
}

// Urgency tiers for overdue invoices, derived from days overdue.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
	UrgencyLow      = "low"
)

// OverdueInvoice is an open invoice annotated with its urgency tier.
type OverdueInvoice struct {
	ledger.Invoice
	DaysOverdue int    `json:"days_overdue"`
	Urgency     string `json:"urgency"`
}

// UrgencyFor maps days overdue to a tier.
func UrgencyFor(days int) string {
	switch {
	case days > 90:
		return UrgencyCritical
	case days > 60:
		return UrgencyHigh
	case days > 30:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// PlanStep is one costed line of an application plan: apply Amount to the
// invoice, moving it from CurrentBalance/CurrentStatus to NewBalance/NewStatus.
type PlanStep struct {
	InvoiceID      string               `json:"invoice_id"`
	Amount         int64                `json:"amount"`
	CurrentBalance int64                `json:"current_balance"`
	NewBalance     int64                `json:"new_balance"`
	CurrentStatus  ledger.InvoiceStatus `json:"current_status"`
	NewStatus      ledger.InvoiceStatus `json:"new_status"`
}

// ApplicationPlan is an ordered list of allocations awaiting confirmation.
// It is built once by the orchestrator, consumed exactly once by ApplyPlan,
// and never persisted.
type ApplicationPlan struct {
	CustomerID string     `json:"customer_id"`
	Total      int64      `json:"total"`
	Steps      []PlanStep `json:"steps"`
}

// Allocations converts the plan to ledger allocations.
func (p *ApplicationPlan) Allocations() []ledger.Allocation {
	out := make([]ledger.Allocation, 0, len(p.Steps))
	for _, s := range p.Steps {
		out = append(out, ledger.Allocation{InvoiceID: s.InvoiceID, Amount: s.Amount})
	}
	return out
}
