package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creditdesk/creditdesk/internal/ledger"
)

// creditValidityMonths is how long newly issued credits remain spendable.
const creditValidityMonths = 12

// Actions groups the mutating tools. Every action re-validates ownership and
// affordability before writing, even though the orchestrator validated the
// same conditions before asking for confirmation.
type Actions struct {
	store *ledger.Store
	now   func() time.Time
}

// NewActions creates the action tool set.
func NewActions(store *ledger.Store) *Actions {
	return &Actions{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source, for tests.
func (a *Actions) WithClock(now func() time.Time) *Actions {
	a.now = now
	return a
}

// ApplyPlan executes a previously validated application plan. The whole plan
// is revalidated against current ledger state under the customer's lock; if
// any step fails, nothing is applied.
func (a *Actions) ApplyPlan(ctx context.Context, plan *ApplicationPlan) (*ledger.ApplicationResult, error) {
	if plan == nil || len(plan.Steps) == 0 {
		return nil, &ToolError{Type: ErrMissingField, Message: "nothing to apply: the plan is empty"}
	}
	if err := a.requireCustomer(ctx, plan.CustomerID); err != nil {
		return nil, err
	}

	result, err := a.store.ApplyCredits(ctx, plan.CustomerID, plan.Allocations(), a.now())
	if err != nil {
		return nil, a.ledgerError(ctx, err, plan.CustomerID)
	}
	return result, nil
}

// ApplyCreditsToInvoice applies up to amount cents of credit to one invoice,
// clamped to the invoice's remaining balance.
func (a *Actions) ApplyCreditsToInvoice(ctx context.Context, customerID, invoiceID string, amount int64) (*ledger.ApplicationResult, error) {
	if amount <= 0 {
		return nil, &ToolError{Type: ErrMissingField, Message: "a positive credit amount is required"}
	}
	if err := a.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	inv, err := a.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &ToolError{Type: ErrInvoiceNotFound, Message: fmt.Sprintf("invoice %s was not found", invoiceID)}
	}
	if amount > inv.CurrentAmount {
		amount = inv.CurrentAmount
	}

	plan := &ApplicationPlan{
		CustomerID: customerID,
		Total:      amount,
		Steps: []PlanStep{{
			InvoiceID:      inv.ID,
			Amount:         amount,
			CurrentBalance: inv.CurrentAmount,
			NewBalance:     inv.CurrentAmount - amount,
			CurrentStatus:  inv.Status,
		}},
	}
	return a.ApplyPlan(ctx, plan)
}

// AddCreditsToCustomer issues a new credit to the customer.
func (a *Actions) AddCreditsToCustomer(ctx context.Context, customerID string, amount int64) (*ledger.Credit, error) {
	if amount <= 0 {
		return nil, &ToolError{Type: ErrMissingField, Message: "a positive credit amount is required"}
	}
	if err := a.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	now := a.now()
	credit, err := a.store.AddCredit(ctx, customerID, amount, now.AddDate(0, creditValidityMonths, 0), now)
	if err != nil {
		return nil, a.ledgerError(ctx, err, customerID)
	}
	return credit, nil
}

// ProcessPartialPayment records a cash payment against an invoice.
func (a *Actions) ProcessPartialPayment(ctx context.Context, customerID, invoiceID string, amount int64) (*ledger.InvoiceChange, error) {
	if amount <= 0 {
		return nil, &ToolError{Type: ErrMissingField, Message: "a positive payment amount is required"}
	}
	if err := a.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	change, err := a.store.RecordPayment(ctx, customerID, invoiceID, amount, a.now())
	if err != nil {
		return nil, a.invoiceError(ctx, err, invoiceID)
	}
	return change, nil
}

// CreateCreditMemo opens a pending memo from a discrepancy or damage report.
func (a *Actions) CreateCreditMemo(ctx context.Context, customerID string, amount int64, reason, source string) (*ledger.CreditMemo, error) {
	if amount <= 0 {
		return nil, &ToolError{Type: ErrMissingField, Message: "a positive memo amount is required"}
	}
	if err := a.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	memo, err := a.store.CreateMemo(ctx, customerID, amount, reason, source, a.now())
	if err != nil {
		return nil, a.ledgerError(ctx, err, customerID)
	}
	return memo, nil
}

// ResolveCreditMemo applies the customer's disposition choice to a pending
// memo. Approval issues the credit.
func (a *Actions) ResolveCreditMemo(ctx context.Context, memoID string, approve bool) (*ledger.CreditMemo, *ledger.Credit, error) {
	now := a.now()
	memo, credit, err := a.store.ResolveMemo(ctx, memoID, approve, now.AddDate(0, creditValidityMonths, 0), now)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrMemoNotFound):
			return nil, nil, &ToolError{Type: ErrInvalidChoice, Message: "there is no pending credit memo to approve"}
		case errors.Is(err, ledger.ErrMemoResolved):
			return nil, nil, &ToolError{Type: ErrInvalidChoice, Message: "that credit memo has already been resolved"}
		default:
			return nil, nil, err
		}
	}
	return memo, credit, nil
}

func (a *Actions) requireCustomer(ctx context.Context, customerID string) error {
	if customerID == "" {
		return &ToolError{Type: ErrMissingField, Message: "a customer is required"}
	}
	c, err := a.store.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if c == nil {
		return &ToolError{Type: ErrCustomerNotFound, Message: fmt.Sprintf("customer %s was not found", customerID)}
	}
	return nil
}

// ledgerError maps ledger sentinels to typed tool errors, itemizing the
// customer's remaining credits on affordability failures.
func (a *Actions) ledgerError(ctx context.Context, err error, customerID string) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientCredits):
		total, credits, lerr := a.store.AvailableCredits(ctx, customerID, a.now())
		if lerr != nil {
			return err
		}
		return &ToolError{
			Type:      ErrInsufficientCredits,
			Message:   fmt.Sprintf("only %s of credit is available", ledger.FormatUSD(total)),
			Available: credits,
		}
	case errors.Is(err, ledger.ErrInvoiceNotFound):
		return &ToolError{Type: ErrInvoiceNotFound, Message: err.Error()}
	case errors.Is(err, ledger.ErrInvoiceNotOwned):
		return &ToolError{Type: ErrInvoiceNotOwned, Message: err.Error()}
	case errors.Is(err, ledger.ErrInvoiceClosed):
		return &ToolError{Type: ErrInvoiceAlreadyPaid, Message: err.Error()}
	case errors.Is(err, ledger.ErrInvalidAmount):
		return &ToolError{Type: ErrMissingField, Message: err.Error()}
	default:
		return err
	}
}

// invoiceError is ledgerError with the invoice's actual owner named on
// ownership mismatches.
func (a *Actions) invoiceError(ctx context.Context, err error, invoiceID string) error {
	if errors.Is(err, ledger.ErrInvoiceNotOwned) {
		owner := ""
		if inv, lerr := a.store.GetInvoice(ctx, invoiceID); lerr == nil && inv != nil {
			if c, cerr := a.store.GetCustomer(ctx, inv.CustomerID); cerr == nil && c != nil {
				owner = c.Name
			}
		}
		msg := fmt.Sprintf("invoice %s belongs to another customer", invoiceID)
		if owner != "" {
			msg = fmt.Sprintf("invoice %s belongs to %s", invoiceID, owner)
		}
		return &ToolError{Type: ErrInvoiceNotOwned, Message: msg, Owner: owner}
	}
	if errors.Is(err, ledger.ErrInvoiceNotFound) {
		return &ToolError{Type: ErrInvoiceNotFound, Message: fmt.Sprintf("invoice %s was not found", invoiceID)}
	}
	if errors.Is(err, ledger.ErrInvoiceClosed) {
		return &ToolError{Type: ErrInvoiceAlreadyPaid, Message: fmt.Sprintf("invoice %s is already paid", invoiceID)}
	}
	if errors.Is(err, ledger.ErrInvalidAmount) {
		return &ToolError{Type: ErrMissingField, Message: err.Error()}
	}
	return err
}
