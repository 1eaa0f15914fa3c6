package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creditdesk/creditdesk/internal/ledger"
	"github.com/creditdesk/creditdesk/internal/session"
	"github.com/creditdesk/creditdesk/internal/tools"
)

// proposeCreditApplication validates a credit application end to end and, if
// everything checks out, presents the costed plan for confirmation. Nothing
// is written here.
func (o *Orchestrator) proposeCreditApplication(ctx context.Context, sess *session.Context) (*Response, error) {
	ex := o.wc.extraction
	customer := o.wc.customer

	if ex.CreditAmount == nil {
		return o.completed(&Response{
			Message: fmt.Sprintf("How much credit should I apply for %s? Please include a dollar amount.", customer.Name),
			Type:    TypeError,
		}), nil
	}
	requested := ledger.Cents(*ex.CreditAmount)
	if requested <= 0 {
		return o.completed(&Response{
			Message: "The credit amount must be greater than zero.",
			Type:    TypeError,
		}), nil
	}

	avail, err := o.deps.Retrieval.GetAvailableCredits(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("checking available credits: %w", err)
	}
	if avail.Total < requested {
		return o.completed(&Response{
			Message: renderInsufficient(customer, requested, avail.Total, avail.Credits),
			Type:    TypeInsufficientCredits,
		}), nil
	}

	var plan *planResult
	if ex.InvoiceID != "" {
		inv, resp, err := o.validateInvoice(ctx, ex.InvoiceID, customer)
		if resp != nil || err != nil {
			return resp, err
		}
		plan = &planResult{plan: buildPlanForInvoice(customer.ID, *inv, requested), invoice: inv}
	} else {
		pending, err := o.deps.Retrieval.GetPendingInvoices(ctx, customer.ID)
		if err != nil {
			return nil, fmt.Errorf("listing pending invoices: %w", err)
		}
		if len(pending) == 0 {
			return o.completed(&Response{
				Message: fmt.Sprintf("%s (%s) has no pending invoices to apply credits to.", customer.Name, customer.ID),
				Type:    TypeNoPendingInvoices,
			}), nil
		}
		plan = &planResult{plan: buildPlanAcrossInvoices(customer.ID, pending, requested)}
	}

	if len(plan.plan.Steps) == 0 || plan.plan.Total == 0 {
		return o.completed(&Response{
			Message: "There is nothing left to pay on the selected invoice(s).",
			Type:    TypeNoPendingInvoices,
		}), nil
	}

	o.wc.plan = plan.plan
	o.wc.invoice = plan.invoice
	o.wc.pending = pendingApplyPlan
	o.state = StateWaitingConfirmation

	return &Response{
		Message:    renderPlanConfirmation(customer, plan.plan),
		Type:       TypeConfirmationNeeded,
		AgentState: string(StateWaitingConfirmation),
	}, nil
}

type planResult struct {
	plan    *tools.ApplicationPlan
	invoice *ledger.Invoice
}

// proposeAddCredits stages issuing a new credit for confirmation.
func (o *Orchestrator) proposeAddCredits(ctx context.Context) (*Response, error) {
	ex := o.wc.extraction
	customer := o.wc.customer

	if ex.CreditAmount == nil || *ex.CreditAmount <= 0 {
		return o.completed(&Response{
			Message: fmt.Sprintf("How much credit should I add for %s? Please include a dollar amount.", customer.Name),
			Type:    TypeError,
		}), nil
	}

	o.wc.amount = ledger.Cents(*ex.CreditAmount)
	o.wc.pending = pendingAddCredits
	o.state = StateWaitingConfirmation

	return &Response{
		Message:    renderConfirmAddCredits(customer, o.wc.amount),
		Type:       TypeConfirmationNeeded,
		AgentState: string(StateWaitingConfirmation),
	}, nil
}

// proposePartialPayment stages recording a cash payment for confirmation.
func (o *Orchestrator) proposePartialPayment(ctx context.Context, sess *session.Context) (*Response, error) {
	ex := o.wc.extraction
	customer := o.wc.customer

	amount := ex.PaidAmount
	if amount == nil {
		amount = ex.CreditAmount
	}
	if amount == nil || *amount <= 0 {
		return o.completed(&Response{
			Message: "How much did the customer pay? Please include a dollar amount.",
			Type:    TypeError,
		}), nil
	}
	if ex.InvoiceID == "" {
		return o.completed(&Response{
			Message: "Which invoice is this payment for? Please include an invoice id.",
			Type:    TypeError,
		}), nil
	}

	inv, resp, err := o.validateInvoice(ctx, ex.InvoiceID, customer)
	if resp != nil || err != nil {
		return resp, err
	}

	o.wc.invoice = inv
	o.wc.amount = ledger.Cents(*amount)
	o.wc.pending = pendingPartialPayment
	o.state = StateWaitingConfirmation

	return &Response{
		Message:    renderConfirmPayment(customer, inv, o.wc.amount),
		Type:       TypeConfirmationNeeded,
		AgentState: string(StateWaitingConfirmation),
	}, nil
}

// proposeMemo stages opening a credit memo from a discrepancy or damage
// report for confirmation.
func (o *Orchestrator) proposeMemo(ctx context.Context, source, reason string) (*Response, error) {
	ex := o.wc.extraction
	customer := o.wc.customer

	if ex.CreditAmount == nil || *ex.CreditAmount <= 0 {
		return o.completed(&Response{
			Message: "What credit amount should the memo request? Please include a dollar amount.",
			Type:    TypeError,
		}), nil
	}

	o.wc.amount = ledger.Cents(*ex.CreditAmount)
	o.wc.memoSource = source
	o.wc.memoReason = reason
	o.wc.pending = pendingCreateMemo
	o.state = StateWaitingConfirmation

	return &Response{
		Message:    renderConfirmMemo(customer, o.wc.amount, reason),
		Type:       TypeConfirmationNeeded,
		AgentState: string(StateWaitingConfirmation),
	}, nil
}

// proposeMemoResolution stages applying the customer's disposition choice to
// the session's pending memo.
func (o *Orchestrator) proposeMemoResolution(ctx context.Context, sess *session.Context) (*Response, error) {
	if sess.PendingMemoID == "" {
		return o.completed(&Response{
			Message: "There is no pending credit memo in this conversation to approve or reject.",
			Type:    TypeError,
		}), nil
	}

	memo, err := o.deps.Retrieval.GetCreditMemo(ctx, sess.PendingMemoID)
	if err != nil {
		return nil, fmt.Errorf("loading credit memo: %w", err)
	}
	if memo == nil || memo.Status != ledger.MemoPending {
		sess.PendingMemoID = ""
		o.saveSession(ctx, sess)
		return o.completed(&Response{
			Message: "That credit memo has already been resolved.",
			Type:    TypeError,
		}), nil
	}

	choice := strings.ToLower(strings.TrimSpace(o.wc.extraction.CustomerChoice))
	var approve bool
	switch choice {
	case "apply", "approve", "accept", "yes":
		approve = true
	case "reject", "decline", "no":
		approve = false
	default:
		return o.completed(&Response{
			Message: fmt.Sprintf("Should credit memo %s be applied to the account or rejected? Reply with apply or reject.", memo.ID),
			Type:    TypeError,
		}), nil
	}

	o.wc.memoID = memo.ID
	o.wc.approveMemo = approve
	o.wc.pending = pendingResolveMemo
	o.state = StateWaitingConfirmation

	return &Response{
		Message:    renderConfirmMemoResolution(memo, approve),
		Type:       TypeConfirmationNeeded,
		AgentState: string(StateWaitingConfirmation),
	}, nil
}

// validateInvoice checks a named invoice against the resolved customer and
// converts validation failures into terminal typed responses.
func (o *Orchestrator) validateInvoice(ctx context.Context, invoiceID string, customer *ledger.Customer) (*ledger.Invoice, *Response, error) {
	inv, err := o.deps.Resolver.ValidateInvoice(ctx, invoiceID, customer.ID)
	switch {
	case err == nil:
		return inv, nil, nil
	case errors.Is(err, ledger.ErrInvoiceNotFound):
		return nil, o.completed(&Response{
			Message: fmt.Sprintf("I couldn't find invoice %s.", invoiceID),
			Type:    TypeError,
		}), nil
	case errors.Is(err, ledger.ErrInvoiceNotOwned):
		msg := fmt.Sprintf("Invoice %s does not belong to %s.", invoiceID, customer.Name)
		if inv != nil {
			if owner, oerr := o.deps.Retrieval.GetCustomer(ctx, inv.CustomerID); oerr == nil && owner != nil {
				msg = fmt.Sprintf("Invoice %s belongs to %s (%s), not %s.", invoiceID, owner.Name, owner.ID, customer.Name)
			}
		}
		return nil, o.completed(&Response{Message: msg, Type: TypeError}), nil
	case errors.Is(err, ledger.ErrInvoiceClosed):
		msg := fmt.Sprintf("Invoice %s is already settled — nothing to apply.", invoiceID)
		if inv != nil && inv.Status == ledger.InvoiceCancelled {
			msg = fmt.Sprintf("Invoice %s was cancelled — nothing to apply.", invoiceID)
		}
		return nil, o.completed(&Response{Message: msg, Type: TypeError}), nil
	default:
		return nil, nil, fmt.Errorf("validating invoice %s: %w", invoiceID, err)
	}
}
