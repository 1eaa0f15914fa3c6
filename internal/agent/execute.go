package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/creditdesk/creditdesk/internal/ledger"
	"github.com/creditdesk/creditdesk/internal/session"
	"github.com/creditdesk/creditdesk/internal/tools"
)

// execute runs the confirmed pending action. Tool errors become typed
// terminal responses rather than apology resets: the ledger rejected the
// write cleanly and nothing was changed.
func (o *Orchestrator) execute(ctx context.Context, sess *session.Context) (*Response, error) {
	customer := o.wc.customer

	switch o.wc.pending {
	case pendingApplyPlan:
		result, err := o.deps.Actions.ApplyPlan(ctx, o.wc.plan)
		if err != nil {
			return o.toolFailure(err)
		}
		if len(result.Invoices) == 1 {
			sess.LastInvoiceID = result.Invoices[0].After.ID
			o.saveSession(ctx, sess)
		}
		return o.completed(&Response{Message: renderReceipt(customer, result), Type: TypeSuccess}), nil

	case pendingAddCredits:
		credit, err := o.deps.Actions.AddCreditsToCustomer(ctx, customer.ID, o.wc.amount)
		if err != nil {
			return o.toolFailure(err)
		}
		msg := fmt.Sprintf("Done — added %s of credit for %s (%s), expiring %s.",
			ledger.FormatUSD(credit.Amount), customer.Name, customer.ID,
			credit.ExpiryDate.Format("2006-01-02"))
		return o.completed(&Response{Message: withDetails(msg, credit), Type: TypeSuccess}), nil

	case pendingPartialPayment:
		change, err := o.deps.Actions.ProcessPartialPayment(ctx, customer.ID, o.wc.invoice.ID, o.wc.amount)
		if err != nil {
			return o.toolFailure(err)
		}
		sess.LastInvoiceID = change.After.ID
		o.saveSession(ctx, sess)
		msg := fmt.Sprintf("Done — recorded a %s payment against invoice %s. Balance %s -> %s, status %s.",
			ledger.FormatUSD(change.Before.CurrentAmount-change.After.CurrentAmount),
			change.After.ID, ledger.FormatUSD(change.Before.CurrentAmount),
			ledger.FormatUSD(change.After.CurrentAmount), change.After.Status)
		return o.completed(&Response{Message: withDetails(msg, change), Type: TypeSuccess}), nil

	case pendingCreateMemo:
		memo, err := o.deps.Actions.CreateCreditMemo(ctx, customer.ID, o.wc.amount, o.wc.memoReason, o.wc.memoSource)
		if err != nil {
			return o.toolFailure(err)
		}
		sess.PendingMemoID = memo.ID
		o.saveSession(ctx, sess)
		msg := fmt.Sprintf("Opened credit memo %s for %s (%s): %s — %s.\nShould the credit be applied to the account or rejected?",
			memo.ID, customer.Name, customer.ID, ledger.FormatUSD(memo.Amount), memo.Reason)
		return o.completed(&Response{Message: withDetails(msg, memo), Type: TypeSuccess}), nil

	case pendingResolveMemo:
		memo, credit, err := o.deps.Actions.ResolveCreditMemo(ctx, o.wc.memoID, o.wc.approveMemo)
		if err != nil {
			return o.toolFailure(err)
		}
		sess.PendingMemoID = ""
		o.saveSession(ctx, sess)
		var msg string
		if credit != nil {
			msg = fmt.Sprintf("Approved credit memo %s — added %s of credit, expiring %s.",
				memo.ID, ledger.FormatUSD(credit.Amount), credit.ExpiryDate.Format("2006-01-02"))
		} else {
			msg = fmt.Sprintf("Rejected credit memo %s — no credit was issued.", memo.ID)
		}
		return o.completed(&Response{Message: withDetails(msg, memo), Type: TypeSuccess}), nil

	default:
		return nil, fmt.Errorf("no pending action to execute")
	}
}

// toolFailure converts a typed tool error into a terminal response. Any
// other error propagates up for the generic apology path.
func (o *Orchestrator) toolFailure(err error) (*Response, error) {
	var te *tools.ToolError
	if !errors.As(err, &te) {
		return nil, err
	}

	rt := TypeError
	if te.Type == tools.ErrInsufficientCredits {
		rt = TypeInsufficientCredits
	}

	msg := te.Message
	if te.Type == tools.ErrInsufficientCredits && o.wc.customer != nil {
		var avail int64
		for _, c := range te.Available {
			avail += c.Amount
		}
		requested := o.wc.amount
		if o.wc.plan != nil {
			requested = o.wc.plan.Total
		}
		msg = renderInsufficient(o.wc.customer, requested, avail, te.Available)
	}
	return o.completed(&Response{Message: msg, Type: rt}), nil
}
