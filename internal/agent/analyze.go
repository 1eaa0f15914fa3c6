package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/creditdesk/creditdesk/internal/intent"
	"github.com/creditdesk/creditdesk/internal/session"
)

// defaultHistoryMonths is the window for payment-history summaries.
const defaultHistoryMonths = 12

// handleAnalyzing runs the full analysis pipeline for a fresh utterance:
// extraction, stale-entity detection, entity resolution, ambiguity check,
// then either immediate execution (read intents) or validation and a
// confirmation prompt (write intents).
func (o *Orchestrator) handleAnalyzing(ctx context.Context, sess *session.Context, utterance string) (*Response, error) {
	prior := &intent.Context{
		CustomerID:   sess.CustomerID,
		CustomerName: sess.CustomerName,
		LastInvoice:  sess.LastInvoiceID,
	}
	ex, err := o.deps.Extractor.Extract(ctx, utterance, prior)
	if err != nil {
		// The extractor only errs when both the model and the fallback are
		// unusable, which cannot happen for the deterministic fallback; be
		// defensive anyway.
		return nil, fmt.Errorf("extracting intent: %w", err)
	}

	// A newly named customer that differs from the confirmed one invalidates
	// everything resolved so far; stale entities must not leak across turns.
	if o.wc.customer != nil && ex.HasCustomer() && !refersTo(ex, o.wc.customer.ID, o.wc.customer.Name) {
		o.wc.clear()
	}

	o.wc.originalRequest = utterance
	o.wc.extraction = ex

	// Follow-up turns may omit the customer; fall back to the session's.
	if !ex.HasCustomer() && sess.CustomerID != "" {
		ex.CustomerID = sess.CustomerID
	}
	if ex.InvoiceID == "" && needsInvoiceContext(ex.Intent) && sess.LastInvoiceID != "" {
		ex.InvoiceID = sess.LastInvoiceID
	}

	return o.dispatch(ctx, sess)
}

// handleClarification interprets the reply as a selection among the offered
// candidates. An unrecognized reply re-emits the clarification unchanged.
func (o *Orchestrator) handleClarification(ctx context.Context, sess *session.Context, utterance string) (*Response, error) {
	selected := matchCandidate(utterance, o.wc.candidates)
	if selected == nil {
		return &Response{
			Message:    o.wc.clarification,
			Type:       TypeClarificationNeeded,
			AgentState: string(StateWaitingClarification),
			Options:    candidatesFrom(o.wc.candidates),
		}, nil
	}

	o.wc.customer = selected
	o.wc.candidates = nil
	o.wc.clarification = ""
	o.state = StateAnalyzing

	sess.CustomerID = selected.ID
	sess.CustomerName = selected.Name
	o.saveSession(ctx, sess)

	return o.dispatch(ctx, sess)
}

// dispatch routes a resolved (or resolvable) extraction to its intent
// handler. The switch is exhaustive over the intent set.
func (o *Orchestrator) dispatch(ctx context.Context, sess *session.Context) (*Response, error) {
	ex := o.wc.extraction

	if needsCustomer(ex.Intent) && o.wc.customer == nil {
		if !ex.HasCustomer() {
			return o.completed(&Response{
				Message: "I need to know which customer this is for — please include a name or customer id.",
				Type:    TypeError,
			}), nil
		}
		resp, err := o.resolveCustomer(ctx, sess)
		if resp != nil || err != nil {
			return resp, err
		}
	}

	switch ex.Intent {
	case intent.CreditBalanceInquiry:
		return o.runBalanceInquiry(ctx)
	case intent.PurchaseHistory:
		return o.runPurchaseHistory(ctx)
	case intent.InvoiceInquiry:
		return o.runInvoiceInquiry(ctx, sess)
	case intent.CreditApplication:
		return o.proposeCreditApplication(ctx, sess)
	case intent.AddCredits:
		return o.proposeAddCredits(ctx)
	case intent.PartialPayment:
		return o.proposePartialPayment(ctx, sess)
	case intent.QuantityDiscrepancy:
		return o.proposeMemo(ctx, "quantity_discrepancy", discrepancyReason(ex))
	case intent.DamageReport:
		return o.proposeMemo(ctx, "damage_report", damageReason(ex))
	case intent.CreditMemoApproval:
		return o.proposeMemoResolution(ctx, sess)
	case intent.General:
		return o.completed(&Response{
			Message: "Hi! I can look up balances, invoices, and payment history, apply or add credits, record partial payments, and handle discrepancy reports. What do you need?",
			Type:    TypeInfo,
		}), nil
	default:
		return o.completed(&Response{
			Message: "I didn't understand that request. Try asking about credits, invoices, or payments.",
			Type:    TypeInfo,
		}), nil
	}
}

// resolveCustomer fills wc.customer from the extraction. It returns a
// non-nil response when the flow stops here (ambiguity or not-found).
func (o *Orchestrator) resolveCustomer(ctx context.Context, sess *session.Context) (*Response, error) {
	ex := o.wc.extraction
	res, err := o.deps.Resolver.ResolveCustomer(ctx, ex.CustomerID, ex.CustomerName)
	if err != nil {
		return nil, fmt.Errorf("resolving customer: %w", err)
	}

	switch {
	case res.Ambiguous():
		ref := ex.CustomerName
		if ref == "" {
			ref = ex.CustomerID
		}
		o.wc.candidates = res.Candidates
		o.wc.clarification = renderClarification(ref, res.Candidates)
		o.state = StateWaitingClarification
		return &Response{
			Message:    o.wc.clarification,
			Type:       TypeClarificationNeeded,
			AgentState: string(StateWaitingClarification),
			Options:    candidatesFrom(res.Candidates),
		}, nil

	case res.Customer == nil:
		ref := ex.CustomerName
		if ref == "" {
			ref = ex.CustomerID
		}
		return o.completed(&Response{
			Message: renderNotFound(ref, res.Suggestions),
			Type:    TypeError,
		}), nil

	default:
		o.wc.customer = res.Customer
		sess.CustomerID = res.Customer.ID
		sess.CustomerName = res.Customer.Name
		o.saveSession(ctx, sess)
		return nil, nil
	}
}

func (o *Orchestrator) runBalanceInquiry(ctx context.Context) (*Response, error) {
	res, err := o.deps.Retrieval.GetAvailableCredits(ctx, o.wc.customer.ID)
	if err != nil {
		return nil, fmt.Errorf("getting available credits: %w", err)
	}
	return o.completed(&Response{Message: renderBalance(o.wc.customer, res), Type: TypeSuccess}), nil
}

func (o *Orchestrator) runPurchaseHistory(ctx context.Context) (*Response, error) {
	h, err := o.deps.Retrieval.GetCustomerPaymentHistory(ctx, o.wc.customer.ID, defaultHistoryMonths)
	if err != nil {
		return nil, fmt.Errorf("getting payment history: %w", err)
	}
	return o.completed(&Response{Message: renderHistory(o.wc.customer, h), Type: TypeSuccess}), nil
}

func (o *Orchestrator) runInvoiceInquiry(ctx context.Context, sess *session.Context) (*Response, error) {
	ex := o.wc.extraction

	if ex.InvoiceID != "" {
		inv, err := o.deps.Retrieval.FindInvoiceByID(ctx, ex.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("finding invoice: %w", err)
		}
		if inv == nil {
			return o.completed(&Response{
				Message: fmt.Sprintf("I couldn't find invoice %s.", ex.InvoiceID),
				Type:    TypeError,
			}), nil
		}
		sess.LastInvoiceID = inv.ID
		o.saveSession(ctx, sess)
		return o.completed(&Response{Message: renderInvoice(inv), Type: TypeSuccess}), nil
	}

	if o.wc.customer == nil {
		resp, err := o.resolveCustomer(ctx, sess)
		if resp != nil || err != nil {
			return resp, err
		}
	}
	invoices, err := o.deps.Retrieval.GetPendingInvoices(ctx, o.wc.customer.ID)
	if err != nil {
		return nil, fmt.Errorf("listing pending invoices: %w", err)
	}
	return o.completed(&Response{Message: renderPendingInvoices(o.wc.customer, invoices), Type: TypeSuccess}), nil
}

// needsCustomer reports whether the intent cannot proceed without a
// resolved customer.
func needsCustomer(i intent.Intent) bool {
	switch i {
	case intent.CreditBalanceInquiry, intent.PurchaseHistory, intent.CreditApplication,
		intent.AddCredits, intent.PartialPayment, intent.QuantityDiscrepancy, intent.DamageReport:
		return true
	default:
		return false
	}
}

// needsInvoiceContext reports whether the intent should inherit the
// session's last invoice when none was named.
func needsInvoiceContext(i intent.Intent) bool {
	return i == intent.PartialPayment
}

// refersTo reports whether the extraction names the same customer, by id or
// by name substring in either direction.
func refersTo(ex *intent.Extraction, id, name string) bool {
	if ex.CustomerID != "" {
		return strings.EqualFold(ex.CustomerID, id)
	}
	if ex.CustomerName != "" {
		en := strings.ToLower(ex.CustomerName)
		cn := strings.ToLower(name)
		return strings.Contains(cn, en) || strings.Contains(en, cn)
	}
	return true
}

func discrepancyReason(ex *intent.Extraction) string {
	reason := "reported quantity discrepancy"
	if ex.MissingQuantity != nil {
		reason = fmt.Sprintf("%d unit(s) missing from delivery", *ex.MissingQuantity)
	}
	if ex.ItemDescription != "" {
		reason += " — " + ex.ItemDescription
	}
	return reason
}

func damageReason(ex *intent.Extraction) string {
	if ex.DamageDescription != "" {
		return "damage report: " + ex.DamageDescription
	}
	return "reported damaged goods"
}
