package tools

import (
	"context"
	"time"

	"github.com/creditdesk/creditdesk/internal/ledger"
)

// Retrieval groups the read-only lookup tools. No method here has side
// effects.
type Retrieval struct {
	store *ledger.Store
	now   func() time.Time
}

// NewRetrieval creates the retrieval tool set.
func NewRetrieval(store *ledger.Store) *Retrieval {
	return &Retrieval{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source, for tests.
func (r *Retrieval) WithClock(now func() time.Time) *Retrieval {
	r.now = now
	return r
}

// GetCustomer returns the customer with the given id, or nil.
func (r *Retrieval) GetCustomer(ctx context.Context, id string) (*ledger.Customer, error) {
	return r.store.GetCustomer(ctx, id)
}

// FindCustomerByName returns every customer matching the given text.
func (r *Retrieval) FindCustomerByName(ctx context.Context, text string) ([]ledger.Customer, error) {
	return r.store.SearchCustomers(ctx, text)
}

// FindInvoiceByID returns the invoice with the given id, or nil.
func (r *Retrieval) FindInvoiceByID(ctx context.Context, id string) (*ledger.Invoice, error) {
	return r.store.GetInvoice(ctx, id)
}

// GetAvailableCredits computes the customer's spendable credit.
func (r *Retrieval) GetAvailableCredits(ctx context.Context, customerID string) (*AvailableCreditsResult, error) {
	total, credits, err := r.store.AvailableCredits(ctx, customerID, r.now())
	if err != nil {
		return nil, err
	}
	return &AvailableCreditsResult{CustomerID: customerID, Total: total, Credits: credits}, nil
}

// GetPendingInvoices returns the customer's open invoices, smallest balance
// first.
func (r *Retrieval) GetPendingInvoices(ctx context.Context, customerID string) ([]ledger.Invoice, error) {
	return r.store.PendingInvoices(ctx, customerID)
}

// GetCustomerPaymentHistory summarizes invoicing and payment over the last
// months.
func (r *Retrieval) GetCustomerPaymentHistory(ctx context.Context, customerID string, months int) (*ledger.PaymentHistory, error) {
	return r.store.CustomerPaymentHistory(ctx, customerID, months, r.now())
}

// GetCreditMemo returns the memo with the given id, or nil.
func (r *Retrieval) GetCreditMemo(ctx context.Context, id string) (*ledger.CreditMemo, error) {
	return r.store.GetMemo(ctx, id)
}

// FindOverdueInvoices lists open invoices overdue by at least daysOverdue
// days, each annotated with an urgency tier. customerID may be empty.
func (r *Retrieval) FindOverdueInvoices(ctx context.Context, customerID string, daysOverdue int) ([]OverdueInvoice, error) {
	now := r.now()
	invoices, err := r.store.OverdueInvoices(ctx, customerID, daysOverdue, now)
	if err != nil {
		return nil, err
	}

	out := make([]OverdueInvoice, 0, len(invoices))
	for _, inv := range invoices {
		days := int(now.Sub(inv.DueDate).Hours() / 24)
		if days < 0 {
			days = 0
		}
		out = append(out, OverdueInvoice{Invoice: inv, DaysOverdue: days, Urgency: UrgencyFor(days)})
	}
	return out, nil
}
