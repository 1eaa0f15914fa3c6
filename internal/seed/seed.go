// Package seed loads a small demo ledger for local development: a handful of
// customers with credits and invoices in various states, including the
// deliberately ambiguous pair of Johns.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/creditdesk/creditdesk/internal/ledger"
)

// Reporter receives progress during loading.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// nopReporter discards progress.
type nopReporter struct{}

func (nopReporter) Start(int)          {}
func (nopReporter) Update(int, string) {}
func (nopReporter) Finish()            {}

type record struct {
	label  string
	insert func(ctx context.Context, s *ledger.Store) error
}

// Load populates the store with the demo dataset. Existing rows with the
// same ids cause insert errors, so run it against a fresh database.
func Load(ctx context.Context, store *ledger.Store, rep Reporter) error {
	if rep == nil {
		rep = nopReporter{}
	}
	now := time.Now().UTC()
	records := demoRecords(now)

	rep.Start(len(records))
	for i, r := range records {
		if err := r.insert(ctx, store); err != nil {
			rep.Finish()
			return fmt.Errorf("seeding %s: %w", r.label, err)
		}
		rep.Update(i+1, r.label)
	}
	rep.Finish()
	return nil
}

func demoRecords(now time.Time) []record {
	customers := []ledger.Customer{
		{ID: "CUST001", Name: "John Smith", Company: "Acme Corp", Email: "john.smith@acme.example", Status: "active", CreatedAt: now},
		{ID: "CUST002", Name: "John Doe", Company: "Doe Logistics", Email: "john.doe@doelog.example", Status: "active", CreatedAt: now},
		{ID: "CUST003", Name: "Sarah Johnson", Company: "Widget Works", Email: "sarah@widgets.example", Status: "active", CreatedAt: now},
		{ID: "CUST004", Name: "Maria Garcia", Company: "Garcia Imports", Email: "maria@garcia.example", Status: "active", CreatedAt: now},
	}

	credits := []ledger.Credit{
		{ID: "CRD001", CustomerID: "CUST001", Amount: 2000, OriginalAmount: 2000, Status: ledger.CreditActive,
			EarnedDate: now.AddDate(0, -2, 0), ExpiryDate: now.AddDate(0, 10, 0)},
		{ID: "CRD002", CustomerID: "CUST002", Amount: 15000, OriginalAmount: 20000, Status: ledger.CreditPartiallyUsed,
			EarnedDate: now.AddDate(0, -6, 0), ExpiryDate: now.AddDate(0, 6, 0)},
		{ID: "CRD003", CustomerID: "CUST002", Amount: 5000, OriginalAmount: 5000, Status: ledger.CreditActive,
			EarnedDate: now.AddDate(0, -1, 0), ExpiryDate: now.AddDate(0, 11, 0)},
		{ID: "CRD004", CustomerID: "CUST003", Amount: 30000, OriginalAmount: 30000, Status: ledger.CreditActive,
			EarnedDate: now.AddDate(0, -3, 0), ExpiryDate: now.AddDate(0, 9, 0)},
		// Expired: must never count toward availability.
		{ID: "CRD005", CustomerID: "CUST003", Amount: 10000, OriginalAmount: 10000, Status: ledger.CreditActive,
			EarnedDate: now.AddDate(-1, -1, 0), ExpiryDate: now.AddDate(0, -1, 0)},
	}

	invoices := []ledger.Invoice{
		{ID: "INV001", CustomerID: "CUST001", OriginalAmount: 12500, CurrentAmount: 0, CreditsApplied: 0,
			Status: ledger.InvoicePaid, PaymentStatus: ledger.PaymentPaid,
			DueDate: now.AddDate(0, -1, 0), CreatedAt: now.AddDate(0, -2, 0)},
		{ID: "INV002", CustomerID: "CUST001", OriginalAmount: 6000, CurrentAmount: 6000, CreditsApplied: 0,
			Status: ledger.InvoicePending, PaymentStatus: ledger.PaymentPending,
			DueDate: now.AddDate(0, 1, 0), CreatedAt: now},
		{ID: "INV003", CustomerID: "CUST001", OriginalAmount: 7000, CurrentAmount: 7000, CreditsApplied: 0,
			Status: ledger.InvoicePending, PaymentStatus: ledger.PaymentPending,
			DueDate: now.AddDate(0, 2, 0), CreatedAt: now},
		{ID: "INV004", CustomerID: "CUST002", OriginalAmount: 40000, CurrentAmount: 25000, CreditsApplied: 5000,
			Status: ledger.InvoiceOverdue, PaymentStatus: ledger.PaymentPartial,
			DueDate: now.AddDate(0, 0, -45), CreatedAt: now.AddDate(0, -3, 0)},
		{ID: "INV005", CustomerID: "CUST003", OriginalAmount: 18000, CurrentAmount: 18000, CreditsApplied: 0,
			Status: ledger.InvoicePending, PaymentStatus: ledger.PaymentPending,
			DueDate: now.AddDate(0, 0, 14), CreatedAt: now},
		{ID: "INV006", CustomerID: "CUST004", OriginalAmount: 9500, CurrentAmount: 9500, CreditsApplied: 0,
			Status: ledger.InvoiceOverdue, PaymentStatus: ledger.PaymentPending,
			DueDate: now.AddDate(0, 0, -95), CreatedAt: now.AddDate(0, -4, 0)},
	}

	var records []record
	for _, c := range customers {
		c := c
		records = append(records, record{
			label:  "customer " + c.ID,
			insert: func(ctx context.Context, s *ledger.Store) error { return s.CreateCustomer(ctx, c) },
		})
	}
	for _, cr := range credits {
		cr := cr
		records = append(records, record{
			label:  "credit " + cr.ID,
			insert: func(ctx context.Context, s *ledger.Store) error { return s.InsertCredit(ctx, cr) },
		})
	}
	for _, inv := range invoices {
		inv := inv
		records = append(records, record{
			label:  "invoice " + inv.ID,
			insert: func(ctx context.Context, s *ledger.Store) error { return s.InsertInvoice(ctx, inv) },
		})
	}
	return records
}
