package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creditdesk/creditdesk/internal/db"
	"github.com/creditdesk/creditdesk/internal/ledger"
)

func setupService(t *testing.T) (*Service, *ledger.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := ledger.NewStore(database)

	ctx := context.Background()
	for _, c := range []ledger.Customer{
		{ID: "CUST001", Name: "John Smith", Company: "Acme Corp"},
		{ID: "CUST002", Name: "John Doe", Company: "Doe Logistics"},
		{ID: "CUST003", Name: "Sarah Johnson", Company: "Widget Works"},
	} {
		if err := store.CreateCustomer(ctx, c); err != nil {
			t.Fatalf("CreateCustomer(%s): %v", c.ID, err)
		}
	}
	return New(store), store
}

func TestResolveCustomerByID(t *testing.T) {
	s, _ := setupService(t)
	res, err := s.ResolveCustomer(context.Background(), "CUST001", "")
	if err != nil {
		t.Fatalf("ResolveCustomer: %v", err)
	}
	if res.Customer == nil || res.Customer.ID != "CUST001" {
		t.Fatalf("expected CUST001, got %+v", res)
	}
	if res.Ambiguous() {
		t.Error("id lookup must never be ambiguous")
	}
}

func TestResolveCustomerAmbiguousName(t *testing.T) {
	s, _ := setupService(t)
	res, err := s.ResolveCustomer(context.Background(), "", "John")
	if err != nil {
		t.Fatalf("ResolveCustomer: %v", err)
	}
	if !res.Ambiguous() {
		t.Fatalf("expected ambiguity for 'John', got %+v", res)
	}
	if len(res.Candidates) != 3 {
		// John Smith, John Doe, Sarah Johnson all contain "john".
		t.Errorf("candidates: got %d, want 3", len(res.Candidates))
	}
}

func TestResolveCustomerUniqueName(t *testing.T) {
	s, _ := setupService(t)
	res, err := s.ResolveCustomer(context.Background(), "", "Smith")
	if err != nil {
		t.Fatalf("ResolveCustomer: %v", err)
	}
	if res.Customer == nil || res.Customer.ID != "CUST001" {
		t.Fatalf("expected unique match CUST001, got %+v", res)
	}
}

func TestResolveCustomerSuggestions(t *testing.T) {
	s, _ := setupService(t)
	res, err := s.ResolveCustomer(context.Background(), "", "Jhon")
	if err != nil {
		t.Fatalf("ResolveCustomer: %v", err)
	}
	if res.Customer != nil || res.Ambiguous() {
		t.Fatalf("typo should not resolve: %+v", res)
	}
	if len(res.Suggestions) == 0 {
		t.Fatal("expected did-you-mean suggestions for 'Jhon'")
	}
}

func TestValidateInvoice(t *testing.T) {
	s, store := setupService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mustInsert := func(inv ledger.Invoice) {
		t.Helper()
		if err := store.InsertInvoice(ctx, inv); err != nil {
			t.Fatalf("InsertInvoice(%s): %v", inv.ID, err)
		}
	}
	mustInsert(ledger.Invoice{ID: "INV001", CustomerID: "CUST001", OriginalAmount: 5000, CurrentAmount: 5000,
		Status: ledger.InvoicePending, PaymentStatus: ledger.PaymentPending, DueDate: now})
	mustInsert(ledger.Invoice{ID: "INV002", CustomerID: "CUST001", OriginalAmount: 5000, CurrentAmount: 0,
		Status: ledger.InvoicePaid, PaymentStatus: ledger.PaymentPaid, DueDate: now})
	mustInsert(ledger.Invoice{ID: "INV003", CustomerID: "CUST002", OriginalAmount: 5000, CurrentAmount: 5000,
		Status: ledger.InvoicePending, PaymentStatus: ledger.PaymentPending, DueDate: now})

	if _, err := s.ValidateInvoice(ctx, "INV001", "CUST001"); err != nil {
		t.Errorf("open owned invoice: %v", err)
	}
	if _, err := s.ValidateInvoice(ctx, "INV404", "CUST001"); !errors.Is(err, ledger.ErrInvoiceNotFound) {
		t.Errorf("missing invoice: %v", err)
	}
	if _, err := s.ValidateInvoice(ctx, "INV002", "CUST001"); !errors.Is(err, ledger.ErrInvoiceClosed) {
		t.Errorf("paid invoice: %v", err)
	}
	inv, err := s.ValidateInvoice(ctx, "INV003", "CUST001")
	if !errors.Is(err, ledger.ErrInvoiceNotOwned) {
		t.Errorf("foreign invoice: %v", err)
	}
	if inv == nil || inv.CustomerID != "CUST002" {
		t.Errorf("ownership failure must return the invoice for owner lookup, got %+v", inv)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"john", "john", 0},
		{"jhon", "john", 2},
		{"sara", "sarah", 1},
		{"", "abc", 3},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q): got %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
