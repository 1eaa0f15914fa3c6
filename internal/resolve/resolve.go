// Package resolve turns loose entity references from user text into
// validated ledger records, or into candidate/suggestion lists when the
// reference is ambiguous or unknown.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/creditdesk/creditdesk/internal/ledger"
)

// maxSuggestionDistance bounds the edit distance for "did you mean" matches.
const maxSuggestionDistance = 3

// Service performs entity resolution and ownership/status validation.
type Service struct {
	store *ledger.Store
}

// New creates a resolution service over the given ledger store.
func New(store *ledger.Store) *Service {
	return &Service{store: store}
}

// Resolution is the outcome of resolving a customer reference.
type Resolution struct {
	// Customer is set when the reference resolved to exactly one record.
	Customer *ledger.Customer
	// Candidates holds all matches when the reference was ambiguous (>1).
	Candidates []ledger.Customer
	// Suggestions holds near-miss names when nothing matched.
	Suggestions []ledger.Customer
}

// Ambiguous reports whether clarification is required.
func (r *Resolution) Ambiguous() bool { return len(r.Candidates) > 1 }

// ResolveCustomer resolves a customer reference: an id takes priority over a
// name. Exactly one match resolves silently; several matches become
// candidates; zero matches produce fuzzy suggestions.
func (s *Service) ResolveCustomer(ctx context.Context, id, name string) (*Resolution, error) {
	if id != "" {
		c, err := s.store.GetCustomer(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return &Resolution{Customer: c}, nil
		}
		// Fall through to the name, if one was extracted alongside the id.
	}

	ref := name
	if ref == "" {
		ref = id
	}
	if ref == "" {
		return &Resolution{}, nil
	}

	matches, err := s.store.SearchCustomers(ctx, ref)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		suggestions, err := s.SuggestCustomers(ctx, ref)
		if err != nil {
			return nil, err
		}
		return &Resolution{Suggestions: suggestions}, nil
	case 1:
		c := matches[0]
		return &Resolution{Customer: &c}, nil
	default:
		return &Resolution{Candidates: matches}, nil
	}
}

// SuggestCustomers returns customers whose name is within a small edit
// distance of the reference, closest first.
func (s *Service) SuggestCustomers(ctx context.Context, ref string) ([]ledger.Customer, error) {
	all, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		c    ledger.Customer
		dist int
	}
	var near []scored
	lower := strings.ToLower(ref)
	for _, c := range all {
		d := levenshtein(lower, strings.ToLower(c.Name))
		if fd := firstNameDistance(lower, c.Name); fd < d {
			d = fd
		}
		if d <= maxSuggestionDistance {
			near = append(near, scored{c: c, dist: d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })

	out := make([]ledger.Customer, 0, len(near))
	for _, s := range near {
		out = append(out, s.c)
	}
	return out, nil
}

// firstNameDistance compares the reference against just the first word of a
// customer name, so "Jhon" still suggests "John Smith".
func firstNameDistance(ref, name string) int {
	first, _, _ := strings.Cut(strings.ToLower(name), " ")
	return levenshtein(ref, first)
}

// ValidateInvoice checks that an invoice exists, belongs to the customer,
// and can still receive credits or payments.
func (s *Service) ValidateInvoice(ctx context.Context, invoiceID, customerID string) (*ledger.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, ledger.ErrInvoiceNotFound)
	}
	if !strings.EqualFold(inv.CustomerID, customerID) {
		return inv, fmt.Errorf("invoice %s: %w", invoiceID, ledger.ErrInvoiceNotOwned)
	}
	if inv.Status == ledger.InvoicePaid || inv.PaymentStatus == ledger.PaymentPaid {
		return inv, fmt.Errorf("invoice %s: %w", invoiceID, ledger.ErrInvoiceClosed)
	}
	if inv.Status == ledger.InvoiceCancelled {
		return inv, fmt.Errorf("invoice %s: %w", invoiceID, ledger.ErrInvoiceClosed)
	}
	return inv, nil
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = minInt(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
