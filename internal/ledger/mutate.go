package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Allocation is one step of an application plan: apply Amount cents of
// credit to the named invoice.
type Allocation struct {
	InvoiceID string `json:"invoice_id"`
	Amount    int64  `json:"amount"`
}

// CreditDraw records how much was consumed from one credit during an
// application.
type CreditDraw struct {
	CreditID  string `json:"credit_id"`
	Amount    int64  `json:"amount"`
	Remaining int64  `json:"remaining"`
}

// InvoiceChange captures an invoice before and after a mutation.
type InvoiceChange struct {
	Before Invoice `json:"before"`
	After  Invoice `json:"after"`
}

// ApplicationResult is the transaction record of one executed application.
type ApplicationResult struct {
	CustomerID string          `json:"customer_id"`
	Total      int64           `json:"total"`
	Invoices   []InvoiceChange `json:"invoices"`
	Draws      []CreditDraw    `json:"credits_used"`
}

// ApplyCredits executes an application plan atomically under the customer's
// lock. Every step is validated against current ledger state before any write:
// if one step cannot be applied, nothing is applied. Credits are consumed
// earliest expiry first.
func (s *Store) ApplyCredits(ctx context.Context, customerID string, allocs []Allocation, now time.Time) (*ApplicationResult, error) {
	unlock := s.locks.lock(customerID)
	defer unlock()

	var total int64
	for _, a := range allocs {
		if a.Amount <= 0 {
			return nil, fmt.Errorf("allocation for %s: %w", a.InvoiceID, ErrInvalidAmount)
		}
		total += a.Amount
	}
	if total == 0 {
		return nil, ErrInvalidAmount
	}

	availTotal, credits, err := s.AvailableCredits(ctx, customerID, now)
	if err != nil {
		return nil, err
	}
	if availTotal < total {
		return nil, ErrInsufficientCredits
	}

	// Pre-flight: every invoice must be applicable before anything is written.
	result := &ApplicationResult{CustomerID: customerID, Total: total}
	for _, a := range allocs {
		inv, err := s.GetInvoice(ctx, a.InvoiceID)
		if err != nil {
			return nil, err
		}
		if inv == nil {
			return nil, fmt.Errorf("invoice %s: %w", a.InvoiceID, ErrInvoiceNotFound)
		}
		if inv.CustomerID != customerID {
			return nil, fmt.Errorf("invoice %s: %w", a.InvoiceID, ErrInvoiceNotOwned)
		}
		if !inv.Open() {
			return nil, fmt.Errorf("invoice %s: %w", a.InvoiceID, ErrInvoiceClosed)
		}
		if a.Amount > inv.CurrentAmount {
			return nil, fmt.Errorf("allocation %s exceeds invoice %s balance %s: %w",
				FormatUSD(a.Amount), inv.ID, FormatUSD(inv.CurrentAmount), ErrInvalidAmount)
		}
		result.Invoices = append(result.Invoices, InvoiceChange{Before: *inv})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	draws := map[string]*CreditDraw{}
	ci := 0
	for i, a := range allocs {
		remaining := a.Amount
		var drawnFrom []string
		for remaining > 0 {
			if ci >= len(credits) {
				return nil, ErrInsufficientCredits
			}
			credit := &credits[ci]
			if credit.Amount == 0 {
				ci++
				continue
			}
			draw := min64(credit.Amount, remaining)
			credit.Amount -= draw
			remaining -= draw
			drawnFrom = append(drawnFrom, credit.ID)

			if err := applyDraw(ctx, tx, credit, draw, a.InvoiceID, now); err != nil {
				return nil, err
			}

			d, ok := draws[credit.ID]
			if !ok {
				d = &CreditDraw{CreditID: credit.ID}
				draws[credit.ID] = d
			}
			d.Amount += draw
			d.Remaining = credit.Amount
		}

		change := &result.Invoices[i]
		after := change.Before
		after.CurrentAmount -= a.Amount
		after.CreditsApplied += a.Amount
		if after.CurrentAmount == 0 {
			after.Status = InvoicePaid
			after.PaymentStatus = PaymentPaid
		} else {
			after.PaymentStatus = PaymentPartial
		}
		for _, id := range drawnFrom {
			if !contains(after.AppliedCreditIDs, id) {
				after.AppliedCreditIDs = append(after.AppliedCreditIDs, id)
			}
		}
		change.After = after

		ids, err := json.Marshal(after.AppliedCreditIDs)
		if err != nil {
			return nil, fmt.Errorf("encoding applied credit ids: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE invoices SET current_amount = ?, credits_applied = ?, applied_credit_ids = ?, status = ?, payment_status = ?, updated_at = ? WHERE id = ?`,
			after.CurrentAmount, after.CreditsApplied, string(ids), after.Status, after.PaymentStatus, now, after.ID,
		); err != nil {
			return nil, fmt.Errorf("updating invoice %s: %w", after.ID, err)
		}
	}

	// Report draws in consumption order.
	for _, c := range credits {
		if d, ok := draws[c.ID]; ok {
			result.Draws = append(result.Draws, *d)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing application: %w", err)
	}
	return result, nil
}

// applyDraw deducts draw cents from a credit and appends a usage entry.
func applyDraw(ctx context.Context, tx *sql.Tx, credit *Credit, draw int64, invoiceID string, now time.Time) error {
	status := credit.DeriveStatus(now)
	if _, err := tx.ExecContext(ctx,
		`UPDATE credits SET amount = ?, status = ?, updated_at = ? WHERE id = ?`,
		credit.Amount, status, now, credit.ID,
	); err != nil {
		return fmt.Errorf("updating credit %s: %w", credit.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO credit_usage (id, credit_id, used_at, amount, applied_to_invoice, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), credit.ID, now, draw, invoiceID,
		fmt.Sprintf("applied %s to invoice %s", FormatUSD(draw), invoiceID),
	); err != nil {
		return fmt.Errorf("recording credit usage: %w", err)
	}
	return nil
}

// AddCredit creates a new active credit for the customer.
func (s *Store) AddCredit(ctx context.Context, customerID string, amount int64, expiry time.Time, now time.Time) (*Credit, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	c := Credit{
		ID:             uuid.New().String(),
		CustomerID:     customerID,
		Amount:         amount,
		OriginalAmount: amount,
		Status:         CreditActive,
		EarnedDate:     now,
		ExpiryDate:     expiry,
	}
	if err := s.InsertCredit(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordPayment applies a cash payment to an invoice under the customer's
// lock. Payments above the remaining balance are clamped to it.
func (s *Store) RecordPayment(ctx context.Context, customerID, invoiceID string, amount int64, now time.Time) (*InvoiceChange, error) {
	unlock := s.locks.lock(customerID)
	defer unlock()

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	if inv.CustomerID != customerID {
		return nil, ErrInvoiceNotOwned
	}
	if !inv.Open() {
		return nil, ErrInvoiceClosed
	}

	paid := min64(amount, inv.CurrentAmount)
	after := *inv
	after.CurrentAmount -= paid
	if after.CurrentAmount == 0 {
		after.Status = InvoicePaid
		after.PaymentStatus = PaymentPaid
	} else {
		after.PaymentStatus = PaymentPartial
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET current_amount = ?, status = ?, payment_status = ?, updated_at = ? WHERE id = ?`,
		after.CurrentAmount, after.Status, after.PaymentStatus, now, after.ID,
	); err != nil {
		return nil, fmt.Errorf("updating invoice %s: %w", after.ID, err)
	}
	return &InvoiceChange{Before: *inv, After: after}, nil
}

// CreateMemo records a pending credit memo for a discrepancy or damage report.
func (s *Store) CreateMemo(ctx context.Context, customerID string, amount int64, reason, source string, now time.Time) (*CreditMemo, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	m := CreditMemo{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Amount:     amount,
		Reason:     reason,
		Source:     source,
		Status:     MemoPending,
		CreatedAt:  now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credit_memos (id, customer_id, amount, reason, source, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CustomerID, m.Amount, m.Reason, m.Source, m.Status, m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting credit memo: %w", err)
	}
	return &m, nil
}

// GetMemo returns the memo with the given id, or nil if absent.
func (s *Store) GetMemo(ctx context.Context, id string) (*CreditMemo, error) {
	var m CreditMemo
	var resolved sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, customer_id, amount, reason, source, status, created_at, resolved_at
		 FROM credit_memos WHERE id = ?`, id,
	).Scan(&m.ID, &m.CustomerID, &m.Amount, &m.Reason, &m.Source, &m.Status, &m.CreatedAt, &resolved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting credit memo: %w", err)
	}
	if resolved.Valid {
		t := resolved.Time
		m.ResolvedAt = &t
	}
	return &m, nil
}

// ResolveMemo approves or rejects a pending memo. Approval materializes a
// credit with the given expiry.
func (s *Store) ResolveMemo(ctx context.Context, memoID string, approve bool, expiry time.Time, now time.Time) (*CreditMemo, *Credit, error) {
	m, err := s.GetMemo(ctx, memoID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, ErrMemoNotFound
	}
	if m.Status != MemoPending {
		return nil, nil, ErrMemoResolved
	}

	status := MemoRejected
	var credit *Credit
	if approve {
		status = MemoApproved
		credit, err = s.AddCredit(ctx, m.CustomerID, m.Amount, expiry, now)
		if err != nil {
			return nil, nil, err
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE credit_memos SET status = ?, resolved_at = ? WHERE id = ?`,
		status, now, memoID,
	); err != nil {
		return nil, nil, fmt.Errorf("resolving credit memo: %w", err)
	}
	m.Status = status
	m.ResolvedAt = &now
	return m, credit, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
