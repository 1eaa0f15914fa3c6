package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/creditdesk/creditdesk/internal/db"
)

// Sentinel errors returned by store operations. Callers map these onto
// user-facing error types.
var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvoiceNotOwned     = errors.New("invoice belongs to another customer")
	ErrInvoiceClosed       = errors.New("invoice is already settled or cancelled")
	ErrInsufficientCredits = errors.New("insufficient available credits")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrMemoNotFound        = errors.New("credit memo not found")
	ErrMemoResolved        = errors.New("credit memo already resolved")
)

// Store provides queries and mutations over the ledger tables.
type Store struct {
	db    *db.DB
	locks *customerLocks
}

// NewStore creates a ledger store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, locks: newCustomerLocks()}
}

// CreateCustomer inserts a new customer record.
func (s *Store) CreateCustomer(ctx context.Context, c Customer) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = "active"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, company, email, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Company, c.Email, c.Status, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting customer: %w", err)
	}
	return nil
}

// GetCustomer returns the customer with the given id, or nil if absent.
// The id match is case-insensitive.
func (s *Store) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, company, email, status, created_at FROM customers WHERE id = ? COLLATE NOCASE`, id,
	).Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	return &c, nil
}

// SearchCustomers finds customers whose id, name, or company contains the
// query, case-insensitive. An exact id match returns just that customer.
func (s *Store) SearchCustomers(ctx context.Context, query string) ([]Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if c, err := s.GetCustomer(ctx, query); err != nil {
		return nil, err
	} else if c != nil {
		return []Customer{*c}, nil
	}

	like := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, company, email, status, created_at FROM customers
		 WHERE lower(id) LIKE ? OR lower(name) LIKE ? OR lower(company) LIKE ?
		 ORDER BY name, id`,
		like, like, like,
	)
	if err != nil {
		return nil, fmt.Errorf("searching customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCustomers returns all customers ordered by id.
func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, company, email, status, created_at FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertCredit inserts a credit record.
func (s *Store) InsertCredit(ctx context.Context, c Credit) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credits (id, customer_id, amount, original_amount, status, earned_date, expiry_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CustomerID, c.Amount, c.OriginalAmount, c.Status, c.EarnedDate, c.ExpiryDate, now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting credit: %w", err)
	}
	return nil
}

// GetCredit returns a credit with its usage history, or nil if absent.
func (s *Store) GetCredit(ctx context.Context, id string) (*Credit, error) {
	var c Credit
	err := s.db.QueryRowContext(ctx,
		`SELECT id, customer_id, amount, original_amount, status, earned_date, expiry_date
		 FROM credits WHERE id = ?`, id,
	).Scan(&c.ID, &c.CustomerID, &c.Amount, &c.OriginalAmount, &c.Status, &c.EarnedDate, &c.ExpiryDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting credit: %w", err)
	}
	usage, err := s.creditUsage(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Usage = usage
	return &c, nil
}

func (s *Store) creditUsage(ctx context.Context, creditID string) ([]CreditUsage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, credit_id, used_at, amount, applied_to_invoice, description
		 FROM credit_usage WHERE credit_id = ? ORDER BY used_at, id`, creditID)
	if err != nil {
		return nil, fmt.Errorf("querying credit usage: %w", err)
	}
	defer rows.Close()

	var out []CreditUsage
	for rows.Next() {
		var u CreditUsage
		if err := rows.Scan(&u.ID, &u.CreditID, &u.UsedAt, &u.Amount, &u.AppliedToInvoice, &u.Description); err != nil {
			return nil, fmt.Errorf("scanning credit usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CreditsForCustomer returns all credits for a customer, usage included,
// ordered earliest expiry first.
func (s *Store) CreditsForCustomer(ctx context.Context, customerID string) ([]Credit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, amount, original_amount, status, earned_date, expiry_date
		 FROM credits WHERE customer_id = ? ORDER BY expiry_date, amount, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("querying credits: %w", err)
	}
	defer rows.Close()

	var out []Credit
	for rows.Next() {
		var c Credit
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Amount, &c.OriginalAmount, &c.Status, &c.EarnedDate, &c.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scanning credit: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		usage, err := s.creditUsage(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Usage = usage
	}
	return out, nil
}

// AvailableCredits returns the customer's spendable credits (non-expired,
// active or partially used) in deterministic consumption order: earliest
// expiry first, then smallest remaining amount, then id.
func (s *Store) AvailableCredits(ctx context.Context, customerID string, now time.Time) (int64, []Credit, error) {
	all, err := s.CreditsForCustomer(ctx, customerID)
	if err != nil {
		return 0, nil, err
	}

	var total int64
	var avail []Credit
	for _, c := range all {
		if c.Available(now) {
			total += c.Amount
			avail = append(avail, c)
		}
	}
	sort.SliceStable(avail, func(i, j int) bool {
		if !avail[i].ExpiryDate.Equal(avail[j].ExpiryDate) {
			return avail[i].ExpiryDate.Before(avail[j].ExpiryDate)
		}
		if avail[i].Amount != avail[j].Amount {
			return avail[i].Amount < avail[j].Amount
		}
		return avail[i].ID < avail[j].ID
	})
	return total, avail, nil
}

// InsertInvoice inserts an invoice record.
func (s *Store) InsertInvoice(ctx context.Context, inv Invoice) error {
	ids, err := json.Marshal(inv.AppliedCreditIDs)
	if err != nil {
		return fmt.Errorf("encoding applied credit ids: %w", err)
	}
	if inv.AppliedCreditIDs == nil {
		ids = []byte("[]")
	}
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO invoices (id, customer_id, original_amount, current_amount, credits_applied, applied_credit_ids, status, payment_status, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.CustomerID, inv.OriginalAmount, inv.CurrentAmount, inv.CreditsApplied, string(ids), inv.Status, inv.PaymentStatus, inv.DueDate, inv.CreatedAt, now,
	)
	if err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}
	return nil
}

const invoiceCols = `id, customer_id, original_amount, current_amount, credits_applied, applied_credit_ids, status, payment_status, due_date, created_at`

func scanInvoice(scan func(dest ...any) error) (*Invoice, error) {
	var inv Invoice
	var ids string
	err := scan(&inv.ID, &inv.CustomerID, &inv.OriginalAmount, &inv.CurrentAmount, &inv.CreditsApplied, &ids, &inv.Status, &inv.PaymentStatus, &inv.DueDate, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ids), &inv.AppliedCreditIDs); err != nil {
		return nil, fmt.Errorf("decoding applied credit ids: %w", err)
	}
	return &inv, nil
}

// GetInvoice returns the invoice with the given id, or nil if absent.
// The id match is case-insensitive.
func (s *Store) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE id = ? COLLATE NOCASE`, id)
	inv, err := scanInvoice(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	return inv, nil
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// PendingInvoices returns the customer's open invoices with a balance,
// smallest remaining balance first.
func (s *Store) PendingInvoices(ctx context.Context, customerID string) ([]Invoice, error) {
	return s.queryInvoices(ctx,
		`SELECT `+invoiceCols+` FROM invoices
		 WHERE customer_id = ? AND status IN ('pending','overdue') AND current_amount > 0
		 ORDER BY current_amount, id`, customerID)
}

// InvoicesForCustomer returns all invoices for a customer, newest first.
func (s *Store) InvoicesForCustomer(ctx context.Context, customerID string) ([]Invoice, error) {
	return s.queryInvoices(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE customer_id = ? ORDER BY created_at DESC, id`, customerID)
}

// OverdueInvoices returns open invoices due at least minDays before asOf.
// customerID may be empty to search across all customers.
func (s *Store) OverdueInvoices(ctx context.Context, customerID string, minDays int, asOf time.Time) ([]Invoice, error) {
	cutoff := asOf.AddDate(0, 0, -minDays)
	if customerID != "" {
		return s.queryInvoices(ctx,
			`SELECT `+invoiceCols+` FROM invoices
			 WHERE customer_id = ? AND status IN ('pending','overdue') AND current_amount > 0 AND due_date <= ?
			 ORDER BY due_date, id`, customerID, cutoff)
	}
	return s.queryInvoices(ctx,
		`SELECT `+invoiceCols+` FROM invoices
		 WHERE status IN ('pending','overdue') AND current_amount > 0 AND due_date <= ?
		 ORDER BY due_date, id`, cutoff)
}

// CustomerPaymentHistory summarizes invoices created within the given number
// of months before asOf.
func (s *Store) CustomerPaymentHistory(ctx context.Context, customerID string, months int, asOf time.Time) (*PaymentHistory, error) {
	if months <= 0 {
		months = 12
	}
	since := asOf.AddDate(0, -months, 0)
	invoices, err := s.queryInvoices(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE customer_id = ? AND created_at >= ? ORDER BY created_at`, customerID, since)
	if err != nil {
		return nil, err
	}

	h := &PaymentHistory{CustomerID: customerID, Months: months}
	for _, inv := range invoices {
		h.InvoiceCount++
		h.TotalInvoiced += inv.OriginalAmount
		h.TotalSettled += inv.OriginalAmount - inv.CurrentAmount
		switch {
		case inv.Status == InvoicePaid:
			h.PaidCount++
		case inv.Open() && inv.DueDate.Before(asOf):
			h.OverdueCount++
			h.Outstanding += inv.CurrentAmount
		case inv.Open():
			h.Outstanding += inv.CurrentAmount
		}
	}
	return h, nil
}
