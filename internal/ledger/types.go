package ledger

import "time"

// CreditStatus describes the lifecycle of a credit.
type CreditStatus string

const (
	CreditActive        CreditStatus = "active"
	CreditPartiallyUsed CreditStatus = "partially_used"
	CreditUsed          CreditStatus = "used"
	CreditExpired       CreditStatus = "expired"
)

// InvoiceStatus describes the lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// PaymentStatus tracks how much of an invoice has been settled.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// MemoStatus describes the disposition of a credit memo.
type MemoStatus string

const (
	MemoPending  MemoStatus = "pending"
	MemoApproved MemoStatus = "approved"
	MemoRejected MemoStatus = "rejected"
)

// Customer is a ledger account holder. Identity fields are immutable.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreditUsage is one append-only entry in a credit's usage history.
type CreditUsage struct {
	ID               string    `json:"id"`
	CreditID         string    `json:"credit_id"`
	UsedAt           time.Time `json:"used_at"`
	Amount           int64     `json:"amount"`
	AppliedToInvoice string    `json:"applied_to_invoice"`
	Description      string    `json:"description"`
}

// Credit is a spendable balance owned by a customer. Amounts are cents.
type Credit struct {
	ID             string        `json:"id"`
	CustomerID     string        `json:"customer_id"`
	Amount         int64         `json:"amount"`
	OriginalAmount int64         `json:"original_amount"`
	Status         CreditStatus  `json:"status"`
	EarnedDate     time.Time     `json:"earned_date"`
	ExpiryDate     time.Time     `json:"expiry_date"`
	Usage          []CreditUsage `json:"usage,omitempty"`
}

// DeriveStatus computes the status a credit should carry given its amounts
// and the current time. Expiry wins over usage.
func (c *Credit) DeriveStatus(now time.Time) CreditStatus {
	if now.After(c.ExpiryDate) {
		return CreditExpired
	}
	switch {
	case c.Amount == 0:
		return CreditUsed
	case c.Amount < c.OriginalAmount:
		return CreditPartiallyUsed
	default:
		return CreditActive
	}
}

// Available reports whether the credit can still be applied.
func (c *Credit) Available(now time.Time) bool {
	if c.Amount <= 0 || now.After(c.ExpiryDate) {
		return false
	}
	s := c.DeriveStatus(now)
	return s == CreditActive || s == CreditPartiallyUsed
}

// Invoice is a receivable owed by a customer. Amounts are cents.
type Invoice struct {
	ID               string        `json:"id"`
	CustomerID       string        `json:"customer_id"`
	OriginalAmount   int64         `json:"original_amount"`
	CurrentAmount    int64         `json:"current_amount"`
	CreditsApplied   int64         `json:"credits_applied"`
	AppliedCreditIDs []string      `json:"applied_credit_ids"`
	Status           InvoiceStatus `json:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	DueDate          time.Time     `json:"due_date"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Open reports whether the invoice can still receive credits or payments.
func (i *Invoice) Open() bool {
	return i.Status == InvoicePending || i.Status == InvoiceOverdue
}

// CreditMemo is a pending credit record created from a discrepancy or damage
// report, awaiting the customer's disposition choice.
type CreditMemo struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	Amount     int64      `json:"amount"`
	Reason     string     `json:"reason"`
	Source     string     `json:"source"`
	Status     MemoStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// PaymentHistory summarizes a customer's recent invoicing and payment behavior.
type PaymentHistory struct {
	CustomerID    string `json:"customer_id"`
	Months        int    `json:"months"`
	InvoiceCount  int    `json:"invoice_count"`
	PaidCount     int    `json:"paid_count"`
	OverdueCount  int    `json:"overdue_count"`
	TotalInvoiced int64  `json:"total_invoiced"`
	TotalSettled  int64  `json:"total_settled"`
	Outstanding   int64  `json:"outstanding"`
}
