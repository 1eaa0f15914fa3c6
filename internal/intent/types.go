// Package intent classifies user utterances and extracts slots from them.
// The language-model path is treated as an untrusted input source: its
// output is always passed through a deterministic sanitizer, and a regex
// fallback re-derives intent when the model errs or under-delivers.
package intent

// Intent is the classified purpose of an utterance.
type Intent string

const (
	CreditApplication    Intent = "credit_application"
	CreditBalanceInquiry Intent = "credit_balance_inquiry"
	PurchaseHistory      Intent = "purchase_history"
	InvoiceInquiry       Intent = "invoice_inquiry"
	QuantityDiscrepancy  Intent = "quantity_discrepancy"
	DamageReport         Intent = "damage_report"
	CreditMemoApproval   Intent = "credit_memo_approval"
	PartialPayment       Intent = "partial_payment"
	AddCredits           Intent = "add_credits"
	General              Intent = "general"
)

// All lists every recognized intent.
var All = []Intent{
	CreditApplication, CreditBalanceInquiry, PurchaseHistory, InvoiceInquiry,
	QuantityDiscrepancy, DamageReport, CreditMemoApproval, PartialPayment,
	AddCredits, General,
}

// Valid reports whether i is a recognized intent.
func (i Intent) Valid() bool {
	for _, v := range All {
		if i == v {
			return true
		}
	}
	return false
}

// Mutating reports whether the intent leads to a ledger write and therefore
// requires confirmation.
func (i Intent) Mutating() bool {
	switch i {
	case CreditApplication, AddCredits, PartialPayment, QuantityDiscrepancy, DamageReport, CreditMemoApproval:
		return true
	default:
		return false
	}
}

// Extraction is the structured reading of one utterance. Pointer fields are
// nil when the slot was absent; a non-numeric amount is absent, never zero.
type Extraction struct {
	Intent            Intent   `json:"intent"`
	CustomerName      string   `json:"customer_name,omitempty"`
	CustomerID        string   `json:"customer_id,omitempty"`
	CreditAmount      *float64 `json:"credit_amount,omitempty"`
	InvoiceID         string   `json:"invoice_id,omitempty"`
	MissingQuantity   *int     `json:"missing_quantity,omitempty"`
	ItemDescription   string   `json:"item_description,omitempty"`
	DamageDescription string   `json:"damage_description,omitempty"`
	CustomerChoice    string   `json:"customer_choice,omitempty"`
	PaidAmount        *float64 `json:"paid_amount,omitempty"`
	InvoiceAmount     *float64 `json:"invoice_amount,omitempty"`
}

// HasCustomer reports whether any customer reference was extracted.
func (e *Extraction) HasCustomer() bool {
	return e.CustomerID != "" || e.CustomerName != ""
}
