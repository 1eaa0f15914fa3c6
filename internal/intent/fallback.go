package intent

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	customerIDPattern = regexp.MustCompile(`(?i)\bCUST[-_]?\d+\b`)
	invoiceIDPattern  = regexp.MustCompile(`(?i)\bINV[-_]?\d+\b`)

	// dollarPattern matches "$50", "$ 1,250.50".
	dollarPattern = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	// bareAmountPattern matches "50 dollars", "12.50 usd".
	bareAmountPattern = regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s*(?:dollars?|usd|bucks)\b`)

	quantityPattern = regexp.MustCompile(`(?i)\bmissing\s+([0-9]+)\b|\b([0-9]+)\s+(?:units?|items?)\s+missing\b`)
)

var balanceKeywords = []string{
	"balance", "how much credit", "how many credits", "available credit",
	"credits available", "credit do", "credits do", "remaining credit",
}

var historyKeywords = []string{
	"history", "purchases", "purchased", "bought", "orders", "past invoices",
	"payment record",
}

// Parse deterministically derives intent and slots from raw text. It is the
// fallback for the language-model extractor and the arbiter when the model's
// classification contradicts the literal text.
func Parse(text string) *Extraction {
	ex := &Extraction{Intent: General}
	lower := strings.ToLower(text)

	if m := customerIDPattern.FindString(text); m != "" {
		ex.CustomerID = normalizeID(m, "CUST")
	}
	if m := invoiceIDPattern.FindString(text); m != "" {
		ex.InvoiceID = normalizeID(m, "INV")
	}

	// Redact ID tokens before scanning for amounts so digits embedded in an
	// invoice or customer id are never read as money.
	redacted := invoiceIDPattern.ReplaceAllString(customerIDPattern.ReplaceAllString(text, " "), " ")
	if amount, ok := findAmount(redacted); ok {
		ex.CreditAmount = &amount
	}

	ex.Intent = classify(lower, ex)

	switch ex.Intent {
	case PartialPayment:
		ex.PaidAmount, ex.CreditAmount = ex.CreditAmount, nil
	case QuantityDiscrepancy:
		if m := quantityPattern.FindStringSubmatch(text); m != nil {
			raw := m[1]
			if raw == "" {
				raw = m[2]
			}
			if n, err := strconv.Atoi(raw); err == nil {
				ex.MissingQuantity = &n
			}
		}
	case DamageReport:
		ex.DamageDescription = strings.TrimSpace(text)
	case CreditMemoApproval:
		switch {
		case containsAny(lower, "apply", "approve", "accept", "yes"):
			ex.CustomerChoice = "apply"
		case containsAny(lower, "reject", "decline", "refuse", "no"):
			ex.CustomerChoice = "reject"
		}
	}

	return ex
}

// classify walks the keyword-priority ladder.
func classify(lower string, ex *Extraction) Intent {
	switch {
	case containsAny(lower, balanceKeywords...):
		return CreditBalanceInquiry
	// Memo dispositions mention "apply"/"credit" too, so they outrank the
	// application cases.
	case strings.Contains(lower, "memo") && containsAny(lower, "approve", "apply", "reject", "decline", "accept", "refuse"):
		return CreditMemoApproval
	case strings.Contains(lower, "apply") && strings.Contains(lower, "credit"):
		return CreditApplication
	case containsAny(lower, "add", "give", "create", "issue") && strings.Contains(lower, "credit") && !strings.Contains(lower, "memo"):
		return AddCredits
	case strings.Contains(lower, "invoice") && !strings.Contains(lower, "credit"):
		if containsAny(lower, "paid", "payment") && ex.CreditAmount != nil {
			return PartialPayment
		}
		return InvoiceInquiry
	case containsAny(lower, historyKeywords...):
		return PurchaseHistory
	case hasQuantityDiscrepancy(lower):
		return QuantityDiscrepancy
	case hasDamageReport(lower):
		return DamageReport
	case containsAny(lower, "partial payment", "paid part", "partially paid"):
		return PartialPayment
	default:
		return General
	}
}

// hasQuantityDiscrepancy requires all three marker words.
func hasQuantityDiscrepancy(lower string) bool {
	return strings.Contains(lower, "missing") &&
		strings.Contains(lower, "quantity") &&
		strings.Contains(lower, "received")
}

// hasDamageReport requires "damaged" plus a corroborating word.
func hasDamageReport(lower string) bool {
	return strings.Contains(lower, "damaged") &&
		(strings.Contains(lower, "broken") || strings.Contains(lower, "defective"))
}

func findAmount(text string) (float64, bool) {
	m := dollarPattern.FindStringSubmatch(text)
	if m == nil {
		m = bareAmountPattern.FindStringSubmatch(text)
	}
	if m == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// normalizeID upper-cases an id token and strips separators, so "cust-001"
// becomes "CUST001".
func normalizeID(raw, prefix string) string {
	s := strings.ToUpper(raw)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	if !strings.HasPrefix(s, prefix) {
		return s
	}
	return s
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
