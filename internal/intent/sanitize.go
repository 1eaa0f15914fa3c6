package intent

import "strings"

// Sanitize runs the two corrective passes every extraction goes through,
// regardless of whether it came from the model or the fallback parser.
//
// Pass 1 (hallucination): an extracted customer name that is not a literal
// substring of the utterance is discarded; a customer-id pattern is recovered
// from the raw text instead when present.
//
// Pass 2 (consistency): quantity_discrepancy and damage_report
// classifications whose keyword preconditions are not literally satisfied are
// downgraded to credit_balance_inquiry or general.
func Sanitize(ex *Extraction, utterance string) *Extraction {
	lower := strings.ToLower(utterance)

	if ex.CustomerName != "" && !strings.Contains(lower, strings.ToLower(ex.CustomerName)) {
		ex.CustomerName = ""
		if ex.CustomerID == "" {
			if m := customerIDPattern.FindString(utterance); m != "" {
				ex.CustomerID = normalizeID(m, "CUST")
			}
		}
	}

	if ex.CustomerID != "" && !strings.Contains(strings.ToUpper(utterance), strings.ToUpper(strings.TrimSpace(ex.CustomerID))) {
		// The model invented or mangled the id; trust only the literal text.
		if m := customerIDPattern.FindString(utterance); m != "" {
			ex.CustomerID = normalizeID(m, "CUST")
		} else {
			ex.CustomerID = ""
		}
	}

	switch ex.Intent {
	case QuantityDiscrepancy:
		if !hasQuantityDiscrepancy(lower) {
			ex.Intent = downgrade(lower)
		}
	case DamageReport:
		if !hasDamageReport(lower) {
			ex.Intent = downgrade(lower)
		}
	}

	if !ex.Intent.Valid() {
		ex.Intent = General
	}

	return ex
}

func downgrade(lower string) Intent {
	if containsAny(lower, balanceKeywords...) {
		return CreditBalanceInquiry
	}
	return General
}
