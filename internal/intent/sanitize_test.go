package intent

import "testing"

func TestSanitizeDiscardsHallucinatedName(t *testing.T) {
	ex := &Extraction{Intent: CreditApplication, CustomerName: "Maria Garcia"}
	out := Sanitize(ex, "apply $50 credit for CUST001")
	if out.CustomerName != "" {
		t.Errorf("hallucinated name survived: %q", out.CustomerName)
	}
	if out.CustomerID != "CUST001" {
		t.Errorf("id not recovered from text: %q", out.CustomerID)
	}
}

func TestSanitizeKeepsLiteralName(t *testing.T) {
	ex := &Extraction{Intent: CreditApplication, CustomerName: "john smith"}
	out := Sanitize(ex, "apply $50 credit for John Smith")
	if out.CustomerName != "john smith" {
		t.Errorf("literal name was discarded: %q", out.CustomerName)
	}
}

func TestSanitizeDiscardsInventedID(t *testing.T) {
	ex := &Extraction{Intent: CreditBalanceInquiry, CustomerID: "CUST999"}
	out := Sanitize(ex, "what's the balance for John Smith")
	if out.CustomerID != "" {
		t.Errorf("invented id survived: %q", out.CustomerID)
	}
}

func TestSanitizeRepairsMangledID(t *testing.T) {
	ex := &Extraction{Intent: CreditBalanceInquiry, CustomerID: "CUST010"}
	out := Sanitize(ex, "what's the balance for CUST001")
	if out.CustomerID != "CUST001" {
		t.Errorf("id not repaired from text: %q", out.CustomerID)
	}
}

func TestSanitizeAcceptsSeparatorVariants(t *testing.T) {
	// CUST001 extracted from an utterance spelling it "cust-001".
	ex := &Extraction{Intent: CreditBalanceInquiry, CustomerID: "CUST001"}
	out := Sanitize(ex, "balance for cust-001 please")
	if out.CustomerID != "CUST001" {
		t.Errorf("separator variant rejected: %q", out.CustomerID)
	}
}

func TestSanitizeDowngradesUnsupportedDiscrepancy(t *testing.T) {
	ex := &Extraction{Intent: QuantityDiscrepancy, CustomerID: "CUST001"}
	out := Sanitize(ex, "what's the available credit for CUST001")
	if out.Intent != CreditBalanceInquiry {
		t.Errorf("got %s, want downgrade to credit_balance_inquiry", out.Intent)
	}

	ex = &Extraction{Intent: DamageReport, CustomerID: "CUST001"}
	out = Sanitize(ex, "hi there CUST001")
	if out.Intent != General {
		t.Errorf("got %s, want downgrade to general", out.Intent)
	}
}

func TestSanitizeKeepsSupportedDiscrepancy(t *testing.T) {
	ex := &Extraction{Intent: QuantityDiscrepancy, CustomerID: "CUST001"}
	out := Sanitize(ex, "CUST001 received the wrong quantity, missing 3 units")
	if out.Intent != QuantityDiscrepancy {
		t.Errorf("supported discrepancy downgraded to %s", out.Intent)
	}
}

func TestSanitizeInvalidIntent(t *testing.T) {
	ex := &Extraction{Intent: Intent("made_up_intent")}
	if out := Sanitize(ex, "hello"); out.Intent != General {
		t.Errorf("invalid intent: got %s, want general", out.Intent)
	}
}
