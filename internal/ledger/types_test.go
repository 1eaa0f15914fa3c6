package ledger

import (
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 6, 0)
	past := now.AddDate(0, -1, 0)

	cases := []struct {
		name   string
		credit Credit
		want   CreditStatus
	}{
		{"untouched", Credit{Amount: 100, OriginalAmount: 100, ExpiryDate: future}, CreditActive},
		{"partial", Credit{Amount: 40, OriginalAmount: 100, ExpiryDate: future}, CreditPartiallyUsed},
		{"drained", Credit{Amount: 0, OriginalAmount: 100, ExpiryDate: future}, CreditUsed},
		{"expired wins over usage", Credit{Amount: 40, OriginalAmount: 100, ExpiryDate: past}, CreditExpired},
		{"expired and drained", Credit{Amount: 0, OriginalAmount: 100, ExpiryDate: past}, CreditExpired},
	}
	for _, tc := range cases {
		if got := tc.credit.DeriveStatus(now); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestAvailable(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ok := Credit{Amount: 50, OriginalAmount: 100, ExpiryDate: now.AddDate(0, 1, 0)}
	if !ok.Available(now) {
		t.Error("partially used unexpired credit should be available")
	}
	expired := Credit{Amount: 50, OriginalAmount: 100, ExpiryDate: now.AddDate(0, -1, 0)}
	if expired.Available(now) {
		t.Error("expired credit must not be available")
	}
	drained := Credit{Amount: 0, OriginalAmount: 100, ExpiryDate: now.AddDate(0, 1, 0)}
	if drained.Available(now) {
		t.Error("drained credit must not be available")
	}
}

func TestMoneyConversions(t *testing.T) {
	if got := Cents(50.00); got != 5000 {
		t.Errorf("Cents(50.00): got %d", got)
	}
	if got := Cents(19.99); got != 1999 {
		t.Errorf("Cents(19.99): got %d", got)
	}
	// Float drift must round, not truncate.
	if got := Cents(0.29); got != 29 {
		t.Errorf("Cents(0.29): got %d", got)
	}
	if got := FormatUSD(5000); got != "$50.00" {
		t.Errorf("FormatUSD(5000): got %q", got)
	}
	if got := FormatUSD(80); got != "$0.80" {
		t.Errorf("FormatUSD(80): got %q", got)
	}
	if got := Dollars(1999); got != 19.99 {
		t.Errorf("Dollars(1999): got %v", got)
	}
}
