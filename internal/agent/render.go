package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/creditdesk/creditdesk/internal/ledger"
	"github.com/creditdesk/creditdesk/internal/tools"
)

// detailsSeparator splits the human-readable message from the structured
// JSON payload a client may render as collapsible technical details.
const detailsSeparator = "---DETAILS---"

const apologyMessage = "Sorry, something went wrong while handling that request. The conversation has been reset; please try again."

// withDetails appends a standalone-parseable JSON blob to a message.
func withDetails(msg string, details any) string {
	blob, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return msg
	}
	return msg + "\n" + detailsSeparator + "\n" + string(blob)
}

func renderClarification(ref string, candidates []ledger.Customer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I found %d customers matching %q — which one did you mean?\n", len(candidates), ref)
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. %s (%s)", i+1, c.Name, c.ID)
		if c.Company != "" {
			fmt.Fprintf(&sb, " — %s", c.Company)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Reply with a name or id.")
	return sb.String()
}

func renderNotFound(ref string, suggestions []ledger.Customer) string {
	msg := fmt.Sprintf("I couldn't find a customer matching %q.", ref)
	if len(suggestions) > 0 {
		names := make([]string, 0, len(suggestions))
		for _, s := range suggestions {
			names = append(names, fmt.Sprintf("%s (%s)", s.Name, s.ID))
		}
		msg += " Did you mean: " + strings.Join(names, ", ") + "?"
	}
	return msg
}

func renderPlanConfirmation(customer *ledger.Customer, plan *tools.ApplicationPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Please confirm: apply %s of credit for %s (%s) as follows:\n",
		ledger.FormatUSD(plan.Total), customer.Name, customer.ID)
	for _, s := range plan.Steps {
		fmt.Fprintf(&sb, "- %s: %s, balance %s -> %s (%s -> %s)\n",
			s.InvoiceID, ledger.FormatUSD(s.Amount),
			ledger.FormatUSD(s.CurrentBalance), ledger.FormatUSD(s.NewBalance),
			s.CurrentStatus, s.NewStatus)
	}
	sb.WriteString("Reply yes to proceed or no to cancel.")
	return withDetails(sb.String(), plan)
}

func renderInsufficient(customer *ledger.Customer, requested, available int64, credits []ledger.Credit) string {
	shortfall := requested - available
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) only has %s of available credit — %s short of the requested %s.\n",
		customer.Name, customer.ID, ledger.FormatUSD(available),
		ledger.FormatUSD(shortfall), ledger.FormatUSD(requested))
	if len(credits) == 0 {
		sb.WriteString("No credits are currently available.")
	} else {
		sb.WriteString("Available credits:\n")
		for _, c := range credits {
			fmt.Fprintf(&sb, "- %s: %s remaining (expires %s)\n", c.ID, ledger.FormatUSD(c.Amount), c.ExpiryDate.Format("2006-01-02"))
		}
	}
	return withDetails(sb.String(), map[string]any{
		"requested": ledger.Dollars(requested),
		"available": ledger.Dollars(available),
		"shortfall": ledger.Dollars(shortfall),
		"credits":   credits,
	})
}

func renderReceipt(customer *ledger.Customer, result *ledger.ApplicationResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Done — applied %s of credit for %s (%s).\n",
		ledger.FormatUSD(result.Total), customer.Name, customer.ID)
	for _, ch := range result.Invoices {
		fmt.Fprintf(&sb, "- %s: %s -> %s, now %s\n",
			ch.After.ID, ledger.FormatUSD(ch.Before.CurrentAmount),
			ledger.FormatUSD(ch.After.CurrentAmount), ch.After.Status)
	}
	if len(result.Draws) > 0 {
		sb.WriteString("Credits used:\n")
		for _, d := range result.Draws {
			fmt.Fprintf(&sb, "- %s: %s used, %s remaining\n",
				d.CreditID, ledger.FormatUSD(d.Amount), ledger.FormatUSD(d.Remaining))
		}
	}
	return withDetails(sb.String(), result)
}

func renderBalance(customer *ledger.Customer, res *tools.AvailableCreditsResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) has %s of available credit.\n",
		customer.Name, customer.ID, ledger.FormatUSD(res.Total))
	for _, c := range res.Credits {
		fmt.Fprintf(&sb, "- %s: %s of %s remaining, expires %s\n",
			c.ID, ledger.FormatUSD(c.Amount), ledger.FormatUSD(c.OriginalAmount),
			c.ExpiryDate.Format("2006-01-02"))
	}
	return withDetails(strings.TrimRight(sb.String(), "\n"), res)
}

func renderInvoice(inv *ledger.Invoice) string {
	msg := fmt.Sprintf("Invoice %s: balance %s of %s, status %s, payment %s, due %s.",
		inv.ID, ledger.FormatUSD(inv.CurrentAmount), ledger.FormatUSD(inv.OriginalAmount),
		inv.Status, inv.PaymentStatus, inv.DueDate.Format("2006-01-02"))
	return withDetails(msg, inv)
}

func renderPendingInvoices(customer *ledger.Customer, invoices []ledger.Invoice) string {
	if len(invoices) == 0 {
		return fmt.Sprintf("%s (%s) has no pending invoices.", customer.Name, customer.ID)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) has %d pending invoice(s):\n", customer.Name, customer.ID, len(invoices))
	for _, inv := range invoices {
		fmt.Fprintf(&sb, "- %s: %s remaining, due %s (%s)\n",
			inv.ID, ledger.FormatUSD(inv.CurrentAmount), inv.DueDate.Format("2006-01-02"), inv.Status)
	}
	return withDetails(strings.TrimRight(sb.String(), "\n"), invoices)
}

func renderHistory(customer *ledger.Customer, h *ledger.PaymentHistory) string {
	msg := fmt.Sprintf(
		"Over the last %d months %s (%s) received %d invoice(s) totalling %s; %d paid in full, %d overdue, %s outstanding.",
		h.Months, customer.Name, customer.ID, h.InvoiceCount,
		ledger.FormatUSD(h.TotalInvoiced), h.PaidCount, h.OverdueCount,
		ledger.FormatUSD(h.Outstanding))
	return withDetails(msg, h)
}

func renderConfirmAddCredits(customer *ledger.Customer, amount int64) string {
	return fmt.Sprintf("Please confirm: add %s of new credit for %s (%s). Reply yes to proceed or no to cancel.",
		ledger.FormatUSD(amount), customer.Name, customer.ID)
}

func renderConfirmPayment(customer *ledger.Customer, inv *ledger.Invoice, amount int64) string {
	applied := amount
	if applied > inv.CurrentAmount {
		applied = inv.CurrentAmount
	}
	return fmt.Sprintf("Please confirm: record a %s payment from %s (%s) against invoice %s (balance %s -> %s). Reply yes to proceed or no to cancel.",
		ledger.FormatUSD(applied), customer.Name, customer.ID, inv.ID,
		ledger.FormatUSD(inv.CurrentAmount), ledger.FormatUSD(inv.CurrentAmount-applied))
}

func renderConfirmMemo(customer *ledger.Customer, amount int64, reason string) string {
	return fmt.Sprintf("Please confirm: open a credit memo of %s for %s (%s) — %s. Reply yes to proceed or no to cancel.",
		ledger.FormatUSD(amount), customer.Name, customer.ID, reason)
}

func renderConfirmMemoResolution(memo *ledger.CreditMemo, approve bool) string {
	if approve {
		return fmt.Sprintf("Please confirm: approve credit memo %s and add %s of credit to the account. Reply yes to proceed or no to cancel.",
			memo.ID, ledger.FormatUSD(memo.Amount))
	}
	return fmt.Sprintf("Please confirm: reject credit memo %s (%s). Reply yes to proceed or no to cancel.",
		memo.ID, ledger.FormatUSD(memo.Amount))
}
