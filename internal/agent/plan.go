package agent

import (
	"sort"

	"github.com/creditdesk/creditdesk/internal/ledger"
	"github.com/creditdesk/creditdesk/internal/tools"
)

// planStep derives the costed line for applying amount to one invoice.
func planStep(inv ledger.Invoice, amount int64) tools.PlanStep {
	newBalance := inv.CurrentAmount - amount
	newStatus := inv.Status
	if newBalance == 0 {
		newStatus = ledger.InvoicePaid
	}
	return tools.PlanStep{
		InvoiceID:      inv.ID,
		Amount:         amount,
		CurrentBalance: inv.CurrentAmount,
		NewBalance:     newBalance,
		CurrentStatus:  inv.Status,
		NewStatus:      newStatus,
	}
}

// buildPlanForInvoice allocates up to requested cents against one named
// invoice, clamped to its remaining balance.
func buildPlanForInvoice(customerID string, inv ledger.Invoice, requested int64) *tools.ApplicationPlan {
	amount := requested
	if amount > inv.CurrentAmount {
		amount = inv.CurrentAmount
	}
	return &tools.ApplicationPlan{
		CustomerID: customerID,
		Total:      amount,
		Steps:      []tools.PlanStep{planStep(inv, amount)},
	}
}

// buildPlanAcrossInvoices greedily allocates requested cents across the
// customer's pending invoices, smallest remaining balance first so each
// dollar pays off as many invoices as possible.
func buildPlanAcrossInvoices(customerID string, invoices []ledger.Invoice, requested int64) *tools.ApplicationPlan {
	sorted := make([]ledger.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CurrentAmount != sorted[j].CurrentAmount {
			return sorted[i].CurrentAmount < sorted[j].CurrentAmount
		}
		return sorted[i].ID < sorted[j].ID
	})

	plan := &tools.ApplicationPlan{CustomerID: customerID}
	remaining := requested
	for _, inv := range sorted {
		if remaining == 0 {
			break
		}
		if inv.CurrentAmount == 0 {
			continue
		}
		amount := remaining
		if amount > inv.CurrentAmount {
			amount = inv.CurrentAmount
		}
		plan.Steps = append(plan.Steps, planStep(inv, amount))
		plan.Total += amount
		remaining -= amount
	}
	return plan
}
