package agent

import (
	"github.com/creditdesk/creditdesk/internal/intent"
	"github.com/creditdesk/creditdesk/internal/ledger"
	"github.com/creditdesk/creditdesk/internal/tools"
)

// State is the orchestrator's position in the conversation flow.
type State string

const (
	StateAnalyzing            State = "ANALYZING"
	StateWaitingClarification State = "WAITING_FOR_CLARIFICATION"
	StateWaitingConfirmation  State = "WAITING_FOR_CONFIRMATION"
	StateExecuting            State = "EXECUTING"
	StateCompleted            State = "COMPLETED"
)

// ResponseType classifies a turn response for the client.
type ResponseType string

const (
	TypeSuccess             ResponseType = "success"
	TypeError               ResponseType = "error"
	TypeInfo                ResponseType = "info"
	TypeWarning             ResponseType = "warning"
	TypeCancelled           ResponseType = "cancelled"
	TypeClarificationNeeded ResponseType = "clarification_needed"
	TypeConfirmationNeeded  ResponseType = "confirmation_needed"
	TypeInsufficientCredits ResponseType = "insufficient_credits"
	TypeNoPendingInvoices   ResponseType = "no_pending_invoices"
)

// Candidate is one disambiguation option offered to the user.
type Candidate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
}

// Response is one turn's reply.
type Response struct {
	Message    string       `json:"message"`
	Type       ResponseType `json:"type"`
	AgentState string       `json:"agentState"`
	Options    []Candidate  `json:"options,omitempty"`
}

// pendingAction names the write awaiting confirmation.
type pendingAction int

const (
	pendingNone pendingAction = iota
	pendingApplyPlan
	pendingAddCredits
	pendingPartialPayment
	pendingCreateMemo
	pendingResolveMemo
)

// workingContext is the orchestrator's in-memory scratch state for the
// conversation in flight. It is cleared on reset, cancel, and completion.
type workingContext struct {
	originalRequest string
	extraction      *intent.Extraction

	// candidates and clarification hold an unresolved ambiguity.
	candidates    []ledger.Customer
	clarification string

	// customer and invoice are the confirmed entities.
	customer *ledger.Customer
	invoice  *ledger.Invoice

	// plan and pending describe the validated mutation awaiting a yes.
	plan        *tools.ApplicationPlan
	pending     pendingAction
	amount      int64  // cents, for non-plan writes
	memoID      string // for pendingResolveMemo
	memoSource  string // for pendingCreateMemo
	memoReason  string
	approveMemo bool
}

func (w *workingContext) clear() {
	*w = workingContext{}
}

func candidatesFrom(customers []ledger.Customer) []Candidate {
	out := make([]Candidate, 0, len(customers))
	for _, c := range customers {
		out = append(out, Candidate{ID: c.ID, Name: c.Name, Company: c.Company})
	}
	return out
}
