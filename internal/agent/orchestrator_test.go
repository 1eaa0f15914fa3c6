package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/creditdesk/creditdesk/internal/db"
	"github.com/creditdesk/creditdesk/internal/intent"
	"github.com/creditdesk/creditdesk/internal/ledger"
	"github.com/creditdesk/creditdesk/internal/resolve"
	"github.com/creditdesk/creditdesk/internal/session"
	"github.com/creditdesk/creditdesk/internal/tools"
)

var agentNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// scriptedExtractor returns canned extractions for known utterances and the
// deterministic parse for everything else, so tests can exercise model-only
// behaviors like name extraction without a model.
type scriptedExtractor struct {
	script map[string]*intent.Extraction
}

func (s *scriptedExtractor) Extract(ctx context.Context, utterance string, prior *intent.Context) (*intent.Extraction, error) {
	if ex, ok := s.script[utterance]; ok {
		return ex, nil
	}
	return intent.Parse(utterance), nil
}

func f64(v float64) *float64 { return &v }

func setupAgent(t *testing.T) (*Orchestrator, *scriptedExtractor, *ledger.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := ledger.NewStore(database)
	clock := func() time.Time { return agentNow }
	ext := &scriptedExtractor{script: map[string]*intent.Extraction{}}
	orch := NewOrchestrator("sess-test", Deps{
		Extractor: ext,
		Retrieval: tools.NewRetrieval(store).WithClock(clock),
		Actions:   tools.NewActions(store).WithClock(clock),
		Resolver:  resolve.New(store),
		Sessions:  session.NewSQLStore(database),
	})
	seedAgentLedger(t, store)
	return orch, ext, store
}

func seedAgentLedger(t *testing.T, store *ledger.Store) {
	t.Helper()
	ctx := context.Background()

	for _, c := range []ledger.Customer{
		{ID: "CUST001", Name: "John Smith", Company: "Acme Corp"},
		{ID: "CUST002", Name: "John Doe", Company: "Doe Logistics"},
		{ID: "CUST003", Name: "Maria Garcia", Company: "Garcia Foods"},
	} {
		if err := store.CreateCustomer(ctx, c); err != nil {
			t.Fatalf("CreateCustomer(%s): %v", c.ID, err)
		}
	}
	err := store.InsertCredit(ctx, ledger.Credit{
		ID: "CRD001", CustomerID: "CUST001", Amount: 10000, OriginalAmount: 10000,
		Status: ledger.CreditActive, EarnedDate: agentNow.AddDate(0, -2, 0), ExpiryDate: agentNow.AddDate(0, 6, 0),
	})
	if err != nil {
		t.Fatalf("InsertCredit: %v", err)
	}
	for _, inv := range []ledger.Invoice{
		{ID: "INV001", CustomerID: "CUST001", OriginalAmount: 5000, CurrentAmount: 0,
			Status: ledger.InvoicePaid, PaymentStatus: ledger.PaymentPaid, DueDate: agentNow.AddDate(0, -1, 0)},
		{ID: "INV002", CustomerID: "CUST001", OriginalAmount: 6000, CurrentAmount: 6000,
			Status: ledger.InvoicePending, PaymentStatus: ledger.PaymentPending, DueDate: agentNow.AddDate(0, 1, 0)},
		{ID: "INV003", CustomerID: "CUST001", OriginalAmount: 7000, CurrentAmount: 7000,
			Status: ledger.InvoicePending, PaymentStatus: ledger.PaymentPending, DueDate: agentNow.AddDate(0, 1, 0)},
	} {
		if err := store.InsertInvoice(ctx, inv); err != nil {
			t.Fatalf("InsertInvoice(%s): %v", inv.ID, err)
		}
	}
}

func TestInsufficientCreditsStopsBeforeConfirmation(t *testing.T) {
	orch, _, _ := setupAgent(t)
	ctx := context.Background()

	resp := orch.ProcessRequest(ctx, "Apply $200 credit for CUST001")
	if resp.Type != TypeInsufficientCredits {
		t.Fatalf("type: got %s, want insufficient_credits (%s)", resp.Type, resp.Message)
	}
	if !strings.Contains(resp.Message, "$100.00 short") {
		t.Errorf("message should name the shortfall: %q", resp.Message)
	}
	if resp.AgentState != string(StateCompleted) {
		t.Errorf("agent state: got %s", resp.AgentState)
	}
	if orch.State() != StateAnalyzing {
		t.Errorf("orchestrator should be ready for the next turn, in %s", orch.State())
	}
}

func TestApplyToSettledInvoiceRefused(t *testing.T) {
	orch, _, store := setupAgent(t)
	ctx := context.Background()

	resp := orch.ProcessRequest(ctx, "Apply $50 credit to invoice INV001 for CUST001")
	if resp.Type != TypeError {
		t.Fatalf("type: got %s (%s)", resp.Type, resp.Message)
	}
	if !strings.Contains(resp.Message, "already settled") {
		t.Errorf("message: %q", resp.Message)
	}
	if orch.State() != StateAnalyzing {
		t.Errorf("no confirmation should be pending, state %s", orch.State())
	}

	credit, err := store.GetCredit(ctx, "CRD001")
	if err != nil {
		t.Fatalf("GetCredit: %v", err)
	}
	if credit.Amount != 10000 {
		t.Errorf("credit should be untouched, got %d", credit.Amount)
	}
}

func TestAmbiguousNameClarificationFlow(t *testing.T) {
	orch, ext, _ := setupAgent(t)
	ctx := context.Background()

	ext.script["Apply $50 credit for John"] = &intent.Extraction{
		Intent: intent.CreditApplication, CustomerName: "John", CreditAmount: f64(50),
	}

	resp := orch.ProcessRequest(ctx, "Apply $50 credit for John")
	if resp.Type != TypeClarificationNeeded {
		t.Fatalf("type: got %s (%s)", resp.Type, resp.Message)
	}
	if len(resp.Options) != 2 {
		t.Fatalf("options: got %d, want 2 (%+v)", len(resp.Options), resp.Options)
	}
	if orch.State() != StateWaitingClarification {
		t.Fatalf("state: %s", orch.State())
	}

	// A reply that matches nothing re-asks with the same options.
	again := orch.ProcessRequest(ctx, "the usual one")
	if again.Type != TypeClarificationNeeded || len(again.Options) != 2 {
		t.Fatalf("unrecognized reply should re-ask: %+v", again)
	}
	if again.Message != resp.Message {
		t.Errorf("re-ask should repeat the clarification verbatim")
	}

	// Selecting by id resumes the original request through to confirmation.
	confirm := orch.ProcessRequest(ctx, "CUST001")
	if confirm.Type != TypeConfirmationNeeded {
		t.Fatalf("type after selection: got %s (%s)", confirm.Type, confirm.Message)
	}
	if !strings.Contains(confirm.Message, "John Smith") {
		t.Errorf("confirmation should name the selected customer: %q", confirm.Message)
	}
	if orch.State() != StateWaitingConfirmation {
		t.Errorf("state: %s", orch.State())
	}
}

func TestCancellationLeavesLedgerUntouched(t *testing.T) {
	orch, _, store := setupAgent(t)
	ctx := context.Background()

	resp := orch.ProcessRequest(ctx, "Apply $50 credit to invoice INV002 for CUST001")
	if resp.Type != TypeConfirmationNeeded {
		t.Fatalf("type: got %s (%s)", resp.Type, resp.Message)
	}

	cancelled := orch.ProcessRequest(ctx, "no")
	if cancelled.Type != TypeCancelled {
		t.Fatalf("type: got %s", cancelled.Type)
	}

	inv, err := store.GetInvoice(ctx, "INV002")
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if inv.CurrentAmount != 6000 {
		t.Errorf("invoice changed after cancellation: %d", inv.CurrentAmount)
	}
}

func TestUnparseableConfirmationReplyCancels(t *testing.T) {
	orch, _, _ := setupAgent(t)
	ctx := context.Background()

	if resp := orch.ProcessRequest(ctx, "Apply $50 credit to invoice INV002 for CUST001"); resp.Type != TypeConfirmationNeeded {
		t.Fatalf("setup: %s (%s)", resp.Type, resp.Message)
	}
	resp := orch.ProcessRequest(ctx, "hmm, what time is it?")
	if resp.Type != TypeCancelled {
		t.Fatalf("ambiguous reply must cancel, got %s", resp.Type)
	}
}

func TestMultiInvoiceApplication(t *testing.T) {
	orch, _, store := setupAgent(t)
	ctx := context.Background()

	resp := orch.ProcessRequest(ctx, "Apply $100 credit for CUST001")
	if resp.Type != TypeConfirmationNeeded {
		t.Fatalf("type: got %s (%s)", resp.Type, resp.Message)
	}
	// Smallest balance first: all of INV002, the remainder to INV003.
	if !strings.Contains(resp.Message, "INV002") || !strings.Contains(resp.Message, "INV003") {
		t.Errorf("plan should cover both pending invoices: %q", resp.Message)
	}

	done := orch.ProcessRequest(ctx, "yes")
	if done.Type != TypeSuccess {
		t.Fatalf("type: got %s (%s)", done.Type, done.Message)
	}

	inv2, _ := store.GetInvoice(ctx, "INV002")
	inv3, _ := store.GetInvoice(ctx, "INV003")
	if inv2.CurrentAmount != 0 || inv2.Status != ledger.InvoicePaid {
		t.Errorf("INV002: %d %s", inv2.CurrentAmount, inv2.Status)
	}
	if inv3.CurrentAmount != 3000 || inv3.PaymentStatus != ledger.PaymentPartial {
		t.Errorf("INV003: %d %s", inv3.CurrentAmount, inv3.PaymentStatus)
	}
	credit, _ := store.GetCredit(ctx, "CRD001")
	if credit.Amount != 0 || credit.Status != ledger.CreditUsed {
		t.Errorf("credit: %d %s", credit.Amount, credit.Status)
	}

	// A second "yes" has nothing to re-execute; it is just a new utterance.
	repeat := orch.ProcessRequest(ctx, "yes")
	if repeat.Type == TypeSuccess {
		t.Fatalf("a stray yes must not repeat the write: %+v", repeat)
	}
	if inv3b, _ := store.GetInvoice(ctx, "INV003"); inv3b.CurrentAmount != 3000 {
		t.Errorf("repeat yes changed the ledger: %d", inv3b.CurrentAmount)
	}
}

func TestGreetingIsInformational(t *testing.T) {
	orch, _, _ := setupAgent(t)

	resp := orch.ProcessRequest(context.Background(), "Hello")
	if resp.Type != TypeInfo {
		t.Fatalf("type: got %s", resp.Type)
	}
	if resp.AgentState != string(StateCompleted) {
		t.Errorf("agent state: got %s", resp.AgentState)
	}
}

func TestResetCommandFromConfirmation(t *testing.T) {
	orch, _, store := setupAgent(t)
	ctx := context.Background()

	if resp := orch.ProcessRequest(ctx, "Apply $50 credit to invoice INV002 for CUST001"); resp.Type != TypeConfirmationNeeded {
		t.Fatalf("setup: %s (%s)", resp.Type, resp.Message)
	}

	resp := orch.ProcessRequest(ctx, "reset session please")
	if resp.Type != TypeInfo || !strings.Contains(resp.Message, "Session cleared") {
		t.Fatalf("reset: %+v", resp)
	}
	if orch.State() != StateAnalyzing {
		t.Errorf("state after reset: %s", orch.State())
	}

	// The pending plan is gone; a yes now is an ordinary utterance.
	after := orch.ProcessRequest(ctx, "yes")
	if after.Type == TypeSuccess {
		t.Fatalf("yes after reset executed something: %+v", after)
	}
	if inv, _ := store.GetInvoice(ctx, "INV002"); inv.CurrentAmount != 6000 {
		t.Errorf("ledger changed across reset: %d", inv.CurrentAmount)
	}
}

func TestSessionCarriesCustomerAcrossTurns(t *testing.T) {
	orch, _, _ := setupAgent(t)
	ctx := context.Background()

	first := orch.ProcessRequest(ctx, "What's the available credit balance for CUST001?")
	if first.Type != TypeSuccess || !strings.Contains(first.Message, "John Smith") {
		t.Fatalf("balance: %+v", first)
	}

	// No customer in the follow-up; the session supplies it.
	second := orch.ProcessRequest(ctx, "Show me the purchase history")
	if second.Type != TypeSuccess {
		t.Fatalf("history: %s (%s)", second.Type, second.Message)
	}
	if !strings.Contains(second.Message, "John Smith") {
		t.Errorf("history should be for the session customer: %q", second.Message)
	}
}

func TestSessionCarriesInvoiceIntoPartialPayment(t *testing.T) {
	orch, _, store := setupAgent(t)
	ctx := context.Background()

	if resp := orch.ProcessRequest(ctx, "What's the available credit balance for CUST001?"); resp.Type != TypeSuccess {
		t.Fatalf("balance: %s (%s)", resp.Type, resp.Message)
	}
	if resp := orch.ProcessRequest(ctx, "What's the status of invoice INV002?"); resp.Type != TypeSuccess {
		t.Fatalf("invoice inquiry: %s (%s)", resp.Type, resp.Message)
	}

	resp := orch.ProcessRequest(ctx, "The customer paid $20 toward the invoice")
	if resp.Type != TypeConfirmationNeeded {
		t.Fatalf("type: got %s (%s)", resp.Type, resp.Message)
	}
	if !strings.Contains(resp.Message, "INV002") {
		t.Errorf("payment should target the last discussed invoice: %q", resp.Message)
	}

	done := orch.ProcessRequest(ctx, "yes")
	if done.Type != TypeSuccess {
		t.Fatalf("execute: %s (%s)", done.Type, done.Message)
	}
	inv, _ := store.GetInvoice(ctx, "INV002")
	if inv.CurrentAmount != 4000 || inv.PaymentStatus != ledger.PaymentPartial {
		t.Errorf("INV002 after payment: %d %s", inv.CurrentAmount, inv.PaymentStatus)
	}
}

func TestUnknownCustomerSuggests(t *testing.T) {
	orch, ext, _ := setupAgent(t)
	ctx := context.Background()

	ext.script["Apply $50 credit for Jhon Smith"] = &intent.Extraction{
		Intent: intent.CreditApplication, CustomerName: "Jhon Smith", CreditAmount: f64(50),
	}
	resp := orch.ProcessRequest(ctx, "Apply $50 credit for Jhon Smith")
	if resp.Type != TypeError {
		t.Fatalf("type: got %s (%s)", resp.Type, resp.Message)
	}
	if !strings.Contains(resp.Message, "Did you mean") {
		t.Errorf("expected suggestions: %q", resp.Message)
	}
}

func TestWriteWithoutCustomerAsksForOne(t *testing.T) {
	orch, _, _ := setupAgent(t)

	resp := orch.ProcessRequest(context.Background(), "Apply $50 credit")
	if resp.Type != TypeError {
		t.Fatalf("type: got %s (%s)", resp.Type, resp.Message)
	}
	if !strings.Contains(resp.Message, "which customer") {
		t.Errorf("message: %q", resp.Message)
	}
}

func TestMemoLifecycleThroughConversation(t *testing.T) {
	orch, ext, store := setupAgent(t)
	ctx := context.Background()

	ext.script["We received the wrong quantity from CUST003, missing 3 units, worth $45"] = &intent.Extraction{
		Intent: intent.QuantityDiscrepancy, CustomerID: "CUST003",
		CreditAmount: f64(45), MissingQuantity: intPtr(3),
	}

	resp := orch.ProcessRequest(ctx, "We received the wrong quantity from CUST003, missing 3 units, worth $45")
	if resp.Type != TypeConfirmationNeeded {
		t.Fatalf("memo proposal: %s (%s)", resp.Type, resp.Message)
	}
	opened := orch.ProcessRequest(ctx, "yes")
	if opened.Type != TypeSuccess || !strings.Contains(opened.Message, "applied to the account or rejected") {
		t.Fatalf("memo open: %+v", opened)
	}

	// Disposition references the memo tracked in the session.
	resolve := orch.ProcessRequest(ctx, "Apply the credit memo to the account")
	if resolve.Type != TypeConfirmationNeeded {
		t.Fatalf("memo resolution proposal: %s (%s)", resolve.Type, resolve.Message)
	}
	done := orch.ProcessRequest(ctx, "yes")
	if done.Type != TypeSuccess || !strings.Contains(done.Message, "Approved credit memo") {
		t.Fatalf("memo approval: %+v", done)
	}

	credits, err := store.CreditsForCustomer(ctx, "CUST003")
	if err != nil {
		t.Fatalf("CreditsForCustomer: %v", err)
	}
	if len(credits) != 1 || credits[0].Amount != 4500 {
		t.Errorf("approved memo should materialize a $45.00 credit: %+v", credits)
	}
}

func intPtr(n int) *int { return &n }
