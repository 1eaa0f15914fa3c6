package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/creditdesk/creditdesk/internal/llm"
)

// Context carries slots resolved in earlier turns, offered to the model as
// hints for follow-up utterances ("apply it to his latest invoice").
type Context struct {
	CustomerID   string
	CustomerName string
	LastInvoice  string
}

// Extractor derives an Extraction from an utterance, preferring the
// language-model path and falling back to the deterministic parser.
type Extractor struct {
	provider llm.Provider
	model    string
}

// NewExtractor creates an extractor over the given provider. A nil provider
// disables model calls entirely; the deterministic parser handles every
// utterance.
func NewExtractor(provider llm.Provider, model string) *Extractor {
	return &Extractor{provider: provider, model: model}
}

// Extract classifies the utterance and pulls its slots. The model's output
// is never trusted as-is: the sanitizer runs unconditionally, and the
// fallback parser takes over whenever the model errs, mislabels an utterance
// that plainly carries a customer id as general, or returns garbage.
func (e *Extractor) Extract(ctx context.Context, utterance string, prior *Context) (*Extraction, error) {
	if e.provider == nil {
		return Sanitize(Parse(utterance), utterance), nil
	}
	ex, err := e.extractLLM(ctx, utterance, prior)
	if err != nil || needsFallback(ex, utterance) {
		if err != nil {
			log.Printf("intent: model extraction failed, using fallback: %v", err)
		}
		ex = Parse(utterance)
	}
	return Sanitize(ex, utterance), nil
}

func needsFallback(ex *Extraction, utterance string) bool {
	if ex == nil || !ex.Intent.Valid() {
		return true
	}
	if ex.Intent == General && customerIDPattern.MatchString(utterance) {
		return true
	}
	return false
}

const systemPrompt = `You extract structured intent from staff requests about a customer ledger.
Respond with a single JSON object and nothing else:
{
  "intent": one of ["credit_application","credit_balance_inquiry","purchase_history","invoice_inquiry","quantity_discrepancy","damage_report","credit_memo_approval","partial_payment","add_credits","general"],
  "customer_name": string or null,
  "customer_id": string or null (pattern CUST<digits>),
  "credit_amount": number or null (dollars),
  "invoice_id": string or null (pattern INV<digits>),
  "missing_quantity": number or null,
  "item_description": string or null,
  "damage_description": string or null,
  "customer_choice": string or null,
  "paid_amount": number or null,
  "invoice_amount": number or null
}
Only report values literally present in the request. Never invent names or ids.`

func (e *Extractor) extractLLM(ctx context.Context, utterance string, prior *Context) (*Extraction, error) {
	var sb strings.Builder
	if prior != nil && (prior.CustomerID != "" || prior.CustomerName != "") {
		fmt.Fprintf(&sb, "Earlier in this conversation the customer was %s %s.\n",
			prior.CustomerName, prior.CustomerID)
		if prior.LastInvoice != "" {
			fmt.Fprintf(&sb, "The last invoice discussed was %s.\n", prior.LastInvoice)
		}
	}
	fmt.Fprintf(&sb, "Request: %s", utterance)

	resp, err := e.provider.Complete(ctx, llm.Request{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		MaxTokens:   512,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("model completion: %w", err)
	}

	return parseModelOutput(resp.Content)
}

// wireExtraction tolerates the model returning numbers as strings and
// strings as numbers.
type wireExtraction struct {
	Intent            string `json:"intent"`
	CustomerName      any    `json:"customer_name"`
	CustomerID        any    `json:"customer_id"`
	CreditAmount      any    `json:"credit_amount"`
	InvoiceID         any    `json:"invoice_id"`
	MissingQuantity   any    `json:"missing_quantity"`
	ItemDescription   any    `json:"item_description"`
	DamageDescription any    `json:"damage_description"`
	CustomerChoice    any    `json:"customer_choice"`
	PaidAmount        any    `json:"paid_amount"`
	InvoiceAmount     any    `json:"invoice_amount"`
}

func parseModelOutput(content string) (*Extraction, error) {
	// The object may be wrapped in prose or a markdown fence.
	jsonStr := content
	if idx := strings.Index(content, "{"); idx >= 0 {
		jsonStr = content[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var wire wireExtraction
	if err := json.Unmarshal([]byte(jsonStr), &wire); err != nil {
		return nil, fmt.Errorf("parsing model output: %w", err)
	}

	ex := &Extraction{
		Intent:            Intent(strings.TrimSpace(wire.Intent)),
		CustomerName:      coerceString(wire.CustomerName),
		CustomerID:        strings.ToUpper(coerceString(wire.CustomerID)),
		CreditAmount:      coerceAmount(wire.CreditAmount),
		InvoiceID:         strings.ToUpper(coerceString(wire.InvoiceID)),
		MissingQuantity:   coerceInt(wire.MissingQuantity),
		ItemDescription:   coerceString(wire.ItemDescription),
		DamageDescription: coerceString(wire.DamageDescription),
		CustomerChoice:    strings.ToLower(coerceString(wire.CustomerChoice)),
		PaidAmount:        coerceAmount(wire.PaidAmount),
		InvoiceAmount:     coerceAmount(wire.InvoiceAmount),
	}
	return ex, nil
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		t := strings.TrimSpace(s)
		if strings.EqualFold(t, "null") || strings.EqualFold(t, "none") {
			return ""
		}
		return t
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// coerceAmount parses a monetary slot. A non-numeric value is absent, never
// zero.
func coerceAmount(v any) *float64 {
	switch n := v.(type) {
	case float64:
		if n <= 0 {
			return nil
		}
		return &n
	case string:
		raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(n), "$"))
		raw = strings.ReplaceAll(raw, ",", "")
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func coerceInt(v any) *int {
	if f := coerceAmount(v); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}
