package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleLookupCustomer searches customers by free text.
func (s *Server) handleLookupCustomer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	customers, err := s.retrieval.FindCustomerByName(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if len(customers) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No customers match %q.", query)), nil
	}
	return jsonResult(customers)
}

// handleAvailableCredits returns the spendable credit for one customer.
func (s *Server) handleAvailableCredits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID, err := request.RequireString("customer_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: customer_id"), nil
	}

	res, err := s.retrieval.GetAvailableCredits(ctx, customerID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("credit lookup failed: %v", err)), nil
	}
	return jsonResult(res)
}

// handlePendingInvoices lists a customer's open invoices.
func (s *Server) handlePendingInvoices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID, err := request.RequireString("customer_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: customer_id"), nil
	}

	invoices, err := s.retrieval.GetPendingInvoices(ctx, customerID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invoice lookup failed: %v", err)), nil
	}
	if len(invoices) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Customer %s has no pending invoices.", customerID)), nil
	}
	return jsonResult(invoices)
}

// handleOverdueInvoices lists overdue invoices with urgency tiers.
func (s *Server) handleOverdueInvoices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID := request.GetString("customer_id", "")
	days := request.GetInt("days_overdue", 0)
	if days < 0 {
		days = 0
	}

	invoices, err := s.retrieval.FindOverdueInvoices(ctx, customerID, days)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("overdue lookup failed: %v", err)), nil
	}
	if len(invoices) == 0 {
		return mcp.NewToolResultText("No overdue invoices match."), nil
	}
	return jsonResult(invoices)
}

// handlePaymentHistory summarizes payment behavior for one customer.
func (s *Server) handlePaymentHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID, err := request.RequireString("customer_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: customer_id"), nil
	}
	months := request.GetInt("months", 12)

	history, err := s.retrieval.GetCustomerPaymentHistory(ctx, customerID, months)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history lookup failed: %v", err)), nil
	}
	return jsonResult(history)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(blob)), nil
}
