package mcp

import "github.com/mark3labs/mcp-go/mcp"

// lookupCustomerTool defines the lookup_customer MCP tool.
var lookupCustomerTool = mcp.NewTool("lookup_customer",
	mcp.WithDescription("Find customers by id, name, or company. Returns every match."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Customer id, name, or company text to search for"),
	),
)

// availableCreditsTool defines the get_available_credits MCP tool.
var availableCreditsTool = mcp.NewTool("get_available_credits",
	mcp.WithDescription("Get a customer's spendable credit total and the itemized credits behind it."),
	mcp.WithString("customer_id",
		mcp.Required(),
		mcp.Description("Customer id, e.g. CUST001"),
	),
)

// pendingInvoicesTool defines the get_pending_invoices MCP tool.
var pendingInvoicesTool = mcp.NewTool("get_pending_invoices",
	mcp.WithDescription("List a customer's open invoices, smallest remaining balance first."),
	mcp.WithString("customer_id",
		mcp.Required(),
		mcp.Description("Customer id, e.g. CUST001"),
	),
)

// overdueInvoicesTool defines the find_overdue_invoices MCP tool.
var overdueInvoicesTool = mcp.NewTool("find_overdue_invoices",
	mcp.WithDescription("List open invoices overdue by at least the given number of days, each annotated with an urgency tier."),
	mcp.WithString("customer_id",
		mcp.Description("Restrict to one customer; omit for all customers"),
	),
	mcp.WithNumber("days_overdue",
		mcp.Description("Minimum days overdue (default 0)"),
	),
)

// paymentHistoryTool defines the get_payment_history MCP tool.
var paymentHistoryTool = mcp.NewTool("get_payment_history",
	mcp.WithDescription("Summarize a customer's invoicing and payment behavior over recent months."),
	mcp.WithString("customer_id",
		mcp.Required(),
		mcp.Description("Customer id, e.g. CUST001"),
	),
	mcp.WithNumber("months",
		mcp.Description("Lookback window in months (default 12)"),
	),
)
