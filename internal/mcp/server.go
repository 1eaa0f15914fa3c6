// Package mcp exposes the read-only ledger retrieval tools over the Model
// Context Protocol, for AI agent integration. Mutating operations are
// deliberately not exposed here; they require the conversational
// confirmation flow.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/creditdesk/creditdesk/internal/tools"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes ledger lookup tools.
type Server struct {
	retrieval *tools.Retrieval
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server over the retrieval tool set.
func NewServer(retrieval *tools.Retrieval) *Server {
	s := &Server{retrieval: retrieval}

	s.mcp = server.NewMCPServer(
		"creditdesk",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(lookupCustomerTool, s.handleLookupCustomer)
	s.mcp.AddTool(availableCreditsTool, s.handleAvailableCredits)
	s.mcp.AddTool(pendingInvoicesTool, s.handlePendingInvoices)
	s.mcp.AddTool(overdueInvoicesTool, s.handleOverdueInvoices)
	s.mcp.AddTool(paymentHistoryTool, s.handlePaymentHistory)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
