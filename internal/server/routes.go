package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/creditdesk/creditdesk/internal/agent"
)

// TurnContext is the optional conversation context carried by a client.
type TurnContext struct {
	SessionID     string `json:"sessionId"`
	CustomerID    string `json:"customerId,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
	LastInvoiceID string `json:"lastInvoiceId,omitempty"`
}

// Turn is one prior exchange in the client-held history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is the body of POST /api/chat.
type TurnRequest struct {
	Message        string       `json:"message"`
	Context        *TurnContext `json:"context,omitempty"`
	MessageHistory []Turn       `json:"messageHistory,omitempty"`
}

// TurnResponse wraps the agent response with the session id the client
// should carry forward.
type TurnResponse struct {
	agent.Response
	SessionID string `json:"sessionId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := ""
	if req.Context != nil {
		sessionID = req.Context.SessionID
	}

	resp, sessionID := s.manager.Process(r.Context(), sessionID, req.Message)
	writeJSON(w, http.StatusOK, TurnResponse{Response: *resp, SessionID: sessionID})
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	customers, err := s.retrieval.FindCustomerByName(r.Context(), q)
	if err != nil {
		log.Printf("server: customer search %q: %v", q, err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
