// Package session persists cross-turn conversation context keyed by
// session id.
package session

import (
	"context"
	"time"
)

// Context is the cross-turn state of one conversation.
type Context struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id,omitempty"`
	CustomerName  string    `json:"customer_name,omitempty"`
	LastInvoiceID string    `json:"last_invoice_id,omitempty"`
	PendingMemoID string    `json:"pending_memo_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `json:"last_activity"`
}

// Message is one turn of the conversation transcript.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a keyed session store. Get returns nil for unknown ids so
// callers can transparently start a fresh conversation for an evicted
// session.
type Store interface {
	Get(ctx context.Context, id string) (*Context, error)
	Put(ctx context.Context, sc *Context) error
	Touch(ctx context.Context, id string) error
	Evict(ctx context.Context, id string) error
	AddMessage(ctx context.Context, m Message) error
	Messages(ctx context.Context, sessionID string) ([]Message, error)
	// EvictIdle removes sessions whose last activity predates cutoff and
	// returns how many were removed.
	EvictIdle(ctx context.Context, cutoff time.Time) (int, error)
}
