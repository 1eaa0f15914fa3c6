package session

import (
	"context"
	"testing"
	"time"

	"github.com/creditdesk/creditdesk/internal/db"
)

func setupSessionStore(t *testing.T) *SQLStore {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewSQLStore(database)
}

func TestPutAndGet(t *testing.T) {
	s := setupSessionStore(t)
	ctx := context.Background()

	sc := &Context{CustomerID: "CUST001", CustomerName: "John Smith", LastInvoiceID: "INV001"}
	if err := s.Put(ctx, sc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if sc.ID == "" {
		t.Fatal("Put should assign an id")
	}

	got, err := s.Get(ctx, sc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.CustomerID != "CUST001" || got.LastInvoiceID != "INV001" {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	s := setupSessionStore(t)
	got, err := s.Get(context.Background(), "no-such-session")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown session, got %+v", got)
	}
}

func TestPutUpserts(t *testing.T) {
	s := setupSessionStore(t)
	ctx := context.Background()

	sc := &Context{ID: "sess-1", CustomerID: "CUST001"}
	if err := s.Put(ctx, sc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	sc.CustomerID = "CUST002"
	sc.PendingMemoID = "memo-9"
	if err := s.Put(ctx, sc); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, _ := s.Get(ctx, "sess-1")
	if got.CustomerID != "CUST002" || got.PendingMemoID != "memo-9" {
		t.Fatalf("upsert lost fields: %+v", got)
	}
}

func TestEvictIdle(t *testing.T) {
	s := setupSessionStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, &Context{ID: "idle"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, &Context{ID: "fresh"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Everything is evicted past a future cutoff, nothing past a past one.
	n, err := s.EvictIdle(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("EvictIdle: %v", err)
	}
	if n != 0 {
		t.Errorf("evicted %d fresh sessions", n)
	}

	n, err = s.EvictIdle(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("EvictIdle: %v", err)
	}
	if n != 2 {
		t.Errorf("evicted %d, want 2", n)
	}
	if got, _ := s.Get(ctx, "idle"); got != nil {
		t.Error("idle session survived eviction")
	}
}

func TestMessages(t *testing.T) {
	s := setupSessionStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, &Context{ID: "sess-1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	base := time.Now().UTC()
	for i, m := range []Message{
		{SessionID: "sess-1", Role: "user", Content: "apply $50 credit for CUST001"},
		{SessionID: "sess-1", Role: "assistant", Content: "Please confirm"},
	} {
		m.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.AddMessage(ctx, m); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}

	msgs, err := s.Messages(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("messages: %+v", msgs)
	}
}

func TestEvictCascadesMessages(t *testing.T) {
	s := setupSessionStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, &Context{ID: "sess-1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.AddMessage(ctx, Message{SessionID: "sess-1", Role: "user", Content: "hi"}); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	if err := s.Evict(ctx, "sess-1"); err != nil {
		t.Fatalf("Evict: %v", err)
	}

	msgs, err := s.Messages(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("messages survived session eviction: %+v", msgs)
	}
}
