package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/creditdesk/creditdesk/internal/db"
)

// SQLStore is the sqlite-backed Store.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a session store over the given database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Context, error) {
	var sc Context
	err := s.db.QueryRowContext(ctx,
		`SELECT id, customer_id, customer_name, last_invoice_id, pending_memo_id, created_at, last_activity
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sc.ID, &sc.CustomerID, &sc.CustomerName, &sc.LastInvoiceID, &sc.PendingMemoID, &sc.CreatedAt, &sc.LastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return &sc, nil
}

func (s *SQLStore) Put(ctx context.Context, sc *Context) error {
	now := time.Now().UTC()
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = now
	}
	sc.LastActivity = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, customer_id, customer_name, last_invoice_id, pending_memo_id, created_at, last_activity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   customer_id = excluded.customer_id,
		   customer_name = excluded.customer_name,
		   last_invoice_id = excluded.last_invoice_id,
		   pending_memo_id = excluded.pending_memo_id,
		   last_activity = excluded.last_activity`,
		sc.ID, sc.CustomerID, sc.CustomerName, sc.LastInvoiceID, sc.PendingMemoID, sc.CreatedAt, sc.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SQLStore) Touch(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

func (s *SQLStore) Evict(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("evicting session messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("evicting session: %w", err)
	}
	return nil
}

func (s *SQLStore) AddMessage(ctx context.Context, m Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, m.Role, m.Content, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving session message: %w", err)
	}
	return nil
}

func (s *SQLStore) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM session_messages
		 WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) EvictIdle(ctx context.Context, cutoff time.Time) (int, error) {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_messages WHERE session_id IN (SELECT id FROM sessions WHERE last_activity < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("evicting idle session messages: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_activity < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("evicting idle sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}
