package session

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically evicts sessions idle beyond the TTL.
type Sweeper struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
}

// NewSweeper creates a sweeper. A zero interval defaults to one minute.
func NewSweeper(store Store, ttl, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{store: store, ttl: ttl, interval: interval}
}

// Run sweeps until the context is cancelled. Intended to run in its own
// goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.EvictIdle(ctx, time.Now().UTC().Add(-s.ttl))
			if err != nil {
				log.Printf("session: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("session: evicted %d idle session(s)", n)
			}
		}
	}
}
