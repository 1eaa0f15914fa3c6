package ledger

import "sync"

// customerLocks serializes validate-then-execute sequences per customer so
// two concurrent requests cannot both pass affordability checks against the
// same credit pool.
type customerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{locks: make(map[string]*sync.Mutex)}
}

func (c *customerLocks) lock(customerID string) (unlock func()) {
	c.mu.Lock()
	m, ok := c.locks[customerID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[customerID] = m
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// WithCustomerLock runs fn while holding the customer's mutation lock. Used
// by callers that validate ledger state before mutating it.
func (s *Store) WithCustomerLock(customerID string, fn func() error) error {
	unlock := s.locks.lock(customerID)
	defer unlock()
	return fn()
}
