package session

import (
	"sync"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/compare"
	"storefront-service/internal/payment"
)

// Session is one shopper's context: it exclusively owns a cart, a comparison
// set and a checkout flow. Nothing mutates the stores except through the
// session's handles, and a session is never shared across shoppers.
type Session struct {
	ID      string
	Cart    *cart.Cart
	Compare *compare.Compare
	Flow    *payment.Flow

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

// Touch records activity, pushing back expiry
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the most recent activity
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close tears the session down. The flow is closed first so a pending
// celebration-delay cart clear is canceled before the stores go away.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.Flow != nil {
		s.Flow.Close()
	}
}
