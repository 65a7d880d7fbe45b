package worker

import (
	"context"
	"log"
	"time"

	"storefront-service/internal/session"
)

// SessionJanitor sweeps expired sessions in the background so abandoned carts
// and their pending timers are released.
type SessionJanitor struct {
	manager  *session.Manager
	interval time.Duration
	stop     chan struct{}
}

// NewSessionJanitor creates a new session janitor
func NewSessionJanitor(manager *session.Manager, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{
		manager:  manager,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is called
func (j *SessionJanitor) Start(ctx context.Context) error {
	log.Println("Starting session janitor...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Janitor context cancelled, stopping...")
			return ctx.Err()
		case <-j.stop:
			return nil
		case <-ticker.C:
			if n := j.manager.Sweep(ctx); n > 0 {
				log.Printf("Janitor removed %d expired sessions", n)
			}
		}
	}
}

// Stop stops the janitor
func (j *SessionJanitor) Stop() {
	log.Println("Stopping session janitor...")
	close(j.stop)
}
