package session

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/compare"
	"storefront-service/internal/payment"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FlowFactory builds a checkout flow bound to a session's cart
type FlowFactory func(sessionID string, c *cart.Cart) *payment.Flow

// SnapshotStore persists a session's store state across process restarts.
// The redis client satisfies it in production.
type SnapshotStore interface {
	SaveSessionSnapshot(ctx context.Context, sessionID string, snap *redisclient.SessionSnapshot, ttl time.Duration) error
	LoadSessionSnapshot(ctx context.Context, sessionID string) (*redisclient.SessionSnapshot, error)
	DeleteSessionSnapshot(ctx context.Context, sessionID string) error
}

// Manager owns the live sessions. Sessions live in memory with a TTL; when a
// snapshot store is configured their store state is also persisted so a
// returning cookie survives a process restart.
type Manager struct {
	ttl      time.Duration
	flows    FlowFactory
	store    SnapshotStore
	logger   *zap.Logger
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. store may be nil.
func NewManager(ttl time.Duration, flows FlowFactory, store SnapshotStore) *Manager {
	return &Manager{
		ttl:      ttl,
		flows:    flows,
		store:    store,
		logger:   util.GetLogger(),
		sessions: make(map[string]*Session),
	}
}

// Create starts a fresh session with empty stores
func (m *Manager) Create() *Session {
	s := m.build(uuid.New().String())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	util.SessionsActiveGauge.Inc()
	m.logger.Info("Session created", zap.String("session_id", s.ID))
	return s
}

// Lookup returns the live session for id. On an in-memory miss it tries the
// snapshot store; a hit rebuilds the session with its persisted store state.
func (m *Manager) Lookup(ctx context.Context, id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if ok {
		s.Touch()
		return s, true
	}

	if m.store == nil {
		return nil, false
	}

	snap, err := m.store.LoadSessionSnapshot(ctx, id)
	if err != nil {
		m.logger.Warn("Session snapshot load failed", zap.String("session_id", id), zap.Error(err))
		return nil, false
	}
	if snap == nil {
		return nil, false
	}

	s = m.build(id)
	s.Cart.Restore(snap.CartItems)
	s.Compare.Restore(snap.CompareItems)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	util.SessionsActiveGauge.Inc()
	m.logger.Info("Session restored from snapshot", zap.String("session_id", id))
	return s, true
}

// Persist snapshots a session's store state, no-op without a snapshot store
func (m *Manager) Persist(ctx context.Context, s *Session) {
	if m.store == nil {
		return
	}

	snap := &redisclient.SessionSnapshot{
		CartItems:    s.Cart.Snapshot(),
		CompareItems: s.Compare.Snapshot(),
	}

	if err := m.store.SaveSessionSnapshot(ctx, s.ID, snap, m.ttl); err != nil {
		m.logger.Warn("Session snapshot save failed", zap.String("session_id", s.ID), zap.Error(err))
	}
}

// Remove tears down a session and drops its snapshot
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	s.Close()
	util.SessionsActiveGauge.Dec()

	if m.store != nil {
		if err := m.store.DeleteSessionSnapshot(ctx, id); err != nil {
			m.logger.Warn("Session snapshot delete failed", zap.String("session_id", id), zap.Error(err))
		}
	}
}

// Sweep closes and removes sessions idle past the TTL, returning how many
// were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		util.SessionsActiveGauge.Dec()
		util.SessionsExpiredTotal.Inc()
		m.logger.Info("Session expired", zap.String("session_id", s.ID))
	}

	return len(expired)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) build(id string) *Session {
	c := cart.New()
	s := &Session{
		ID:      id,
		Cart:    c,
		Compare: compare.New(),
	}
	if m.flows != nil {
		s.Flow = m.flows(id, c)
	}
	if s.Flow != nil {
		// The deferred post-checkout clear must reach the snapshot too, or a
		// restart within the TTL would resurrect a cart that was already paid
		// for.
		s.Flow.SetOnClear(func() {
			m.Persist(context.Background(), s)
		})
	}
	s.Touch()
	return s
}
