package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/models"
	"storefront-service/internal/payment"
	"storefront-service/internal/redisclient"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlowFactory(sessionID string, c *cart.Cart) *payment.Flow {
	return payment.NewFlow(nil, nil, nil, c, sessionID, time.Millisecond)
}

type stubBackend struct{}

func (stubBackend) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, description string) (string, error) {
	return "pi_1_secret_x", nil
}

type stubProcessor struct{}

func (stubProcessor) Confirm(ctx context.Context, clientSecret, paymentMethodID string) (*payment.Confirmation, error) {
	return &payment.Confirmation{TransactionID: "tx_1", Status: "succeeded"}, nil
}

type fakeSnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]*redisclient.SessionSnapshot
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{snaps: make(map[string]*redisclient.SessionSnapshot)}
}

func (f *fakeSnapshotStore) SaveSessionSnapshot(ctx context.Context, sessionID string, snap *redisclient.SessionSnapshot, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := *snap
	f.snaps[sessionID] = &saved
	return nil
}

func (f *fakeSnapshotStore) LoadSessionSnapshot(ctx context.Context, sessionID string) (*redisclient.SessionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snaps[sessionID], nil
}

func (f *fakeSnapshotStore) DeleteSessionSnapshot(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, sessionID)
	return nil
}

func (f *fakeSnapshotStore) cartLen(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.snaps[sessionID]
	if snap == nil {
		return 0
	}
	return len(snap.CartItems)
}

func TestCreateAndLookup(t *testing.T) {
	m := NewManager(time.Minute, testFlowFactory, nil)

	s := m.Create()
	require.NotEmpty(t, s.ID)
	require.NotNil(t, s.Cart)
	require.NotNil(t, s.Compare)
	require.NotNil(t, s.Flow)

	found, ok := m.Lookup(context.Background(), s.ID)
	require.True(t, ok)
	assert.Same(t, s, found)

	_, ok = m.Lookup(context.Background(), "unknown")
	assert.False(t, ok)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := NewManager(time.Minute, testFlowFactory, nil)

	a := m.Create()
	b := m.Create()

	a.Cart.AddItem(models.Product{ID: 1, Price: decimal.RequireFromString("5.00")}, 2)

	assert.Equal(t, 2, a.Cart.TotalItems())
	assert.Equal(t, 0, b.Cart.TotalItems())
}

func TestSweepRemovesExpiredSessions(t *testing.T) {
	m := NewManager(20*time.Millisecond, testFlowFactory, nil)

	stale := m.Create()
	time.Sleep(40 * time.Millisecond)
	fresh := m.Create()

	removed := m.Sweep(context.Background())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Len())

	_, ok := m.Lookup(context.Background(), stale.ID)
	assert.False(t, ok)
	_, ok = m.Lookup(context.Background(), fresh.ID)
	assert.True(t, ok)
}

func TestLookupTouchesSession(t *testing.T) {
	m := NewManager(50*time.Millisecond, testFlowFactory, nil)

	s := m.Create()
	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		_, ok := m.Lookup(context.Background(), s.ID)
		require.True(t, ok)
	}

	// Activity keeps pushing expiry back, so the sweep finds nothing.
	assert.Zero(t, m.Sweep(context.Background()))
}

func TestRemoveClosesSession(t *testing.T) {
	m := NewManager(time.Minute, testFlowFactory, nil)

	s := m.Create()
	m.Remove(context.Background(), s.ID)

	assert.Equal(t, 0, m.Len())
	_, ok := m.Lookup(context.Background(), s.ID)
	assert.False(t, ok)

	// Removing twice is a no-op.
	m.Remove(context.Background(), s.ID)
}

func TestLookupRestoresFromSnapshot(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snaps["returning"] = &redisclient.SessionSnapshot{
		CartItems: []models.CartLineItem{
			{Product: models.Product{ID: 1, Price: decimal.RequireFromString("5.00")}, Quantity: 2},
		},
		CompareItems: []models.Product{{ID: 7}},
	}

	m := NewManager(time.Minute, testFlowFactory, store)

	s, ok := m.Lookup(context.Background(), "returning")
	require.True(t, ok)
	assert.Equal(t, 2, s.Cart.TotalItems())
	assert.True(t, s.Compare.Contains(7))
	assert.Equal(t, 1, m.Len())
}

func TestScheduledClearReachesSnapshot(t *testing.T) {
	store := newFakeSnapshotStore()
	factory := func(sessionID string, c *cart.Cart) *payment.Flow {
		return payment.NewFlow(stubBackend{}, stubProcessor{}, nil, c, sessionID, 10*time.Millisecond)
	}
	m := NewManager(time.Minute, factory, store)

	s := m.Create()
	s.Cart.AddItem(models.Product{ID: 1, Price: decimal.RequireFromString("49.99")}, 1)
	m.Persist(context.Background(), s)
	require.Equal(t, 1, store.cartLen(s.ID))

	_, err := s.Flow.Submit(context.Background(), "ORDER-1", "pm_card")
	require.NoError(t, err)

	// The deferred clear must empty the persisted snapshot too; otherwise a
	// restart within the TTL would restore a cart that was already paid for.
	require.Eventually(t, func() bool {
		return s.Cart.TotalItems() == 0 && store.cartLen(s.ID) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRemoveDeletesSnapshot(t *testing.T) {
	store := newFakeSnapshotStore()
	m := NewManager(time.Minute, testFlowFactory, store)

	s := m.Create()
	m.Persist(context.Background(), s)

	m.Remove(context.Background(), s.ID)

	snap, err := store.LoadSessionSnapshot(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestCloseIsIdempotent(t *testing.T) {
	m := NewManager(time.Minute, testFlowFactory, nil)

	s := m.Create()
	s.Close()
	s.Close()
}
