package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Client wraps Redis for the storefront's two transient concerns: per-session
// cart/compare snapshots (so a session survives a process restart, the server
// analog of browser-local persistence) and a short-TTL cache of the catalog's
// product list.
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// SessionSnapshot is the persisted slice of one session's store state
type SessionSnapshot struct {
	CartItems    []models.CartLineItem `json:"cart_items"`
	CompareItems []models.Product      `json:"compare_items"`
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, logger: util.GetLogger()}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SaveSessionSnapshot persists a session's store state with a TTL
func (c *Client) SaveSessionSnapshot(ctx context.Context, sessionID string, snap *SessionSnapshot, ttl time.Duration) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	key := fmt.Sprintf("session:%s", sessionID)
	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}
	return nil
}

// LoadSessionSnapshot retrieves a session's persisted store state. A missing
// key returns (nil, nil).
func (c *Client) LoadSessionSnapshot(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	key := fmt.Sprintf("session:%s", sessionID)

	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}

	var snap SessionSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}
	return &snap, nil
}

// DeleteSessionSnapshot removes a session's persisted state
func (c *Client) DeleteSessionSnapshot(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("session:%s", sessionID)).Err()
}

// ProductCache adapts the client to the catalog's cache contract with a
// fixed TTL.
type ProductCache struct {
	client *Client
	ttl    time.Duration
}

// NewProductCache creates a catalog product-list cache
func NewProductCache(client *Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

const productCacheKey = "catalog:products"

// GetProducts returns the cached product list, reporting whether it was found
func (pc *ProductCache) GetProducts(ctx context.Context) ([]models.Product, bool) {
	payload, err := pc.client.rdb.Get(ctx, productCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		pc.client.logger.Warn("Product cache read failed", zap.Error(err))
		return nil, false
	}

	var products []models.Product
	if err := json.Unmarshal(payload, &products); err != nil {
		pc.client.logger.Warn("Product cache payload malformed", zap.Error(err))
		return nil, false
	}
	return products, true
}

// SetProducts stores the product list. Cache write failures are logged, never
// surfaced: the catalog still has the live result.
func (pc *ProductCache) SetProducts(ctx context.Context, products []models.Product) {
	payload, err := json.Marshal(products)
	if err != nil {
		pc.client.logger.Warn("Failed to marshal product cache payload", zap.Error(err))
		return
	}

	if err := pc.client.rdb.Set(ctx, productCacheKey, payload, pc.ttl).Err(); err != nil {
		pc.client.logger.Warn("Product cache write failed", zap.Error(err))
	}
}
