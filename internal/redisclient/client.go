package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb           *redis.Client
	cartNamespace string
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, cartNamespace string) (*Client, error) {
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

	return &Client{rdb: rdb, cartNamespace: cartNamespace}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) cartKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", c.cartNamespace, sessionID)
}

// SaveCartSnapshot persists the full cart for a session. Carts survive a
// restart of the client as long as the session does.
func (c *Client) SaveCartSnapshot(ctx context.Context, sessionID string, items []models.CartItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, c.cartKey(sessionID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save cart snapshot: %w", err)
	}
	return nil
}

// LoadCartSnapshot restores a previously saved cart. A missing key yields an
// empty cart, not an error.
func (c *Client) LoadCartSnapshot(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	payload, err := c.rdb.Get(ctx, c.cartKey(sessionID)).Bytes()
	if err == redis.Nil {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}

	var items []models.CartItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart snapshot: %w", err)
	}
	return items, nil
}

// DeleteCartSnapshot removes the persisted cart for a session.
func (c *Client) DeleteCartSnapshot(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, c.cartKey(sessionID)).Err()
}

// CreateSession stores a session token for a user with TTL.
func (c *Client) CreateSession(ctx context.Context, token, userID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("session:%s", token), userID, ttl).Err()
}

// GetSession resolves a session token to a user ID. Returns an empty string
// when the token is unknown or expired.
func (c *Client) GetSession(ctx context.Context, token string) (string, error) {
	userID, err := c.rdb.Get(ctx, fmt.Sprintf("session:%s", token)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	return userID, nil
}

// DeleteSession invalidates a session token.
func (c *Client) DeleteSession(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("session:%s", token)).Err()
}
