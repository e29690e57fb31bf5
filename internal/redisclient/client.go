package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

// ChangesChannel is the pub/sub channel venue document changes are relayed on
const ChangesChannel = "venue-changes"

const lockRetryInterval = 25 * time.Millisecond

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
	lockTTL       time.Duration
	// instanceID marks the changes this process publishes
	instanceID string
}

// Change describes a venue document write relayed over pub/sub
type Change struct {
	Origin  string `json:"origin"`
	VenueID string `json:"venue_id"`
	Topic   string `json:"topic"`
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int, lockTTL time.Duration) (*Client, error) {
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

	return newClient(rdb, lockTTL), nil
}

func newClient(rdb *redis.Client, lockTTL time.Duration) *Client {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
		lockTTL:       lockTTL,
		instanceID:    uuid.New().String(),
	}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get retrieves a document, nil when missing
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s failed: %w", key, err)
	}
	return value, nil
}

// Set stores a document without expiry
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

// Lock acquires a distributed lock, retrying until ctx is done.
// The returned func releases it only if this caller still owns it.
func (c *Client) Lock(ctx context.Context, lockKey string) (func(), error) {
	key := fmt.Sprintf("lock:%s", lockKey)
	token := uuid.New().String()

	for {
		ok, err := c.rdb.SetNX(ctx, key, token, c.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s failed: %w", lockKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", lockKey, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.releaseScript.Run(releaseCtx, c.rdb, []string{key}, token).Err()
	}, nil
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// PublishChange relays a venue document change
func (c *Client) PublishChange(ctx context.Context, venueID, topic string) error {
	payload, err := json.Marshal(Change{Origin: c.instanceID, VenueID: venueID, Topic: topic})
	if err != nil {
		return err
	}
	return c.rdb.Publish(ctx, ChangesChannel, payload).Err()
}

// SubscribeChanges delivers changes relayed by other processes until ctx is done.
// Changes published by this client are skipped.
func (c *Client) SubscribeChanges(ctx context.Context, handler func(Change)) error {
	sub := c.rdb.Subscribe(ctx, ChangesChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				continue
			}
			if change.Origin == c.instanceID {
				continue
			}
			handler(change)
		}
	}
}
