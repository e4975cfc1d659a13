package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
)

const (
	sessionKeyPrefix  = "refresh_token:"
	denylistKeyPrefix = "denylist:"
)

// SessionKey builds the cache key tracking the single live refresh token
// for an account.
func SessionKey(accountID string) string {
	return sessionKeyPrefix + accountID
}

// DenylistKey builds the cache key marking a token string as revoked.
func DenylistKey(token string) string {
	return denylistKeyPrefix + token
}

// SessionRepository is the Redis adapter behind the auth core's session
// and denylist state. Keys expire on their own; the repository never
// caches values in-process.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Get returns the value stored at key, or ErrCacheMiss when absent.
func (r *SessionRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", appErrors.ErrCacheMiss
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// SetWithTTL stores value at key with the given expiry.
func (r *SessionRepository) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// GetDel atomically reads and removes key, returning ErrCacheMiss when
// the key did not exist.
func (r *SessionRepository) GetDel(ctx context.Context, key string) (string, error) {
	value, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", appErrors.ErrCacheMiss
		}
		return "", fmt.Errorf("redis getdel %s: %w", key, err)
	}
	return value, nil
}

// Close releases the underlying Redis connection.
func (r *SessionRepository) Close() error {
	return r.client.Close()
}
