// Package idempotency guards external side effects so a replayed trigger
// performs them at most once.
package idempotency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jordanlanch/beautyos/pkg/cache"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/uptrace/bun"
)

// DefaultTTL is how long a claimed key rejects later claims.
const DefaultTTL = 30 * 24 * time.Hour

// Store claims keys.
type Store interface {
	// Claim returns true exactly once per key while the key is live.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Key builders for each guarded side effect.
func UpsellKey(bookingID string) string      { return "upsell:" + bookingID }
func UpsellReplyKey(bookingID string) string { return "upsell-reply:" + bookingID }
func CancelKey(bookingID string) string      { return "cancel:" + bookingID }
func ReplyKey(leadID string) string          { return "reply:" + leadID }

// GapFillKey identifies one offered slot for one client.
func GapFillKey(clientID, service string, scheduledAt time.Time) string {
	return fmt.Sprintf("gapfill:%s:%s:%s", clientID, service, scheduledAt.UTC().Format(time.RFC3339))
}

// RedisStore claims keys with SETNX.
type RedisStore struct {
	cache  *cache.Client
	prefix string
}

// NewRedisStore creates a Redis backed store.
func NewRedisStore(c *cache.Client) *RedisStore {
	return &RedisStore{cache: c, prefix: "idem:"}
}

// Claim implements Store.
func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.cache.SetNX(ctx, s.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl)
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return ok, nil
}

// DBStore claims keys by inserting into idempotency_keys.
type DBStore struct {
	db bun.IDB
}

// NewDBStore creates a database backed store.
func NewDBStore(db bun.IDB) *DBStore {
	return &DBStore{db: db}
}

// Claim implements Store. An expired key is replaced by the new claim.
func (s *DBStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	row := &models.IdempotencyKey{
		Key:       key,
		Scope:     scopeOf(key),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	// The conditional upsert only overwrites rows that have expired, so the
	// affected count tells whether this call won the claim.
	res, err := s.db.NewInsert().
		Model(row).
		On(`CONFLICT ("key") DO UPDATE`).
		Set("scope = EXCLUDED.scope").
		Set("created_at = EXCLUDED.created_at").
		Set("expires_at = EXCLUDED.expires_at").
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return n > 0, nil
}

func scopeOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
