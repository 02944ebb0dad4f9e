package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	presencePrefix = "presence:"
	presenceTTL    = 90 * time.Second
)

// PresenceStore records which sessions are currently online, backed by Redis
// keys with a TTL. Entries expire on their own if the process dies before it
// can untrack, so presence degrades to stale-by-seconds instead of forever.
// Key format: presence:<session_id> → identity.
type PresenceStore struct {
	client *redis.Client
}

func NewPresenceStore(client *redis.Client) *PresenceStore {
	return &PresenceStore{client: client}
}

// Track marks a session online. An empty identity is stored as "anonymous".
func (p *PresenceStore) Track(ctx context.Context, sessionID, identity string) error {
	if identity == "" {
		identity = "anonymous"
	}
	if err := p.client.Set(ctx, presencePrefix+sessionID, identity, presenceTTL).Err(); err != nil {
		return fmt.Errorf("presence track: %w", err)
	}
	return nil
}

// Refresh extends a tracked session's TTL. Driven by the transport's ping
// ticker so live connections never expire.
func (p *PresenceStore) Refresh(ctx context.Context, sessionID string) error {
	if err := p.client.Expire(ctx, presencePrefix+sessionID, presenceTTL).Err(); err != nil {
		return fmt.Errorf("presence refresh: %w", err)
	}
	return nil
}

// Untrack removes a session's presence entry.
func (p *PresenceStore) Untrack(ctx context.Context, sessionID string) error {
	if err := p.client.Del(ctx, presencePrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("presence untrack: %w", err)
	}
	return nil
}

// Online lists the identities currently tracked.
func (p *PresenceStore) Online(ctx context.Context) ([]string, error) {
	keys, err := p.client.Keys(ctx, presencePrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("presence scan: %w", err)
	}
	if len(keys) == 0 {
		return []string{}, nil
	}

	vals, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("presence fetch: %w", err)
	}

	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
