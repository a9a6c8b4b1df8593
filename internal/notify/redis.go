// Package notify delivers digests of top-scored candidates.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobradar/internal/model"
)

// DefaultChannel is the pub/sub channel digests are published on.
const DefaultChannel = "EVENT_TOP_CANDIDATES"

// digest is the published payload.
type digest struct {
	Type       string            `json:"type"`
	Tier       string            `json:"tier"`
	SentAt     time.Time         `json:"sentAt"`
	Candidates []model.Candidate `json:"candidates"`
}

// RedisNotifier publishes candidate digests over Redis pub/sub so other
// services can react to fresh discoveries.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

// NewRedisNotifier publishes on channel, falling back to DefaultChannel
// when empty.
func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{rdb: rdb, channel: channel}
}

// Notify publishes the digest as a single JSON event.
func (n *RedisNotifier) Notify(ctx context.Context, candidates []model.Candidate, label string) error {
	if len(candidates) == 0 {
		return nil
	}

	event, err := json.Marshal(digest{
		Type:       DefaultChannel,
		Tier:       label,
		SentAt:     time.Now().UTC(),
		Candidates: candidates,
	})
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}

	if err := n.rdb.Publish(ctx, n.channel, event).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	return nil
}
