// internal/webhook/dedup.go
package webhook

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"line-parking-bot/internal/common/logger"
)

const dedupKeyPrefix = "webhook:event:"

// Deduper claims webhook event ids in Redis so redelivered events are handled once.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewDeduper returns a Deduper. A nil client disables deduplication.
func NewDeduper(client *redis.Client, ttl time.Duration, log logger.Logger) *Deduper {
	return &Deduper{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "dedup"}),
	}
}

// Seen claims eventID and reports whether it had already been claimed.
// Redis failures let the event through.
func (d *Deduper) Seen(ctx context.Context, eventID string) bool {
	if d == nil || d.client == nil || eventID == "" {
		return false
	}

	claimed, err := d.client.SetNX(ctx, dedupKeyPrefix+eventID, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("dedup check failed", map[string]interface{}{
			"webhookEventId": eventID,
			"error":          err.Error(),
		})
		return false
	}
	return !claimed
}
