package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	portssvc "github.com/imovelhub/backoffice/internal/core/ports/services"
)

// RefreshChannel carries balance refresh notifications to interested
// consumers (dashboards, exporters).
const RefreshChannel = "account-balances-refresh"

// refreshMessage is the wire shape of one refresh notification.
type refreshMessage struct {
	AccountIDs []string  `json:"accountIDs"`
	At         time.Time `json:"at"`
}

// RedisRefreshPublisher invalidates the summary cache and notifies
// subscribers whenever account balances change. The cache bump happens in
// the same call so readers never serve a summary computed before the write.
type RedisRefreshPublisher struct {
	client *redis.Client
	cache  portssvc.SummaryCache
}

// NewRedisRefreshPublisher creates the publisher.
func NewRedisRefreshPublisher(client *redis.Client, cache portssvc.SummaryCache) portssvc.RefreshPublisher {
	return &RedisRefreshPublisher{client: client, cache: cache}
}

var _ portssvc.RefreshPublisher = (*RedisRefreshPublisher)(nil)

// PublishBalancesRefresh bumps the cache generation and publishes the
// refresh notification with the affected account ids.
func (p *RedisRefreshPublisher) PublishBalancesRefresh(ctx context.Context, accountIDs []string) error {
	if _, err := p.cache.Bump(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(refreshMessage{AccountIDs: accountIDs, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode refresh message: %w", err)
	}
	if err := p.client.Publish(ctx, RefreshChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish balance refresh: %w", err)
	}
	return nil
}

// SubscribeBalancesRefresh consumes refresh notifications until the context
// is cancelled, invoking handle for each message. Malformed messages are
// logged and skipped.
func SubscribeBalancesRefresh(ctx context.Context, client *redis.Client, logger *slog.Logger, handle func(accountIDs []string)) {
	sub := client.Subscribe(ctx, RefreshChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload refreshMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				logger.Warn("Dropping malformed balance refresh message", slog.String("error", err.Error()))
				continue
			}
			handle(payload.AccountIDs)
		}
	}
}
