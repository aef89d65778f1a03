package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/models"
)

// NotificationService publishes request lifecycle events on a redis channel.
// Delivery is fire-and-forget: failures are logged and never propagate into
// the triggering operation.
type NotificationService struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewNotificationService constructs the publisher.
func NewNotificationService(client *redis.Client, channel string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel == "" {
		channel = "warden.requests"
	}
	return &NotificationService{client: client, channel: channel, logger: logger}
}

// Notify publishes the event. Errors are swallowed after logging.
func (s *NotificationService) Notify(ctx context.Context, event models.RequestEvent) {
	if s.client == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to encode request event", zap.Error(err))
		return
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.client.Publish(publishCtx, s.channel, payload).Err(); err != nil {
		s.logger.Warn("failed to publish request event",
			zap.String("kind", string(event.Kind)),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}
