package dashboard

import (
	"context"

	"bankdash/internal/amqp"
	"bankdash/internal/log"
)

// ActivityPublisher receives one event per attempted mutating action.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, msg *amqp.ActivityMessage) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishActivity(context.Context, *amqp.ActivityMessage) error { return nil }

// publishActivity never lets a publishing failure affect the action.
func publishActivity(ctx context.Context, pub ActivityPublisher, logger *log.Logger, msg *amqp.ActivityMessage) {
	if pub == nil {
		return
	}
	if len(msg.SessionID) > 8 {
		msg.SessionID = msg.SessionID[:8]
	}
	if err := pub.PublishActivity(ctx, msg); err != nil {
		logger.WarnContext(ctx, "Failed to publish activity",
			log.FieldActivityID, msg.ID, log.FieldOperation, msg.Kind, log.FieldError, err)
	}
}
