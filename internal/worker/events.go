package worker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/service/notification"
	"github.com/lexhub/deadline-api/pkg/logger"
	"github.com/lexhub/deadline-api/pkg/messaging"
)

// CaseEventsChannel is where the case service publishes procedural
// developments (filings, rulings, phase changes).
const CaseEventsChannel = "case_events"

type caseEventMessage struct {
	TenantID uuid.UUID       `json:"tenant_id"`
	Event    model.CaseEvent `json:"event"`
}

// EventConsumer turns published case events into notifications for the
// case's responsible user.
type EventConsumer struct {
	broker   messaging.Broker
	notifier *notification.Service
	logger   *logger.Logger
}

func NewEventConsumer(broker messaging.Broker, notifier *notification.Service, logger *logger.Logger) *EventConsumer {
	return &EventConsumer{
		broker:   broker,
		notifier: notifier,
		logger:   logger,
	}
}

// Start subscribes and consumes until the context is cancelled.
func (c *EventConsumer) Start(ctx context.Context) error {
	messages, err := c.broker.Subscribe(ctx, CaseEventsChannel)
	if err != nil {
		return err
	}

	go func() {
		for payload := range messages {
			var msg caseEventMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				c.logger.Error(err, "malformed case event message")
				continue
			}

			if _, err := c.notifier.GenerateForEvent(ctx, msg.TenantID, &msg.Event); err != nil {
				c.logger.Error(err, "failed to generate event notification",
					"event_id", msg.Event.ID.String(),
				)
			}
		}
	}()
	return nil
}
