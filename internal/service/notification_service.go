package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/civicaid/intake-service/internal/events"
)

// NotificationService forwards ticket domain events to the outbound
// sink. Delivery is best-effort: a failed forward is the sink's problem
// and never reaches the state change that produced the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	producer   *events.KafkaProducer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, producer *events.KafkaProducer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		producer:   producer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to ticket events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handle)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handle)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("organization_id", event.Actor.OrganizationID))
	n.producer.Produce(ctx, event)
	return nil
}
