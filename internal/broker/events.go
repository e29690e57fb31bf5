package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"venue-service/internal/models"
	"venue-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher publishes production tickets and venue domain events
type EventPublisher struct {
	tickets *Producer
	events  *Producer
}

// NewEventPublisher creates a publisher writing tickets and events to their own topics
func NewEventPublisher(tickets, events *Producer) *EventPublisher {
	return &EventPublisher{tickets: tickets, events: events}
}

// PublishProductionTicket sends a ticket to its production station
func (ep *EventPublisher) PublishProductionTicket(ctx context.Context, event *models.ProductionTicketEvent) error {
	key := fmt.Sprintf("%s-%s", event.VenueID, event.Ticket.ProductionGroup)
	return ep.tickets.PublishEvent(ctx, key, event.EventType, event)
}

// PublishItemCancelled publishes ItemCancelled event
func (ep *EventPublisher) PublishItemCancelled(ctx context.Context, event *models.ItemCancelledEvent) error {
	return ep.events.PublishEvent(ctx, event.VenueID, event.EventType, event)
}

// PublishOrderFinalized publishes OrderFinalized event
func (ep *EventPublisher) PublishOrderFinalized(ctx context.Context, event *models.OrderFinalizedEvent) error {
	return ep.events.PublishEvent(ctx, event.VenueID, event.EventType, event)
}

// PublishCashSession publishes cash session open/close events
func (ep *EventPublisher) PublishCashSession(ctx context.Context, event *models.CashSessionEvent) error {
	return ep.events.PublishEvent(ctx, event.VenueID, event.EventType, event)
}

// PublishRedemptionRedeemed publishes RedemptionRedeemed event
func (ep *EventPublisher) PublishRedemptionRedeemed(ctx context.Context, event *models.RedemptionRedeemedEvent) error {
	return ep.events.PublishEvent(ctx, event.VenueID, event.EventType, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onProductionTicket func(context.Context, *models.ProductionTicketEvent) error
	logger             *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnProductionTicket registers a handler for ProductionTicket events
func (eh *EventHandler) OnProductionTicket(handler func(context.Context, *models.ProductionTicketEvent) error) {
	eh.onProductionTicket = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeProductionTicket:
		if eh.onProductionTicket != nil {
			var event models.ProductionTicketEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductionTicket event: %w", err)
			}
			return eh.onProductionTicket(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
