package worker

import (
	"context"
	"time"

	"venue-service/internal/broker"
	"venue-service/internal/models"
	"venue-service/internal/util"

	"go.uber.org/zap"
)

const dedupTTL = 24 * time.Hour

// TicketBoard stores tickets for station displays
type TicketBoard interface {
	AddTicket(ctx context.Context, ticket models.ProductionTicket) (bool, error)
}

// Deduplicator remembers processed event ids across worker instances
type Deduplicator interface {
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// KitchenWorker projects production tickets from Kafka onto the kitchen board
type KitchenWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	board        TicketBoard
	dedup        Deduplicator
	logger       *zap.Logger
}

// NewKitchenWorker creates a new kitchen worker. dedup may be nil.
func NewKitchenWorker(consumer *broker.Consumer, board TicketBoard, dedup Deduplicator) *KitchenWorker {
	w := &KitchenWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		board:        board,
		dedup:        dedup,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnProductionTicket(w.HandleProductionTicket)
	return w
}

// Start starts the worker
func (w *KitchenWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting kitchen worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *KitchenWorker) Stop() error {
	w.logger.Info("Stopping kitchen worker...")
	return w.consumer.Close()
}

// HandleProductionTicket adds the ticket to the board once per event
func (w *KitchenWorker) HandleProductionTicket(ctx context.Context, event *models.ProductionTicketEvent) error {
	if w.dedup != nil && event.EventID != "" {
		seen, err := w.dedup.CheckIdempotencyKey(ctx, event.EventID)
		if err != nil {
			w.logger.Warn("Idempotency check failed, relying on board dedupe", zap.Error(err))
		} else if seen {
			w.logger.Debug("Skipping duplicate ticket event", zap.String("event_id", event.EventID))
			return nil
		}
	}

	ticket := event.Ticket
	if ticket.VenueID == "" {
		ticket.VenueID = event.VenueID
	}
	added, err := w.board.AddTicket(ctx, ticket)
	if err != nil {
		return err
	}

	if w.dedup != nil && event.EventID != "" {
		if err := w.dedup.SetIdempotencyKey(ctx, event.EventID, ticket.ID, dedupTTL); err != nil {
			w.logger.Warn("Failed to store idempotency key", zap.Error(err))
		}
	}

	w.logger.Info("Ticket received",
		zap.String("venue_id", ticket.VenueID),
		zap.String("production_group", ticket.ProductionGroup),
		zap.Int("items", len(ticket.Items)),
		zap.Bool("added", added))
	return nil
}
