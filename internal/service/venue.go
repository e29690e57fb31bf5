package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"venue-service/internal/models"
	"venue-service/internal/store"
	"venue-service/internal/util"

	"github.com/google/uuid"
)

// EventSink receives production tickets and venue domain events.
// Publishing is fire-and-forget: failures are logged, never returned to callers.
type EventSink interface {
	PublishProductionTicket(ctx context.Context, event *models.ProductionTicketEvent) error
	PublishItemCancelled(ctx context.Context, event *models.ItemCancelledEvent) error
	PublishOrderFinalized(ctx context.Context, event *models.OrderFinalizedEvent) error
	PublishCashSession(ctx context.Context, event *models.CashSessionEvent) error
	PublishRedemptionRedeemed(ctx context.Context, event *models.RedemptionRedeemedEvent) error
}

// NopEvents drops every event
type NopEvents struct{}

func (NopEvents) PublishProductionTicket(context.Context, *models.ProductionTicketEvent) error {
	return nil
}

func (NopEvents) PublishItemCancelled(context.Context, *models.ItemCancelledEvent) error {
	return nil
}

func (NopEvents) PublishOrderFinalized(context.Context, *models.OrderFinalizedEvent) error {
	return nil
}

func (NopEvents) PublishCashSession(context.Context, *models.CashSessionEvent) error {
	return nil
}

func (NopEvents) PublishRedemptionRedeemed(context.Context, *models.RedemptionRedeemedEvent) error {
	return nil
}

// Deps bundles the collaborators every venue service works through
type Deps struct {
	Docs        *store.Documents
	Locker      store.Locker
	Events      EventSink
	Now         func() time.Time
	LockTimeout time.Duration
}

// NewDeps fills defaults for missing collaborators
func NewDeps(docs *store.Documents, locker store.Locker, events EventSink) *Deps {
	if events == nil {
		events = NopEvents{}
	}
	return &Deps{
		Docs:        docs,
		Locker:      locker,
		Events:      events,
		Now:         time.Now,
		LockTimeout: 5 * time.Second,
	}
}

// withVenue runs fn while holding the venue lock. Every read-modify-write
// of venue documents goes through here.
func (d *Deps) withVenue(ctx context.Context, venueID string, fn func(ctx context.Context) error) (err error) {
	if strings.TrimSpace(venueID) == "" {
		return ErrInvalidVenue
	}

	ctx, span := util.StartVenueSpan(ctx, "venue.locked", venueID)
	defer func() { util.EndSpan(span, err) }()

	start := time.Now()
	lockCtx, cancel := context.WithTimeout(ctx, d.LockTimeout)
	unlock, lockErr := d.Locker.Lock(lockCtx, "venue:"+venueID)
	cancel()
	util.VenueLockLatency.Observe(time.Since(start).Seconds())
	if lockErr != nil {
		return fmt.Errorf("%w: %v", ErrVenueBusy, lockErr)
	}
	defer unlock()

	return fn(ctx)
}

func (d *Deps) now() time.Time {
	return d.Now().UTC()
}

func newBaseEvent(eventType, venueID string, at time.Time) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		VenueID:   venueID,
		Timestamp: at,
	}
}

// Settings manages per-venue capability flags
type Settings struct {
	deps *Deps
}

// NewSettings creates a settings service
func NewSettings(deps *Deps) *Settings {
	return &Settings{deps: deps}
}

// Get returns the venue settings, zero valued when never saved
func (s *Settings) Get(ctx context.Context, venueID string) (*models.VenueSettings, error) {
	var settings models.VenueSettings
	if _, err := s.deps.Docs.Load(ctx, venueID, store.TopicSettings, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Put replaces the venue settings
func (s *Settings) Put(ctx context.Context, venueID string, settings models.VenueSettings) error {
	return s.deps.withVenue(ctx, venueID, func(ctx context.Context) error {
		return s.deps.Docs.Save(ctx, venueID, store.TopicSettings, settings)
	})
}
