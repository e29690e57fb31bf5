package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Venue document topics
const (
	TopicTables          = "tables"
	TopicReservations    = "reservations"
	TopicOrders          = "orders"
	TopicOrderHistory    = "order_history"
	TopicCashSessions    = "cash_sessions"
	TopicMenu            = "menu"
	TopicEmployees       = "employees"
	TopicKitchenBoard    = "kitchen_board"
	TopicRedemptionCodes = "redemption_codes"
	TopicLoyaltyBalances = "loyalty_balances"
	TopicSettings        = "settings"
)

// ChangeHandler is called after a venue document has been written
type ChangeHandler func(ctx context.Context, venueID, topic string)

type subscription struct {
	id      int
	handler ChangeHandler
}

// Documents stores JSON documents per venue and topic on top of a KV
// and notifies subscribers when one changes.
type Documents struct {
	kv KV

	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   int
	relay    ChangeHandler
}

// NewDocuments wraps a KV
func NewDocuments(kv KV) *Documents {
	return &Documents{
		kv:       kv,
		handlers: make(map[string][]subscription),
	}
}

// Key builds the KV key of a venue topic
func Key(venueID, topic string) string {
	return fmt.Sprintf("venue:%s:%s", venueID, topic)
}

// Load decodes the document into v. It reports false when the document does not exist.
func (d *Documents) Load(ctx context.Context, venueID, topic string, v interface{}) (bool, error) {
	raw, err := d.kv.Get(ctx, Key(venueID, topic))
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", Key(venueID, topic), err)
	}
	return true, nil
}

// Save encodes v, writes it and notifies subscribers of the topic
func (d *Documents) Save(ctx context.Context, venueID, topic string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", Key(venueID, topic), err)
	}
	if err := d.kv.Set(ctx, Key(venueID, topic), raw); err != nil {
		return err
	}
	d.notify(ctx, venueID, topic)
	return nil
}

// OnChange subscribes to writes of a topic. The returned func unsubscribes.
func (d *Documents) OnChange(topic string, handler ChangeHandler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.handlers[topic] = append(d.handlers[topic], subscription{id: id, handler: handler})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		subs := d.handlers[topic]
		for i, sub := range subs {
			if sub.id == id {
				d.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SetRelay forwards every change to an out-of-process channel
func (d *Documents) SetRelay(relay ChangeHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.relay = relay
}

// Dispatch notifies local subscribers of a change written by another process.
// It is not relayed again.
func (d *Documents) Dispatch(ctx context.Context, venueID, topic string) {
	d.mu.RLock()
	subs := append([]subscription(nil), d.handlers[topic]...)
	d.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(ctx, venueID, topic)
	}
}

func (d *Documents) notify(ctx context.Context, venueID, topic string) {
	d.Dispatch(ctx, venueID, topic)

	d.mu.RLock()
	relay := d.relay
	d.mu.RUnlock()
	if relay != nil {
		relay(ctx, venueID, topic)
	}
}
