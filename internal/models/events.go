package models

import "time"

// Event types
const (
	EventTypeProductionTicket   = "PRODUCTION_TICKET"
	EventTypeItemCancelled      = "ITEM_CANCELLED"
	EventTypeOrderFinalized     = "ORDER_FINALIZED"
	EventTypeCashSessionOpened  = "CASH_SESSION_OPENED"
	EventTypeCashSessionClosed  = "CASH_SESSION_CLOSED"
	EventTypeRedemptionRedeemed = "REDEMPTION_REDEEMED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	VenueID   string    `json:"venue_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductionTicketEvent carries a ticket to a production station
type ProductionTicketEvent struct {
	BaseEvent
	Ticket ProductionTicket `json:"ticket"`
}

// ItemCancelledEvent published when a queued or ready item is cancelled
type ItemCancelledEvent struct {
	BaseEvent
	OrderID     string `json:"order_id"`
	TableID     string `json:"table_id"`
	ItemID      string `json:"item_id"`
	Quantity    int    `json:"quantity"`
	CancelledBy string `json:"cancelled_by"`
}

// OrderFinalizedEvent published when an order is paid
type OrderFinalizedEvent struct {
	BaseEvent
	OrderID       string `json:"order_id"`
	TableID       string `json:"table_id"`
	PaymentMethod string `json:"payment_method"`
	Total         int64  `json:"total"`
}

// CashSessionEvent published when a drawer session opens or closes
type CashSessionEvent struct {
	BaseEvent
	SessionID    string `json:"session_id"`
	ExpectedCash int64  `json:"expected_cash,omitempty"`
	Difference   int64  `json:"difference,omitempty"`
}

// RedemptionRedeemedEvent published when a loyalty code is exchanged for points
type RedemptionRedeemedEvent struct {
	BaseEvent
	Code       string `json:"code"`
	CustomerID string `json:"customer_id"`
	Points     int64  `json:"points"`
}
