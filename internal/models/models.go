package models

import (
	"time"
)

// Table represents a physical table of a venue
type Table struct {
	ID             string   `json:"id"`
	Number         int      `json:"number"`
	Capacity       int      `json:"capacity"`
	Priority       int      `json:"priority"`
	CombinableWith []string `json:"combinable_with,omitempty"`
	Status         string   `json:"status"`
}

// CanCombineWith reports whether the table may be joined with another table
func (t *Table) CanCombineWith(tableID string) bool {
	for _, id := range t.CombinableWith {
		if id == tableID {
			return true
		}
	}
	return false
}

// Reservation represents a booking for a party at a venue
type Reservation struct {
	ID           string    `json:"id"`
	VenueID      string    `json:"venue_id"`
	PartySize    int       `json:"party_size"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Status       string    `json:"status"`
	CustomerName string    `json:"customer_name,omitempty"`
	Contact      string    `json:"contact,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// AssignedTable is computed per query and never persisted
	AssignedTable string `json:"assigned_table,omitempty"`
}

// OrderItem is one instance of a menu item on an order
type OrderItem struct {
	ItemID          string     `json:"item_id"`
	Quantity        int        `json:"quantity"`
	Status          string     `json:"status"`
	ProductionGroup string     `json:"production_group,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CancelledBy     string     `json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

// Key returns the instance key of the item
func (i *OrderItem) Key() int64 {
	return i.CreatedAt.UnixNano()
}

// Order represents the active or finalized order of a table
type Order struct {
	ID             string      `json:"id"`
	TableID        string      `json:"table_id"`
	VenueID        string      `json:"venue_id"`
	Items          []OrderItem `json:"items"`
	Status         string      `json:"status"`
	PaymentMethod  string      `json:"payment_method,omitempty"`
	Subtotal       int64       `json:"subtotal,omitempty"`
	ServiceFee     int64       `json:"service_fee,omitempty"`
	Total          int64       `json:"total,omitempty"`
	CPF            string      `json:"cpf,omitempty"`
	CashTendered   int64       `json:"cash_tendered,omitempty"`
	Change         int64       `json:"change,omitempty"`
	RedemptionCode string      `json:"redemption_code,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	FinalizedAt    *time.Time  `json:"finalized_at,omitempty"`
}

// FindItem returns the item with the given key and its index, or nil
func (o *Order) FindItem(key int64) (*OrderItem, int) {
	for i := range o.Items {
		if o.Items[i].Key() == key {
			return &o.Items[i], i
		}
	}
	return nil, -1
}

// CountItems counts items in the given status
func (o *Order) CountItems(status string) int {
	n := 0
	for _, item := range o.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// MenuItem is a menu entry as stored by the venue
type MenuItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           string `json:"price"`
	ProductionGroup string `json:"production_group,omitempty"`
}

// Employee is a staff member allowed to authorize cancellations
type Employee struct {
	Name     string `json:"name"`
	Login    string `json:"login"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

// ProductionTicket routes newly queued items to one production station
type ProductionTicket struct {
	ID              string       `json:"id"`
	VenueID         string       `json:"venue_id"`
	TableID         string       `json:"table_id"`
	OrderID         string       `json:"order_id"`
	ProductionGroup string       `json:"production_group"`
	Items           []TicketItem `json:"items"`
	CreatedAt       time.Time    `json:"created_at"`
}

// TicketItem is a line of a production ticket
type TicketItem struct {
	Key      int64  `json:"key"`
	ItemID   string `json:"item_id"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
}

// RedemptionCode can be exchanged once for loyalty points
type RedemptionCode struct {
	Code    string `json:"code"`
	VenueID string `json:"venue_id"`
	// OrderRef is "<cash session id>/<order id>" of the sale that earned the code
	OrderRef   string     `json:"order_ref"`
	Points     int64      `json:"points"`
	IssuedAt   time.Time  `json:"issued_at"`
	RedeemedBy string     `json:"redeemed_by,omitempty"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

// VenueSettings holds per-venue capability flags
type VenueSettings struct {
	LoyaltyEnabled bool `json:"loyalty_enabled"`
}

// Table statuses
const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
)

// Reservation statuses
const (
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusPending   = "pending"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusCheckedIn = "checked_in"
	ReservationStatusNoShow    = "no_show"
)

// Order item statuses
const (
	ItemStatusDraft     = "draft"
	ItemStatusQueued    = "queued"
	ItemStatusReady     = "ready"
	ItemStatusDelivered = "delivered"
	ItemStatusCancelled = "cancelled"
)

// Order statuses
const (
	OrderStatusOpen            = "open"
	OrderStatusAwaitingPayment = "awaiting_payment"
	OrderStatusFinalized       = "finalized"
)

// Payment methods
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCredit = "credit"
	PaymentMethodDebit  = "debit"
	PaymentMethodPix    = "pix"
)

// ValidReservationStatus reports whether status is a known reservation status
func ValidReservationStatus(status string) bool {
	switch status {
	case ReservationStatusConfirmed, ReservationStatusPending, ReservationStatusCancelled,
		ReservationStatusCheckedIn, ReservationStatusNoShow:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether method is one of the accepted payment methods
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCredit, PaymentMethodDebit, PaymentMethodPix:
		return true
	}
	return false
}
