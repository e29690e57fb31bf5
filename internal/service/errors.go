package service

import "errors"

// Errors returned by the venue services. Callers map them to operator messages.
var (
	ErrVenueBusy                = errors.New("venue is busy")
	ErrInvalidVenue             = errors.New("invalid venue id")
	ErrTableNotFound            = errors.New("table not found")
	ErrInvalidTable             = errors.New("invalid table")
	ErrTableOccupied            = errors.New("table has an active order")
	ErrReservationNotFound      = errors.New("reservation not found")
	ErrInvalidReservation       = errors.New("invalid reservation")
	ErrMenuItemNotFound         = errors.New("menu item not found")
	ErrInvalidMenuItem          = errors.New("invalid menu item")
	ErrInvalidEmployee          = errors.New("invalid employee")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderAlreadyFinalized    = errors.New("order already finalized")
	ErrItemNotFound             = errors.New("order item not found")
	ErrInvalidQuantity          = errors.New("invalid quantity")
	ErrInvalidTransition        = errors.New("invalid state transition")
	ErrNoDraftItems             = errors.New("no draft items to send")
	ErrInvalidPaymentMethod     = errors.New("invalid payment method")
	ErrInsufficientCashTendered = errors.New("cash tendered is less than the total")
	ErrSessionAlreadyOpen       = errors.New("cash session already open")
	ErrNoOpenSession            = errors.New("no active cash session")
	ErrSessionNotFound          = errors.New("cash session not found")
	ErrSaleAlreadyRecorded      = errors.New("sale already recorded")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrReasonRequired           = errors.New("reason is required")
	ErrCodeNotFound             = errors.New("redemption code not found")
	ErrCodeAlreadyRedeemed      = errors.New("redemption code already redeemed")
	ErrInvalidCustomer          = errors.New("customer id is required")
)
