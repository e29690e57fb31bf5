package models

import "time"

// CashSession is one drawer session of a venue register
type CashSession struct {
	ID                string          `json:"id"`
	VenueID           string          `json:"venue_id"`
	Status            string          `json:"status"`
	OpenedBy          string          `json:"opened_by"`
	OpenedAt          time.Time       `json:"opened_at"`
	StartAmount       int64           `json:"start_amount"`
	Payouts           []Payout        `json:"payouts"`
	Reinforcements    []Reinforcement `json:"reinforcements"`
	CancellationCount int             `json:"cancellation_count"`
	ClosedBy          string          `json:"closed_by,omitempty"`
	ClosedAt          *time.Time      `json:"closed_at,omitempty"`
	EndAmount         *int64          `json:"end_amount,omitempty"`
	Sales             SalesSummary    `json:"sales"`
}

// SalesSummary aggregates the sales recorded in a session
type SalesSummary struct {
	Total           int64        `json:"total"`
	ByMethod        MethodTotals `json:"by_method"`
	AppliedOrderIDs []string     `json:"applied_order_ids"`
}

// MethodTotals holds sale totals per payment method
type MethodTotals struct {
	Cash   int64 `json:"cash"`
	Credit int64 `json:"credit"`
	Debit  int64 `json:"debit"`
	Pix    int64 `json:"pix"`
}

// Add adds amount to the bucket of method. Unknown methods are ignored.
func (m *MethodTotals) Add(method string, amount int64) bool {
	switch method {
	case PaymentMethodCash:
		m.Cash += amount
	case PaymentMethodCredit:
		m.Credit += amount
	case PaymentMethodDebit:
		m.Debit += amount
	case PaymentMethodPix:
		m.Pix += amount
	default:
		return false
	}
	return true
}

// Applied reports whether the sale of an order was already recorded
func (s *SalesSummary) Applied(orderID string) bool {
	for _, id := range s.AppliedOrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}

// Payout is cash removed from the drawer during a session
type Payout struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
	Recipient string    `json:"recipient,omitempty"`
}

// Reinforcement is cash added to the drawer during a session
type Reinforcement struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
	AddedBy   string    `json:"added_by,omitempty"`
}

// TotalPayouts sums all payouts of the session
func (s *CashSession) TotalPayouts() int64 {
	var total int64
	for _, p := range s.Payouts {
		total += p.Amount
	}
	return total
}

// TotalReinforcements sums all reinforcements of the session
func (s *CashSession) TotalReinforcements() int64 {
	var total int64
	for _, r := range s.Reinforcements {
		total += r.Amount
	}
	return total
}

// CashReport is the closing reconciliation of a session.
// StartAmount is context only and is not part of ExpectedCash.
type CashReport struct {
	SessionID           string       `json:"session_id"`
	Status              string       `json:"status"`
	StartAmount         int64        `json:"start_amount"`
	SalesTotal          int64        `json:"sales_total"`
	SalesByMethod       MethodTotals `json:"sales_by_method"`
	CashSales           int64        `json:"cash_sales"`
	TotalReinforcements int64        `json:"total_reinforcements"`
	TotalPayouts        int64        `json:"total_payouts"`
	ExpectedCash        int64        `json:"expected_cash"`
	EndAmount           *int64       `json:"end_amount,omitempty"`
	Difference          *int64       `json:"difference,omitempty"`
	Balance             string       `json:"balance,omitempty"`
	CancellationCount   int          `json:"cancellation_count"`
}

// Cash session statuses
const (
	CashSessionOpen   = "open"
	CashSessionClosed = "closed"
)

// Drawer balance labels
const (
	BalanceBalanced = "balanced"
	BalanceSurplus  = "surplus"
	BalanceShortage = "shortage"
)
