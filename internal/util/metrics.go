package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsAssignedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_assigned_total",
		Help: "Reservations seated by the allocator, by kind of assignment",
	}, []string{"kind"})

	ReservationsUnassignedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_unassigned_total",
		Help: "Confirmed reservations the allocator could not seat",
	})

	OrderItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_items_added_total",
		Help: "Total number of order item instances added",
	})

	ProductionTicketsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "production_tickets_total",
		Help: "Production tickets emitted per production group",
	}, []string{"group"})

	ProductionTicketsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "production_tickets_failed_total",
		Help: "Production tickets that could not be emitted",
	})

	OrderItemsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_items_cancelled_total",
		Help: "Total quantity of cancelled order items",
	})

	CancellationAuthFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cancellation_auth_failed_total",
		Help: "Cancellation attempts rejected for invalid credentials",
	})

	OrdersFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_finalized_total",
		Help: "Total number of finalized orders",
	}, []string{"payment_method"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Rejected order operations",
	}, []string{"reason"})

	SalesAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_amount_cents_total",
		Help: "Sales recorded in cash sessions, in cents",
	}, []string{"payment_method"})

	CashSessionsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cash_sessions_opened_total",
		Help: "Total number of opened cash sessions",
	})

	CashSessionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cash_sessions_closed_total",
		Help: "Closed cash sessions by drawer balance",
	}, []string{"balance"})

	CashMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cash_movements_total",
		Help: "Manual drawer movements",
	}, []string{"kind"})

	RedemptionCodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redemption_codes_total",
		Help: "Redemption codes issued and redeemed",
	}, []string{"action"})

	ActiveOrders = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "venue_active_orders",
		Help: "Orders currently open per venue",
	}, []string{"venue_id"})

	VenueLockLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "venue_lock_wait_seconds",
		Help:    "Time spent waiting for the venue lock",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
