package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"venue-service/internal/models"
	"venue-service/internal/service"
	"venue-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services bundles the venue services exposed over HTTP
type Services struct {
	Tables       *service.TableRegistry
	Reservations *service.ReservationBook
	Menu         *service.Menu
	Employees    *service.Employees
	Settings     *service.Settings
	Orders       *service.OrderService
	Cash         *service.CashLedger
	Loyalty      *service.Loyalty
	Kitchen      *service.KitchenBoard

	// Ready reports whether backing stores are reachable; nil means always ready
	Ready func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	svc    Services
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc, logger: util.GetLogger()}
}

// RegisterValidators adds the custom binding tags used by request structs
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("paymentmethod", func(fl validator.FieldLevel) bool {
		return models.ValidPaymentMethod(fl.Field().String())
	})
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	venue := router.Group("/api/v1/venues/:venueID")
	{
		venue.GET("/tables", h.listTables)
		venue.PUT("/tables", h.upsertTable)
		venue.GET("/tables/:tableID", h.getTable)
		venue.DELETE("/tables/:tableID", h.removeTable)
		venue.POST("/tables/:tableID/combinable", h.setCombinable)
		venue.GET("/occupancy", h.occupancy)

		venue.POST("/reservations", h.createReservation)
		venue.GET("/reservations", h.listReservations)
		venue.GET("/reservations/:reservationID", h.getReservation)
		venue.PATCH("/reservations/:reservationID/status", h.updateReservationStatus)
		venue.DELETE("/reservations/:reservationID", h.deleteReservation)

		venue.GET("/menu", h.listMenu)
		venue.PUT("/menu", h.upsertMenuItem)
		venue.GET("/employees", h.listEmployees)
		venue.PUT("/employees", h.upsertEmployee)
		venue.GET("/settings", h.getSettings)
		venue.PUT("/settings", h.putSettings)

		venue.GET("/orders", h.listActiveOrders)
		venue.GET("/orders/history", h.orderHistory)
		venue.GET("/tables/:tableID/order", h.getOrder)
		venue.DELETE("/tables/:tableID/order", h.abandonOrder)
		venue.POST("/tables/:tableID/order/items", h.addItem)
		venue.PATCH("/tables/:tableID/order/items/:key", h.adjustQuantity)
		venue.DELETE("/tables/:tableID/order/items/:key", h.removeDraftItem)
		venue.POST("/tables/:tableID/order/items/:key/cancel", h.cancelItem)
		venue.POST("/tables/:tableID/order/send", h.sendToProduction)
		venue.POST("/tables/:tableID/order/ready", h.markReady)
		venue.POST("/tables/:tableID/order/delivered", h.markDelivered)
		venue.GET("/tables/:tableID/order/bill", h.previewBill)
		venue.POST("/tables/:tableID/order/bill", h.requestBill)
		venue.POST("/tables/:tableID/order/finalize", h.finalize)

		venue.GET("/kitchen/tickets", h.kitchenTickets)
		venue.DELETE("/kitchen/tickets/:ticketID", h.dismissTicket)

		venue.POST("/cash/open", h.openSession)
		venue.GET("/cash/current", h.currentSession)
		venue.GET("/cash/history", h.sessionHistory)
		venue.GET("/cash/report", h.sessionReport)
		venue.POST("/cash/payouts", h.addPayout)
		venue.POST("/cash/reinforcements", h.addReinforcement)
		venue.POST("/cash/close", h.closeSession)

		venue.POST("/loyalty/redeem", h.redeemCode)
		venue.GET("/loyalty/balances/:customerID", h.loyaltyBalance)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.svc.Ready != nil {
		if err := h.svc.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"details": err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listTables(c *gin.Context) {
	tables, err := h.svc.Tables.ListTables(c.Request.Context(), c.Param("venueID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (h *Handler) getTable(c *gin.Context) {
	table, err := h.svc.Tables.GetTable(c.Request.Context(), c.Param("venueID"), c.Param("tableID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *Handler) upsertTable(c *gin.Context) {
	var table models.Table
	if !bindJSON(c, &table) {
		return
	}
	saved, err := h.svc.Tables.UpsertTable(c.Request.Context(), c.Param("venueID"), table)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) removeTable(c *gin.Context) {
	if err := h.svc.Tables.RemoveTable(c.Request.Context(), c.Param("venueID"), c.Param("tableID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type combinableRequest struct {
	TableID    string `json:"table_id" binding:"required"`
	Combinable bool   `json:"combinable"`
}

func (h *Handler) setCombinable(c *gin.Context) {
	var req combinableRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.Tables.SetCombinable(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), req.TableID, req.Combinable)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) occupancy(c *gin.Context) {
	occupancy, err := h.svc.Tables.Occupancy(c.Request.Context(), c.Param("venueID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"occupancy": occupancy})
}

func (h *Handler) createReservation(c *gin.Context) {
	var req service.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	reservation, err := h.svc.Reservations.Create(c.Request.Context(), c.Param("venueID"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

func (h *Handler) listReservations(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	reservations, err := h.svc.Reservations.ListForDay(c.Request.Context(), c.Param("venueID"), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "reservations": reservations})
}

func (h *Handler) getReservation(c *gin.Context) {
	reservation, err := h.svc.Reservations.Get(c.Request.Context(), c.Param("venueID"), c.Param("reservationID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateReservationStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	reservation, err := h.svc.Reservations.UpdateStatus(c.Request.Context(), c.Param("venueID"), c.Param("reservationID"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

func (h *Handler) deleteReservation(c *gin.Context) {
	if err := h.svc.Reservations.Delete(c.Request.Context(), c.Param("venueID"), c.Param("reservationID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listMenu(c *gin.Context) {
	items, err := h.svc.Menu.ListMenu(c.Request.Context(), c.Param("venueID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) upsertMenuItem(c *gin.Context) {
	var item models.MenuItem
	if !bindJSON(c, &item) {
		return
	}
	saved, err := h.svc.Menu.UpsertMenuItem(c.Request.Context(), c.Param("venueID"), item)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) listEmployees(c *gin.Context) {
	employees, err := h.svc.Employees.ListEmployees(c.Request.Context(), c.Param("venueID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

func (h *Handler) upsertEmployee(c *gin.Context) {
	var employee models.Employee
	if !bindJSON(c, &employee) {
		return
	}
	if err := h.svc.Employees.UpsertEmployee(c.Request.Context(), c.Param("venueID"), employee); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getSettings(c *gin.Context) {
	settings, err := h.svc.Settings.Get(c.Request.Context(), c.Param("venueID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) putSettings(c *gin.Context) {
	var settings models.VenueSettings
	if !bindJSON(c, &settings) {
		return
	}
	if err := h.svc.Settings.Put(c.Request.Context(), c.Param("venueID"), settings); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// respondError maps service errors to HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrCodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrTableOccupied),
		errors.Is(err, service.ErrOrderAlreadyFinalized),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNoDraftItems),
		errors.Is(err, service.ErrSessionAlreadyOpen),
		errors.Is(err, service.ErrNoOpenSession),
		errors.Is(err, service.ErrSaleAlreadyRecorded),
		errors.Is(err, service.ErrCodeAlreadyRedeemed):
		status = http.StatusConflict
	case errors.Is(err, service.ErrVenueBusy):
		status = http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInvalidVenue),
		errors.Is(err, service.ErrInvalidTable),
		errors.Is(err, service.ErrInvalidReservation),
		errors.Is(err, service.ErrInvalidMenuItem),
		errors.Is(err, service.ErrInvalidEmployee),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInsufficientCashTendered),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrInvalidCustomer):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
