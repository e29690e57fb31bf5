package api

import (
	"net/http"
	"strconv"

	"venue-service/internal/service"

	"github.com/gin-gonic/gin"
)

type adjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type itemKeysRequest struct {
	Keys []int64 `json:"keys" binding:"required,min=1"`
}

type cancelRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type billRequest struct {
	ServiceFee bool `json:"service_fee"`
}

func (h *Handler) listActiveOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListActive(c.Request.Context(), c.Param("venueID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) orderHistory(c *gin.Context) {
	orders, err := h.svc.Orders.History(c.Request.Context(), c.Param("venueID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.svc.Orders.GetOrder(c.Request.Context(), c.Param("venueID"), c.Param("tableID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) abandonOrder(c *gin.Context) {
	if err := h.svc.Orders.Abandon(c.Request.Context(), c.Param("venueID"), c.Param("tableID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addItem(c *gin.Context) {
	var req service.AddItemRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.AddItem(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) adjustQuantity(c *gin.Context) {
	key, ok := itemKey(c)
	if !ok {
		return
	}
	var req adjustRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.AdjustQuantity(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), key, req.Delta)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) removeDraftItem(c *gin.Context) {
	key, ok := itemKey(c)
	if !ok {
		return
	}
	order, err := h.svc.Orders.RemoveDraftItem(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), key)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) cancelItem(c *gin.Context) {
	key, ok := itemKey(c)
	if !ok {
		return
	}
	var req cancelRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.CancelItem(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), key, req.Login, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) sendToProduction(c *gin.Context) {
	tickets, err := h.svc.Orders.SendToProduction(c.Request.Context(), c.Param("venueID"), c.Param("tableID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (h *Handler) markReady(c *gin.Context) {
	var req itemKeysRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.MarkReady(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), req.Keys)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) markDelivered(c *gin.Context) {
	var req itemKeysRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.MarkDelivered(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), req.Keys)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) previewBill(c *gin.Context) {
	withFee, _ := strconv.ParseBool(c.DefaultQuery("service_fee", "false"))
	bill, err := h.svc.Orders.Bill(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), withFee)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *Handler) requestBill(c *gin.Context) {
	var req billRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	bill, err := h.svc.Orders.RequestBill(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), req.ServiceFee)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *Handler) finalize(c *gin.Context) {
	var req service.FinalizeRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.Finalize(c.Request.Context(), c.Param("venueID"), c.Param("tableID"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) kitchenTickets(c *gin.Context) {
	tickets, err := h.svc.Kitchen.Tickets(c.Request.Context(), c.Param("venueID"), c.Query("group"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (h *Handler) dismissTicket(c *gin.Context) {
	if err := h.svc.Kitchen.Dismiss(c.Request.Context(), c.Param("venueID"), c.Param("ticketID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func itemKey(c *gin.Context) (int64, bool) {
	key, err := strconv.ParseInt(c.Param("key"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item key",
		})
		return 0, false
	}
	return key, true
}
