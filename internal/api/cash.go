package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type openSessionRequest struct {
	OpenedBy    string `json:"opened_by" binding:"required"`
	StartAmount int64  `json:"start_amount" binding:"min=0"`
}

type closeSessionRequest struct {
	ClosedBy  string `json:"closed_by" binding:"required"`
	EndAmount int64  `json:"end_amount" binding:"min=0"`
}

type movementRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"required"`
	// Recipient for payouts, author for reinforcements
	By string `json:"by,omitempty"`
}

type redeemRequest struct {
	Code       string `json:"code" binding:"required"`
	CustomerID string `json:"customer_id" binding:"required"`
}

func (h *Handler) openSession(c *gin.Context) {
	var req openSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.svc.Cash.Open(c.Request.Context(), c.Param("venueID"), req.OpenedBy, req.StartAmount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) currentSession(c *gin.Context) {
	session, err := h.svc.Cash.Current(c.Request.Context(), c.Param("venueID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) sessionHistory(c *gin.Context) {
	sessions, err := h.svc.Cash.History(c.Request.Context(), c.Param("venueID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) sessionReport(c *gin.Context) {
	report, err := h.svc.Cash.Report(c.Request.Context(), c.Param("venueID"), c.Query("session_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) addPayout(c *gin.Context) {
	var req movementRequest
	if !bindJSON(c, &req) {
		return
	}
	payout, err := h.svc.Cash.AddPayout(c.Request.Context(), c.Param("venueID"), req.Amount, req.Reason, req.By)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payout)
}

func (h *Handler) addReinforcement(c *gin.Context) {
	var req movementRequest
	if !bindJSON(c, &req) {
		return
	}
	reinforcement, err := h.svc.Cash.AddReinforcement(c.Request.Context(), c.Param("venueID"), req.Amount, req.Reason, req.By)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reinforcement)
}

func (h *Handler) closeSession(c *gin.Context) {
	var req closeSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.svc.Cash.Close(c.Request.Context(), c.Param("venueID"), req.ClosedBy, req.EndAmount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) redeemCode(c *gin.Context) {
	var req redeemRequest
	if !bindJSON(c, &req) {
		return
	}
	code, err := h.svc.Loyalty.Redeem(c.Request.Context(), c.Param("venueID"), req.Code, req.CustomerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}

func (h *Handler) loyaltyBalance(c *gin.Context) {
	customerID := c.Param("customerID")
	points, err := h.svc.Loyalty.Balance(c.Request.Context(), c.Param("venueID"), customerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": customerID, "points": points})
}
