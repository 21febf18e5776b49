package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/payments"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentHandler serves checkout session and payment endpoints.
type PaymentHandler struct {
	db       *gorm.DB
	payments *payments.Service
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(db *gorm.DB, paymentSvc *payments.Service) *PaymentHandler {
	return &PaymentHandler{db: db, payments: paymentSvc}
}

// createSessionRequest defines the request body for session creation.
type createSessionRequest struct {
	Gateway    string  `json:"gateway"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	CreationID *uint64 `json:"creation_id"`
	Type       string  `json:"type"`
	CreditQty  int     `json:"credit_qty"`
}

// CreateSession opens a pending checkout session for the user.
func (h *PaymentHandler) CreateSession(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	var body createSessionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	session, errCreate := h.payments.CreateSession(c.Request.Context(), payments.CreateSessionParams{
		UserID:     user.ID,
		Gateway:    models.PaymentGateway(strings.ToLower(strings.TrimSpace(body.Gateway))),
		Amount:     body.Amount,
		Currency:   body.Currency,
		CreationID: body.CreationID,
		Type:       models.SessionType(strings.ToLower(strings.TrimSpace(body.Type))),
		CreditQty:  body.CreditQty,
	})
	if errCreate != nil {
		if errors.Is(errCreate, payments.ErrUnknownGateway) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown gateway"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create session failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       session.ID,
		"order_id": session.OrderID,
		"gateway":  session.Gateway,
		"amount":   session.Amount,
		"currency": session.Currency,
		"type":     session.Type,
		"status":   session.Status,
	})
}

// completeSessionRequest defines the request body for session completion.
type completeSessionRequest struct {
	TransactionID string `json:"transaction_id"`
}

// CompleteSession confirms a pending session and applies its side effects.
func (h *PaymentHandler) CompleteSession(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	sessionID := strings.TrimSpace(c.Param("id"))
	if !h.ownsSession(c, user.ID, sessionID) {
		return
	}

	var body completeSessionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	session, errComplete := h.payments.CompleteSession(c.Request.Context(), sessionID, body.TransactionID)
	if errComplete != nil {
		if errors.Is(errComplete, payments.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "session is not pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "complete session failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             session.ID,
		"status":         session.Status,
		"transaction_id": session.TransactionID,
	})
}

// CancelSession cancels a pending session.
func (h *PaymentHandler) CancelSession(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	sessionID := strings.TrimSpace(c.Param("id"))
	if !h.ownsSession(c, user.ID, sessionID) {
		return
	}

	if errCancel := h.payments.CancelSession(c.Request.Context(), sessionID); errCancel != nil {
		if errors.Is(errCancel, payments.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "session is not pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel session failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": sessionID, "status": models.SessionStatusCancelled})
}

// List returns the user's payments, newest first.
func (h *PaymentHandler) List(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	rows, errList := h.payments.ListPayments(c.Request.Context(), user.ID)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list payments failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":         row.ID,
			"type":       row.Type,
			"amount":     row.Amount,
			"provider":   row.Provider,
			"status":     row.Status,
			"created_at": row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}

// ownsSession verifies the session exists and belongs to the user.
func (h *PaymentHandler) ownsSession(c *gin.Context, userID uint64, sessionID string) bool {
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return false
	}
	var session models.PaymentSession
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load session failed"})
		return false
	}
	return true
}
