package handlers

import (
	"errors"
	"net/http"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/credits"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	"github.com/gin-gonic/gin"
)

// CreditHandler serves credit balance and ledger endpoints.
type CreditHandler struct {
	credits *credits.Service
}

// NewCreditHandler constructs a CreditHandler.
func NewCreditHandler(creditSvc *credits.Service) *CreditHandler {
	return &CreditHandler{credits: creditSvc}
}

// Balance returns the stored balance and the reconciled ledger sum.
func (h *CreditHandler) Balance(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	balance, ledgerSum, errReconcile := h.credits.Reconcile(c.Request.Context(), user.ID)
	if errReconcile != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load balance failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"credits":    balance,
		"ledger_sum": ledgerSum,
		"plan":       user.Plan,
	})
}

// Ledger returns the user's ledger entries, newest first.
func (h *CreditHandler) Ledger(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	rows, errLedger := h.credits.Ledger(c.Request.Context(), user.ID)
	if errLedger != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load ledger failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":         row.ID,
			"change":     row.Change,
			"reason":     row.Reason,
			"created_at": row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

// spendRequest defines the request body for spending credits.
type spendRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// Spend charges credits against the authenticated user's balance.
func (h *CreditHandler) Spend(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}

	var body spendRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	reason := models.CreditReason(body.Reason)
	if reason == "" {
		reason = models.CreditReasonDownload
	}
	if reason != models.CreditReasonDownload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown reason"})
		return
	}

	if errSpend := h.credits.Spend(c.Request.Context(), user.ID, body.Amount, reason); errSpend != nil {
		switch {
		case errors.Is(errSpend, credits.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		case errors.Is(errSpend, credits.ErrInsufficientCredits):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient credits"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "spend failed"})
		}
		return
	}

	balance, errBalance := h.credits.Balance(c.Request.Context(), user.ID)
	if errBalance != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load balance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": balance})
}
