package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/redeviva/redeviva/internal/commission/domain"
)

type paymentWebhookRequest struct {
	PurchaseID  string `json:"purchase_id" binding:"required"`
	AffiliateID string `json:"affiliate_id" binding:"required"`
	Scope       string `json:"scope" binding:"required"`
	BaseAmount  int64  `json:"base_amount" binding:"required"`
}

// HandlePaymentWebhook receives the payment collaborator's confirmation that
// a purchase is paid and runs the commission cascade. Redelivered purchases
// are acknowledged with the prior result.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.commissionSvc.ProcessConfirmedPurchase(c.Request.Context(), commissiondomain.ProcessPurchaseRequest{
		PurchaseID:  req.PurchaseID,
		AffiliateID: req.AffiliateID,
		Scope:       req.Scope,
		BaseAmount:  req.BaseAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyProcessed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (s *Server) ListPurchaseCommissions(c *gin.Context) {
	purchaseID := strings.TrimSpace(c.Param("id"))
	if purchaseID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	events, err := s.commissionSvc.EventsByPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissions": events})
}
