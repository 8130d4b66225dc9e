package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	withdrawaldomain "github.com/redeviva/redeviva/internal/withdrawal/domain"
)

type requestWithdrawalRequest struct {
	AffiliateID    string `json:"affiliate_id" binding:"required"`
	Amount         int64  `json:"amount" binding:"required"`
	DestinationKey string `json:"destination_key" binding:"required"`
}

func (s *Server) RequestWithdrawal(c *gin.Context) {
	var req requestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	withdrawal, err := s.withdrawalSvc.Request(c.Request.Context(), withdrawaldomain.RequestWithdrawal{
		AffiliateID:    req.AffiliateID,
		Amount:         req.Amount,
		DestinationKey: req.DestinationKey,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, withdrawal)
}

func (s *Server) ListWithdrawals(c *gin.Context) {
	withdrawals, err := s.withdrawalSvc.ListByStatus(c.Request.Context(), c.Query("status"), 0)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

func (s *Server) ApproveWithdrawal(c *gin.Context) {
	withdrawal, err := s.withdrawalSvc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

func (s *Server) RejectWithdrawal(c *gin.Context) {
	withdrawal, err := s.withdrawalSvc.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

func (s *Server) BatchPayWithdrawals(c *gin.Context) {
	result, err := s.withdrawalSvc.BatchPay(c.Request.Context())
	if err != nil {
		// A partial batch still reports per-item outcomes; surface both.
		c.JSON(http.StatusMultiStatus, gin.H{"result": result, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
