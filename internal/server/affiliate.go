package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	affiliatedomain "github.com/redeviva/redeviva/internal/affiliate/domain"
)

type createAffiliateRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	SponsorID string `json:"sponsor_id"`
}

func (s *Server) CreateAffiliate(c *gin.Context) {
	var req createAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	affiliate, err := s.affiliateSvc.Register(c.Request.Context(), affiliatedomain.RegisterRequest{
		Name:      req.Name,
		Email:     req.Email,
		SponsorID: req.SponsorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, affiliate)
}

func (s *Server) ListAffiliates(c *gin.Context) {
	var active *bool
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		active = &parsed
	}

	pageSize := 0
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		pageSize = parsed
	}

	resp, err := s.affiliateSvc.List(c.Request.Context(), affiliatedomain.ListRequest{
		PageToken: c.Query("page_token"),
		PageSize:  pageSize,
		Email:     c.Query("email"),
		Active:    active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetAffiliate(c *gin.Context) {
	affiliate, err := s.affiliateSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, affiliate)
}

func (s *Server) GetAffiliateBalance(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, affiliatedomain.ErrInvalidID)
		return
	}

	balance, err := s.ledgerSvc.GetBalance(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (s *Server) ListAffiliateCommissions(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, affiliatedomain.ErrInvalidID)
		return
	}

	events, err := s.ledgerSvc.EventsByBeneficiary(c.Request.Context(), id, 0)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissions": events})
}

func (s *Server) ListAffiliateWithdrawals(c *gin.Context) {
	withdrawals, err := s.withdrawalSvc.ListByAffiliate(c.Request.Context(), c.Param("id"), 0)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

func (s *Server) VerifyAffiliate(c *gin.Context) {
	affiliate, err := s.affiliateSvc.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, affiliate)
}

func (s *Server) BlockAffiliate(c *gin.Context) {
	affiliate, err := s.affiliateSvc.Block(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, affiliate)
}

func (s *Server) UnblockAffiliate(c *gin.Context) {
	affiliate, err := s.affiliateSvc.Unblock(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, affiliate)
}

func (s *Server) DeactivateAffiliate(c *gin.Context) {
	if err := s.affiliateSvc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
