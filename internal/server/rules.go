package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	ruledomain "github.com/redeviva/redeviva/internal/commissionrule/domain"
)

func (s *Server) ListCommissionRules(c *gin.Context) {
	rules, err := s.ruleSvc.ListRules(c.Request.Context(), ruledomain.Scope(c.Param("scope")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

type upsertRuleRequest struct {
	Value     int64  `json:"value" binding:"required"`
	ValueKind string `json:"value_kind"`
}

func (s *Server) UpsertCommissionRule(c *gin.Context) {
	generation, err := strconv.Atoi(c.Param("generation"))
	if err != nil {
		AbortWithError(c, ruledomain.ErrInvalidGeneration)
		return
	}

	var req upsertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rule, err := s.ruleSvc.UpsertRule(c.Request.Context(), ruledomain.UpsertRuleRequest{
		Scope:      c.Param("scope"),
		Generation: generation,
		Value:      req.Value,
		ValueKind:  req.ValueKind,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

type setActiveGenerationsRequest struct {
	ActiveGenerations int `json:"active_generations" binding:"required"`
}

func (s *Server) SetActiveGenerations(c *gin.Context) {
	var req setActiveGenerationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	scope, err := s.ruleSvc.SetActiveGenerations(c.Request.Context(), ruledomain.SetActiveGenerationsRequest{
		Scope:             c.Param("scope"),
		ActiveGenerations: req.ActiveGenerations,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, scope)
}
