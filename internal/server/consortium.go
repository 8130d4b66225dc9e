package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	consortiumdomain "github.com/redeviva/redeviva/internal/consortium/domain"
)

type createGroupRequest struct {
	Name            string `json:"name" binding:"required"`
	Type            string `json:"type" binding:"required"`
	MaxParticipants int    `json:"max_participants"`
}

func (s *Server) CreateConsortiumGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	group, err := s.consortiumSvc.CreateGroup(c.Request.Context(), consortiumdomain.CreateGroupRequest{
		Name:            req.Name,
		Type:            req.Type,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (s *Server) ListConsortiumGroups(c *gin.Context) {
	groups, err := s.consortiumSvc.ListGroups(c.Request.Context(), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (s *Server) GetConsortiumGroup(c *gin.Context) {
	group, err := s.consortiumSvc.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (s *Server) ListConsortiumParticipants(c *gin.Context) {
	participants, err := s.consortiumSvc.ListParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (s *Server) ListConsortiumDraws(c *gin.Context) {
	draws, err := s.consortiumSvc.ListDraws(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draws": draws})
}

type joinGroupRequest struct {
	AffiliateID string `json:"affiliate_id" binding:"required"`
}

func (s *Server) JoinConsortiumGroup(c *gin.Context) {
	var req joinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	participant, err := s.consortiumSvc.Join(c.Request.Context(), consortiumdomain.JoinRequest{
		GroupID:     c.Param("id"),
		AffiliateID: req.AffiliateID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, participant)
}

type executeDrawRequest struct {
	Seed        string `json:"seed" binding:"required"`
	VideoURL    string `json:"video_url"`
	OfficialURL string `json:"official_url"`
}

func (s *Server) ExecuteConsortiumDraw(c *gin.Context) {
	var req executeDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.consortiumSvc.ExecuteDraw(c.Request.Context(), consortiumdomain.DrawRequest{
		GroupID:     c.Param("id"),
		Seed:        req.Seed,
		VideoURL:    req.VideoURL,
		OfficialURL: req.OfficialURL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyDrawn {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (s *Server) CloseConsortiumGroup(c *gin.Context) {
	group, err := s.consortiumSvc.CloseGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (s *Server) MarkParticipantDefaulted(c *gin.Context) {
	participant, err := s.consortiumSvc.MarkDefaulted(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, participant)
}
