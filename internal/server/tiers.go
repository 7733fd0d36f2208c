package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
)

func (s *Server) CreateTier(c *gin.Context) {
	var req tierdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Currency = strings.TrimSpace(req.Currency)
	req.Kind = strings.TrimSpace(req.Kind)

	resp, err := s.tierSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTiers(c *gin.Context) {
	resp, err := s.tierSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTierByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.tierSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenameTier(c *gin.Context) {
	var req tierdomain.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.ID = strings.TrimSpace(c.Param("id"))
	req.Name = strings.TrimSpace(req.Name)

	resp, err := s.tierSvc.Rename(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ChangeTierPrice(c *gin.Context) {
	var req tierdomain.ChangePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.ID = strings.TrimSpace(c.Param("id"))
	req.Currency = strings.TrimSpace(req.Currency)

	resp, err := s.tierSvc.ChangePrice(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
