package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	offerdomain "github.com/inkpress/inkpress/internal/offer/domain"
)

func (s *Server) CreateOffer(c *gin.Context) {
	var req offerdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.TierID = strings.TrimSpace(req.TierID)
	req.Kind = strings.TrimSpace(req.Kind)
	req.Currency = strings.TrimSpace(req.Currency)
	req.Duration = strings.TrimSpace(req.Duration)

	resp, err := s.offerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOffers(c *gin.Context) {
	resp, err := s.offerSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOfferByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.offerSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
