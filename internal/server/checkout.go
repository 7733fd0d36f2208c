package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	paymentsdomain "github.com/inkpress/inkpress/internal/payments/domain"
)

func (s *Server) CreateTierCheckout(c *gin.Context) {
	if !s.checkoutLimiter.Allow(c.Request.Context(), c.ClientIP()) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	var req paymentsdomain.TierCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.checkoutSvc.BuildTierCheckout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateDonationCheckout(c *gin.Context) {
	if !s.checkoutLimiter.Allow(c.Request.Context(), c.ClientIP()) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	var req paymentsdomain.DonationCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// Member attachment requires an authenticated session; the public
	// surface never grants it from the request body.
	req.Authenticated = false

	resp, err := s.checkoutSvc.BuildDonationCheckout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
