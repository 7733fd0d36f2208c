package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) HandleProviderWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	outcome, err := s.webhookSvc.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// An accepted delivery is acknowledged even when handler steps
	// failed; the provider must not redeliver an event we acted on.
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"event_id": outcome.EventID,
	})
}
