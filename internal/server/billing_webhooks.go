package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
)

// HandleBillingWebhook ingests one provider delivery. Unsupported event
// types, replays, and stale deliveries are acknowledged with 200 so the
// provider does not retry them.
func (s *Server) HandleBillingWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err = s.billingSvc.ProcessEvent(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, billingdomain.ErrEventIgnored) ||
			errors.Is(err, billingdomain.ErrEventAlreadyProcessed) ||
			errors.Is(err, billingdomain.ErrStaleEvent) {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
