package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/subforge/renewals/internal/payment/domain"
)

type webhookEventBody struct {
	EventID          string    `json:"event_id"`
	Type             string    `json:"type"`
	ProfileID        string    `json:"profile_id"`
	TransactionID    string    `json:"transaction_id,omitempty"`
	TransactionState string    `json:"transaction_state,omitempty"`
	Amount           int64     `json:"amount,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	OccurredAt       time.Time `json:"occurred_at,omitempty"`
	Reason           string    `json:"reason,omitempty"`
}

// HandlePaymentWebhook ingests one gateway notification. Domain-level
// failures are acknowledged with 200 so the gateway stops redelivering;
// infrastructure errors surface as 500 so it tries again.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	gatewayID := strings.TrimSpace(c.Param("gateway"))

	var body webhookEventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.Process(c.Request.Context(), paymentdomain.Event{
		Gateway:          gatewayID,
		EventID:          body.EventID,
		Type:             paymentdomain.EventType(body.Type),
		ProfileID:        body.ProfileID,
		TransactionID:    body.TransactionID,
		TransactionState: paymentdomain.TransactionState(body.TransactionState),
		Amount:           body.Amount,
		Currency:         body.Currency,
		OccurredAt:       body.OccurredAt,
		Reason:           body.Reason,
	})
	if err != nil {
		// A structurally invalid event is the sender's bug; reject it
		// instead of acknowledging.
		if errors.Is(err, paymentdomain.ErrInvalidEvent) {
			AbortWithError(c, err)
			return
		}
		if !paymentdomain.SoftFailure(err) {
			AbortWithError(c, err)
			return
		}
	}

	resp := gin.H{"outcome": string(result.Outcome)}
	if result.Detail != "" {
		resp["detail"] = result.Detail
	}
	c.JSON(http.StatusOK, resp)
}
