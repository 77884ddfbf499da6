package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
	"github.com/subforge/renewals/pkg/db/pagination"
)

func (s *Server) CreateSubscription(c *gin.Context) {
	var req subscriptiondomain.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type listSubscriptionsQuery struct {
	pagination.Pagination
	Status      string `form:"status"`
	Gateway     string `form:"gateway"`
	ProductID   string `form:"product_id"`
	Search      string `form:"search"`
	CreatedFrom string `form:"created_from"`
	CreatedTo   string `form:"created_to"`
}

func (q listSubscriptionsQuery) toRequest() (subscriptiondomain.ListSubscriptionRequest, error) {
	createdFrom, err := parseOptionalTime(q.CreatedFrom, false)
	if err != nil {
		return subscriptiondomain.ListSubscriptionRequest{}, newValidationError("created_from", "invalid_created_from", "invalid created_from")
	}

	createdTo, err := parseOptionalTime(q.CreatedTo, true)
	if err != nil {
		return subscriptiondomain.ListSubscriptionRequest{}, newValidationError("created_to", "invalid_created_to", "invalid created_to")
	}

	return subscriptiondomain.ListSubscriptionRequest{
		Status:      strings.TrimSpace(q.Status),
		Gateway:     strings.TrimSpace(q.Gateway),
		ProductID:   strings.TrimSpace(q.ProductID),
		Search:      strings.TrimSpace(q.Search),
		PageToken:   q.PageToken,
		PageSize:    int32(q.PageSize),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}, nil
}

func (s *Server) ListSubscriptions(c *gin.Context) {
	var query listSubscriptionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req, err := query.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.subscriptionSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Subscriptions, "page_info": resp.PageInfo})
}

func (s *Server) CountSubscriptions(c *gin.Context) {
	var query listSubscriptionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req, err := query.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	count, err := s.subscriptionSvc.Count(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Server) ExportSubscriptions(c *gin.Context) {
	var query listSubscriptionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req, err := query.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("subscriptions-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.subscriptionSvc.ExportCSV(c.Request.Context(), req, c.Writer); err != nil {
		// Headers may already be out; log instead of rewriting the response.
		s.log.Error("subscription export failed")
		AbortWithError(c, err)
	}
}

func (s *Server) GetSubscriptionByID(c *gin.Context) {
	id, ok := subscriptionIDParam(c)
	if !ok {
		return
	}

	item, err := s.subscriptionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateSubscription(c *gin.Context) {
	id, ok := subscriptionIDParam(c)
	if !ok {
		return
	}

	var req subscriptiondomain.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.SubscriptionID = id

	if err := s.subscriptionSvc.Update(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.subscriptionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteSubscription(c *gin.Context) {
	id, ok := subscriptionIDParam(c)
	if !ok {
		return
	}

	if err := s.subscriptionSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ActivateSubscription(c *gin.Context) {
	s.transitionSubscription(c, s.subscriptionSvc.Activate)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	s.transitionSubscription(c, s.subscriptionSvc.Cancel)
}

func (s *Server) ExpireSubscription(c *gin.Context) {
	s.transitionSubscription(c, s.subscriptionSvc.Expire)
}

func (s *Server) RetrySubscription(c *gin.Context) {
	s.transitionSubscription(c, s.subscriptionSvc.Retry)
}

func (s *Server) transitionSubscription(c *gin.Context, op func(ctx context.Context, id string) error) {
	id, ok := subscriptionIDParam(c)
	if !ok {
		return
	}

	if err := op(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type addPaymentBody struct {
	Amount        int64     `json:"amount"`
	Tax           int64     `json:"tax,omitempty"`
	TransactionID string    `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at,omitempty"`
	Failed        bool      `json:"failed,omitempty"`
}

func (s *Server) AddSubscriptionPayment(c *gin.Context) {
	id, ok := subscriptionIDParam(c)
	if !ok {
		return
	}

	var body addPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orderID, err := s.subscriptionSvc.AddPayment(c.Request.Context(), id, subscriptiondomain.AddPaymentRequest{
		Amount:        body.Amount,
		Tax:           body.Tax,
		TransactionID: strings.TrimSpace(body.TransactionID),
		OccurredAt:    body.OccurredAt,
		Failed:        body.Failed,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"order_id": orderID.String()}})
}

func (s *Server) ListSubscriptionOrders(c *gin.Context) {
	id, ok := subscriptionIDParam(c)
	if !ok {
		return
	}

	parsed, _ := snowflake.ParseString(id)
	orders, err := s.orderSvc.ListRenewals(c.Request.Context(), parsed)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

type addNoteBody struct {
	Author  string `json:"author,omitempty"`
	Message string `json:"message"`
}

func (s *Server) AddSubscriptionNote(c *gin.Context) {
	id, ok := subscriptionIDParam(c)
	if !ok {
		return
	}

	var body addNoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		AbortWithError(c, newValidationError("message", "invalid_message", "message is required"))
		return
	}

	if err := s.subscriptionSvc.AddNote(c.Request.Context(), id, strings.TrimSpace(body.Author), strings.TrimSpace(body.Message)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListSubscriptionNotes(c *gin.Context) {
	id, ok := subscriptionIDParam(c)
	if !ok {
		return
	}

	notes, err := s.subscriptionSvc.ListNotes(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notes})
}

func subscriptionIDParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return "", false
	}
	return id, true
}

func isSubscriptionValidationError(err error) bool {
	switch {
	case errors.Is(err, subscriptiondomain.ErrInvalidSubscription),
		errors.Is(err, subscriptiondomain.ErrInvalidCustomer),
		errors.Is(err, subscriptiondomain.ErrInvalidProduct),
		errors.Is(err, subscriptiondomain.ErrInvalidOrder),
		errors.Is(err, subscriptiondomain.ErrInvalidPeriod),
		errors.Is(err, subscriptiondomain.ErrInvalidStatus),
		errors.Is(err, subscriptiondomain.ErrInvalidAmount),
		errors.Is(err, subscriptiondomain.ErrInvalidBillTimes),
		errors.Is(err, subscriptiondomain.ErrInvalidExpiration),
		errors.Is(err, subscriptiondomain.ErrInvalidGateway):
		return true
	default:
		return false
	}
}
