package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/subforge/renewals/pkg/db/pagination"
)

type ListSubscriptionRequest struct {
	Status    string
	Gateway   string
	ProductID string
	// Search is free text; prefixes id:, profile_id:, product_id:, txn: and
	// customer_id: target specific fields.
	Search      string
	PageToken   string
	PageSize    int32
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListSubscriptionResponse struct {
	pagination.PageInfo
	Subscriptions []Subscription `json:"subscriptions"`
}

type CreateSubscriptionRequest struct {
	CustomerID       string         `json:"customer_id"`
	CustomerEmail    string         `json:"customer_email"`
	ParentOrderID    string         `json:"parent_order_id"`
	ProductID        string         `json:"product_id"`
	PriceID          string         `json:"price_id,omitempty"`
	Period           string         `json:"period"`
	Frequency        int            `json:"frequency,omitempty"`
	BillTimes        int            `json:"bill_times,omitempty"`
	InitialAmount    int64          `json:"initial_amount"`
	InitialTax       int64          `json:"initial_tax"`
	InitialTaxRate   float64        `json:"initial_tax_rate"`
	RecurringAmount  int64          `json:"recurring_amount"`
	RecurringTax     int64          `json:"recurring_tax"`
	RecurringTaxRate float64        `json:"recurring_tax_rate"`
	SignupFee        int64          `json:"signup_fee,omitempty"`
	// Currency defaults to the store currency when empty.
	Currency      string         `json:"currency,omitempty"`
	Gateway       string         `json:"gateway"`
	ProfileID     string         `json:"profile_id,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	TrialUnit     string         `json:"trial_unit,omitempty"`
	TrialQuantity int            `json:"trial_quantity,omitempty"`
	Status        string         `json:"status,omitempty"`
	Expiration    time.Time      `json:"expiration"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type UpdateSubscriptionRequest struct {
	SubscriptionID  string     `json:"-"`
	RecurringAmount *int64     `json:"recurring_amount,omitempty"`
	RecurringTax    *int64     `json:"recurring_tax,omitempty"`
	BillTimes       *int       `json:"bill_times,omitempty"`
	Expiration      *time.Time `json:"expiration,omitempty"`
	ProfileID       *string    `json:"profile_id,omitempty"`
	TransactionID   *string    `json:"transaction_id,omitempty"`
}

// AddPaymentRequest describes a renewal charge to record as an order. The
// caller decides separately whether to advance the subscription via Renew;
// webhook handlers record declined attempts without advancing.
type AddPaymentRequest struct {
	Amount        int64
	Tax           int64
	TransactionID string
	OccurredAt    time.Time
	// Failed records the charge as a failed order (attempted but declined).
	Failed bool
}

type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (Subscription, error)
	GetByID(ctx context.Context, id string) (Subscription, error)
	GetByProfileID(ctx context.Context, gateway, profileID string) (Subscription, error)
	List(ctx context.Context, req ListSubscriptionRequest) (ListSubscriptionResponse, error)
	Count(ctx context.Context, req ListSubscriptionRequest) (int64, error)
	Update(ctx context.Context, req UpdateSubscriptionRequest) error
	Delete(ctx context.Context, id string) error

	Activate(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Expire(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	Failing(ctx context.Context, id string, reason string) error
	Retry(ctx context.Context, id string) error
	Renew(ctx context.Context, id string, orderID snowflake.ID) (Subscription, error)
	AddPayment(ctx context.Context, id string, req AddPaymentRequest) (snowflake.ID, error)

	AddNote(ctx context.Context, id, author, message string) error
	ListNotes(ctx context.Context, id string) ([]SubscriptionNote, error)

	ExportCSV(ctx context.Context, req ListSubscriptionRequest, w io.Writer) error
}

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrInvalidSubscription  = errors.New("invalid_subscription")
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidProduct       = errors.New("invalid_product")
	ErrInvalidOrder         = errors.New("invalid_order")
	ErrInvalidPeriod        = errors.New("invalid_period")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidTransition    = errors.New("invalid_transition")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidBillTimes     = errors.New("invalid_bill_times")
	ErrInvalidExpiration    = errors.New("invalid_expiration")
	ErrInvalidGateway       = errors.New("invalid_gateway")
	ErrNotFailing           = errors.New("subscription_not_failing")
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrRetryChargeFailed    = errors.New("retry_charge_failed")
)
