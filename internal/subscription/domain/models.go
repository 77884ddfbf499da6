// Package domain contains persistence models and contracts for subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Subscription captures a customer's recurring billing agreement: one
// customer, one product/price, one initiating order, zero or more renewals.
// All monetary fields are integer cents in the subscription's currency.
type Subscription struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	CustomerEmail string        `gorm:"type:text" json:"customer_email"`
	ParentOrderID snowflake.ID  `gorm:"not null;index" json:"parent_order_id"`
	ProductID     snowflake.ID  `gorm:"not null;index" json:"product_id"`
	PriceID       *snowflake.ID `gorm:"index" json:"price_id,omitempty"`

	Period    BillingPeriod `gorm:"type:text;not null" json:"period"`
	Frequency int           `gorm:"not null;default:1" json:"frequency"`
	// BillTimes caps successful renewals; zero means renew until cancelled.
	BillTimes int `gorm:"not null;default:0" json:"bill_times"`

	InitialAmount    int64   `gorm:"not null" json:"initial_amount"`
	InitialTax       int64   `gorm:"not null" json:"initial_tax"`
	InitialTaxRate   float64 `gorm:"type:numeric(6,4)" json:"initial_tax_rate"`
	RecurringAmount  int64   `gorm:"not null" json:"recurring_amount"`
	RecurringTax     int64   `gorm:"not null" json:"recurring_tax"`
	RecurringTaxRate float64 `gorm:"type:numeric(6,4)" json:"recurring_tax_rate"`
	SignupFee        int64   `gorm:"not null;default:0" json:"signup_fee"`
	Currency         string  `gorm:"type:text;not null" json:"currency"`

	Gateway       string `gorm:"type:text;not null;index" json:"gateway"`
	ProfileID     string `gorm:"type:text;index" json:"profile_id"`
	TransactionID string `gorm:"type:text" json:"transaction_id"`

	TrialUnit     *BillingPeriod `gorm:"type:text" json:"trial_unit,omitempty"`
	TrialQuantity *int           `json:"trial_quantity,omitempty"`

	Status SubscriptionStatus `gorm:"type:text;not null;index" json:"status"`
	// Expiration is when the current billing period ends and the next renewal
	// is due. While trialling it doubles as the trial end date.
	Expiration time.Time `gorm:"not null;index" json:"expiration"`
	// RenewalClaimedAt is stamped when a scheduler worker claims the row for
	// a renewal charge. The stamp survives the claim transaction, so other
	// workers skip the row until the claim goes stale.
	RenewalClaimedAt *time.Time `json:"-"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

func (s *Subscription) CanCancel() bool { return !s.Status.Terminal() }
func (s *Subscription) CanRetry() bool  { return s.Status == SubscriptionStatusFailing }

// HasTrial reports whether a trial descriptor was captured at checkout.
func (s *Subscription) HasTrial() bool {
	return s.TrialUnit != nil && s.TrialQuantity != nil && *s.TrialQuantity > 0
}

// SubscriptionNote is an append-only audit log entry. Every automated
// decision (declined charge, gateway cancel failure, anonymization) lands here.
type SubscriptionNote struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	SubscriptionID snowflake.ID `gorm:"not null;index" json:"subscription_id"`
	Author         string       `gorm:"type:text;not null" json:"author"`
	Message        string       `gorm:"type:text;not null" json:"message"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SubscriptionNote) TableName() string { return "subscription_notes" }
