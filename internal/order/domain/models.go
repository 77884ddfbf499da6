// Package domain contains persistence models and contracts for orders.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusComplete   OrderStatus = "complete"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusComplete, OrderStatusFailed, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

type OrderKind string

const (
	// OrderKindParent is the initiating checkout order of a subscription.
	OrderKindParent OrderKind = "parent"
	// OrderKindRenewal is a recurring charge recorded against a subscription.
	OrderKindRenewal OrderKind = "renewal"
)

// Order is a single charge. Amounts are integer cents.
type Order struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID     snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	SubscriptionID *snowflake.ID `gorm:"index" json:"subscription_id,omitempty"`
	Kind           OrderKind     `gorm:"type:text;not null" json:"kind"`
	Total          int64         `gorm:"not null" json:"total"`
	Tax            int64         `gorm:"not null;default:0" json:"tax"`
	Currency       string        `gorm:"type:text;not null" json:"currency"`
	Gateway        string        `gorm:"type:text" json:"gateway"`
	TransactionID  string        `gorm:"type:text;index" json:"transaction_id"`
	Status         OrderStatus   `gorm:"type:text;not null" json:"status"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

var (
	ErrOrderNotFound  = errors.New("order_not_found")
	ErrInvalidOrder   = errors.New("invalid_order")
	ErrInvalidStatus  = errors.New("invalid_order_status")
	ErrInvalidAmount  = errors.New("invalid_order_amount")
	ErrInvalidKind    = errors.New("invalid_order_kind")
)
