package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id snowflake.ID) (Order, error)
	// MarkStatus moves the order to the given status. Already being in that
	// status is a no-op, which keeps webhook processing idempotent.
	MarkStatus(ctx context.Context, id snowflake.ID, status OrderStatus) error
	SetTransactionID(ctx context.Context, id snowflake.ID, transactionID string) error
	FindRenewalByTransactionID(ctx context.Context, subscriptionID snowflake.ID, transactionID string) (*Order, error)
	// ListRenewals returns a subscription's renewal orders, oldest first.
	ListRenewals(ctx context.Context, subscriptionID snowflake.ID) ([]Order, error)
	CountCompletedRenewals(ctx context.Context, subscriptionID snowflake.ID) (int64, error)
	// DetachSubscription clears the order→subscription link when a
	// subscription is administratively deleted.
	DetachSubscription(ctx context.Context, subscriptionID snowflake.ID) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status OrderStatus) error
	UpdateTransactionID(ctx context.Context, db *gorm.DB, id snowflake.ID, transactionID string) error
	FindRenewalByTransactionID(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, transactionID string) (*Order, error)
	ListRenewals(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Order, error)
	CountRenewals(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, status OrderStatus) (int64, error)
	ClearSubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) error
}
