package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/subforge/renewals/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() orderdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *orderdomain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, customer_id, subscription_id, kind, total, tax, currency, gateway,
			transaction_id, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.CustomerID,
		order.SubscriptionID,
		order.Kind,
		order.Total,
		order.Tax,
		order.Currency,
		order.Gateway,
		order.TransactionID,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, subscription_id, kind, total, tax, currency, gateway,
		 transaction_id, status, created_at, updated_at
		 FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status orderdomain.OrderStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) UpdateTransactionID(ctx context.Context, db *gorm.DB, id snowflake.ID, transactionID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET transaction_id = ?, updated_at = ? WHERE id = ?`,
		transactionID,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) FindRenewalByTransactionID(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, transactionID string) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, subscription_id, kind, total, tax, currency, gateway,
		 transaction_id, status, created_at, updated_at
		 FROM orders
		 WHERE subscription_id = ? AND kind = ? AND transaction_id = ?
		 LIMIT 1`,
		subscriptionID,
		orderdomain.OrderKindRenewal,
		transactionID,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) ListRenewals(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]orderdomain.Order, error) {
	var orders []orderdomain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, subscription_id, kind, total, tax, currency, gateway,
		 transaction_id, status, created_at, updated_at
		 FROM orders
		 WHERE subscription_id = ? AND kind = ?
		 ORDER BY created_at ASC, id ASC`,
		subscriptionID,
		orderdomain.OrderKindRenewal,
	).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) CountRenewals(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, status orderdomain.OrderStatus) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM orders WHERE subscription_id = ? AND kind = ? AND status = ?`,
		subscriptionID,
		orderdomain.OrderKindRenewal,
		status,
	).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) ClearSubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET subscription_id = NULL, updated_at = ? WHERE subscription_id = ?`,
		time.Now().UTC(),
		subscriptionID,
	).Error
}
