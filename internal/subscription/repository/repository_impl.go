package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
	"gorm.io/gorm"
)

const subscriptionColumns = `id, customer_id, customer_email, parent_order_id, product_id, price_id,
	 period, frequency, bill_times, initial_amount, initial_tax, initial_tax_rate,
	 recurring_amount, recurring_tax, recurring_tax_rate, signup_fee, currency,
	 gateway, profile_id, transaction_id, trial_unit, trial_quantity, status,
	 expiration, renewal_claimed_at, metadata, created_at, updated_at`

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, customer_id, customer_email, parent_order_id, product_id, price_id,
			period, frequency, bill_times, initial_amount, initial_tax, initial_tax_rate,
			recurring_amount, recurring_tax, recurring_tax_rate, signup_fee, currency,
			gateway, profile_id, transaction_id, trial_unit, trial_quantity, status,
			expiration, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.CustomerID,
		subscription.CustomerEmail,
		subscription.ParentOrderID,
		subscription.ProductID,
		subscription.PriceID,
		subscription.Period,
		subscription.Frequency,
		subscription.BillTimes,
		subscription.InitialAmount,
		subscription.InitialTax,
		subscription.InitialTaxRate,
		subscription.RecurringAmount,
		subscription.RecurringTax,
		subscription.RecurringTaxRate,
		subscription.SignupFee,
		subscription.Currency,
		subscription.Gateway,
		subscription.ProfileID,
		subscription.TransactionID,
		subscription.TrialUnit,
		subscription.TrialQuantity,
		subscription.Status,
		subscription.Expiration,
		subscription.Metadata,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ? FOR UPDATE`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindByProfileID(ctx context.Context, db *gorm.DB, gateway, profileID string) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE gateway = ? AND profile_id = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		gateway,
		profileID,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) UpdateLifecycle(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, expiration = ?, transaction_id = ?, profile_id = ?,
		     recurring_amount = ?, recurring_tax = ?, bill_times = ?, updated_at = ?
		 WHERE id = ?`,
		subscription.Status,
		subscription.Expiration,
		subscription.TransactionID,
		subscription.ProfileID,
		subscription.RecurringAmount,
		subscription.RecurringTax,
		subscription.BillTimes,
		subscription.UpdatedAt,
		subscription.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM subscription_notes WHERE subscription_id = ?`,
		id,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM subscriptions WHERE id = ?`,
		id,
	).Error
}

func (r *repo) InsertNote(ctx context.Context, db *gorm.DB, note *subscriptiondomain.SubscriptionNote) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscription_notes (id, subscription_id, author, message, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		note.ID,
		note.SubscriptionID,
		note.Author,
		note.Message,
		note.CreatedAt,
	).Error
}

func (r *repo) ListNotes(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]subscriptiondomain.SubscriptionNote, error) {
	var notes []subscriptiondomain.SubscriptionNote
	err := db.WithContext(ctx).Raw(
		`SELECT id, subscription_id, author, message, created_at
		 FROM subscription_notes
		 WHERE subscription_id = ?
		 ORDER BY created_at ASC, id ASC`,
		subscriptionID,
	).Scan(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *repo) ClaimDueForRenewal(ctx context.Context, db *gorm.DB, now, staleBefore time.Time, limit int) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE status IN (?, ?) AND expiration <= ?
		   AND (renewal_claimed_at IS NULL OR renewal_claimed_at <= ?)
		 ORDER BY expiration ASC
		 LIMIT ? FOR UPDATE SKIP LOCKED`,
		subscriptiondomain.SubscriptionStatusActive,
		subscriptiondomain.SubscriptionStatusTrialling,
		now,
		staleBefore,
		limit,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	if len(subscriptions) == 0 {
		return subscriptions, nil
	}

	ids := make([]snowflake.ID, 0, len(subscriptions))
	for i := range subscriptions {
		ids = append(ids, subscriptions[i].ID)
	}
	if err := db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET renewal_claimed_at = ? WHERE id IN ?`,
		now,
		ids,
	).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) FindCapReachedActive(ctx context.Context, db *gorm.DB, limit int) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE status = ? AND bill_times > 0
		   AND bill_times <= (
			SELECT COUNT(*) FROM orders
			WHERE orders.subscription_id = subscriptions.id
			  AND orders.kind = 'renewal' AND orders.status = 'complete'
		   )
		 ORDER BY expiration ASC
		 LIMIT ? FOR UPDATE SKIP LOCKED`,
		subscriptiondomain.SubscriptionStatusActive,
		limit,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) FindOverdueFailing(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE status = ? AND expiration <= ?
		 ORDER BY expiration ASC
		 LIMIT ? FOR UPDATE SKIP LOCKED`,
		subscriptiondomain.SubscriptionStatusFailing,
		before,
		limit,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}
