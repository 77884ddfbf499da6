package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByProfileID(ctx context.Context, db *gorm.DB, gateway, profileID string) (*Subscription, error)
	UpdateLifecycle(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	InsertNote(ctx context.Context, db *gorm.DB, note *SubscriptionNote) error
	ListNotes(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]SubscriptionNote, error)

	// ClaimDueForRenewal claims a batch of subscriptions whose billing period
	// has ended, stamping renewal_claimed_at inside the caller's transaction
	// so the claim outlives the row locks. Rows claimed after staleBefore are
	// skipped; an older stamp belongs to a dead worker and is retaken.
	// Terminal and failing subscriptions are never returned.
	ClaimDueForRenewal(ctx context.Context, db *gorm.DB, now, staleBefore time.Time, limit int) ([]Subscription, error)

	// FindOverdueFailing returns failing subscriptions whose billing period
	// ended before the given cutoff; the scheduler expires these.
	FindOverdueFailing(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]Subscription, error)

	// FindCapReachedActive returns active subscriptions whose completed
	// renewal count already reached bill_times. Renew marks these completed
	// inline; this catches rows that slipped past it.
	FindCapReachedActive(ctx context.Context, db *gorm.DB, limit int) ([]Subscription, error)
}
