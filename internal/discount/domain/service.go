package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateDiscountRequest struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`

	Type       string  `json:"type"`
	FlatAmount int64   `json:"flat_amount,omitempty"`
	Percent    float64 `json:"percent,omitempty"`
	Scope      string  `json:"scope,omitempty"`

	ProductRequirements []int64 `json:"product_requirements,omitempty"`
	ProductExclusions   []int64 `json:"product_exclusions,omitempty"`

	RenewalBehavior string     `json:"renewal_behavior,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateDiscountRequest) (Discount, error)
	GetByID(ctx context.Context, id string) (Discount, error)
	// Resolve looks up an active, unexpired discount by code. Inactive and
	// expired codes resolve to their dedicated errors so callers can report
	// why redemption failed.
	Resolve(ctx context.Context, code string) (Discount, error)
	List(ctx context.Context) ([]Discount, error)
	Deactivate(ctx context.Context, id string) error

	// RenewalEligible decides whether the discount carries into renewal
	// charges. Per-discount behavior wins; the store default fills the gap.
	RenewalEligible(discount Discount) bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, discount *Discount) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Discount, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Discount, error)
	List(ctx context.Context, db *gorm.DB) ([]Discount, error)
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error
}
