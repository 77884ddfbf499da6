// Package domain contains persistence models and contracts for discounts.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFlat    DiscountType = "flat"
)

func (t DiscountType) Valid() bool {
	return t == DiscountTypePercent || t == DiscountTypeFlat
}

type DiscountScope string

const (
	// DiscountScopeGlobal applies across the whole cart.
	DiscountScopeGlobal DiscountScope = "global"
	// DiscountScopeProduct applies only to listed products.
	DiscountScopeProduct DiscountScope = "product"
)

// RenewalBehavior controls whether a discount keeps applying on renewal
// charges. Empty defers to the store-wide default.
type RenewalBehavior string

const (
	RenewalBehaviorDefault  RenewalBehavior = ""
	RenewalBehaviorFirst    RenewalBehavior = "first"
	RenewalBehaviorRenewals RenewalBehavior = "renewals"
)

// Discount is a redeemable code. FlatAmount is integer cents and only
// meaningful for flat discounts; Percent is percentage points (20 means 20%)
// and only meaningful for percent discounts.
type Discount struct {
	ID   snowflake.ID `gorm:"primaryKey" json:"id"`
	Code string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name string       `gorm:"type:text" json:"name"`

	Type       DiscountType  `gorm:"type:text;not null" json:"type"`
	FlatAmount int64         `gorm:"not null;default:0" json:"flat_amount"`
	Percent    float64       `gorm:"type:numeric(6,3);not null;default:0" json:"percent"`
	Scope      DiscountScope `gorm:"type:text;not null;default:global" json:"scope"`

	// ProductRequirements limits the discount to the listed products; empty
	// means any product. ProductExclusions always wins over requirements.
	ProductRequirements datatypes.JSONSlice[int64] `gorm:"type:jsonb" json:"product_requirements,omitempty"`
	ProductExclusions   datatypes.JSONSlice[int64] `gorm:"type:jsonb" json:"product_exclusions,omitempty"`

	RenewalBehavior RenewalBehavior `gorm:"type:text;not null;default:''" json:"renewal_behavior"`

	Active    bool       `gorm:"not null;default:true" json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Discount) TableName() string { return "discounts" }

// AppliesTo reports whether the discount may touch the given product.
func (d *Discount) AppliesTo(productID snowflake.ID) bool {
	for _, excluded := range d.ProductExclusions {
		if snowflake.ID(excluded) == productID {
			return false
		}
	}
	if len(d.ProductRequirements) == 0 {
		return true
	}
	for _, required := range d.ProductRequirements {
		if snowflake.ID(required) == productID {
			return true
		}
	}
	return false
}

var (
	ErrDiscountNotFound = errors.New("discount_not_found")
	ErrDiscountInactive = errors.New("discount_inactive")
	ErrDiscountExpired  = errors.New("discount_expired")
	ErrInvalidDiscount  = errors.New("invalid_discount")
	ErrDuplicateCode    = errors.New("duplicate_discount_code")
)
