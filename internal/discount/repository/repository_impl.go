package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	discountdomain "github.com/subforge/renewals/internal/discount/domain"
	"gorm.io/gorm"
)

const discountColumns = `id, code, name, type, flat_amount, percent, scope,
	 product_requirements, product_exclusions, renewal_behavior, active,
	 expires_at, created_at, updated_at`

type repo struct{}

func Provide() discountdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, discount *discountdomain.Discount) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO discounts (
			id, code, name, type, flat_amount, percent, scope,
			product_requirements, product_exclusions, renewal_behavior, active,
			expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		discount.ID,
		discount.Code,
		discount.Name,
		discount.Type,
		discount.FlatAmount,
		discount.Percent,
		discount.Scope,
		discount.ProductRequirements,
		discount.ProductExclusions,
		discount.RenewalBehavior,
		discount.Active,
		discount.ExpiresAt,
		discount.CreatedAt,
		discount.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*discountdomain.Discount, error) {
	var discount discountdomain.Discount
	err := db.WithContext(ctx).Raw(
		`SELECT `+discountColumns+` FROM discounts WHERE id = ?`,
		id,
	).Scan(&discount).Error
	if err != nil {
		return nil, err
	}
	if discount.ID == 0 {
		return nil, nil
	}
	return &discount, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*discountdomain.Discount, error) {
	var discount discountdomain.Discount
	err := db.WithContext(ctx).Raw(
		`SELECT `+discountColumns+` FROM discounts WHERE LOWER(code) = LOWER(?)`,
		code,
	).Scan(&discount).Error
	if err != nil {
		return nil, err
	}
	if discount.ID == 0 {
		return nil, nil
	}
	return &discount, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]discountdomain.Discount, error) {
	var discounts []discountdomain.Discount
	err := db.WithContext(ctx).Raw(
		`SELECT ` + discountColumns + ` FROM discounts ORDER BY created_at DESC`,
	).Scan(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error {
	return db.WithContext(ctx).Exec(
		`UPDATE discounts SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active,
		id,
	).Error
}
