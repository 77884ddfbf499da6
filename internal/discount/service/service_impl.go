package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/subforge/renewals/internal/clock"
	"github.com/subforge/renewals/internal/config"
	discountdomain "github.com/subforge/renewals/internal/discount/domain"
	"github.com/subforge/renewals/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	storeCfg *config.StoreConfigHolder
	repo     discountdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	StoreCfg *config.StoreConfigHolder
	Repo     discountdomain.Repository
}

func NewService(p ServiceParam) discountdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("discount.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		storeCfg: p.StoreCfg,
		repo:     p.Repo,
	}
}

// Create implements domain.Service.
func (s *Service) Create(ctx context.Context, req discountdomain.CreateDiscountRequest) (discountdomain.Discount, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return discountdomain.Discount{}, discountdomain.ErrInvalidDiscount
	}

	discountType := discountdomain.DiscountType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !discountType.Valid() {
		return discountdomain.Discount{}, discountdomain.ErrInvalidDiscount
	}
	if discountType == discountdomain.DiscountTypeFlat && req.FlatAmount <= 0 {
		return discountdomain.Discount{}, discountdomain.ErrInvalidDiscount
	}
	if discountType == discountdomain.DiscountTypePercent && (req.Percent <= 0 || req.Percent > 100) {
		return discountdomain.Discount{}, discountdomain.ErrInvalidDiscount
	}

	scope := discountdomain.DiscountScopeGlobal
	if strings.TrimSpace(req.Scope) != "" {
		scope = discountdomain.DiscountScope(strings.ToLower(strings.TrimSpace(req.Scope)))
		if scope != discountdomain.DiscountScopeGlobal && scope != discountdomain.DiscountScopeProduct {
			return discountdomain.Discount{}, discountdomain.ErrInvalidDiscount
		}
	}

	behavior := discountdomain.RenewalBehavior(strings.ToLower(strings.TrimSpace(req.RenewalBehavior)))
	switch behavior {
	case discountdomain.RenewalBehaviorDefault, discountdomain.RenewalBehaviorFirst, discountdomain.RenewalBehaviorRenewals:
	default:
		return discountdomain.Discount{}, discountdomain.ErrInvalidDiscount
	}

	now := s.clock.Now()
	discount := discountdomain.Discount{
		ID:   s.genID.Generate(),
		Code: code,
		Name: strings.TrimSpace(req.Name),

		Type:       discountType,
		FlatAmount: req.FlatAmount,
		Percent:    req.Percent,
		Scope:      scope,

		ProductRequirements: datatypes.JSONSlice[int64](req.ProductRequirements),
		ProductExclusions:   datatypes.JSONSlice[int64](req.ProductExclusions),

		RenewalBehavior: behavior,

		Active:    true,
		ExpiresAt: req.ExpiresAt,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &discount); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return discountdomain.Discount{}, discountdomain.ErrDuplicateCode
		}
		return discountdomain.Discount{}, err
	}

	return discount, nil
}

// GetByID implements domain.Service.
func (s *Service) GetByID(ctx context.Context, id string) (discountdomain.Discount, error) {
	discountID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || discountID == 0 {
		return discountdomain.Discount{}, discountdomain.ErrInvalidDiscount
	}

	item, err := s.repo.FindByID(ctx, s.db, discountID)
	if err != nil {
		return discountdomain.Discount{}, err
	}
	if item == nil {
		return discountdomain.Discount{}, discountdomain.ErrDiscountNotFound
	}

	return *item, nil
}

// Resolve implements domain.Service.
func (s *Service) Resolve(ctx context.Context, code string) (discountdomain.Discount, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return discountdomain.Discount{}, discountdomain.ErrDiscountNotFound
	}

	item, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return discountdomain.Discount{}, err
	}
	if item == nil {
		return discountdomain.Discount{}, discountdomain.ErrDiscountNotFound
	}
	if !item.Active {
		return discountdomain.Discount{}, discountdomain.ErrDiscountInactive
	}
	if item.ExpiresAt != nil && item.ExpiresAt.Before(s.clock.Now()) {
		return discountdomain.Discount{}, discountdomain.ErrDiscountExpired
	}

	return *item, nil
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context) ([]discountdomain.Discount, error) {
	return s.repo.List(ctx, s.db)
}

// Deactivate implements domain.Service.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	discountID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || discountID == 0 {
		return discountdomain.ErrInvalidDiscount
	}

	item, err := s.repo.FindByID(ctx, s.db, discountID)
	if err != nil {
		return err
	}
	if item == nil {
		return discountdomain.ErrDiscountNotFound
	}

	return s.repo.SetActive(ctx, s.db, discountID, false)
}

// RenewalEligible implements domain.Service.
func (s *Service) RenewalEligible(discount discountdomain.Discount) bool {
	switch discount.RenewalBehavior {
	case discountdomain.RenewalBehaviorRenewals:
		return true
	case discountdomain.RenewalBehaviorFirst:
		return false
	default:
		return s.storeCfg.Current().DiscountsApplyToRenewals
	}
}
