package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/subforge/renewals/internal/clock"
	orderdomain "github.com/subforge/renewals/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  orderdomain.Repository
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  orderdomain.Repository
}

func NewService(p Params) orderdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, order *orderdomain.Order) error {
	if order == nil || order.ID == 0 || order.CustomerID == 0 {
		return orderdomain.ErrInvalidOrder
	}
	if order.Total < 0 || order.Tax < 0 {
		return orderdomain.ErrInvalidAmount
	}
	if order.Kind != orderdomain.OrderKindParent && order.Kind != orderdomain.OrderKindRenewal {
		return orderdomain.ErrInvalidKind
	}
	if !order.Status.Valid() {
		return orderdomain.ErrInvalidStatus
	}
	if strings.TrimSpace(order.Currency) == "" {
		return orderdomain.ErrInvalidOrder
	}

	now := s.clock.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	return s.repo.Insert(ctx, s.db, order)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (orderdomain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return orderdomain.Order{}, err
	}
	if order == nil {
		return orderdomain.Order{}, orderdomain.ErrOrderNotFound
	}
	return *order, nil
}

func (s *Service) MarkStatus(ctx context.Context, id snowflake.ID, status orderdomain.OrderStatus) error {
	if !status.Valid() {
		return orderdomain.ErrInvalidStatus
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if order == nil {
		return orderdomain.ErrOrderNotFound
	}
	if order.Status == status {
		return nil
	}

	return s.repo.UpdateStatus(ctx, s.db, id, status)
}

func (s *Service) SetTransactionID(ctx context.Context, id snowflake.ID, transactionID string) error {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return orderdomain.ErrInvalidOrder
	}
	return s.repo.UpdateTransactionID(ctx, s.db, id, transactionID)
}

func (s *Service) FindRenewalByTransactionID(ctx context.Context, subscriptionID snowflake.ID, transactionID string) (*orderdomain.Order, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, nil
	}
	return s.repo.FindRenewalByTransactionID(ctx, s.db, subscriptionID, transactionID)
}

func (s *Service) ListRenewals(ctx context.Context, subscriptionID snowflake.ID) ([]orderdomain.Order, error) {
	return s.repo.ListRenewals(ctx, s.db, subscriptionID)
}

func (s *Service) CountCompletedRenewals(ctx context.Context, subscriptionID snowflake.ID) (int64, error) {
	return s.repo.CountRenewals(ctx, s.db, subscriptionID, orderdomain.OrderStatusComplete)
}

func (s *Service) DetachSubscription(ctx context.Context, subscriptionID snowflake.ID) error {
	return s.repo.ClearSubscription(ctx, s.db, subscriptionID)
}
