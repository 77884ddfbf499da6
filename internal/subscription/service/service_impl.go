package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/subforge/renewals/internal/clock"
	"github.com/subforge/renewals/internal/config"
	"github.com/subforge/renewals/internal/gateway"
	orderdomain "github.com/subforge/renewals/internal/order/domain"
	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
	"github.com/subforge/renewals/pkg/db/option"
	"github.com/subforge/renewals/pkg/db/pagination"
	"github.com/subforge/renewals/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const noteAuthorSystem = "system"

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	cfg      config.Config
	storeCfg *config.StoreConfigHolder

	repo  subscriptiondomain.Repository
	store repository.Repository[subscriptiondomain.Subscription]

	ordersvc orderdomain.Service
	gateways *gateway.Registry
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	StoreCfg *config.StoreConfigHolder
	Repo     subscriptiondomain.Repository

	Ordersvc orderdomain.Service
	Gateways *gateway.Registry
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Cfg,
		storeCfg: p.StoreCfg,

		repo:  p.Repo,
		store: repository.ProvideStore[subscriptiondomain.Subscription](p.DB),

		ordersvc: p.Ordersvc,
		gateways: p.Gateways,
	}
}

// Create implements domain.Service.
func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	customerID, err := s.parseID(req.CustomerID, subscriptiondomain.ErrInvalidCustomer)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	parentOrderID, err := s.parseID(req.ParentOrderID, subscriptiondomain.ErrInvalidOrder)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	productID, err := s.parseID(req.ProductID, subscriptiondomain.ErrInvalidProduct)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	var priceID *snowflake.ID
	if strings.TrimSpace(req.PriceID) != "" {
		parsed, err := s.parseID(req.PriceID, subscriptiondomain.ErrInvalidProduct)
		if err != nil {
			return subscriptiondomain.Subscription{}, err
		}
		priceID = &parsed
	}

	period, err := subscriptiondomain.ParsePeriod(req.Period)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	if req.BillTimes < 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidBillTimes
	}
	if req.InitialAmount < 0 || req.RecurringAmount < 0 || req.InitialTax < 0 || req.RecurringTax < 0 || req.SignupFee < 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidAmount
	}
	if req.Expiration.IsZero() {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidExpiration
	}
	if strings.TrimSpace(req.Gateway) == "" {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidGateway
	}

	frequency := req.Frequency
	if frequency <= 0 {
		frequency = 1
	}

	var trialUnit *subscriptiondomain.BillingPeriod
	var trialQuantity *int
	if strings.TrimSpace(req.TrialUnit) != "" && req.TrialQuantity > 0 {
		unit, err := subscriptiondomain.ParsePeriod(req.TrialUnit)
		if err != nil {
			return subscriptiondomain.Subscription{}, err
		}
		quantity := req.TrialQuantity
		trialUnit = &unit
		trialQuantity = &quantity
	}

	status := subscriptiondomain.SubscriptionStatusPending
	if trialUnit != nil {
		status = subscriptiondomain.SubscriptionStatusTrialling
	}
	if strings.TrimSpace(req.Status) != "" {
		status = subscriptiondomain.SubscriptionStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if !status.Valid() || status.Terminal() {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidStatus
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.storeCfg.Current().Currency
	}

	now := s.clock.Now()
	subscription := subscriptiondomain.Subscription{
		ID:            s.genID.Generate(),
		CustomerID:    customerID,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		ParentOrderID: parentOrderID,
		ProductID:     productID,
		PriceID:       priceID,

		Period:    period,
		Frequency: frequency,
		BillTimes: req.BillTimes,

		InitialAmount:    req.InitialAmount,
		InitialTax:       req.InitialTax,
		InitialTaxRate:   req.InitialTaxRate,
		RecurringAmount:  req.RecurringAmount,
		RecurringTax:     req.RecurringTax,
		RecurringTaxRate: req.RecurringTaxRate,
		SignupFee:        req.SignupFee,
		Currency:         currency,

		Gateway:       strings.ToLower(strings.TrimSpace(req.Gateway)),
		ProfileID:     strings.TrimSpace(req.ProfileID),
		TransactionID: strings.TrimSpace(req.TransactionID),

		TrialUnit:     trialUnit,
		TrialQuantity: trialQuantity,

		Status:     status,
		Expiration: req.Expiration.UTC(),

		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &subscription); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	return subscription, nil
}

// GetByID implements domain.Service.
func (s *Service) GetByID(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if item == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}

	return *item, nil
}

// GetByProfileID implements domain.Service.
func (s *Service) GetByProfileID(ctx context.Context, gatewayID, profileID string) (subscriptiondomain.Subscription, error) {
	gatewayID = strings.ToLower(strings.TrimSpace(gatewayID))
	profileID = strings.TrimSpace(profileID)
	if gatewayID == "" || profileID == "" {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}

	item, err := s.repo.FindByProfileID(ctx, s.db, gatewayID, profileID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if item == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}

	return *item, nil
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context, req subscriptiondomain.ListSubscriptionRequest) (subscriptiondomain.ListSubscriptionResponse, error) {
	filter, options, err := s.buildListQuery(req)
	if err != nil {
		return subscriptiondomain.ListSubscriptionResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	options = append(options,
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy("created_at", "desc", map[string]bool{"created_at": true}),
	)

	items, err := s.store.Find(ctx, filter, options...)
	if err != nil {
		return subscriptiondomain.ListSubscriptionResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *subscriptiondomain.Subscription) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	if len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	subscriptions := make([]subscriptiondomain.Subscription, 0, len(items))
	for _, item := range items {
		subscriptions = append(subscriptions, *item)
	}

	return subscriptiondomain.ListSubscriptionResponse{
		PageInfo:      *pageInfo,
		Subscriptions: subscriptions,
	}, nil
}

// Count implements domain.Service.
func (s *Service) Count(ctx context.Context, req subscriptiondomain.ListSubscriptionRequest) (int64, error) {
	filter, options, err := s.buildListQuery(req)
	if err != nil {
		return 0, err
	}
	return s.store.Count(ctx, filter, options...)
}

// Update implements domain.Service.
func (s *Service) Update(ctx context.Context, req subscriptiondomain.UpdateSubscriptionRequest) error {
	id, err := s.parseID(req.SubscriptionID, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}

		if req.RecurringAmount != nil {
			if *req.RecurringAmount < 0 {
				return subscriptiondomain.ErrInvalidAmount
			}
			subscription.RecurringAmount = *req.RecurringAmount
		}
		if req.RecurringTax != nil {
			if *req.RecurringTax < 0 {
				return subscriptiondomain.ErrInvalidAmount
			}
			subscription.RecurringTax = *req.RecurringTax
		}
		if req.BillTimes != nil {
			if *req.BillTimes < 0 {
				return subscriptiondomain.ErrInvalidBillTimes
			}
			subscription.BillTimes = *req.BillTimes
		}
		if req.Expiration != nil {
			if req.Expiration.IsZero() {
				return subscriptiondomain.ErrInvalidExpiration
			}
			subscription.Expiration = req.Expiration.UTC()
		}
		if req.ProfileID != nil {
			subscription.ProfileID = strings.TrimSpace(*req.ProfileID)
		}
		if req.TransactionID != nil {
			subscription.TransactionID = strings.TrimSpace(*req.TransactionID)
		}

		subscription.UpdatedAt = s.clock.Now()
		return s.repo.UpdateLifecycle(ctx, tx, subscription)
	})
}

// Delete removes the subscription and its notes. Orders survive with their
// subscription link cleared so financial history stays intact.
func (s *Service) Delete(ctx context.Context, id string) error {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return err
	}

	subscription, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return subscriptiondomain.ErrSubscriptionNotFound
	}

	if err := s.ordersvc.DetachSubscription(ctx, subscriptionID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, s.db, subscriptionID)
}

// Activate implements domain.Service.
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusActive, nil)
}

// Cancel stops future billing. The remote gateway profile is cancelled on a
// best-effort basis with a bounded timeout; the local transition happens
// regardless of the remote outcome. Cancelling a terminal subscription is a
// no-op.
func (s *Service) Cancel(ctx context.Context, id string) error {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return err
	}

	subscription, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return subscriptiondomain.ErrSubscriptionNotFound
	}
	if subscription.Status.Terminal() {
		return nil
	}

	if gw, err := s.gateways.Resolve(subscription.Gateway); err != nil {
		s.log.Warn("no gateway integration for cancellation",
			zap.String("subscription_id", subscription.ID.String()),
			zap.String("gateway", subscription.Gateway),
		)
		s.insertNote(ctx, s.db, subscription.ID, fmt.Sprintf("gateway cancellation skipped: no integration registered for %q", subscription.Gateway))
	} else {
		cancelCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayCancelTimeout)
		defer cancel()

		if err := gw.Cancel(cancelCtx, *subscription, false); err != nil {
			s.log.Warn("gateway cancellation failed",
				zap.String("subscription_id", subscription.ID.String()),
				zap.String("gateway", subscription.Gateway),
				zap.Error(err),
			)
			s.insertNote(ctx, s.db, subscription.ID, fmt.Sprintf("gateway cancellation failed: %v", err))
		}
	}

	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusCancelled, nil)
}

// Expire implements domain.Service.
func (s *Service) Expire(ctx context.Context, id string) error {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusExpired, nil)
}

// Complete implements domain.Service.
func (s *Service) Complete(ctx context.Context, id string) error {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusCompleted, nil)
}

// Failing implements domain.Service.
func (s *Service) Failing(ctx context.Context, id string, reason string) error {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusFailing, func(tx *gorm.DB, subscription *subscriptiondomain.Subscription) error {
		message := "renewal payment failed"
		if strings.TrimSpace(reason) != "" {
			message = fmt.Sprintf("renewal payment failed: %s", strings.TrimSpace(reason))
		}
		return s.repo.InsertNote(ctx, tx, &subscriptiondomain.SubscriptionNote{
			ID:             s.genID.Generate(),
			SubscriptionID: subscription.ID,
			Author:         noteAuthorSystem,
			Message:        message,
			CreatedAt:      s.clock.Now(),
		})
	})
}

// Retry re-attempts the renewal charge for a failing subscription. On success
// the charge is recorded as a renewal order and the subscription advances; on
// decline the subscription stays failing.
func (s *Service) Retry(ctx context.Context, id string) error {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return err
	}

	subscription, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return subscriptiondomain.ErrSubscriptionNotFound
	}
	if !subscription.CanRetry() {
		return subscriptiondomain.ErrNotFailing
	}

	gw, err := s.gateways.Resolve(subscription.Gateway)
	if err != nil {
		return err
	}

	charge, err := gw.ChargeRenewal(ctx, *subscription)
	if err != nil {
		s.log.Warn("retry charge declined",
			zap.String("subscription_id", subscription.ID.String()),
			zap.String("gateway", subscription.Gateway),
			zap.Error(err),
		)
		s.insertNote(ctx, s.db, subscription.ID, fmt.Sprintf("retry charge declined: %v", err))
		return subscriptiondomain.ErrRetryChargeFailed
	}

	orderID, err := s.AddPayment(ctx, id, subscriptiondomain.AddPaymentRequest{
		Amount:        charge.Amount,
		Tax:           charge.Tax,
		TransactionID: charge.TransactionID,
		OccurredAt:    charge.OccurredAt,
	})
	if err != nil {
		return err
	}

	_, err = s.Renew(ctx, id, orderID)
	return err
}

// Renew advances the subscription one billing period past its previous
// expiration and recomputes the status from the renewal count. The renewal
// order must already exist; AddPayment records it.
func (s *Service) Renew(ctx context.Context, id string, orderID snowflake.ID) (subscriptiondomain.Subscription, error) {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	order, err := s.ordersvc.GetByID(ctx, orderID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if order.Kind != orderdomain.OrderKindRenewal || order.SubscriptionID == nil || *order.SubscriptionID != subscriptionID {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidOrder
	}

	var renewed subscriptiondomain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if subscription.Status.Terminal() {
			return subscriptiondomain.ErrInvalidTransition
		}

		subscription.Expiration = subscription.NextExpiration()

		completed, err := s.ordersvc.CountCompletedRenewals(ctx, subscription.ID)
		if err != nil {
			return err
		}

		if subscription.BillTimes > 0 && completed >= int64(subscription.BillTimes) {
			subscription.Status = subscriptiondomain.SubscriptionStatusCompleted
		} else {
			subscription.Status = subscriptiondomain.SubscriptionStatusActive
		}

		subscription.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateLifecycle(ctx, tx, subscription); err != nil {
			return err
		}

		renewed = *subscription
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	return renewed, nil
}

// AddPayment records a renewal charge as an order without touching the
// subscription status. A transaction id already recorded against the
// subscription returns the existing order, which keeps webhook redelivery
// harmless.
func (s *Service) AddPayment(ctx context.Context, id string, req subscriptiondomain.AddPaymentRequest) (snowflake.ID, error) {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return 0, err
	}

	if req.Amount < 0 || req.Tax < 0 {
		return 0, subscriptiondomain.ErrInvalidAmount
	}

	subscription, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return 0, err
	}
	if subscription == nil {
		return 0, subscriptiondomain.ErrSubscriptionNotFound
	}

	transactionID := strings.TrimSpace(req.TransactionID)
	if transactionID != "" {
		existing, err := s.ordersvc.FindRenewalByTransactionID(ctx, subscriptionID, transactionID)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			return existing.ID, nil
		}
	}

	status := orderdomain.OrderStatusComplete
	if req.Failed {
		status = orderdomain.OrderStatusFailed
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock.Now()
	}

	order := orderdomain.Order{
		ID:             s.genID.Generate(),
		CustomerID:     subscription.CustomerID,
		SubscriptionID: &subscriptionID,
		Kind:           orderdomain.OrderKindRenewal,
		Total:          req.Amount,
		Tax:            req.Tax,
		Currency:       subscription.Currency,
		Gateway:        subscription.Gateway,
		TransactionID:  transactionID,
		Status:         status,
		CreatedAt:      occurredAt.UTC(),
		UpdatedAt:      s.clock.Now(),
	}

	if err := s.ordersvc.Create(ctx, &order); err != nil {
		return 0, err
	}

	return order.ID, nil
}

// AddNote implements domain.Service.
func (s *Service) AddNote(ctx context.Context, id, author, message string) error {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return subscriptiondomain.ErrInvalidSubscription
	}

	subscription, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return subscriptiondomain.ErrSubscriptionNotFound
	}

	if strings.TrimSpace(author) == "" {
		author = noteAuthorSystem
	}

	return s.repo.InsertNote(ctx, s.db, &subscriptiondomain.SubscriptionNote{
		ID:             s.genID.Generate(),
		SubscriptionID: subscriptionID,
		Author:         strings.TrimSpace(author),
		Message:        strings.TrimSpace(message),
		CreatedAt:      s.clock.Now(),
	})
}

// ListNotes implements domain.Service.
func (s *Service) ListNotes(ctx context.Context, id string) ([]subscriptiondomain.SubscriptionNote, error) {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return nil, err
	}
	return s.repo.ListNotes(ctx, s.db, subscriptionID)
}

// transition moves the subscription to the target status under a row lock.
// Already being in the target status is a no-op.
func (s *Service) transition(
	ctx context.Context,
	id string,
	target subscriptiondomain.SubscriptionStatus,
	apply func(tx *gorm.DB, subscription *subscriptiondomain.Subscription) error,
) error {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}

		if subscription.Status == target {
			return nil
		}

		if !subscriptiondomain.TransitionAllowed(subscription.Status, target) {
			return subscriptiondomain.ErrInvalidTransition
		}

		subscription.Status = target
		subscription.UpdatedAt = s.clock.Now()

		if err := s.repo.UpdateLifecycle(ctx, tx, subscription); err != nil {
			return err
		}

		if apply != nil {
			return apply(tx, subscription)
		}
		return nil
	})
}

func (s *Service) insertNote(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, message string) {
	err := s.repo.InsertNote(ctx, db, &subscriptiondomain.SubscriptionNote{
		ID:             s.genID.Generate(),
		SubscriptionID: subscriptionID,
		Author:         noteAuthorSystem,
		Message:        message,
		CreatedAt:      s.clock.Now(),
	})
	if err != nil {
		s.log.Warn("insert subscription note failed",
			zap.String("subscription_id", subscriptionID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) buildListQuery(req subscriptiondomain.ListSubscriptionRequest) (*subscriptiondomain.Subscription, []option.QueryOption, error) {
	filter := &subscriptiondomain.Subscription{}

	if strings.TrimSpace(req.Status) != "" {
		status := subscriptiondomain.SubscriptionStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if !status.Valid() {
			return nil, nil, subscriptiondomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if strings.TrimSpace(req.Gateway) != "" {
		filter.Gateway = strings.ToLower(strings.TrimSpace(req.Gateway))
	}
	if strings.TrimSpace(req.ProductID) != "" {
		productID, err := s.parseID(req.ProductID, subscriptiondomain.ErrInvalidProduct)
		if err != nil {
			return nil, nil, err
		}
		filter.ProductID = productID
	}

	var options []option.QueryOption

	if search := strings.TrimSpace(req.Search); search != "" {
		switch {
		case strings.HasPrefix(search, "id:"):
			id, err := s.parseID(strings.TrimPrefix(search, "id:"), subscriptiondomain.ErrInvalidSubscription)
			if err != nil {
				return nil, nil, err
			}
			filter.ID = id
		case strings.HasPrefix(search, "profile_id:"):
			filter.ProfileID = strings.TrimSpace(strings.TrimPrefix(search, "profile_id:"))
		case strings.HasPrefix(search, "product_id:"):
			productID, err := s.parseID(strings.TrimPrefix(search, "product_id:"), subscriptiondomain.ErrInvalidProduct)
			if err != nil {
				return nil, nil, err
			}
			filter.ProductID = productID
		case strings.HasPrefix(search, "txn:"):
			filter.TransactionID = strings.TrimSpace(strings.TrimPrefix(search, "txn:"))
		case strings.HasPrefix(search, "customer_id:"):
			customerID, err := s.parseID(strings.TrimPrefix(search, "customer_id:"), subscriptiondomain.ErrInvalidCustomer)
			if err != nil {
				return nil, nil, err
			}
			filter.CustomerID = customerID
		default:
			options = append(options, option.ApplyOperator(option.Condition{
				Field:    "customer_email",
				Operator: option.LIKE,
				Value:    "%" + search + "%",
			}))
		}
	}

	if req.CreatedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.GTE,
			Value:    *req.CreatedFrom,
		}))
	}
	if req.CreatedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LTE,
			Value:    *req.CreatedTo,
		}))
	}

	return filter, options, nil
}

func (s *Service) parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
