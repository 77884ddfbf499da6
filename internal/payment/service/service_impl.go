package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/subforge/renewals/internal/clock"
	orderdomain "github.com/subforge/renewals/internal/order/domain"
	paymentdomain "github.com/subforge/renewals/internal/payment/domain"
	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
	"github.com/subforge/renewals/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// initialPaymentWindow bounds how long after the parent order's creation a
// completed payment can still be classified as the initial payment rather
// than a renewal.
const initialPaymentWindow = 24 * time.Hour

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock

	repo     paymentdomain.Repository
	subsvc   subscriptiondomain.Service
	ordersvc orderdomain.Service

	metrics *telemetry.WebhookMetrics
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  paymentdomain.Repository

	Subsvc   subscriptiondomain.Service
	Ordersvc orderdomain.Service
}

func NewService(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("payment.service"),

		genID: p.GenID,
		clock: p.Clock,

		repo:     p.Repo,
		subsvc:   p.Subsvc,
		ordersvc: p.Ordersvc,

		metrics: telemetry.Webhook(),
	}
}

// Process implements domain.Service.
func (s *Service) Process(ctx context.Context, event paymentdomain.Event) (paymentdomain.Result, error) {
	event.Gateway = strings.ToLower(strings.TrimSpace(event.Gateway))
	event.EventID = strings.TrimSpace(event.EventID)
	event.ProfileID = strings.TrimSpace(event.ProfileID)
	event.TransactionID = strings.TrimSpace(event.TransactionID)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}

	if event.Gateway == "" || event.EventID == "" || event.ProfileID == "" || !event.Type.Valid() {
		return paymentdomain.Result{}, paymentdomain.ErrInvalidEvent
	}

	record := &paymentdomain.EventRecord{
		ID:         s.genID.Generate(),
		Gateway:    event.Gateway,
		EventID:    event.EventID,
		Type:       event.Type,
		ReceivedAt: s.clock.Now(),
	}

	duplicate, err := s.repo.InsertEvent(ctx, s.db, record)
	if err != nil {
		return paymentdomain.Result{}, err
	}
	redelivery := false
	if duplicate {
		prior, err := s.repo.FindEvent(ctx, s.db, event.Gateway, event.EventID)
		if err != nil {
			return paymentdomain.Result{}, err
		}
		if prior == nil || prior.Processed {
			s.metrics.IncDuplicate(event.Gateway)
			return paymentdomain.Result{
				Outcome: paymentdomain.OutcomeIgnored,
				Detail:  "duplicate delivery",
			}, nil
		}
		// The earlier delivery died on an infrastructure error before it
		// took effect. Treat the redelivery as a fresh attempt.
		record = prior
		redelivery = true
	}

	result, procErr := s.apply(ctx, event, redelivery)

	if procErr == nil || paymentdomain.SoftFailure(procErr) {
		if err := s.repo.MarkProcessed(ctx, s.db, record.ID); err != nil {
			s.log.Warn("mark event processed failed",
				zap.String("gateway", event.Gateway),
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
		}
	}

	s.metrics.IncEvent(event.Gateway, string(event.Type), string(result.Outcome))
	return result, procErr
}

func (s *Service) apply(ctx context.Context, event paymentdomain.Event, redelivery bool) (paymentdomain.Result, error) {
	subscription, err := s.subsvc.GetByProfileID(ctx, event.Gateway, event.ProfileID)
	if errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
		// The profile may belong to a migrated or foreign subscription.
		// Acknowledge and move on.
		s.log.Warn("no subscription for webhook profile",
			zap.String("gateway", event.Gateway),
			zap.String("profile_id", event.ProfileID),
		)
		return paymentdomain.Result{
			Outcome: paymentdomain.OutcomeSoftFailed,
			Detail:  "no subscription for profile id",
		}, nil
	}
	if err != nil {
		return paymentdomain.Result{}, err
	}

	switch event.Type {
	case paymentdomain.EventTypePaymentFailed:
		return s.applyFailed(ctx, subscription, event)
	case paymentdomain.EventTypePaymentCompleted:
		if s.isInitialPayment(ctx, subscription, event) {
			return s.applyInitial(ctx, subscription, event)
		}
		return s.applyRenewal(ctx, subscription, event, redelivery)
	default:
		return paymentdomain.Result{}, paymentdomain.ErrInvalidEvent
	}
}

func (s *Service) applyFailed(ctx context.Context, subscription subscriptiondomain.Subscription, event paymentdomain.Event) (paymentdomain.Result, error) {
	err := s.subsvc.Failing(ctx, subscription.ID.String(), event.Reason)
	if errors.Is(err, subscriptiondomain.ErrInvalidTransition) {
		return paymentdomain.Result{
			Outcome: paymentdomain.OutcomeSoftFailed,
			Detail:  fmt.Sprintf("cannot mark %s subscription failing", subscription.Status),
		}, nil
	}
	if err != nil {
		return paymentdomain.Result{}, err
	}
	return paymentdomain.Result{Outcome: paymentdomain.OutcomeProcessed}, nil
}

// isInitialPayment classifies a completed payment. The payment is initial iff
// it landed within 24 hours of the parent order's creation and the parent has
// either no transaction id yet or the same one.
func (s *Service) isInitialPayment(ctx context.Context, subscription subscriptiondomain.Subscription, event paymentdomain.Event) bool {
	parent, err := s.ordersvc.GetByID(ctx, subscription.ParentOrderID)
	if err != nil {
		return false
	}

	elapsed := event.OccurredAt.Sub(parent.CreatedAt)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	if elapsed >= initialPaymentWindow {
		return false
	}

	return parent.TransactionID == "" || parent.TransactionID == event.TransactionID
}

func (s *Service) applyInitial(ctx context.Context, subscription subscriptiondomain.Subscription, event paymentdomain.Event) (paymentdomain.Result, error) {
	parentOrderID := subscription.ParentOrderID
	subscriptionID := subscription.ID.String()

	switch event.TransactionState {
	case paymentdomain.TransactionStateDeclined:
		if err := s.ordersvc.MarkStatus(ctx, parentOrderID, orderdomain.OrderStatusFailed); err != nil {
			return paymentdomain.Result{}, err
		}
		s.addNote(ctx, subscriptionID, fmt.Sprintf("initial payment declined: %s", reasonOrDefault(event.Reason)))
		if err := s.subsvc.Failing(ctx, subscriptionID, event.Reason); err != nil && !errors.Is(err, subscriptiondomain.ErrInvalidTransition) {
			return paymentdomain.Result{}, err
		}
		return paymentdomain.Result{
			Outcome: paymentdomain.OutcomeProcessed,
			Detail:  "initial payment declined",
		}, nil

	case paymentdomain.TransactionStatePending:
		if event.Reason != "" {
			s.addNote(ctx, subscriptionID, fmt.Sprintf("initial payment pending: %s", event.Reason))
		}
		if err := s.ordersvc.MarkStatus(ctx, parentOrderID, orderdomain.OrderStatusProcessing); err != nil {
			return paymentdomain.Result{}, err
		}
		return paymentdomain.Result{
			Outcome: paymentdomain.OutcomeProcessed,
			Detail:  "initial payment pending",
		}, nil

	case paymentdomain.TransactionStateCompleted:
		parent, err := s.ordersvc.GetByID(ctx, parentOrderID)
		if err != nil {
			return paymentdomain.Result{}, err
		}

		if validationErr := validateInitial(parent, event); validationErr != nil {
			if err := s.ordersvc.MarkStatus(ctx, parentOrderID, orderdomain.OrderStatusFailed); err != nil {
				return paymentdomain.Result{}, err
			}
			s.addNote(ctx, subscriptionID, validationErr.Error())
			return paymentdomain.Result{
				Outcome: paymentdomain.OutcomeSoftFailed,
				Detail:  validationErr.Error(),
			}, validationErr
		}

		if err := s.ordersvc.MarkStatus(ctx, parentOrderID, orderdomain.OrderStatusComplete); err != nil {
			return paymentdomain.Result{}, err
		}
		if err := s.ordersvc.SetTransactionID(ctx, parentOrderID, event.TransactionID); err != nil {
			return paymentdomain.Result{}, err
		}
		if err := s.subsvc.Update(ctx, subscriptiondomain.UpdateSubscriptionRequest{
			SubscriptionID: subscriptionID,
			TransactionID:  &event.TransactionID,
		}); err != nil {
			return paymentdomain.Result{}, err
		}

		if subscription.Status != subscriptiondomain.SubscriptionStatusCompleted {
			if err := s.subsvc.Activate(ctx, subscriptionID); err != nil && !errors.Is(err, subscriptiondomain.ErrInvalidTransition) {
				return paymentdomain.Result{}, err
			}
		}

		return paymentdomain.Result{Outcome: paymentdomain.OutcomeProcessed}, nil

	default:
		s.log.Warn("unexpected transaction state on initial payment",
			zap.String("subscription_id", subscriptionID),
			zap.String("state", string(event.TransactionState)),
		)
		return paymentdomain.Result{
			Outcome: paymentdomain.OutcomeSoftFailed,
			Detail:  fmt.Sprintf("unexpected transaction state %q", event.TransactionState),
		}, paymentdomain.ErrUnexpectedGatewayState
	}
}

func (s *Service) applyRenewal(ctx context.Context, subscription subscriptiondomain.Subscription, event paymentdomain.Event, redelivery bool) (paymentdomain.Result, error) {
	subscriptionID := subscription.ID.String()

	switch event.TransactionState {
	case paymentdomain.TransactionStateDeclined:
		if err := s.subsvc.Failing(ctx, subscriptionID, event.Reason); err != nil && !errors.Is(err, subscriptiondomain.ErrInvalidTransition) {
			return paymentdomain.Result{}, err
		}
		return paymentdomain.Result{
			Outcome: paymentdomain.OutcomeProcessed,
			Detail:  "renewal payment declined",
		}, nil

	case paymentdomain.TransactionStateCompleted:
		if event.Currency != "" && !strings.EqualFold(event.Currency, subscription.Currency) {
			validationErr := &paymentdomain.ValidationError{
				Field:  "currency",
				Detail: fmt.Sprintf("event currency %s does not match subscription currency %s", event.Currency, subscription.Currency),
			}
			s.addNote(ctx, subscriptionID, validationErr.Error())
			return paymentdomain.Result{
				Outcome: paymentdomain.OutcomeSoftFailed,
				Detail:  validationErr.Error(),
			}, validationErr
		}

		// A redelivered event may have created its order on the attempt that
		// failed, so only a different delivery's transaction short-circuits
		// here. AddPayment dedupes by transaction id either way, and Renew
		// then applies the lifecycle advance the failed attempt lost.
		if !redelivery && event.TransactionID != "" {
			existing, err := s.ordersvc.FindRenewalByTransactionID(ctx, subscription.ID, event.TransactionID)
			if err != nil {
				return paymentdomain.Result{}, err
			}
			if existing != nil {
				return paymentdomain.Result{
					Outcome: paymentdomain.OutcomeIgnored,
					Detail:  "transaction already recorded",
				}, nil
			}
		}

		orderID, err := s.subsvc.AddPayment(ctx, subscriptionID, subscriptiondomain.AddPaymentRequest{
			Amount:        event.Amount,
			TransactionID: event.TransactionID,
			OccurredAt:    event.OccurredAt,
		})
		if err != nil {
			return paymentdomain.Result{}, err
		}

		if _, err := s.subsvc.Renew(ctx, subscriptionID, orderID); err != nil {
			return paymentdomain.Result{}, err
		}

		return paymentdomain.Result{Outcome: paymentdomain.OutcomeProcessed}, nil

	default:
		s.log.Warn("unexpected transaction state on renewal payment",
			zap.String("subscription_id", subscriptionID),
			zap.String("state", string(event.TransactionState)),
		)
		return paymentdomain.Result{
			Outcome: paymentdomain.OutcomeSoftFailed,
			Detail:  fmt.Sprintf("unexpected transaction state %q", event.TransactionState),
		}, paymentdomain.ErrUnexpectedGatewayState
	}
}

func validateInitial(parent orderdomain.Order, event paymentdomain.Event) *paymentdomain.ValidationError {
	if event.TransactionID == "" {
		return &paymentdomain.ValidationError{Field: "transaction_id", Detail: "missing transaction id"}
	}
	if event.Amount < parent.Total {
		return &paymentdomain.ValidationError{
			Field:  "amount",
			Detail: fmt.Sprintf("paid %d is less than order total %d", event.Amount, parent.Total),
		}
	}
	if event.Currency != "" && !strings.EqualFold(event.Currency, parent.Currency) {
		return &paymentdomain.ValidationError{
			Field:  "currency",
			Detail: fmt.Sprintf("event currency %s does not match order currency %s", event.Currency, parent.Currency),
		}
	}
	return nil
}

func (s *Service) addNote(ctx context.Context, subscriptionID, message string) {
	if err := s.subsvc.AddNote(ctx, subscriptionID, "", message); err != nil {
		s.log.Warn("attach subscription note failed",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err),
		)
	}
}

func reasonOrDefault(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "no reason supplied"
	}
	return reason
}
