// Package scheduler drives time-based renewal work: charging due
// subscriptions and expiring the ones that stayed failing past the grace
// window. Multiple workers can run concurrently; the claim queries skip rows
// another worker already holds.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/subforge/renewals/internal/clock"
	"github.com/subforge/renewals/internal/gateway"
	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
	"github.com/subforge/renewals/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Clock           clock.Clock
	SubscriptionSvc subscriptiondomain.Service
	Repo            subscriptiondomain.Repository
	Gateways        *gateway.Registry
	Config          Config `optional:"true"`
}

type Scheduler struct {
	db              *gorm.DB
	log             *zap.Logger
	cfg             Config
	clock           clock.Clock
	subscriptionSvc subscriptiondomain.Service
	repo            subscriptiondomain.Repository
	gateways        *gateway.Registry
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.SubscriptionSvc == nil || p.Repo == nil || p.Gateways == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:              p.DB,
		log:             p.Log.Named("scheduler"),
		cfg:             p.Config.withDefaults(),
		clock:           p.Clock,
		subscriptionSvc: p.SubscriptionSvc,
		repo:            p.Repo,
		gateways:        p.Gateways,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	metrics := telemetry.Scheduler()
	metrics.IncJobRun(name)

	err := fn(ctx)
	metrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// A slow batch picks up where it left off on the next tick.
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
		)
		return nil
	}

	metrics.IncJobError(name)
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"process_renewals", func(ctx context.Context) error {
			return s.runJob(ctx, "process_renewals", s.ProcessRenewalsJob)
		}},
		{"expire_overdue", func(ctx context.Context) error {
			return s.runJob(ctx, "expire_overdue", s.ExpireOverdueJob)
		}},
	}

	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty means all jobs run (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// ProcessRenewalsJob claims due subscriptions and charges each through its
// gateway. A declined charge marks the subscription failing; a successful one
// records the order and advances the calendar.
func (s *Scheduler) ProcessRenewalsJob(ctx context.Context) error {
	now := s.clock.Now()
	staleBefore := now.Add(-s.cfg.ClaimTTL)

	// The claim stamp commits with this transaction, so a concurrent worker's
	// claim query skips these rows while we charge them.
	var due []subscriptiondomain.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		due, txErr = s.repo.ClaimDueForRenewal(ctx, tx, now, staleBefore, s.cfg.BatchSize)
		return txErr
	})
	if err != nil {
		return err
	}

	metrics := telemetry.Scheduler()
	var errs error
	for _, subscription := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.processRenewal(ctx, subscription); err != nil {
			metrics.IncRenewal(subscription.Gateway, "error")
			errs = errors.Join(errs, err)
			continue
		}
	}
	return errs
}

func (s *Scheduler) processRenewal(ctx context.Context, subscription subscriptiondomain.Subscription) error {
	metrics := telemetry.Scheduler()
	log := s.log.With(
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("gateway", subscription.Gateway),
	)

	gw, err := s.gateways.Resolve(subscription.Gateway)
	if err != nil {
		log.Warn("no gateway integration for due subscription")
		metrics.IncRenewal(subscription.Gateway, "no_gateway")
		return s.subscriptionSvc.Failing(ctx, subscription.ID.String(), "no gateway integration registered")
	}

	charge, err := gw.ChargeRenewal(ctx, subscription)
	if err != nil {
		if errors.Is(err, gateway.ErrNotSupported) {
			// Push-based gateways report renewals through webhooks; leave the
			// subscription for the webhook handler.
			metrics.IncRenewal(subscription.Gateway, "deferred")
			return nil
		}
		log.Warn("renewal charge declined", zap.Error(err))
		metrics.IncRenewal(subscription.Gateway, "declined")
		return s.subscriptionSvc.Failing(ctx, subscription.ID.String(), err.Error())
	}

	orderID, err := s.subscriptionSvc.AddPayment(ctx, subscription.ID.String(), subscriptiondomain.AddPaymentRequest{
		Amount:        charge.Amount,
		Tax:           charge.Tax,
		TransactionID: charge.TransactionID,
		OccurredAt:    charge.OccurredAt,
	})
	if err != nil {
		return err
	}

	if _, err := s.subscriptionSvc.Renew(ctx, subscription.ID.String(), orderID); err != nil {
		return err
	}

	metrics.IncRenewal(subscription.Gateway, "success")
	return nil
}

// ExpireOverdueJob expires failing subscriptions that sat past the grace
// window without a successful retry.
func (s *Scheduler) ExpireOverdueJob(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.cfg.FailingGrace)

	var overdue []subscriptiondomain.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		overdue, txErr = s.repo.FindOverdueFailing(ctx, tx, cutoff, s.cfg.BatchSize)
		return txErr
	})
	if err != nil {
		return err
	}

	var errs error
	for _, subscription := range overdue {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.subscriptionSvc.Expire(ctx, subscription.ID.String()); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		s.log.Info("expired overdue subscription",
			zap.String("subscription_id", subscription.ID.String()),
			zap.Time("expiration", subscription.Expiration),
		)
	}

	return errors.Join(errs, s.completeCapReached(ctx))
}

// completeCapReached sweeps active subscriptions whose completed renewal
// count already hit bill_times. Renew normally completes these inline; the
// sweep covers renewals recorded outside it, such as imports.
func (s *Scheduler) completeCapReached(ctx context.Context) error {
	var capped []subscriptiondomain.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		capped, txErr = s.repo.FindCapReachedActive(ctx, tx, s.cfg.BatchSize)
		return txErr
	})
	if err != nil {
		return err
	}

	var errs error
	for _, subscription := range capped {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.subscriptionSvc.Complete(ctx, subscription.ID.String()); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		s.log.Info("completed subscription at bill times cap",
			zap.String("subscription_id", subscription.ID.String()),
			zap.Int("bill_times", subscription.BillTimes),
		)
	}
	return errs
}
