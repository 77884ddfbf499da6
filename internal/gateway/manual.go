package gateway

import (
	"context"

	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
)

// ManualGateway backs subscriptions whose renewals are recorded by an
// operator rather than charged remotely. There is nothing to cancel and
// nothing the scheduler can charge.
type ManualGateway struct{}

func NewManualGateway() *ManualGateway { return &ManualGateway{} }

func (ManualGateway) ID() string { return "manual" }

func (ManualGateway) Cancel(ctx context.Context, sub subscriptiondomain.Subscription, force bool) error {
	return nil
}

func (ManualGateway) ChargeRenewal(ctx context.Context, sub subscriptiondomain.Subscription) (Charge, error) {
	return Charge{}, ErrNotSupported
}
