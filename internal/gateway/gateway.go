// Package gateway defines the payment gateway integration contract and the
// registry the renewal engine resolves integrations from.
package gateway

import (
	"context"
	"errors"
	"time"

	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
)

var (
	ErrGatewayNotFound = errors.New("gateway_not_found")
	ErrCancelFailed    = errors.New("gateway_cancel_failed")
	ErrChargeDeclined  = errors.New("gateway_charge_declined")
	ErrNotSupported    = errors.New("gateway_operation_not_supported")
)

// Charge is the result of a renewal charge attempt.
type Charge struct {
	TransactionID string
	Amount        int64
	Tax           int64
	Currency      string
	OccurredAt    time.Time
}

// Gateway is one payment integration. Cancel tells the remote side to stop
// billing; the local subscription state stays authoritative regardless of
// whether the remote call succeeds.
type Gateway interface {
	ID() string
	Cancel(ctx context.Context, sub subscriptiondomain.Subscription, force bool) error
	ChargeRenewal(ctx context.Context, sub subscriptiondomain.Subscription) (Charge, error)
}
