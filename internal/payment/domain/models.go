// Package domain contains the canonical webhook event model and the dedupe
// record that makes event processing idempotent.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type EventType string

const (
	EventTypePaymentCompleted EventType = "payment_completed"
	EventTypePaymentFailed    EventType = "payment_failed"
)

func (t EventType) Valid() bool {
	return t == EventTypePaymentCompleted || t == EventTypePaymentFailed
}

// TransactionState is the gateway's view of the charge inside a completed
// event. Gateways that report success at the event level can still carry a
// declined or pending transaction.
type TransactionState string

const (
	TransactionStateCompleted TransactionState = "completed"
	TransactionStateDeclined  TransactionState = "declined"
	TransactionStatePending   TransactionState = "pending"
)

// Event is a gateway notification normalized into one shape. EventID is the
// gateway's delivery id and drives deduplication together with Gateway.
type Event struct {
	Gateway string
	EventID string
	Type    EventType

	ProfileID        string
	TransactionID    string
	TransactionState TransactionState

	Amount   int64
	Currency string

	OccurredAt time.Time
	Reason     string
}

// EventRecord is the persisted dedupe entry. The unique (gateway, event_id)
// pair turns redelivered webhooks into no-ops.
type EventRecord struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	Gateway string       `gorm:"type:text;not null;uniqueIndex:idx_payment_events_gateway_event" json:"gateway"`
	EventID string       `gorm:"type:text;not null;uniqueIndex:idx_payment_events_gateway_event" json:"event_id"`
	Type    EventType    `gorm:"type:text;not null" json:"type"`

	Processed   bool       `gorm:"not null;default:false" json:"processed"`
	ReceivedAt  time.Time  `gorm:"not null" json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "payment_events" }

type Outcome string

const (
	// OutcomeProcessed means the event changed state.
	OutcomeProcessed Outcome = "processed"
	// OutcomeIgnored means the event was recognized and deliberately skipped
	// (duplicate delivery, already-recorded transaction).
	OutcomeIgnored Outcome = "ignored"
	// OutcomeSoftFailed means the event could not be applied but the gateway
	// should not retry; the reason lands in the subscription notes.
	OutcomeSoftFailed Outcome = "soft_failed"
)

// Result is the explicit processing outcome. Handlers report what happened
// instead of signalling through errors; errors are reserved for infrastructure
// failures the gateway should retry.
type Result struct {
	Outcome Outcome
	Detail  string
}

// ValidationError marks an event whose payload contradicts the subscription
// it targets, such as an amount or currency mismatch.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("payment validation failed on %s: %s", e.Field, e.Detail)
}

var (
	ErrInvalidEvent              = errors.New("invalid_event")
	ErrUnexpectedGatewayState    = errors.New("unexpected_gateway_state")
	ErrEventAlreadyProcessed     = errors.New("event_already_processed")
	ErrSubscriptionNotResolvable = errors.New("subscription_not_resolvable")
)

// SoftFailure reports whether the error is part of the domain taxonomy and
// the delivery should still be acknowledged. Infrastructure errors are not
// soft; the gateway should redeliver those.
func SoftFailure(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation) ||
		errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrUnexpectedGatewayState) ||
		errors.Is(err, ErrSubscriptionNotResolvable)
}
