package domain

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusTrialling SubscriptionStatus = "trialling"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusFailing   SubscriptionStatus = "failing"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Terminal reports whether no further renewal charges may originate from the status.
func (s SubscriptionStatus) Terminal() bool {
	switch s {
	case SubscriptionStatusCancelled, SubscriptionStatusExpired, SubscriptionStatusCompleted:
		return true
	default:
		return false
	}
}

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusPending,
		SubscriptionStatusTrialling,
		SubscriptionStatusActive,
		SubscriptionStatusFailing,
		SubscriptionStatusExpired,
		SubscriptionStatusCompleted,
		SubscriptionStatusCancelled:
		return true
	default:
		return false
	}
}

// Label returns the human-readable status label used on exports.
func (s SubscriptionStatus) Label() string {
	switch s {
	case SubscriptionStatusPending:
		return "Pending"
	case SubscriptionStatusTrialling:
		return "Trialling"
	case SubscriptionStatusActive:
		return "Active"
	case SubscriptionStatusFailing:
		return "Failing"
	case SubscriptionStatusExpired:
		return "Expired"
	case SubscriptionStatusCompleted:
		return "Completed"
	case SubscriptionStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// TransitionAllowed encodes the lifecycle graph. Self transitions are not
// listed here; callers treat current == target as a no-op.
func TransitionAllowed(current, target SubscriptionStatus) bool {
	switch current {
	case SubscriptionStatusPending:
		return target == SubscriptionStatusActive ||
			target == SubscriptionStatusTrialling ||
			target == SubscriptionStatusCancelled
	case SubscriptionStatusTrialling:
		return target == SubscriptionStatusActive ||
			target == SubscriptionStatusCancelled ||
			target == SubscriptionStatusExpired ||
			target == SubscriptionStatusFailing
	case SubscriptionStatusActive:
		return target == SubscriptionStatusFailing ||
			target == SubscriptionStatusCancelled ||
			target == SubscriptionStatusExpired ||
			target == SubscriptionStatusCompleted
	case SubscriptionStatusFailing:
		return target == SubscriptionStatusActive ||
			target == SubscriptionStatusCancelled ||
			target == SubscriptionStatusExpired
	default:
		return false
	}
}
