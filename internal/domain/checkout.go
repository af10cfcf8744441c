package domain

import "time"

// CheckoutState tracks a single checkout attempt from payment redirect to
// order creation.
type CheckoutState string

const (
	StateIdle           CheckoutState = "IDLE"
	StateAwaitingReturn CheckoutState = "AWAITING_RETURN"
	StateSubmitting     CheckoutState = "SUBMITTING"
	StateComplete       CheckoutState = "COMPLETE"
	StateFailed         CheckoutState = "FAILED"
	StateInvalid        CheckoutState = "INVALID"
)

func (s CheckoutState) IsTerminal() bool {
	return s == StateComplete || s == StateFailed || s == StateInvalid
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

// CanTransitionTo reports whether a checkout attempt may move from one state
// to another. A Submitting attempt may not re-enter Submitting; that is the
// at-most-once guard for order creation.
func CanTransitionTo(from, to CheckoutState) bool {
	switch to {
	case StateAwaitingReturn:
		return from == StateIdle || from == StateFailed
	case StateSubmitting:
		return from == StateAwaitingReturn
	case StateComplete, StateFailed:
		return from == StateSubmitting
	case StateInvalid:
		return from == StateAwaitingReturn
	default:
		return false
	}
}

// DraftLine is one cart line captured into a staged draft, enriched with the
// platform and promotion metadata the order-creation call needs.
type DraftLine struct {
	ProductID  int64   `json:"product_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	PlatformID int64   `json:"platform_id"`
	Promotion  string  `json:"promotion,omitempty"`
}

// StagedOrderDraft bridges the redirect to the payment provider and the
// order-creation call made when the user returns.
type StagedOrderDraft struct {
	SessionID   string      `json:"session_id"`
	Orders      []DraftLine `json:"orders"`
	Subplatform string      `json:"subplatform,omitempty"`
	StagedAt    time.Time   `json:"staged_at"`
}
