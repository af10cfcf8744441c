package checkout

import "errors"

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrNoStagedDraft        = errors.New("no staged draft for this checkout")
	ErrSessionMismatch      = errors.New("returned session id does not match the staged draft")
	ErrSubmissionInProgress = errors.New("order submission already in progress for this session")
	ErrIllegalTransition    = errors.New("illegal transition of checkout state")
)
