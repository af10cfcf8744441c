package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/boostgg/storefront/internal/draft"
	"github.com/google/uuid"
)

// Reconcile handles the return from the hosted payment flow. The returned
// session id must match the staged draft exactly; a mismatch or missing
// draft invalidates the attempt and deletes the draft. Order creation runs
// at most once per session: a duplicate trigger while the first call is in
// flight gets ErrSubmissionInProgress without touching the order repository.
// On failure the draft is kept so the user can retry.
func (s *Service) Reconcile(ctx context.Context, userID, sessionID string) (uuid.UUID, error) {
	d, err := s.drafts.Load(ctx, userID)
	if errors.Is(err, draft.ErrDraftNotFound) {
		return uuid.Nil, ErrNoStagedDraft
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("load staged draft: %w", err)
	}

	if d.SessionID != sessionID {
		log.Printf("session mismatch for user %v: staged %v, returned %v", userID, d.SessionID, sessionID)
		if errDel := s.drafts.Delete(ctx, userID); errDel != nil {
			log.Printf("failed to delete invalid draft: %v", errDel)
		}
		return uuid.Nil, ErrSessionMismatch
	}

	if err := s.beginSubmit(sessionID); err != nil {
		return uuid.Nil, err
	}

	order, err := buildOrder(userID, sessionID, d)
	if err != nil {
		s.endSubmit(sessionID, domain.StateFailed)
		return uuid.Nil, err
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		// Draft stays for a retry; the guard resets.
		s.endSubmit(sessionID, domain.StateFailed)
		return uuid.Nil, err
	}

	// Remove exactly the ordered lines; lines added mid-checkout survive.
	if _, errRemove := s.cart.RemoveOrdered(ctx, userID, order.ProductIDs); errRemove != nil {
		log.Printf("failed to remove ordered items from cart: %v", errRemove)
	}
	if errDel := s.drafts.Delete(ctx, userID); errDel != nil {
		log.Printf("failed to delete staged draft: %v", errDel)
	}

	s.endSubmit(sessionID, domain.StateComplete)
	return order.ID, nil
}

// beginSubmit moves the attempt into Submitting. Only Submitting attempts
// live in the inflight map, so an occupied entry can never transition again
// until the first call resolves.
func (s *Service) beginSubmit(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.inflight[sessionID]
	if !ok {
		state = domain.StateAwaitingReturn
	}
	if !domain.CanTransitionTo(state, domain.StateSubmitting) {
		if state == domain.StateSubmitting {
			return ErrSubmissionInProgress
		}
		return ErrIllegalTransition
	}

	s.inflight[sessionID] = domain.StateSubmitting
	return nil
}

func (s *Service) endSubmit(sessionID string, outcome domain.CheckoutState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !domain.CanTransitionTo(s.inflight[sessionID], outcome) {
		log.Printf("unexpected checkout state for session %v, outcome %v", sessionID, outcome)
	}
	delete(s.inflight, sessionID)
}

// buildOrder flattens the staged draft into the order-creation payload: the
// platform id comes from the first line, product ids repeat per quantity, and
// the full lines are serialized as order data.
func buildOrder(userID, sessionID string, d *domain.StagedOrderDraft) (*domain.Order, error) {
	if len(d.Orders) == 0 {
		return nil, ErrEmptyCart
	}

	var productIDs []int64
	var total float64
	for _, line := range d.Orders {
		for i := 0; i < line.Quantity; i++ {
			productIDs = append(productIDs, line.ProductID)
		}
		total += line.Price * float64(line.Quantity)
	}

	orderData, err := json.Marshal(d.Orders)
	if err != nil {
		return nil, fmt.Errorf("marshal order data: %w", err)
	}

	return &domain.Order{
		ID:               uuid.New(),
		UserID:           userID,
		Status:           domain.OrderStatusOpen,
		PaymentSessionID: sessionID,
		PlatformID:       d.Orders[0].PlatformID,
		ProductIDs:       productIDs,
		OrderData:        orderData,
		Promotion:        d.Orders[0].Promotion,
		Subplatform:      d.Subplatform,
		TotalAmount:      total,
		Currency:         "USD",
	}, nil
}
