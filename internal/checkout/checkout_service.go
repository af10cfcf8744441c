// Package checkout drives a single checkout attempt: snapshotting the cart
// into a staged draft, redirecting to the hosted payment flow, and
// reconciling the provider's callback into exactly one order-creation call.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/boostgg/storefront/internal/draft"
	"github.com/boostgg/storefront/internal/payment"
)

type CartAPI interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	RemoveOrdered(ctx context.Context, userID string, productIDs []int64) (*domain.Cart, error)
}

type ProductGetter interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type PaymentClient interface {
	CreateSession(ctx context.Context, items []payment.SessionLineItem) (*payment.Session, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
}

type Service struct {
	cart    CartAPI
	catalog ProductGetter
	payment PaymentClient
	drafts  draft.Store
	orders  OrderCreator

	// inflight holds the state of checkout attempts currently submitting,
	// keyed by session id. Entries exist only while an order-creation call
	// is in flight; completed and failed attempts are removed so a retry
	// starts fresh from the staged draft.
	mu       sync.Mutex
	inflight map[string]domain.CheckoutState
}

func NewService(cart CartAPI, catalog ProductGetter, pay PaymentClient, drafts draft.Store, orders OrderCreator) *Service {
	return &Service{
		cart:     cart,
		catalog:  catalog,
		payment:  pay,
		drafts:   drafts,
		orders:   orders,
		inflight: make(map[string]domain.CheckoutState),
	}
}

type InitiateResult struct {
	SessionID   string
	RedirectURL string
}

// Initiate snapshots the cart into a staged draft and opens a hosted payment
// session. The draft is written before returning the redirect URL, so the
// callback always finds it unless the draft TTL has elapsed.
func (s *Service) Initiate(ctx context.Context, userID, promotion, subplatform string) (*InitiateResult, error) {
	cart, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]domain.DraftLine, 0, len(cart.Items))
	sessionItems := make([]payment.SessionLineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.DraftLine{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
			PlatformID: product.PlatformID,
			Promotion:  promotion,
		})
		sessionItems = append(sessionItems, payment.SessionLineItem{
			Name:     item.Name,
			Image:    item.ImageURL,
			Price:    item.Price,
			Platform: item.Platform,
		})
	}

	sess, err := s.payment.CreateSession(ctx, sessionItems)
	if err != nil {
		return nil, err
	}

	d := &domain.StagedOrderDraft{
		SessionID:   sess.SessionID,
		Orders:      lines,
		Subplatform: subplatform,
		StagedAt:    time.Now(),
	}
	if err := s.drafts.Stage(ctx, userID, d); err != nil {
		return nil, err
	}

	return &InitiateResult{
		SessionID:   sess.SessionID,
		RedirectURL: sess.RedirectURL,
	}, nil
}
