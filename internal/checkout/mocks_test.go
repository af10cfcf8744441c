package checkout

import (
	"context"
	"sync"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/boostgg/storefront/internal/draft"
	"github.com/boostgg/storefront/internal/payment"
)

// MockCart implements CartAPI for testing
type MockCart struct {
	mu           sync.Mutex
	Cart         *domain.Cart
	Err          error
	RemovedCalls [][]int64 // captures the product id lists passed to RemoveOrdered
}

func (m *MockCart) GetCart(context.Context, string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Cart, m.Err
}

func (m *MockCart) RemoveOrdered(_ context.Context, _ string, productIDs []int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemovedCalls = append(m.RemovedCalls, productIDs)

	removed := make(map[int64]struct{})
	for _, id := range productIDs {
		removed[id] = struct{}{}
	}
	var kept []domain.CartItem
	for _, it := range m.Cart.Items {
		if _, ok := removed[it.ProductID]; !ok {
			kept = append(kept, it)
		}
	}
	m.Cart.Items = kept
	return m.Cart, nil
}

func (m *MockCart) items() []domain.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Cart.Items
}

// MockCatalog implements ProductGetter for testing
type MockCatalog struct {
	Products map[int64]*domain.Product
	Err      error
}

func (m *MockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Products[id], nil
}

// MockPayment implements PaymentClient for testing
type MockPayment struct {
	Session   *payment.Session
	Err       error
	GotItems  []payment.SessionLineItem
	CallCount int
}

func (m *MockPayment) CreateSession(_ context.Context, items []payment.SessionLineItem) (*payment.Session, error) {
	m.CallCount++
	m.GotItems = items
	return m.Session, m.Err
}

// MockDrafts implements draft.Store in memory
type MockDrafts struct {
	mu     sync.Mutex
	drafts map[string]*domain.StagedOrderDraft
}

func NewMockDrafts() *MockDrafts {
	return &MockDrafts{drafts: make(map[string]*domain.StagedOrderDraft)}
}

func (m *MockDrafts) Stage(_ context.Context, userID string, d *domain.StagedOrderDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[userID] = d
	return nil
}

func (m *MockDrafts) Load(_ context.Context, userID string) (*domain.StagedOrderDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[userID]
	if !ok {
		return nil, draft.ErrDraftNotFound
	}
	return d, nil
}

func (m *MockDrafts) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, userID)
	return nil
}

func (m *MockDrafts) has(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.drafts[userID]
	return ok
}

// MockOrders implements OrderCreator for testing. Release blocks CreateOrder
// until closed when set, which lets tests hold a submission in flight.
type MockOrders struct {
	mu        sync.Mutex
	Err       error
	Created   []*domain.Order
	CallCount int
	Release   chan struct{}
}

func (m *MockOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	m.CallCount++
	release := m.Release
	m.mu.Unlock()

	if release != nil {
		<-release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Created = append(m.Created, order)
	return nil
}

func (m *MockOrders) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// newTestService wires a Service with the given mocks
func newTestService(cart *MockCart, catalog *MockCatalog, pay *MockPayment, drafts *MockDrafts, orders *MockOrders) *Service {
	return NewService(cart, catalog, pay, drafts, orders)
}
