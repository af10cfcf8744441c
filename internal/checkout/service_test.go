package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/boostgg/storefront/internal/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCart() *MockCart {
	return &MockCart{
		Cart: &domain.Cart{
			UserID: "user1",
			Items: []domain.CartItem{
				{ProductID: 1, Name: "Trophy Boost", Quantity: 2, Price: 24.99, Platform: "PSN", ImageURL: "https://img.example/1.png"},
				{ProductID: 2, Name: "Rank Carry", Quantity: 1, Price: 9.99, Platform: "PC", ImageURL: "https://img.example/2.png"},
			},
		},
	}
}

func testCatalog() *MockCatalog {
	return &MockCatalog{Products: map[int64]*domain.Product{
		1: {ID: 1, PlatformID: 3},
		2: {ID: 2, PlatformID: 5},
	}}
}

func testPayment() *MockPayment {
	return &MockPayment{Session: &payment.Session{
		SessionID:   "sess_123",
		RedirectURL: "https://pay.example/sess_123",
	}}
}

func TestInitiate_StagesDraftAndReturnsRedirect(t *testing.T) {
	cart := testCart()
	pay := testPayment()
	drafts := NewMockDrafts()
	svc := newTestService(cart, testCatalog(), pay, drafts, &MockOrders{})

	res, err := svc.Initiate(context.Background(), "user1", "SUMMER10", "eu")
	require.NoError(t, err)
	assert.Equal(t, "sess_123", res.SessionID)
	assert.Equal(t, "https://pay.example/sess_123", res.RedirectURL)

	// Provider got the display fields only
	require.Len(t, pay.GotItems, 2)
	assert.Equal(t, "Trophy Boost", pay.GotItems[0].Name)
	assert.Equal(t, "PSN", pay.GotItems[0].Platform)

	d, err := drafts.Load(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "sess_123", d.SessionID)
	assert.Equal(t, "eu", d.Subplatform)
	require.Len(t, d.Orders, 2)
	assert.Equal(t, int64(3), d.Orders[0].PlatformID)
	assert.Equal(t, "SUMMER10", d.Orders[0].Promotion)
}

func TestInitiate_EmptyCart(t *testing.T) {
	cart := &MockCart{Cart: &domain.Cart{UserID: "user1"}}
	pay := testPayment()
	svc := newTestService(cart, testCatalog(), pay, NewMockDrafts(), &MockOrders{})

	_, err := svc.Initiate(context.Background(), "user1", "", "")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, pay.CallCount)
}

func TestInitiate_PaymentError_NothingStaged(t *testing.T) {
	pay := &MockPayment{Err: errors.New("provider down")}
	drafts := NewMockDrafts()
	svc := newTestService(testCart(), testCatalog(), pay, drafts, &MockOrders{})

	_, err := svc.Initiate(context.Background(), "user1", "", "")
	require.Error(t, err)
	assert.False(t, drafts.has("user1"))
}

func stageDraft(t *testing.T, drafts *MockDrafts, sessionID string) {
	t.Helper()
	err := drafts.Stage(context.Background(), "user1", &domain.StagedOrderDraft{
		SessionID: sessionID,
		Orders: []domain.DraftLine{
			{ProductID: 1, Name: "Trophy Boost", Quantity: 2, Price: 24.99, PlatformID: 3, Promotion: "SUMMER10"},
			{ProductID: 2, Name: "Rank Carry", Quantity: 1, Price: 9.99, PlatformID: 3},
		},
		Subplatform: "eu",
		StagedAt:    time.Now(),
	})
	require.NoError(t, err)
}

func TestReconcile_SessionMismatch_NoOrderCall(t *testing.T) {
	drafts := NewMockDrafts()
	stageDraft(t, drafts, "sess_123")
	orders := &MockOrders{}
	svc := newTestService(testCart(), testCatalog(), testPayment(), drafts, orders)

	id, err := svc.Reconcile(context.Background(), "user1", "sess_456")
	assert.ErrorIs(t, err, ErrSessionMismatch)
	assert.Equal(t, uuid.Nil, id)
	assert.Zero(t, orders.calls(), "order creation must not be called on mismatch")

	// Validation failure deletes the draft
	assert.False(t, drafts.has("user1"))
}

func TestReconcile_MissingDraft(t *testing.T) {
	orders := &MockOrders{}
	svc := newTestService(testCart(), testCatalog(), testPayment(), NewMockDrafts(), orders)

	_, err := svc.Reconcile(context.Background(), "user1", "sess_123")
	assert.ErrorIs(t, err, ErrNoStagedDraft)
	assert.Zero(t, orders.calls())
}

func TestReconcile_Success(t *testing.T) {
	drafts := NewMockDrafts()
	stageDraft(t, drafts, "sess_123")
	cart := testCart()
	orders := &MockOrders{}
	svc := newTestService(cart, testCatalog(), testPayment(), drafts, orders)

	id, err := svc.Reconcile(context.Background(), "user1", "sess_123")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	require.Len(t, orders.Created, 1)
	created := orders.Created[0]
	assert.Equal(t, domain.OrderStatusOpen, created.Status)
	assert.Equal(t, "sess_123", created.PaymentSessionID)
	assert.Equal(t, int64(3), created.PlatformID)
	// Flattened per quantity: product 1 twice, product 2 once
	assert.Equal(t, []int64{1, 1, 2}, created.ProductIDs)
	assert.Equal(t, "SUMMER10", created.Promotion)
	assert.Equal(t, "eu", created.Subplatform)
	assert.InDelta(t, 59.97, created.TotalAmount, 0.001)

	// Every ordered line removed from the cart, draft deleted
	assert.Empty(t, cart.items())
	assert.False(t, drafts.has("user1"))
}

func TestReconcile_OrderFailure_PreservesDraftAndCart(t *testing.T) {
	drafts := NewMockDrafts()
	stageDraft(t, drafts, "sess_123")
	cart := testCart()
	orders := &MockOrders{Err: errors.New("declined")}
	svc := newTestService(cart, testCatalog(), testPayment(), drafts, orders)

	_, err := svc.Reconcile(context.Background(), "user1", "sess_123")
	require.ErrorContains(t, err, "declined")

	assert.Len(t, cart.items(), 2, "cart must be unchanged on failure")
	assert.True(t, drafts.has("user1"), "draft must be preserved for retry")

	// The guard resets, so a retry reaches the repository again
	_, err = svc.Reconcile(context.Background(), "user1", "sess_123")
	require.Error(t, err)
	assert.Equal(t, 2, orders.calls())
}

func TestReconcile_DuplicateTrigger_SubmitsOnce(t *testing.T) {
	drafts := NewMockDrafts()
	stageDraft(t, drafts, "sess_123")
	release := make(chan struct{})
	orders := &MockOrders{Release: release}
	svc := newTestService(testCart(), testCatalog(), testPayment(), drafts, orders)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = svc.Reconcile(context.Background(), "user1", "sess_123")
	}()

	// Wait until the first trigger is inside CreateOrder
	require.Eventually(t, func() bool {
		return orders.calls() == 1
	}, time.Second, 5*time.Millisecond)

	// Second trigger while the first is in flight
	_, err := svc.Reconcile(context.Background(), "user1", "sess_123")
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)

	assert.Equal(t, 1, orders.calls(), "order creation must be invoked exactly once")
}

func TestReconcile_AfterSuccess_DraftGone(t *testing.T) {
	drafts := NewMockDrafts()
	stageDraft(t, drafts, "sess_123")
	svc := newTestService(testCart(), testCatalog(), testPayment(), drafts, &MockOrders{})

	_, err := svc.Reconcile(context.Background(), "user1", "sess_123")
	require.NoError(t, err)

	// A late duplicate callback finds no draft
	_, err = svc.Reconcile(context.Background(), "user1", "sess_123")
	assert.ErrorIs(t, err, ErrNoStagedDraft)
}
