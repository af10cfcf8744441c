package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/boostgg/storefront/internal/checkout"
	"github.com/boostgg/storefront/internal/orders"
	"github.com/google/uuid"
)

type CheckoutService interface {
	Initiate(ctx context.Context, userID, promotion, subplatform string) (*checkout.InitiateResult, error)
	Reconcile(ctx context.Context, userID, sessionID string) (uuid.UUID, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type InitiateRequestDTO struct {
	Promotion   string `json:"promotion"`
	Subplatform string `json:"subplatform"`
}

type InitiateResponseDTO struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type CallbackResponseDTO struct {
	OrderID string `json:"order_id"`
}

// Initiate starts the hosted payment flow: it stages the cart as an order
// draft and hands back the provider redirect.
func (h *CheckoutHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req InitiateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := h.checkout.Initiate(ctx, user.ID.String(), req.Promotion, req.Subplatform)
	if errors.Is(err, checkout.ErrEmptyCart) {
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
		return
	}
	if err != nil {
		log.Printf("checkout initiation failed for request %v: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadGateway, "payment_unavailable", "could not start payment session")
		return
	}

	respondJSON(w, http.StatusCreated, InitiateResponseDTO{
		SessionID:   res.SessionID,
		RedirectURL: res.RedirectURL,
	})
}

// Callback handles the return from the payment provider. The session id in
// the query string must match the staged draft.
func (h *CheckoutHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session_id query parameter is required")
		return
	}

	orderID, err := h.checkout.Reconcile(ctx, user.ID.String(), sessionID)
	if err != nil {
		h.respondReconcileError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CallbackResponseDTO{OrderID: orderID.String()})
}

func (h *CheckoutHandler) respondReconcileError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrNoStagedDraft):
		respondError(w, http.StatusNotFound, "no_staged_draft", "no order draft staged for this user")
	case errors.Is(err, checkout.ErrSessionMismatch):
		respondError(w, http.StatusConflict, "session_mismatch", "returned session does not match the staged draft")
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		respondError(w, http.StatusConflict, "submission_in_progress", "order submission already in progress")
	case errors.Is(err, orders.ErrDuplicateSession):
		respondError(w, http.StatusConflict, "duplicate_session", "order for this payment session already exists")
	default:
		log.Printf("order reconciliation failed for request %v: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusBadGateway, "order_failed", "order creation failed, draft preserved")
	}
}
