package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/boostgg/storefront/internal/orders"
	"github.com/boostgg/storefront/internal/skillmaster"
	"github.com/google/uuid"
)

type ClaimBoard interface {
	List() []skillmaster.Listing
	Claim(orderID uuid.UUID, skillmasterID string) (*skillmaster.Claim, error)
	Confirm(orderID uuid.UUID, skillmasterID string) error
	Release(orderID uuid.UUID, skillmasterID string) error
}

type OrderAssignment interface {
	AssignOrder(ctx context.Context, id uuid.UUID, skillmasterID string) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

// SkillmasterHandler serves the claim board. Claiming is in-memory and
// temporary; accepting persists the assignment and takes the listing off
// the board.
type SkillmasterHandler struct {
	board   ClaimBoard
	orders  OrderAssignment
	timeout time.Duration
}

func NewSkillmasterHandler(board ClaimBoard, orders OrderAssignment, timeout time.Duration) *SkillmasterHandler {
	return &SkillmasterHandler{
		board:   board,
		orders:  orders,
		timeout: timeout,
	}
}

func (h *SkillmasterHandler) ListBoard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.board.List())
}

func (h *SkillmasterHandler) ClaimOrder(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	claim, err := h.board.Claim(orderID, user.ID.String())
	if errors.Is(err, skillmaster.ErrListingNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "listing not found")
		return
	}
	if errors.Is(err, skillmaster.ErrAlreadyClaimed) {
		respondError(w, http.StatusConflict, "already_claimed", "listing is claimed by another skillmaster")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to claim listing")
		return
	}

	respondJSON(w, http.StatusCreated, claim)
}

// AcceptOrder persists the assignment for a claimed listing and removes it
// from the board.
func (h *SkillmasterHandler) AcceptOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	// Durable assignment first, then the board; if the order was taken
	// elsewhere the claim stays and the error explains why
	err := h.orders.AssignOrder(ctx, orderID, user.ID.String())
	if errors.Is(err, orders.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if errors.Is(err, orders.ErrNotAssignable) {
		respondError(w, http.StatusConflict, "not_assignable", "order is not open for assignment")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to assign order")
		return
	}

	if err := h.board.Confirm(orderID, user.ID.String()); err != nil {
		h.respondClaimError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"order_id": orderID.String(), "skillmaster_id": user.ID.String()})
}

func (h *SkillmasterHandler) ReleaseOrder(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	if err := h.board.Release(orderID, user.ID.String()); err != nil {
		h.respondClaimError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// CompleteOrder marks an assigned order finished. Only the assigned
// skillmaster can complete it.
func (h *SkillmasterHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := userFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	if order.SkillmasterID != user.ID.String() {
		respondError(w, http.StatusForbidden, "permission_denied", "order is assigned to another skillmaster")
		return
	}

	if err := h.orders.UpdateOrderStatus(ctx, orderID, domain.OrderStatusCompleted); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to complete order")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": string(domain.OrderStatusCompleted)})
}

func (h *SkillmasterHandler) respondClaimError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, skillmaster.ErrClaimNotFound):
		respondError(w, http.StatusNotFound, "claim_not_found", "no active claim for this listing")
	case errors.Is(err, skillmaster.ErrClaimExpired):
		respondError(w, http.StatusGone, "claim_expired", "claim has expired")
	case errors.Is(err, skillmaster.ErrNotClaimHolder):
		respondError(w, http.StatusForbidden, "permission_denied", "claim held by another skillmaster")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "board operation failed")
	}
}
