package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/boostgg/storefront/internal/orders"
	"github.com/google/uuid"
)

type OrderAdmin interface {
	ListOrders(ctx context.Context, f orders.Filter) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	AssignOrder(ctx context.Context, id uuid.UUID, skillmasterID string) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

type UserLister interface {
	List(ctx context.Context) ([]*domain.User, error)
}

// BoardRemover takes a listing off the claim board after an out-of-band
// assignment or deletion.
type BoardRemover interface {
	Remove(orderID uuid.UUID)
}

// AdminHandler backs the dashboard: full order listings, status control,
// manual assignment, and the user roster.
type AdminHandler struct {
	orders  OrderAdmin
	users   UserLister
	board   BoardRemover
	timeout time.Duration
}

func NewAdminHandler(orders OrderAdmin, users UserLister, board BoardRemover, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		orders:  orders,
		users:   users,
		board:   board,
		timeout: timeout,
	}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type AssignRequestDTO struct {
	SkillmasterID string `json:"skillmaster_id"`
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f := orders.Filter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		UserID: r.URL.Query().Get("user_id"),
	}
	if f.Status != "" && !f.Status.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	list, err := h.orders.ListOrders(ctx, f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load orders")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	status := domain.OrderStatus(req.Status)
	if !status.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	err := h.orders.UpdateOrderStatus(ctx, orderID, status)
	if errors.Is(err, orders.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update status")
		return
	}

	if status == domain.OrderStatusCancelled {
		h.board.Remove(orderID)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *AdminHandler) AssignOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req AssignRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SkillmasterID == "" {
		respondError(w, http.StatusBadRequest, "invalid_skillmaster_id", "skillmaster_id is required")
		return
	}

	err := h.orders.AssignOrder(ctx, orderID, req.SkillmasterID)
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

	// Manual assignment bypasses the claim board
	h.board.Remove(orderID)

	respondJSON(w, http.StatusOK, map[string]string{"skillmaster_id": req.SkillmasterID})
}

func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	err := h.orders.DeleteOrder(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete order")
		return
	}

	h.board.Remove(orderID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.users.List(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load users")
		return
	}

	respondJSON(w, http.StatusOK, list)
}
