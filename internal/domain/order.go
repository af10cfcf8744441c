package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusOpen       OrderStatus = "open"
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusAssigned, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID               uuid.UUID   `json:"id"`
	UserID           string      `json:"user_id"`
	Status           OrderStatus `json:"status"`
	PaymentSessionID string      `json:"payment_session_id"`
	PlatformID       int64       `json:"platform_id"`
	// ProductIDs is flattened: a line with quantity 3 contributes its id 3 times.
	ProductIDs  []int64         `json:"product_ids"`
	OrderData   json.RawMessage `json:"order_data"`
	Promotion   string          `json:"promotion,omitempty"`
	Subplatform string          `json:"subplatform,omitempty"`
	// SkillmasterID is empty until the order is assigned.
	SkillmasterID string    `json:"skillmaster_id,omitempty"`
	TotalAmount   float64   `json:"total_amount"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
