package skillmaster

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// OrderCreatedEvent mirrors the Kafka payload the orders outbox publishes
// on the order-events topic.
type OrderCreatedEvent struct {
	OrderID     string  `json:"order_id"`
	UserID      string  `json:"user_id"`
	Status      string  `json:"status"`
	PlatformID  int64   `json:"platform_id"`
	ProductIDs  []int64 `json:"product_ids"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
}

type Consumer struct {
	board  *Board
	reader *kafka.Reader
}

func NewConsumer(board *Board, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-events",
		GroupID:  "skillmaster-board",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{board, reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	c.handleMessage(m.Value)
}

func (c *Consumer) handleMessage(value []byte) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("error parsing message: %v", err)
		return
	}

	// Only freshly created orders go on the board
	if event.Status != "open" {
		return
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		log.Printf("invalid order_id %q: %v", event.OrderID, err)
		return
	}

	listing := &Listing{
		OrderID:     orderID,
		UserID:      event.UserID,
		PlatformID:  event.PlatformID,
		ProductIDs:  event.ProductIDs,
		TotalAmount: event.TotalAmount,
		Currency:    event.Currency,
	}

	if err := c.board.Post(listing); err != nil {
		if errors.Is(err, ErrAlreadyPosted) {
			// Redelivery, the board already has it
			return
		}
		log.Printf("failed to post order %s to board: %v", event.OrderID, err)
		return
	}

	log.Printf("order %s posted to skillmaster board", event.OrderID)
}
