package cart

import (
	"context"
	"errors"

	"github.com/boostgg/storefront/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository defines the interface for cart persistence.
// Consumers define this interface, not the MongoDB implementation.
// The service persists the full cart snapshot on every mutation, so the
// repository surface is a plain get/upsert/delete.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}
