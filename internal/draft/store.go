// Package draft holds the staged order draft written immediately before the
// user is redirected to the hosted payment flow. Drafts carry a TTL matching
// the payment provider's session lifetime, so a stale session id can never be
// replayed after expiry.
package draft

import (
	"context"
	"errors"
	"time"

	"github.com/boostgg/storefront/internal/domain"
)

var ErrDraftNotFound = errors.New("staged draft not found")

// DraftTTL bounds how long a checkout attempt may stay pending.
const DraftTTL = 30 * time.Minute

type Store interface {
	Stage(ctx context.Context, userID string, d *domain.StagedOrderDraft) error
	Load(ctx context.Context, userID string) (*domain.StagedOrderDraft, error)
	Delete(ctx context.Context, userID string) error
}
