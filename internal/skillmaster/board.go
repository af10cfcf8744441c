// Package skillmaster runs the claim board where boosters pick up open
// orders. Listings arrive from the order-events topic; a claim holds a
// listing for one skillmaster until confirmed, released, or expired. The
// durable assignment lives in the orders table, the board only coordinates
// who gets to take it.
package skillmaster

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// ClaimTTL is how long a claim is held before auto-expiring
	ClaimTTL = 15 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = 30 * time.Second
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrAlreadyPosted   = errors.New("order already posted")
	ErrAlreadyClaimed  = errors.New("listing already claimed")
	ErrClaimNotFound   = errors.New("claim not found")
	ErrClaimExpired    = errors.New("claim has expired")
	ErrNotClaimHolder  = errors.New("claim held by another skillmaster")
)

// Listing is an open order offered on the board.
type Listing struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      string    `json:"user_id"`
	PlatformID  int64     `json:"platform_id"`
	ProductIDs  []int64   `json:"product_ids"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	PostedAt    time.Time `json:"posted_at"`
}

// Claim holds a listing for a single skillmaster until it expires.
type Claim struct {
	OrderID       uuid.UUID `json:"order_id"`
	SkillmasterID string    `json:"skillmaster_id"`
	ClaimedAt     time.Time `json:"claimed_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (c *Claim) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Board implements the claim board with in-memory storage
type Board struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]*Listing // orderID -> listing
	claims   map[uuid.UUID]*Claim   // orderID -> active claim

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewBoard creates a board and starts the claim-expiry goroutine
func NewBoard() *Board {
	b := &Board{
		listings:    make(map[uuid.UUID]*Listing),
		claims:      make(map[uuid.UUID]*Claim),
		stopCleanup: make(chan struct{}),
	}

	b.wg.Add(1)
	go b.cleanupLoop()

	return b
}

func (b *Board) cleanupLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.expireClaims()
		case <-b.stopCleanup:
			return
		}
	}
}

// expireClaims drops claims past their TTL so the listing reopens
func (b *Board) expireClaims() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for orderID, claim := range b.claims {
		if claim.IsExpired() {
			delete(b.claims, orderID)
		}
	}
}

// Post offers a new order on the board
func (b *Board) Post(listing *Listing) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.listings[listing.OrderID]; exists {
		return ErrAlreadyPosted
	}

	if listing.PostedAt.IsZero() {
		listing.PostedAt = time.Now()
	}
	b.listings[listing.OrderID] = listing
	return nil
}

// List returns the listings nobody currently holds a claim on
func (b *Board) List() []Listing {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Listing, 0, len(b.listings))
	for orderID, listing := range b.listings {
		if claim, claimed := b.claims[orderID]; claimed && !claim.IsExpired() {
			continue
		}
		result = append(result, *listing)
	}
	return result
}

// Claim holds a listing for the given skillmaster
func (b *Board) Claim(orderID uuid.UUID, skillmasterID string) (*Claim, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.listings[orderID]; !exists {
		return nil, ErrListingNotFound
	}

	if existing, claimed := b.claims[orderID]; claimed && !existing.IsExpired() {
		if existing.SkillmasterID == skillmasterID {
			return existing, nil
		}
		return nil, ErrAlreadyClaimed
	}

	now := time.Now()
	claim := &Claim{
		OrderID:       orderID,
		SkillmasterID: skillmasterID,
		ClaimedAt:     now,
		ExpiresAt:     now.Add(ClaimTTL),
	}

	b.claims[orderID] = claim
	return claim, nil
}

// Confirm finalizes a claim and removes the listing from the board.
// The caller persists the assignment before confirming.
func (b *Board) Confirm(orderID uuid.UUID, skillmasterID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	claim, exists := b.claims[orderID]
	if !exists {
		return ErrClaimNotFound
	}

	if claim.SkillmasterID != skillmasterID {
		return ErrNotClaimHolder
	}

	if claim.IsExpired() {
		return ErrClaimExpired
	}

	delete(b.claims, orderID)
	delete(b.listings, orderID)
	return nil
}

// Release gives up a claim, returning the listing to the open pool
func (b *Board) Release(orderID uuid.UUID, skillmasterID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	claim, exists := b.claims[orderID]
	if !exists {
		return ErrClaimNotFound
	}

	if claim.SkillmasterID != skillmasterID {
		return ErrNotClaimHolder
	}

	delete(b.claims, orderID)
	return nil
}

// Remove takes a listing off the board regardless of claims, for orders
// cancelled or assigned outside the board
func (b *Board) Remove(orderID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.claims, orderID)
	delete(b.listings, orderID)
}

// Close stops the background cleanup and waits for it to finish
func (b *Board) Close() error {
	close(b.stopCleanup)
	b.wg.Wait()
	return nil
}
