package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/boostgg/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo  CartRepository
	cache CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo CartRepository, cache CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, ErrCartNotFound) { // not found cart return empty cart
			return emptyCart(userID), nil
		}
		if errGet != nil {
			return nil, errGet // err from repo is not cache miss, return it
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddToCart increments the quantity of an existing line with the same product
// id, or appends a new line with quantity 1. The full updated list is
// persisted before returning.
func (s *Service) AddToCart(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	cart, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		item.Quantity = 1
		cart.Items = append(cart.Items, item)
	}

	return s.persist(ctx, cart)
}

// RemoveFromCart deletes the line with the given product id. Removing an
// absent id is a no-op.
func (s *Service) RemoveFromCart(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	cart, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i, it := range cart.Items {
		if it.ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return s.persist(ctx, cart)
		}
	}
	return cart, nil
}

func (s *Service) IncreaseQuantity(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	cart, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity++
			return s.persist(ctx, cart)
		}
	}
	return cart, nil
}

// DecreaseQuantity lowers a line's quantity by one and removes the line once
// it reaches zero. The cart never holds a line with quantity below one.
func (s *Service) DecreaseQuantity(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	cart, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID != productID {
			continue
		}
		cart.Items[i].Quantity--
		if cart.Items[i].Quantity <= 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		}
		return s.persist(ctx, cart)
	}
	return cart, nil
}

// RemoveOrdered removes every line whose product id appears in productIDs.
// Used by checkout reconciliation after a successful order creation.
func (s *Service) RemoveOrdered(ctx context.Context, userID string, productIDs []int64) (*domain.Cart, error) {
	cart, err := s.loadForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	ordered := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		ordered[id] = struct{}{}
	}

	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if _, ok := ordered[it.ProductID]; !ok {
			kept = append(kept, it)
		}
	}
	cart.Items = kept

	return s.persist(ctx, cart)
}

func (s *Service) EmptyCart(ctx context.Context, userID string) (*domain.Cart, error) {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, ErrCartNotFound) {
		log.Printf("repo delete cart error: %v \n", errDelete)
		return nil, errDelete
	}

	s.invalidateCache(userID)
	return emptyCart(userID), nil
}

func (s *Service) loadForUpdate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// persist writes the full snapshot through to the repository and drops the
// cache entry so readers never observe a stale cart.
func (s *Service) persist(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo upsert cart error: %v \n", err)
		return nil, err
	}

	s.invalidateCache(cart.UserID)
	return cart, nil
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}

func emptyCart(userID string) *domain.Cart {
	now := time.Now()
	return &domain.Cart{
		UserID:    userID,
		Items:     nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
