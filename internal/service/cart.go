package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/food_market/internal/cart"
	"github.com/Skotchmaster/food_market/internal/repo"
)

// CartOpener returns the persisted cart of a user.
type CartOpener func(ctx context.Context, userID uuid.UUID) (*cart.Store, error)

func RedisCarts(rdb *redis.Client, ttl time.Duration) CartOpener {
	return func(ctx context.Context, userID uuid.UUID) (*cart.Store, error) {
		return cart.Open(ctx, cart.RedisPersister{RDB: rdb, UserID: userID, TTL: ttl})
	}
}

// FileCarts keeps each user's cart as <dir>/<user_id>/cart.json. It is meant
// for single-node runs without Redis.
func FileCarts(dir string) CartOpener {
	return func(ctx context.Context, userID uuid.UUID) (*cart.Store, error) {
		return cart.Open(ctx, cart.FilePersister{Dir: filepath.Join(dir, userID.String())})
	}
}

type CartView struct {
	Items      []cart.Item `json:"items"`
	VendorID   *uuid.UUID  `json:"vendor_id,omitempty"`
	TotalItems int         `json:"total_items"`
	TotalPrice int64       `json:"total_price"`
}

func view(s *cart.Store) *CartView {
	v := &CartView{
		Items:      s.Items(),
		TotalItems: s.TotalItems(),
		TotalPrice: s.TotalPrice(),
	}
	if v.Items == nil {
		v.Items = []cart.Item{}
	}
	if id, ok := s.VendorID(); ok {
		v.VendorID = &id
	}
	return v
}

type CartService struct {
	Repo  *repo.GormRepo
	Carts CartOpener
}

func (svc *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	s, err := svc.Carts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return view(s), nil
}

// AddToCart resolves the product from the catalog so the cart line carries
// the stored price, name and vendor.
func (svc *CartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	p, err := svc.Repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !p.IsAvailable {
		return nil, fmt.Errorf("%w: product is not available", ErrValidation)
	}
	v, err := svc.Repo.GetVendor(ctx, p.VendorID)
	if err != nil {
		return nil, notFound(err, "vendor")
	}
	if !v.IsActive {
		return nil, fmt.Errorf("%w: vendor is not accepting orders", ErrValidation)
	}

	s, err := svc.Carts(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.AddItem(ctx, cart.Product{ID: p.ID, Name: p.Name, Price: p.Price, VendorID: p.VendorID}, qty)
	if errors.Is(err, cart.ErrVendorMismatch) {
		return nil, fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if err != nil {
		return nil, err
	}
	return view(s), nil
}

func (svc *CartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error) {
	s, err := svc.Carts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.SetQuantity(ctx, productID, qty); err != nil {
		return nil, err
	}
	return view(s), nil
}

func (svc *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	s, err := svc.Carts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.RemoveItem(ctx, productID); err != nil {
		return nil, err
	}
	return view(s), nil
}

func (svc *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	s, err := svc.Carts(ctx, userID)
	if err != nil {
		return err
	}
	return s.Clear(ctx)
}
