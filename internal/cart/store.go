// Package cart holds a single user's shopping cart. A cart only ever contains
// products of one vendor.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MaxQuantity bounds a single cart line.
const MaxQuantity = 99

var (
	ErrVendorMismatch  = errors.New("cart already holds items from another vendor")
	ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)
)

type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	VendorID  uuid.UUID `json:"vendor_id"`
}

func (i Item) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Product is what the catalog knows about an item being added.
type Product struct {
	ID       uuid.UUID
	Name     string
	Price    int64
	VendorID uuid.UUID
}

type Store struct {
	mu    sync.Mutex
	items []Item
	p     Persister
}

// Open returns a store backed by p, rehydrated from its last snapshot. Lines
// with an out of range quantity are dropped, and a snapshot mixing vendors is
// discarded.
func Open(ctx context.Context, p Persister) (*Store, error) {
	items, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &Store{items: clean(items), p: p}, nil
}

func clean(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Quantity < 1 || it.Quantity > MaxQuantity {
			continue
		}
		if len(out) > 0 && out[0].VendorID != it.VendorID {
			return nil
		}
		out = append(out, it)
	}
	return out
}

func (s *Store) AddItem(ctx context.Context, prod Product, qty int) error {
	if qty < 1 || qty > MaxQuantity {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) > 0 && s.items[0].VendorID != prod.VendorID {
		return ErrVendorMismatch
	}

	next := s.snapshot()
	found := false
	for i := range next {
		if next[i].ProductID == prod.ID {
			if next[i].Quantity+qty > MaxQuantity {
				return ErrInvalidQuantity
			}
			next[i].Quantity += qty
			found = true
			break
		}
	}
	if !found {
		next = append(next, Item{
			ProductID: prod.ID,
			Name:      prod.Name,
			UnitPrice: prod.Price,
			Quantity:  qty,
			VendorID:  prod.VendorID,
		})
	}
	return s.commit(ctx, next)
}

func (s *Store) RemoveItem(ctx context.Context, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return nil
	}
	next := s.snapshot()
	next = append(next[:idx], next[idx+1:]...)
	return s.commit(ctx, next)
}

// SetQuantity overwrites the quantity of a line. A quantity of zero or less
// removes the line; one above MaxQuantity is rejected.
func (s *Store) SetQuantity(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	if qty > MaxQuantity {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return nil
	}
	next := s.snapshot()
	next[idx].Quantity = qty
	return s.commit(ctx, next)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, nil)
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Total(s.items)
}

// VendorID reports the vendor of the cart, or false when the cart is empty.
func (s *Store) VendorID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return uuid.Nil, false
	}
	return s.items[0].VendorID, true
}

// Total sums the line totals of items.
func Total(items []Item) int64 {
	var sum int64
	for _, it := range items {
		sum += it.LineTotal()
	}
	return sum
}

func (s *Store) indexOf(productID uuid.UUID) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []Item {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// commit persists next and only then makes it the visible state.
func (s *Store) commit(ctx context.Context, next []Item) error {
	if err := s.p.Save(ctx, next); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.items = next
	return nil
}
