package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/food_market/internal/checkout"
	"github.com/Skotchmaster/food_market/internal/logging"
	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/mykafka"
	"github.com/Skotchmaster/food_market/internal/repo"
	"github.com/Skotchmaster/food_market/internal/role"
	"github.com/Skotchmaster/food_market/internal/util"
)

const (
	keyIdemCheckout = "idem:checkout:%s:%s"
	idemInFlight    = "pending"
)

type OrderService struct {
	Repo    *repo.GormRepo
	Carts   CartOpener
	Idem    *redis.Client
	IdemTTL time.Duration
	Events  EventSink
}

type Actor = repo.Actor

// Checkout turns the user's cart into an order. With a non-empty
// idempotency key a repeated call returns the order created by the first one
// and replayed is true. When the order was stored but the cart could not be
// emptied, both the order and ErrCartNotCleared are returned.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, d checkout.Details, idemKey string) (order *models.Order, replayed bool, err error) {
	if idemKey != "" && s.Idem != nil {
		key := fmt.Sprintf(keyIdemCheckout, userID, idemKey)
		var first bool
		first, err = s.Idem.SetNX(ctx, key, idemInFlight, s.IdemTTL).Result()
		if err != nil {
			return nil, false, fmt.Errorf("idempotency: %w", err)
		}
		if !first {
			return s.replay(ctx, userID, key)
		}
		defer func() {
			if order == nil {
				_ = s.Idem.Del(context.WithoutCancel(ctx), key).Err()
				return
			}
			_ = s.Idem.Set(context.WithoutCancel(ctx), key, order.ID.String(), s.IdemTTL).Err()
		}()
	}

	order, err = s.placeOrder(ctx, userID, d)
	return order, false, err
}

func (s *OrderService) replay(ctx context.Context, userID uuid.UUID, key string) (*models.Order, bool, error) {
	val, err := s.Idem.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("%w: checkout retry raced with a failed attempt", ErrConflict)
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency: %w", err)
	}
	if val == idemInFlight {
		return nil, false, fmt.Errorf("%w: checkout already in progress", ErrConflict)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return nil, false, fmt.Errorf("idempotency: stored value %q: %w", val, err)
	}
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if o.UserID != userID {
		return nil, false, ErrConflict
	}
	return o, true, nil
}

func (s *OrderService) placeOrder(ctx context.Context, userID uuid.UUID, d checkout.Details) (*models.Order, error) {
	l := logging.FromContext(ctx)

	store, err := s.Carts(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := store.Items()
	vendorID, ok := store.VendorID()
	if !ok {
		return nil, checkout.ErrEmptyCart
	}

	vendor, err := s.Repo.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, notFound(err, "vendor")
	}
	if !vendor.IsActive {
		return nil, fmt.Errorf("%w: vendor is not accepting orders", ErrValidation)
	}
	for _, it := range items {
		p, err := s.Repo.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, notFound(err, "product "+it.ProductID.String())
		}
		if !p.IsAvailable || p.VendorID != vendorID {
			return nil, fmt.Errorf("%w: %s is no longer available", ErrValidation, it.Name)
		}
	}

	res, err := checkout.Validate(items, checkout.VendorTerms{
		DeliveryFee: vendor.DeliveryFee,
		MinOrder:    vendor.MinOrder,
	}, d)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		VendorID:        vendorID,
		TotalAmount:     res.Total,
		DeliveryFee:     res.DeliveryFee,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryAddress: res.Details.DeliveryAddress,
		Phone:           res.Details.Phone,
		Notes:           res.Details.Notes,
		Items:           make([]models.OrderItem, 0, len(items)),
	}
	for _, it := range items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:  it.ProductID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.LineTotal(),
		})
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var clearErr error
	if err := store.Clear(ctx); err != nil {
		l.Warn("cart_clear_failed", "order_id", order.ID, "attempt", 1, "error", err)
		if clearErr = store.Clear(ctx); clearErr != nil {
			l.Error("cart_clear_failed", "order_id", order.ID, "attempt", 2, "error", clearErr)
			clearErr = fmt.Errorf("%w: %w", ErrCartNotCleared, clearErr)
		}
	}

	s.Events.emit(ctx, mykafka.EventOrderCreated, order.ID.String(), mykafka.OrderCreatedPayload{
		OrderID:     order.ID,
		UserID:      order.UserID,
		VendorID:    order.VendorID,
		TotalAmount: order.TotalAmount,
		Items:       len(order.Items),
	})
	return order, clearErr
}

// canSee reports whether actor may read the order.
func (s *OrderService) canSee(ctx context.Context, actor Actor, o *models.Order) (bool, error) {
	switch actor.Role {
	case role.Admin:
		return true, nil
	case role.Vendor:
		owned, err := s.Repo.VendorsOwnedBy(ctx, actor.ID)
		if err != nil {
			return false, err
		}
		return containsID(owned, o.VendorID) || o.UserID == actor.ID, nil
	case role.Customer:
		return o.UserID == actor.ID, nil
	}
	return false, fmt.Errorf("%w: %w", ErrForbidden, role.ErrUnknown)
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	ok, err := s.canSee(ctx, actor, o)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	return o, nil
}

func (s *OrderService) History(ctx context.Context, actor Actor, id uuid.UUID) ([]models.OrderStatusEvent, error) {
	if _, err := s.GetOrder(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.Repo.ListStatusEvents(ctx, id)
}

// Payments lists the payments submitted for an order the actor can see.
func (s *OrderService) Payments(ctx context.Context, actor Actor, id uuid.UUID) ([]models.Payment, error) {
	if _, err := s.GetOrder(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.Repo.ListPayments(ctx, id)
}

func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, error) {
	pg := util.Paginate(page, size)
	orders, err := s.Repo.ListOrdersByUser(ctx, userID, pg.Size, pg.Offset())
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ListForVendor returns the orders of every vendor owned by the actor.
func (s *OrderService) ListForVendor(ctx context.Context, ownerID uuid.UUID, status string, page, size int) ([]models.Order, error) {
	var st models.OrderStatus
	if status != "" {
		var err error
		if st, err = models.ParseOrderStatus(status); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	owned, err := s.Repo.VendorsOwnedBy(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	pg := util.Paginate(page, size)
	orders, err := s.Repo.ListOrdersByVendors(ctx, owned, st, pg.Size, pg.Offset())
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ChangeStatus moves an order to the requested status on behalf of actor.
func (s *OrderService) ChangeStatus(ctx context.Context, actor Actor, orderID uuid.UUID, to string) (*models.Order, error) {
	target, err := models.ParseOrderStatus(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return s.transition(ctx, actor, orderID, func(*models.Order) (models.OrderStatus, error) {
		return target, nil
	})
}

// Advance applies the single forward action for the order's current status.
func (s *OrderService) Advance(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, actor, orderID, func(o *models.Order) (models.OrderStatus, error) {
		if o.Status.Terminal() {
			return "", fmt.Errorf("%w: %s is final", models.ErrInvalidTransition, o.Status)
		}
		next, ok := models.NextStatus(o.Status)
		if !ok {
			return "", fmt.Errorf("%w: %s", models.ErrUnknownStatus, o.Status)
		}
		return next, nil
	})
}

func (s *OrderService) transition(ctx context.Context, actor Actor, orderID uuid.UUID, target func(*models.Order) (models.OrderStatus, error)) (*models.Order, error) {
	var owned []uuid.UUID
	if actor.Role == role.Vendor {
		var err error
		if owned, err = s.Repo.VendorsOwnedBy(ctx, actor.ID); err != nil {
			return nil, err
		}
	}

	order, from, err := s.Repo.TransitionStatus(ctx, orderID, actor, func(o *models.Order) (models.OrderStatus, error) {
		to, err := target(o)
		if err != nil {
			return "", err
		}
		if err := authorizeTransition(actor, owned, o, to); err != nil {
			return "", err
		}
		return to, nil
	})
	if err != nil {
		return nil, notFound(err, "order")
	}

	s.Events.emit(ctx, mykafka.EventOrderStatusChanged, order.ID.String(), mykafka.OrderStatusChangedPayload{
		OrderID:   order.ID,
		UserID:    order.UserID,
		VendorID:  order.VendorID,
		From:      string(from),
		To:        string(order.Status),
		ActorRole: string(actor.Role),
	})
	return order, nil
}

// authorizeTransition decides who may request a move. Whether the move itself
// is legal is checked by the repository.
func authorizeTransition(actor Actor, ownedVendors []uuid.UUID, o *models.Order, to models.OrderStatus) error {
	switch actor.Role {
	case role.Admin:
		return nil
	case role.Vendor:
		if containsID(ownedVendors, o.VendorID) {
			return nil
		}
		if o.UserID == actor.ID && to == models.OrderStatusCancelled {
			return nil
		}
		return fmt.Errorf("%w: order belongs to another vendor", ErrForbidden)
	case role.Customer:
		if o.UserID != actor.ID {
			return fmt.Errorf("%w: not your order", ErrForbidden)
		}
		if to != models.OrderStatusCancelled {
			return fmt.Errorf("%w: customers may only cancel", ErrForbidden)
		}
		return nil
	}
	return fmt.Errorf("%w: %w", ErrForbidden, role.ErrUnknown)
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
