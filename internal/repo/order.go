package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/role"
)

// CreateOrder writes the order and all of its items in one transaction.
// Either every row is stored or none is.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return mapErr(err)
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if len(order.Items) == 0 {
			return nil
		}
		if err := tx.Create(&order.Items).Error; err != nil {
			return mapErr(err)
		}
		return nil
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrdersByVendors returns orders placed with any of vendorIDs, optionally
// filtered by status.
func (r *GormRepo) ListOrdersByVendors(ctx context.Context, vendorIDs []uuid.UUID, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	if len(vendorIDs) == 0 {
		return nil, nil
	}
	q := r.DB.WithContext(ctx).Preload("Items").Where("vendor_id IN ?", vendorIDs)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []models.Order
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

type Actor struct {
	ID   uuid.UUID
	Role role.Role
}

// DecideFunc inspects the locked order and returns the status it should move
// to. Returning an error aborts the transaction.
type DecideFunc func(o *models.Order) (models.OrderStatus, error)

// TransitionStatus moves an order to the status chosen by decide. The order
// row is locked for the duration and the move is rejected unless it is a legal
// transition from the current status. Every accepted move is recorded as an
// OrderStatusEvent.
func (r *GormRepo) TransitionStatus(ctx context.Context, orderID uuid.UUID, actor Actor, decide DecideFunc) (*models.Order, models.OrderStatus, error) {
	var (
		order models.Order
		from  models.OrderStatus
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&order, "id = ?", orderID).Error; err != nil {
			return mapErr(err)
		}

		to, err := decide(&order)
		if err != nil {
			return err
		}
		from = order.Status
		if !models.CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, from).
			Updates(map[string]any{"status": to, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: status changed concurrently", models.ErrInvalidTransition)
		}

		ev := models.OrderStatusEvent{
			OrderID:    orderID,
			FromStatus: from,
			ToStatus:   to,
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
		}
		if err := tx.Create(&ev).Error; err != nil {
			return err
		}

		order.Status = to
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &order, from, nil
}

func (r *GormRepo) ListStatusEvents(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error) {
	var events []models.OrderStatusEvent
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
