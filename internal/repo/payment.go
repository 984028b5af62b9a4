package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_market/internal/models"
)

// setPaymentStatus must run inside a transaction holding the order lock.
func setPaymentStatus(tx *gorm.DB, order *models.Order, to models.PaymentStatus) error {
	from := order.PaymentStatus
	if !models.CanTransitionPayment(from, to) {
		return fmt.Errorf("%w: payment %s -> %s", models.ErrInvalidTransition, from, to)
	}
	now := time.Now().UTC()
	res := tx.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", order.ID, from).
		Updates(map[string]any{"payment_status": to, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: payment status changed concurrently", models.ErrInvalidTransition)
	}
	order.PaymentStatus = to
	order.UpdatedAt = now
	return nil
}

// RecordPayment stores p against the order and moves the order to
// awaiting_verification. check runs on the locked order before anything is
// written. The payment amount is taken from the order.
func (r *GormRepo) RecordPayment(ctx context.Context, orderID uuid.UUID, p *models.Payment, check func(o *models.Order) error) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&order, "id = ?", orderID).Error; err != nil {
			return mapErr(err)
		}
		if err := check(&order); err != nil {
			return err
		}
		if err := setPaymentStatus(tx, &order, models.PaymentStatusAwaitingVerification); err != nil {
			return err
		}
		p.OrderID = order.ID
		p.Amount = order.TotalAmount
		return mapErr(tx.Create(p).Error)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, to models.PaymentStatus) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&order, "id = ?", orderID).Error; err != nil {
			return mapErr(err)
		}
		return setPaymentStatus(tx, &order, to)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListPayments(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var ps []models.Payment
	err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&ps).Error
	return ps, err
}
