package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/mykafka"
	"github.com/Skotchmaster/food_market/internal/repo"
)

var ErrPaymentMethodUnavailable = errors.New("payment method unavailable")

type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

var paymentMethods = []PaymentMethod{
	{ID: "bank_transfer", Name: "Bank Transfer", Description: "Transfer to our bank account", Available: true},
	{ID: "ussd", Name: "USSD Payment", Description: "Pay with your bank USSD code", Available: true},
	{ID: "card", Name: "Debit/Credit Card", Description: "Pay with your card (Coming Soon)"},
	{ID: "mobile_money", Name: "Mobile Money", Description: "Pay with mobile money (Coming Soon)"},
	{ID: "cash_on_delivery", Name: "Cash on Delivery", Description: "Pay when your order arrives", Available: true},
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewReference builds a payment reference of the form NF_<unix millis>_<9 base36 chars>.
func NewReference(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return "NF_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}

type PaymentService struct {
	Repo   *repo.GormRepo
	Events EventSink
}

func (s *PaymentService) Methods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

func lookupMethod(id string) (PaymentMethod, error) {
	for _, m := range paymentMethods {
		if m.ID != id {
			continue
		}
		if !m.Available {
			return m, fmt.Errorf("%w: %w: %s", ErrValidation, ErrPaymentMethodUnavailable, id)
		}
		return m, nil
	}
	return PaymentMethod{}, fmt.Errorf("%w: unknown payment method %q", ErrValidation, id)
}

// Submit records a payment for the customer's own order and marks it
// awaiting verification.
func (s *PaymentService) Submit(ctx context.Context, userID, orderID uuid.UUID, method string) (*models.Order, *models.Payment, error) {
	m, err := lookupMethod(method)
	if err != nil {
		return nil, nil, err
	}

	p := &models.Payment{Method: m.ID, Reference: NewReference(time.Now())}
	order, err := s.Repo.RecordPayment(ctx, orderID, p, func(o *models.Order) error {
		if o.UserID != userID {
			return fmt.Errorf("%w: order", ErrNotFound)
		}
		if o.Status == models.OrderStatusCancelled {
			return fmt.Errorf("%w: order is cancelled", ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, nil, notFound(err, "order")
	}

	s.Events.emit(ctx, mykafka.EventPaymentSubmitted, order.ID.String(), mykafka.PaymentPayload{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Method:        p.Method,
		Reference:     p.Reference,
		Amount:        p.Amount,
		PaymentStatus: string(order.PaymentStatus),
	})
	return order, p, nil
}

// Verify settles a submitted payment as paid or failed.
func (s *PaymentService) Verify(ctx context.Context, orderID uuid.UUID, paid bool) (*models.Order, error) {
	to := models.PaymentStatusFailed
	if paid {
		to = models.PaymentStatusPaid
	}
	order, err := s.Repo.SetPaymentStatus(ctx, orderID, to)
	if err != nil {
		return nil, notFound(err, "order")
	}

	s.Events.emit(ctx, mykafka.EventPaymentVerified, order.ID.String(), mykafka.PaymentPayload{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Amount:        order.TotalAmount,
		PaymentStatus: string(order.PaymentStatus),
	})
	return order, nil
}
