package models

import (
	"errors"
	"fmt"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrUnknownStatus = errors.New("unknown status")

// Forward-only. Cancellation is only reachable before the vendor confirms.
var validNextOrder = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:   {OrderStatusConfirmed: true, OrderStatusCancelled: true},
	OrderStatusConfirmed: {OrderStatusPreparing: true},
	OrderStatusPreparing: {OrderStatusReady: true},
	OrderStatusReady:     {OrderStatusDelivered: true},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

var forwardOrder = map[OrderStatus]OrderStatus{
	OrderStatusPending:   OrderStatusConfirmed,
	OrderStatusConfirmed: OrderStatusPreparing,
	OrderStatusPreparing: OrderStatusReady,
	OrderStatusReady:     OrderStatusDelivered,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := validNextOrder[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

func CanTransition(from, to OrderStatus) bool {
	return validNextOrder[from][to]
}

// NextStatus is the single forward action offered for an order in status s.
func NextStatus(s OrderStatus) (OrderStatus, bool) {
	next, ok := forwardOrder[s]
	return next, ok
}

func (s OrderStatus) Terminal() bool {
	next, ok := validNextOrder[s]
	return ok && len(next) == 0
}

type PaymentStatus string

const (
	PaymentStatusPending              PaymentStatus = "pending"
	PaymentStatusAwaitingVerification PaymentStatus = "awaiting_verification"
	PaymentStatusPaid                 PaymentStatus = "paid"
	PaymentStatusFailed               PaymentStatus = "failed"
)

var validNextPayment = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentStatusPending:              {PaymentStatusAwaitingVerification: true},
	PaymentStatusAwaitingVerification: {PaymentStatusPaid: true, PaymentStatusFailed: true},
	PaymentStatusPaid:                 {},
	PaymentStatusFailed:               {},
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	return validNextPayment[from][to]
}
