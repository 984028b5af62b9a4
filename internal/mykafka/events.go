package mykafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventPaymentSubmitted   = "payment_submitted"
	EventPaymentVerified    = "payment_verified"
)

type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, producer string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:    uuid.New(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Producer:   producer,
		Payload:    b,
	}, nil
}

type OrderCreatedPayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	TotalAmount int64     `json:"total_amount"`
	Items       int       `json:"items"`
}

type OrderStatusChangedPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorRole string    `json:"actor_role"`
}

type PaymentPayload struct {
	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	Method        string    `json:"method,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	Amount        int64     `json:"amount"`
	PaymentStatus string    `json:"payment_status"`
}

func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
