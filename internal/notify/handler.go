// Package notify tells customers about their orders as events arrive.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/mykafka"
)

const keyDedup = "dedup:notifier:%s"

type Profiles interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type Handler struct {
	Sender   Sender
	Profiles Profiles
	// Dedup, when set, suppresses repeated deliveries of one event.
	Dedup    *redis.Client
	DedupTTL time.Duration
	Log      *slog.Logger
}

func (h *Handler) Handle(ctx context.Context, m kafka.Message) error {
	var env mykafka.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		h.Log.Warn("event_malformed", "offset", m.Offset, "error", err)
		return nil
	}

	msg, userID, ok, err := h.compose(env)
	if err != nil {
		h.Log.Warn("event_payload_malformed", "event_id", env.EventID, "type", env.EventType, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	if h.Dedup != nil {
		first, err := h.Dedup.SetNX(ctx, fmt.Sprintf(keyDedup, env.EventID), 1, h.DedupTTL).Result()
		if err != nil {
			return fmt.Errorf("dedup: %w", err)
		}
		if !first {
			return nil
		}
	}

	if err := h.deliver(ctx, userID, msg); err != nil {
		if h.Dedup != nil {
			_ = h.Dedup.Del(ctx, fmt.Sprintf(keyDedup, env.EventID)).Err()
		}
		return err
	}
	h.Log.Info("notification_sent", "event_id", env.EventID, "type", env.EventType, "user_id", userID)
	return nil
}

func (h *Handler) deliver(ctx context.Context, userID uuid.UUID, msg Message) error {
	p, err := h.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("recipient %s: %w", userID, err)
	}
	if p.Email == "" {
		h.Log.Warn("recipient_without_email", "user_id", userID)
		return nil
	}
	msg.To = p.Email
	msg.Name = p.FullName
	return h.Sender.Send(ctx, msg)
}

var errSkip = errors.New("skip")

// compose renders the message for an event. ok is false for events that do
// not notify anyone.
func (h *Handler) compose(env mykafka.Envelope) (Message, uuid.UUID, bool, error) {
	short := func(id uuid.UUID) string { return id.String()[:8] }

	switch env.EventType {
	case mykafka.EventOrderCreated:
		p, err := mykafka.UnwrapPayload[mykafka.OrderCreatedPayload](env.Payload)
		if err != nil {
			return Message{}, uuid.Nil, false, err
		}
		return Message{
			Subject: fmt.Sprintf("Order %s received", short(p.OrderID)),
			Body:    fmt.Sprintf("We received your order of %d item(s). Total: %s.", p.Items, money(p.TotalAmount)),
		}, p.UserID, true, nil

	case mykafka.EventOrderStatusChanged:
		p, err := mykafka.UnwrapPayload[mykafka.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return Message{}, uuid.Nil, false, err
		}
		body, err := statusLine(models.OrderStatus(p.To))
		if errors.Is(err, errSkip) {
			return Message{}, uuid.Nil, false, nil
		}
		if err != nil {
			return Message{}, uuid.Nil, false, err
		}
		return Message{
			Subject: fmt.Sprintf("Order %s is %s", short(p.OrderID), p.To),
			Body:    body,
		}, p.UserID, true, nil

	case mykafka.EventPaymentVerified:
		p, err := mykafka.UnwrapPayload[mykafka.PaymentPayload](env.Payload)
		if err != nil {
			return Message{}, uuid.Nil, false, err
		}
		body := "Your payment was confirmed."
		if models.PaymentStatus(p.PaymentStatus) == models.PaymentStatusFailed {
			body = "We could not confirm your payment. Please contact support."
		}
		return Message{
			Subject: fmt.Sprintf("Payment for order %s", short(p.OrderID)),
			Body:    body,
		}, p.UserID, true, nil
	}
	return Message{}, uuid.Nil, false, nil
}

func statusLine(s models.OrderStatus) (string, error) {
	switch s {
	case models.OrderStatusConfirmed:
		return "The vendor confirmed your order.", nil
	case models.OrderStatusPreparing:
		return "Your order is being prepared.", nil
	case models.OrderStatusReady:
		return "Your order is ready.", nil
	case models.OrderStatusDelivered:
		return "Your order was delivered. Enjoy!", nil
	case models.OrderStatusCancelled:
		return "Your order was cancelled.", nil
	case models.OrderStatusPending:
		return "", errSkip
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnknownStatus, s)
}

func money(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
