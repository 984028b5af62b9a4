package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/food_market/internal/checkout"
	"github.com/Skotchmaster/food_market/internal/logging"
	"github.com/Skotchmaster/food_market/internal/mykafka"
	"github.com/Skotchmaster/food_market/internal/repo"
)

var (
	ErrValidation = checkout.ErrValidation // 400
	ErrForbidden  = errors.New("forbidden") // 403
	ErrNotFound   = errors.New("not found") // 404
	ErrConflict   = errors.New("conflict")  // 409

	// ErrCartNotCleared comes with a stored order whose cart still holds items.
	ErrCartNotCleared = errors.New("order placed but cart was not cleared")
)

func notFound(err error, what string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// Publisher sends domain events. Failures never fail the caller.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// EventSink publishes envelopes to one topic. A zero EventSink drops events.
type EventSink struct {
	Pub      Publisher
	Topic    string
	Producer string
}

func (e EventSink) emit(ctx context.Context, eventType, key string, payload any) {
	if e.Pub == nil {
		return
	}
	l := logging.FromContext(ctx)
	env, err := mykafka.NewEnvelope(eventType, e.Producer, payload)
	if err != nil {
		l.Error("event_encode_failed", "event", eventType, "error", err)
		return
	}
	if err := e.Pub.PublishEvent(ctx, e.Topic, key, env); err != nil {
		l.Warn("event_publish_failed", "event", eventType, "key", key, "error", err)
	}
}
