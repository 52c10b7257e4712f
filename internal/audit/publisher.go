package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store persists audit events. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}

// Publisher captures structured audit events. It uses the storage layer for
// persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	return p.store.Append(ctx, base)
}

func (p *Publisher) List(ctx context.Context) ([]Event, error) {
	return p.store.List(ctx)
}

// ChannelPublisher hands events to a background Worker through its inbox so
// persistence stays off the request path. Emit never blocks: a full inbox
// drops the event with an error for the caller to log.
type ChannelPublisher struct {
	inbox chan<- Event
}

func NewChannelPublisher(inbox chan<- Event) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox}
}

func (p *ChannelPublisher) Emit(_ context.Context, base Event) error {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	select {
	case p.inbox <- base:
		return nil
	default:
		return errors.New("audit inbox full, event dropped")
	}
}
