package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitFillsIDAndTimestamp(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store)

	confidence := 0.7
	err := pub.Emit(context.Background(), Event{
		ClientIP:   "203.0.113.9",
		Browser:    "Firefox/131.0",
		Decision:   DecisionAdmitted,
		Confidence: &confidence,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, DecisionAdmitted, got.Decision)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 0.7, *got.Confidence, 1e-9)
}

func TestEmitKeepsCallerTimestamp(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store)

	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	err := pub.Emit(context.Background(), Event{
		ID:        id,
		Timestamp: ts,
		Decision:  DecisionDenied,
		Reason:    "challenge check failed",
	})
	require.NoError(t, err)

	events, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.True(t, events[0].Timestamp.Equal(ts))
}

func TestChannelPublisherFeedsWorker(t *testing.T) {
	store := NewMemoryStore()
	inbox := make(chan Event, 4)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = worker.Run(ctx)
	}()

	pub := NewChannelPublisher(inbox)
	require.NoError(t, pub.Emit(context.Background(), Event{
		ClientIP: "203.0.113.9",
		Decision: DecisionDenied,
		Reason:   "challenge check failed",
	}))

	require.Eventually(t, func() bool {
		events, err := store.List(context.Background())
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, DecisionDenied, events[0].Decision)
}

func TestChannelPublisherDropsWhenInboxFull(t *testing.T) {
	inbox := make(chan Event, 1)
	pub := NewChannelPublisher(inbox)

	require.NoError(t, pub.Emit(context.Background(), Event{Decision: DecisionAdmitted}))
	err := pub.Emit(context.Background(), Event{Decision: DecisionAdmitted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inbox full")
}

func TestWorkerDrainsInbox(t *testing.T) {
	store := NewMemoryStore()
	inbox := make(chan Event, 4)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	inbox <- Event{ID: uuid.New(), Decision: DecisionAdmitted}
	inbox <- Event{ID: uuid.New(), Decision: DecisionRejected}

	require.Eventually(t, func() bool {
		events, err := store.List(context.Background())
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
